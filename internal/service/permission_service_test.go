package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
)

type mockPermissionRepo struct {
	matrix map[models.UserRole]models.PermissionMap
	writes []models.PermissionRow
	err    error
}

func (m *mockPermissionRepo) Matrix(ctx context.Context) (map[models.UserRole]models.PermissionMap, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.matrix, nil
}

func (m *mockPermissionRepo) RoleMap(ctx context.Context, role models.UserRole) (models.PermissionMap, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.matrix[role], nil
}

func (m *mockPermissionRepo) SetLevel(ctx context.Context, role models.UserRole, feature models.Feature, level models.AccessLevel) error {
	if m.matrix == nil {
		m.matrix = make(map[models.UserRole]models.PermissionMap)
	}
	if m.matrix[role] == nil {
		m.matrix[role] = make(models.PermissionMap)
	}
	m.matrix[role][feature] = level
	m.writes = append(m.writes, models.PermissionRow{Role: role, Feature: feature, Level: level})
	return nil
}

func TestPermissionServiceAdminOverride(t *testing.T) {
	// Matrix explicitly locks the admin out of the governance features.
	repo := &mockPermissionRepo{matrix: map[models.UserRole]models.PermissionMap{
		models.RoleAdmin: {
			models.FeatureAccessMatrix:   models.NoAccess,
			models.FeatureUserDirectory:  models.NoAccess,
			models.FeatureCohortRegistry: models.NoAccess,
		},
	}}
	svc := NewPermissionService(repo, zap.NewNop())

	for _, feature := range []models.Feature{models.FeatureAccessMatrix, models.FeatureUserDirectory, models.FeatureCohortRegistry} {
		level, err := svc.Resolve(context.Background(), models.RoleAdmin, ViewAdmin, feature)
		require.NoError(t, err)
		assert.Equal(t, models.EditAll, level, "override must win over the stored cell for %s", feature)
	}

	// Same role outside the admin surface falls back to the matrix.
	level, err := svc.Resolve(context.Background(), models.RoleAdmin, ViewDefault, models.FeatureAccessMatrix)
	require.NoError(t, err)
	assert.Equal(t, models.NoAccess, level)
}

func TestPermissionServiceOverrideScopedToAdminRole(t *testing.T) {
	repo := &mockPermissionRepo{matrix: map[models.UserRole]models.PermissionMap{
		models.RoleDean: {models.FeatureAccessMatrix: models.NoAccess},
	}}
	svc := NewPermissionService(repo, zap.NewNop())

	level, err := svc.Resolve(context.Background(), models.RoleDean, ViewAdmin, models.FeatureAccessMatrix)
	require.NoError(t, err)
	assert.Equal(t, models.NoAccess, level)
}

func TestPermissionServiceHasAccessMatchesResolve(t *testing.T) {
	repo := &mockPermissionRepo{matrix: models.DefaultPermissions()}
	svc := NewPermissionService(repo, zap.NewNop())

	for _, role := range models.AllRoles {
		for _, feature := range models.AllFeatures {
			level, err := svc.Resolve(context.Background(), role, ViewDefault, feature)
			require.NoError(t, err)
			has, err := svc.HasAccess(context.Background(), role, ViewDefault, feature)
			require.NoError(t, err)
			assert.Equal(t, level != models.NoAccess, has, "role=%s feature=%s", role, feature)
		}
	}
}

func TestPermissionServiceMissingCellIsNoAccess(t *testing.T) {
	repo := &mockPermissionRepo{matrix: map[models.UserRole]models.PermissionMap{}}
	svc := NewPermissionService(repo, zap.NewNop())

	level, err := svc.Resolve(context.Background(), models.RoleStudent, ViewDefault, models.FeatureMarkEntry)
	require.NoError(t, err)
	assert.Equal(t, models.NoAccess, level)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	for _, role := range models.AllRoles {
		assert.Len(t, matrix[role], len(models.AllFeatures))
	}
}

func TestPermissionServiceSetLevelRejectsUnknownLevel(t *testing.T) {
	repo := &mockPermissionRepo{}
	svc := NewPermissionService(repo, zap.NewNop())

	err := svc.SetLevel(context.Background(), models.RoleStaff, models.FeatureMarkEntry, models.AccessLevel("SUPER_ACCESS"))
	require.Error(t, err)
	assert.Empty(t, repo.writes)
}

func TestPermissionServiceSeedSkipsExistingRoles(t *testing.T) {
	repo := &mockPermissionRepo{matrix: map[models.UserRole]models.PermissionMap{
		models.RoleAdmin: {models.FeatureAccessMatrix: models.EditAll},
	}}
	svc := NewPermissionService(repo, zap.NewNop())

	require.NoError(t, svc.Seed(context.Background()))
	for _, w := range repo.writes {
		assert.NotEqual(t, models.RoleAdmin, w.Role, "seed must not overwrite an existing role row")
	}
	assert.NotEmpty(t, repo.matrix[models.RoleStudent])
}
