package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type permissionRepository interface {
	Matrix(ctx context.Context) (map[models.UserRole]models.PermissionMap, error)
	RoleMap(ctx context.Context, role models.UserRole) (models.PermissionMap, error)
	SetLevel(ctx context.Context, role models.UserRole, feature models.Feature, level models.AccessLevel) error
}

// ViewContext is the surface a caller is currently operating in. Only an
// administrator inside the ADMIN surface receives the governance override.
type ViewContext string

const (
	ViewAdmin   ViewContext = "ADMIN"
	ViewDefault ViewContext = "DEFAULT"
)

// adminOverrideFeatures are always resolvable for an administrator in the
// ADMIN surface, regardless of the stored matrix. The rule is evaluated
// before any table lookup so no matrix edit can lock governance out.
var adminOverrideFeatures = map[models.Feature]struct{}{
	models.FeatureAccessMatrix:   {},
	models.FeatureUserDirectory:  {},
	models.FeatureCohortRegistry: {},
}

// PermissionService resolves feature grants against the stored matrix.
type PermissionService struct {
	repo   permissionRepository
	logger *zap.Logger
}

// NewPermissionService constructs the permission service.
func NewPermissionService(repo permissionRepository, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{repo: repo, logger: logger}
}

// Resolve returns the effective access level for one (role, feature) pair
// under the given view context.
func (s *PermissionService) Resolve(ctx context.Context, role models.UserRole, view ViewContext, feature models.Feature) (models.AccessLevel, error) {
	if role == models.RoleAdmin && view == ViewAdmin {
		if _, ok := adminOverrideFeatures[feature]; ok {
			return models.EditAll, nil
		}
	}

	roleMap, err := s.repo.RoleMap(ctx, role)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permission row")
	}
	level, ok := roleMap[feature]
	if !ok {
		return models.NoAccess, nil
	}
	return level, nil
}

// HasAccess reports whether the pair resolves to anything above NO_ACCESS.
func (s *PermissionService) HasAccess(ctx context.Context, role models.UserRole, view ViewContext, feature models.Feature) (bool, error) {
	level, err := s.Resolve(ctx, role, view, feature)
	if err != nil {
		return false, err
	}
	return level != models.NoAccess, nil
}

// Matrix returns the full stored matrix, with missing cells filled in as
// NO_ACCESS so every role exposes a complete row.
func (s *PermissionService) Matrix(ctx context.Context) (map[models.UserRole]models.PermissionMap, error) {
	stored, err := s.repo.Matrix(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permission matrix")
	}
	full := make(map[models.UserRole]models.PermissionMap, len(models.AllRoles))
	for _, role := range models.AllRoles {
		row := make(models.PermissionMap, len(models.AllFeatures))
		for _, feature := range models.AllFeatures {
			if level, ok := stored[role][feature]; ok {
				row[feature] = level
			} else {
				row[feature] = models.NoAccess
			}
		}
		full[role] = row
	}
	return full, nil
}

// SetLevel writes one matrix cell. The level must come from the closed set.
func (s *PermissionService) SetLevel(ctx context.Context, role models.UserRole, feature models.Feature, level models.AccessLevel) error {
	if _, ok := models.ValidAccessLevels[level]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown access level")
	}
	if err := s.repo.SetLevel(ctx, role, feature, level); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permission")
	}
	s.logger.Info("permission updated",
		zap.String("role", string(role)),
		zap.String("feature", string(feature)),
		zap.String("level", string(level)))
	return nil
}

// Seed writes the default matrix for any role missing from storage.
func (s *PermissionService) Seed(ctx context.Context) error {
	stored, err := s.repo.Matrix(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permission matrix")
	}
	for role, defaults := range models.DefaultPermissions() {
		if _, ok := stored[role]; ok {
			continue
		}
		for feature, level := range defaults {
			if err := s.repo.SetLevel(ctx, role, feature, level); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed permissions")
			}
		}
		s.logger.Info("permission row seeded", zap.String("role", string(role)))
	}
	return nil
}
