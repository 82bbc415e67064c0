package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/pkg/config"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type mockAuthRepo struct {
	users map[string]*models.User
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "generated"
	}
	m.users[user.ID] = user
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour}
	return NewAuthService(repo, nil, nil, zap.NewNop(), cfg)
}

func authUser(password string, status models.UserStatus, reveal models.PasswordViewStatus) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           "u1",
		Email:        "jai.std.cs@bitsathy.ac.in",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Status:       status,
		RevealStatus: reveal,
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{users: map[string]*models.User{
		"u1": authUser("stdbitsathy", models.StatusApproved, models.RevealNone),
	}}
	svc := newAuthService(repo)

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "jai.std.cs@bitsathy.ac.in", Password: "stdbitsathy",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	claims, err := svc.ParseToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestAuthServiceLoginStatusGates(t *testing.T) {
	cases := []struct {
		status models.UserStatus
		code   string
	}{
		{models.StatusPending, appErrors.ErrPendingApproval.Code},
		{models.StatusRejected, appErrors.ErrAccessDenied.Code},
	}
	for _, tc := range cases {
		repo := &mockAuthRepo{users: map[string]*models.User{
			"u1": authUser("stdbitsathy", tc.status, models.RevealNone),
		}}
		svc := newAuthService(repo)

		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email: "jai.std.cs@bitsathy.ac.in", Password: "stdbitsathy",
		})
		require.Error(t, err)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, tc.code, appErr.Code, "status %s", tc.status)
	}
}

func TestAuthServiceLoginSurfacesRevealState(t *testing.T) {
	cases := []struct {
		reveal  models.PasswordViewStatus
		message string
	}{
		{models.RevealPending, "awaiting review"},
		{models.RevealApproved, "retrieve it via the reveal petition"},
		{models.RevealRejected, "contact system governance"},
	}
	for _, tc := range cases {
		repo := &mockAuthRepo{users: map[string]*models.User{
			"u1": authUser("changed-elsewhere", models.StatusApproved, tc.reveal),
		}}
		svc := newAuthService(repo)

		// A holder locked out by an external credential change still
		// learns where their petition stands.
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email: "jai.std.cs@bitsathy.ac.in", Password: "stdbitsathy",
		})
		require.Error(t, err)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Message, tc.message, "reveal %s", tc.reveal)
	}
}
