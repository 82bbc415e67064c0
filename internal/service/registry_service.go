package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type registryUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	AssignMentors(ctx context.Context, studentIDs []string, mentorID, mentor2ID string) error
	Delete(ctx context.Context, id string) error
}

type systemRepository interface {
	Purge(ctx context.Context, adminID string) error
}

// PurgeConfirmation is the exact phrase the purge endpoint demands. The
// operation is irreversible; anything else is rejected before any write.
const PurgeConfirmation = "PURGE INSTITUTION DATA"

// RegistryService serves the user directory and the destructive
// whole-registry operations.
type RegistryService struct {
	users  registryUserRepository
	system systemRepository
	logger *zap.Logger
}

// NewRegistryService constructs the registry service.
func NewRegistryService(users registryUserRepository, system systemRepository, logger *zap.Logger) *RegistryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{users: users, system: system, logger: logger}
}

// List returns directory entries and pagination metadata.
func (s *RegistryService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one directory entry.
func (s *RegistryService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return user, nil
}

// Update writes directory-editable fields on an account.
func (s *RegistryService) Update(ctx context.Context, user *models.User) error {
	if _, err := s.Get(ctx, user.ID); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	return nil
}

// AssignMentors links a set of students to a mentor pair.
func (s *RegistryService) AssignMentors(ctx context.Context, studentIDs []string, mentorID, mentor2ID string) error {
	if len(studentIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no students selected")
	}
	if mentorID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "a primary mentor is required")
	}
	if err := s.users.AssignMentors(ctx, studentIDs, mentorID, mentor2ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign mentors")
	}
	s.logger.Info("mentors assigned",
		zap.Int("students", len(studentIDs)),
		zap.String("mentor_id", mentorID))
	return nil
}

// Delete removes one account from the registry.
func (s *RegistryService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	s.logger.Info("account deleted", zap.String("user_id", id))
	return nil
}

// Purge erases the whole institution except the acting administrator. The
// caller must quote the confirmation phrase verbatim.
func (s *RegistryService) Purge(ctx context.Context, adminID, confirmation string) error {
	if confirmation != PurgeConfirmation {
		return appErrors.Clone(appErrors.ErrValidation, "confirmation phrase does not match")
	}
	if err := s.system.Purge(ctx, adminID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge registry")
	}
	s.logger.Warn("institution registry purged", zap.String("admin_id", adminID))
	return nil
}
