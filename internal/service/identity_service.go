package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/pkg/config"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type identityUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRegNoCode(ctx context.Context, deptCode string) (int, error)
	Create(ctx context.Context, user *models.User) error
}

type sequenceRepository interface {
	Next(ctx context.Context, deptCode string, seed int) (int, error)
}

// deptCodes maps full department names to their register-number codes.
// Unknown departments fall back to the first two letters, uppercased.
var deptCodes = map[string]string{
	"computer science":              "CS",
	"information technology":        "IT",
	"electronics and communication": "EC",
	"electrical and electronics":    "EE",
	"mechanical engineering":        "ME",
	"civil engineering":             "CE",
	"artificial intelligence":       "AD",
	"data science":                  "DS",
	"biotechnology":                 "BT",
	"aeronautical engineering":      "AE",
	"fashion technology":            "FT",
	"food technology":               "FD",
}

// designationRoles maps staff designations to the roles they imply.
var designationRoles = map[string]models.UserRole{
	"head of department":     models.RoleHOD,
	"dean":                   models.RoleDean,
	"associate professor i":  models.RoleAssocProf1,
	"associate professor ii": models.RoleAssocProf2,
}

// Default credentials issued per role at provisioning time.
const (
	defaultStudentCredential = "stdbitsathy"
	defaultHODCredential     = "@hodbitsathy"
	defaultDeanCredential    = "deanbitsathy@"
	defaultStaffCredential   = "stfbitsathy"
)

// NewIdentityRequest is the provisioning payload for one account.
type NewIdentityRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Department  string `json:"department" validate:"required"`
	IsStudent   bool   `json:"is_student"`
	StudyYear   string `json:"study_year"`
	BatchYear   string `json:"batch_year"`
	Designation string `json:"designation"`
	Experience  string `json:"experience"`
}

// IdentityPreview is the derived identity before any write happens.
type IdentityPreview struct {
	Email      string          `json:"email"`
	RegNo      string          `json:"reg_no,omitempty"`
	Role       models.UserRole `json:"role"`
	Credential string          `json:"credential"`
}

// BulkResult reports the per-row outcome of a bulk provisioning call.
type BulkResult struct {
	Created []models.User `json:"created"`
	Skipped []BulkSkip    `json:"skipped"`
}

// BulkSkip names one row that could not be provisioned.
type BulkSkip struct {
	FullName string `json:"full_name"`
	Reason   string `json:"reason"`
}

// IdentityService derives and provisions institutional accounts.
type IdentityService struct {
	users     identityUserRepository
	sequences sequenceRepository
	cfg       config.IdentityConfig
	validator *validator.Validate
	logger    *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIdentityService constructs the identity service.
func NewIdentityService(users identityUserRepository, sequences sequenceRepository, cfg config.IdentityConfig, validate *validator.Validate, logger *zap.Logger) *IdentityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		users:     users,
		sequences: sequences,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// deptLock serialises provisioning per department so register numbers
// stay dense even under concurrent bulk calls.
func (s *IdentityService) deptLock(deptCode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[deptCode]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[deptCode] = lock
	}
	return lock
}

// DeptCode returns the register-number code for a department name. A
// trailing parenthesised degree tag is ignored.
func DeptCode(department string) string {
	name := department
	if idx := strings.Index(name, " ("); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(strings.ToLower(name))
	if code, ok := deptCodes[name]; ok {
		return code
	}
	cleaned := strings.ReplaceAll(name, " ", "")
	if len(cleaned) < 2 {
		return strings.ToUpper(cleaned)
	}
	return strings.ToUpper(cleaned[:2])
}

// RoleForDesignation maps a staff designation to its role, defaulting to
// plain STAFF.
func RoleForDesignation(designation string) models.UserRole {
	if role, ok := designationRoles[strings.TrimSpace(strings.ToLower(designation))]; ok {
		return role
	}
	return models.RoleStaff
}

func credentialForRole(role models.UserRole) string {
	switch role {
	case models.RoleHOD:
		return defaultHODCredential
	case models.RoleDean:
		return defaultDeanCredential
	case models.RoleStudent:
		return defaultStudentCredential
	default:
		return defaultStaffCredential
	}
}

// deriveEmail builds the institutional address from the holder's name,
// audience segment and department code.
func (s *IdentityService) deriveEmail(fullName, segment, deptCode string) string {
	local := strings.ToLower(strings.ReplaceAll(fullName, " ", ""))
	return fmt.Sprintf("%s.%s.%s@%s", local, segment, strings.ToLower(deptCode), s.cfg.EmailDomain)
}

// Propose derives the identity for a request without writing anything.
func (s *IdentityService) Propose(ctx context.Context, req NewIdentityRequest) (*IdentityPreview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid identity request")
	}
	code := DeptCode(req.Department)
	preview := &IdentityPreview{}
	if req.IsStudent {
		preview.Role = models.RoleStudent
		preview.Email = s.deriveEmail(req.FullName, "std", code)
	} else {
		preview.Role = RoleForDesignation(req.Designation)
		preview.Email = s.deriveEmail(req.FullName, "stf", code)
	}
	preview.Credential = credentialForRole(preview.Role)
	return preview, nil
}

// Create provisions a single account. A derived email that already exists
// aborts the whole call with a conflict.
func (s *IdentityService) Create(ctx context.Context, req NewIdentityRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid identity request")
	}
	user, err := s.provision(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("identity provisioned",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return user, nil
}

// CreateBulk provisions many accounts. Conflicting rows are skipped
// individually; the remainder still lands.
func (s *IdentityService) CreateBulk(ctx context.Context, reqs []NewIdentityRequest) (*BulkResult, error) {
	result := &BulkResult{}
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			result.Skipped = append(result.Skipped, BulkSkip{FullName: req.FullName, Reason: "invalid row"})
			continue
		}
		user, err := s.provision(ctx, req)
		if err != nil {
			reason := "provisioning failed"
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConflict.Code {
				reason = appErr.Message
			}
			result.Skipped = append(result.Skipped, BulkSkip{FullName: req.FullName, Reason: reason})
			continue
		}
		result.Created = append(result.Created, *user)
	}
	s.logger.Info("bulk provisioning finished",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *IdentityService) provision(ctx context.Context, req NewIdentityRequest) (*models.User, error) {
	code := DeptCode(req.Department)
	lock := s.deptLock(code)
	lock.Lock()
	defer lock.Unlock()

	role := models.RoleStudent
	segment := "std"
	if !req.IsStudent {
		role = RoleForDesignation(req.Designation)
		segment = "stf"
	}
	email := s.deriveEmail(req.FullName, segment, code)

	if existing, err := s.users.FindByEmail(ctx, email); err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	} else if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("account %s already exists", email))
	}

	credential := credentialForRole(role)
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash credential")
	}

	user := &models.User{
		Email:        email,
		FullName:     strings.ToUpper(req.FullName),
		Credential:   credential,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.StatusApproved,
		Department:   req.Department,
		StudyYear:    req.StudyYear,
		Designation:  req.Designation,
		Experience:   req.Experience,
		RevealStatus: models.RevealNone,
	}

	if req.IsStudent {
		seed, err := s.users.CountByRegNoCode(ctx, code)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed sequence")
		}
		seq, err := s.sequences.Next(ctx, code, seed)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate sequence")
		}
		batch := req.BatchYear
		if len(batch) == 4 {
			batch = batch[2:]
		}
		user.RegNo = fmt.Sprintf("%s%s%s%03d", s.cfg.RegNoPrefix, batch, code, seq)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}
	return user, nil
}
