package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gapt-portal/gapt-api/internal/models"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type approvalUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListPendingReveal(ctx context.Context) ([]models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	UpdateRevealStatus(ctx context.Context, id string, status models.PasswordViewStatus) error
	UpdateCredential(ctx context.Context, id, credential, passwordHash string) error
}

type approvalRequestRepository interface {
	CreateUnlockRequest(ctx context.Context, req *models.CurriculumUnlockRequest) error
	FindUnlockRequest(ctx context.Context, id string) (*models.CurriculumUnlockRequest, error)
	ListUnlockRequests(ctx context.Context, status *models.RequestStatus) ([]models.CurriculumUnlockRequest, error)
	DecideUnlockRequest(ctx context.Context, id string, status models.RequestStatus, batchID, deptID string, curriculum models.CurriculumStatus) error
	CurriculumStatus(ctx context.Context, batchID, deptID string) (models.CurriculumStatus, error)
	UpsertAttendanceRequest(ctx context.Context, req *models.AttendanceEditRequest) error
	FindAttendanceRequest(ctx context.Context, id string) (*models.AttendanceEditRequest, error)
	GetAttendanceRequest(ctx context.Context, requesterID, date string) (*models.AttendanceEditRequest, error)
	ListAttendanceRequests(ctx context.Context) ([]models.AttendanceEditRequest, error)
	SetAuthorityFlag(ctx context.Context, id string, authority models.UserRole, approved bool) error
}

type approvalNotifier interface {
	Notify(ctx context.Context, userID *string, message, notificationType string)
}

// ApprovalService runs the four governance workflows: onboarding,
// curriculum unlock, attendance edit authority and credential reveal.
type ApprovalService struct {
	users    approvalUserRepository
	requests approvalRequestRepository
	notifier approvalNotifier
	logger   *zap.Logger
}

// NewApprovalService constructs the approval service.
func NewApprovalService(users approvalUserRepository, requests approvalRequestRepository, notifier approvalNotifier, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{users: users, requests: requests, notifier: notifier, logger: logger}
}

// ListPendingOnboarding returns accounts awaiting the onboarding decision.
func (s *ApprovalService) ListPendingOnboarding(ctx context.Context) ([]models.User, error) {
	status := models.StatusPending
	users, _, err := s.users.List(ctx, models.UserFilter{Status: &status, PageSize: 500})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending accounts")
	}
	return users, nil
}

// DecideOnboarding approves or rejects a pending account. Decided accounts
// never flip again.
func (s *ApprovalService) DecideOnboarding(ctx context.Context, userID string, approve bool) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if user.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalState, "account already decided")
	}

	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}
	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account status")
	}
	user.Status = status

	if approve && s.notifier != nil {
		s.notifier.Notify(ctx, &user.ID, "Your institutional access has been granted.", models.NotifyAccessGranted)
	}
	s.logger.Info("onboarding decided",
		zap.String("user_id", userID),
		zap.String("status", string(status)))
	return user, nil
}

// RequestCurriculumUnlock files an HOD petition to unlock a curriculum
// registry. An undecided petition for the same pair is a conflict.
func (s *ApprovalService) RequestCurriculumUnlock(ctx context.Context, req *models.CurriculumUnlockRequest) error {
	pending := models.RequestPending
	open, err := s.requests.ListUnlockRequests(ctx, &pending)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unlock requests")
	}
	for _, existing := range open {
		if existing.BatchID == req.BatchID && existing.DeptID == req.DeptID {
			return appErrors.Clone(appErrors.ErrConflict, "an unlock request for this registry is already pending")
		}
	}
	req.Status = models.RequestPending
	if err := s.requests.CreateUnlockRequest(ctx, req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file unlock request")
	}
	s.logger.Info("curriculum unlock requested",
		zap.String("batch", req.BatchName),
		zap.String("department", req.DeptName))
	return nil
}

// ListCurriculumUnlocks returns unlock petitions, optionally filtered.
func (s *ApprovalService) ListCurriculumUnlocks(ctx context.Context, status *models.RequestStatus) ([]models.CurriculumUnlockRequest, error) {
	reqs, err := s.requests.ListUnlockRequests(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unlock requests")
	}
	return reqs, nil
}

// DecideCurriculumUnlock decides a petition. Approval unlocks exactly the
// petition's own (batch, department) registry; rejection leaves it frozen.
func (s *ApprovalService) DecideCurriculumUnlock(ctx context.Context, requestID string, approve bool) (*models.CurriculumUnlockRequest, error) {
	req, err := s.requests.FindUnlockRequest(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unlock request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unlock request")
	}
	if req.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalState, "unlock request already decided")
	}

	status := models.RequestRejected
	curriculum := models.CurriculumFrozen
	if approve {
		status = models.RequestApproved
		curriculum = models.CurriculumEditable
	}
	if err := s.requests.DecideUnlockRequest(ctx, requestID, status, req.BatchID, req.DeptID, curriculum); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide unlock request")
	}
	req.Status = status

	if s.notifier != nil {
		message := fmt.Sprintf("Curriculum unlock rejected for %s / %s.", req.BatchName, req.DeptName)
		notifyType := models.NotifyEditRejected
		if approve {
			message = fmt.Sprintf("Curriculum editing unlocked for %s / %s.", req.BatchName, req.DeptName)
			notifyType = models.NotifyEditApproved
		}
		s.notifier.Notify(ctx, &req.HODID, message, notifyType)
	}
	s.logger.Info("curriculum unlock decided",
		zap.String("request_id", requestID),
		zap.String("status", string(status)))
	return req, nil
}

// CurriculumStatus exposes the registry gate for one pair.
func (s *ApprovalService) CurriculumStatus(ctx context.Context, batchID, deptID string) (models.CurriculumStatus, error) {
	status, err := s.requests.CurriculumStatus(ctx, batchID, deptID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum status")
	}
	return status, nil
}

// RequestAttendanceAuthority files (or re-surfaces) a petition for
// attendance edit authority on a given date.
func (s *ApprovalService) RequestAttendanceAuthority(ctx context.Context, req *models.AttendanceEditRequest) (*models.AttendanceEditRequest, error) {
	if existing, err := s.requests.GetAttendanceRequest(ctx, req.RequesterID, req.Date); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check authority request")
	}
	if err := s.requests.UpsertAttendanceRequest(ctx, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file authority request")
	}
	s.logger.Info("attendance authority requested",
		zap.String("requester", req.RequesterName),
		zap.String("date", req.Date))
	return req, nil
}

// ListAttendanceAuthority returns the petitions still waiting on one
// authority's own flag; signed petitions leave that authority's queue. An
// HOD additionally sees only petitions from their own department, matched
// on the base name so degree-tagged variants still land in the same queue.
func (s *ApprovalService) ListAttendanceAuthority(ctx context.Context, role models.UserRole, department string) ([]models.AttendanceEditRequest, error) {
	reqs, err := s.requests.ListAttendanceRequests(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list authority requests")
	}
	base := departmentBase(department)
	filtered := make([]models.AttendanceEditRequest, 0, len(reqs))
	for _, req := range reqs {
		if signedBy(req, role) {
			continue
		}
		if role == models.RoleHOD && !strings.HasPrefix(strings.ToLower(req.DeptName), base) {
			continue
		}
		filtered = append(filtered, req)
	}
	return filtered, nil
}

// signedBy reports whether the authority's own flag is already set on the
// petition.
func signedBy(req models.AttendanceEditRequest, role models.UserRole) bool {
	switch role {
	case models.RoleAdmin:
		return req.AdminApproved
	case models.RoleDean:
		return req.DeanApproved
	case models.RoleHOD:
		return req.HODApproved
	}
	return false
}

// departmentBase strips a trailing parenthesised degree tag and lowers the
// name for prefix matching.
func departmentBase(department string) string {
	name := department
	if idx := strings.Index(name, " ("); idx >= 0 {
		name = name[:idx]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// GrantAttendanceAuthority writes one authority's boolean on a petition.
// Each authority owns one flag; approvals commute, so the order the three
// authorities sign in never changes the outcome. Every positive decision
// notifies the requester, with a distinct message once all three hold.
func (s *ApprovalService) GrantAttendanceAuthority(ctx context.Context, requestID string, authority models.UserRole, approved bool) (*models.AttendanceEditRequest, error) {
	if _, err := s.requests.FindAttendanceRequest(ctx, requestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "authority request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load authority request")
	}

	switch authority {
	case models.RoleAdmin, models.RoleDean, models.RoleHOD:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role holds no attendance authority flag")
	}
	if err := s.requests.SetAuthorityFlag(ctx, requestID, authority, approved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record authority decision")
	}

	updated, err := s.requests.FindAttendanceRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload authority request")
	}
	if approved && s.notifier != nil {
		message := fmt.Sprintf("%s approved your attendance edit request for %s.", authority, updated.Date)
		if updated.FullyAuthorized() {
			message = fmt.Sprintf("Attendance editing authorised for %s.", updated.Date)
		}
		s.notifier.Notify(ctx, &updated.RequesterID, message, models.NotifyEditApproved)
	}
	s.logger.Info("attendance authority recorded",
		zap.String("request_id", requestID),
		zap.String("authority", string(authority)),
		zap.Bool("approved", approved))
	return updated, nil
}

// AttendanceAuthorityFor reports whether a requester holds full authority
// for a date. Computed fresh on every call; never cached.
func (s *ApprovalService) AttendanceAuthorityFor(ctx context.Context, requesterID, date string) (bool, error) {
	req, err := s.requests.GetAttendanceRequest(ctx, requesterID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load authority request")
	}
	return req.FullyAuthorized(), nil
}

// CredentialRevealState is what the public petition surface returns. The
// credential itself appears only once the petition is approved.
type CredentialRevealState struct {
	Status     models.PasswordViewStatus `json:"status"`
	Credential string                    `json:"credential,omitempty"`
}

// PetitionCredentialReveal files or follows a reveal petition by email.
// The petitioner is locked out of their account, so this surface takes no
// token. A pending petition is acknowledged, an approved one returns the
// credential, and any other state files afresh.
func (s *ApprovalService) PetitionCredentialReveal(ctx context.Context, email string) (*CredentialRevealState, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	switch user.RevealStatus {
	case models.RevealPending:
		return &CredentialRevealState{Status: models.RevealPending}, nil
	case models.RevealApproved:
		return &CredentialRevealState{Status: models.RevealApproved, Credential: user.Credential}, nil
	}
	if err := s.users.UpdateRevealStatus(ctx, user.ID, models.RevealPending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file reveal petition")
	}
	s.logger.Info("credential reveal petitioned", zap.String("email", email))
	return &CredentialRevealState{Status: models.RevealPending}, nil
}

// RequestCredentialReveal flags an account for the credential-reveal queue.
func (s *ApprovalService) RequestCredentialReveal(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if user.RevealStatus == models.RevealPending {
		return appErrors.Clone(appErrors.ErrConflict, "a reveal request is already pending")
	}
	if err := s.users.UpdateRevealStatus(ctx, userID, models.RevealPending); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file reveal request")
	}
	s.logger.Info("credential reveal requested", zap.String("user_id", userID))
	return nil
}

// ListPendingReveals returns the credential-reveal queue.
func (s *ApprovalService) ListPendingReveals(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListPendingReveal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reveal requests")
	}
	return users, nil
}

// DecideCredentialReveal approves or rejects a pending reveal request. An
// approved status persists until the holder resets it; it never expires on
// its own.
func (s *ApprovalService) DecideCredentialReveal(ctx context.Context, userID string, approve bool) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if user.RevealStatus != models.RevealPending {
		return appErrors.Clone(appErrors.ErrTerminalState, "no pending reveal request")
	}
	status := models.RevealRejected
	if approve {
		status = models.RevealApproved
	}
	if err := s.users.UpdateRevealStatus(ctx, userID, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide reveal request")
	}
	s.logger.Info("credential reveal decided",
		zap.String("user_id", userID),
		zap.String("status", string(status)))
	return nil
}

// RevealCredential returns the plaintext credential once the reveal has
// been approved.
func (s *ApprovalService) RevealCredential(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if user.RevealStatus != models.RevealApproved {
		return "", appErrors.Clone(appErrors.ErrForbidden, "credential reveal not approved")
	}
	return user.Credential, nil
}

// ResetCredential rotates an account's credential and clears any reveal
// state.
func (s *ApprovalService) ResetCredential(ctx context.Context, userID, newCredential string) error {
	if len(newCredential) < 6 {
		return appErrors.Clone(appErrors.ErrValidation, "credential must be at least 6 characters")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newCredential), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash credential")
	}
	if err := s.users.UpdateCredential(ctx, userID, newCredential, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate credential")
	}
	if err := s.users.UpdateRevealStatus(ctx, userID, models.RevealNone); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear reveal state")
	}
	s.logger.Info("credential rotated", zap.String("user_id", userID))
	return nil
}
