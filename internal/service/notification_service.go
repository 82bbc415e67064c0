package service

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/pkg/config"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type notificationRepository interface {
	Add(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	ClearForUser(ctx context.Context, userID string) error
}

type notificationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// NotificationService records status-change notifications and mirrors them
// to email when delivery is configured. Email failures never fail the
// triggering workflow.
type NotificationService struct {
	repo   notificationRepository
	users  notificationUserRepository
	cfg    config.NotifierConfig
	client *resend.Client
	logger *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, users notificationUserRepository, cfg config.NotifierConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, users: users, cfg: cfg, logger: logger}
	if cfg.EmailEnabled && cfg.ResendAPIKey != "" {
		s.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return s
}

// Notify records a notification and mirrors it to the holder's mailbox.
// Best-effort on both legs; workflows never block on delivery.
func (s *NotificationService) Notify(ctx context.Context, userID *string, message, notificationType string) {
	n := &models.Notification{
		UserID:  userID,
		Message: message,
		Type:    notificationType,
	}
	if err := s.repo.Add(ctx, n); err != nil {
		s.logger.Warn("failed to record notification", zap.Error(err))
		return
	}
	if s.client == nil || userID == nil {
		return
	}
	if err := s.sendEmail(ctx, *userID, message, notificationType); err != nil {
		s.logger.Warn("failed to deliver notification email",
			zap.String("user_id", *userID),
			zap.Error(err))
	}
}

func (s *NotificationService) sendEmail(ctx context.Context, userID, message, notificationType string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	params := &resend.SendEmailRequest{
		From:    s.cfg.FromAddress,
		To:      []string{user.Email},
		Subject: emailSubject(notificationType),
		Html:    fmt.Sprintf("<p>Dear %s,</p><p>%s</p>", user.FullName, message),
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func emailSubject(notificationType string) string {
	switch notificationType {
	case models.NotifyAccessGranted:
		return "Institutional access granted"
	case models.NotifyEditApproved:
		return "Edit request approved"
	case models.NotifyOnboarding:
		return "Welcome to the institution portal"
	case models.NotifyCredential:
		return "Credential update"
	default:
		return "Portal notification"
	}
}

// List returns a user's notifications plus broadcasts.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	notes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notes, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// Clear deletes a user's notifications.
func (s *NotificationService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.ClearForUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	return nil
}
