package models

import "time"

// Notification is one entry of the per-user status-change ledger. A nil
// UserID broadcasts to everyone.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}

// Notification types emitted by the approval workflows.
const (
	NotifyAccessGranted = "ACCESS_GRANTED"
	NotifyEditApproved  = "EDIT_APPROVED"
	NotifyEditRejected  = "EDIT_REJECTED"
	NotifyOnboarding    = "ONBOARDING"
	NotifyCredential    = "CREDENTIAL"
)
