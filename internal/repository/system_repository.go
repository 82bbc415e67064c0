package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SystemRepository performs whole-institution maintenance operations.
type SystemRepository struct {
	db *sqlx.DB
}

// NewSystemRepository creates a new instance of SystemRepository.
func NewSystemRepository(db *sqlx.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

// Purge erases all institution data except the administrator account and
// the permission matrix. Everything runs in one transaction so a failure
// leaves the institution intact.
func (r *SystemRepository) Purge(ctx context.Context, adminID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("purge: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []struct {
		query string
		args  []interface{}
	}{
		{`DELETE FROM mark_records`, nil},
		{`DELETE FROM mark_batches`, nil},
		{`DELETE FROM attendance_records`, nil},
		{`DELETE FROM attendance_edit_requests`, nil},
		{`DELETE FROM edit_requests`, nil},
		{`DELETE FROM curriculum_statuses`, nil},
		{`DELETE FROM notifications`, nil},
		{`DELETE FROM regno_sequences`, nil},
		{`DELETE FROM users WHERE id <> $1`, []interface{}{adminID}},
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("purge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("purge: commit: %w", err)
	}
	return nil
}
