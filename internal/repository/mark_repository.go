package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gapt-portal/gapt-api/internal/models"
)

// MarkRepository stores assessment batches, mark records and the
// attendance ledger the scoring pipeline reads.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new instance of MarkRepository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// CreateBatch stores a new assessment batch.
func (r *MarkRepository) CreateBatch(ctx context.Context, batch *models.MarkBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO mark_batches (id, name, academic_year, status, subjects, created_at)
		VALUES (:id, :name, :academic_year, :status, :subjects, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// FindBatch returns one assessment batch.
func (r *MarkRepository) FindBatch(ctx context.Context, id string) (*models.MarkBatch, error) {
	const query = `SELECT id, name, academic_year, status, subjects, created_at FROM mark_batches WHERE id = $1 LIMIT 1`
	var batch models.MarkBatch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find batch: %w", err)
	}
	return &batch, nil
}

// ListBatches returns all assessment batches, newest first.
func (r *MarkRepository) ListBatches(ctx context.Context) ([]models.MarkBatch, error) {
	const query = `SELECT id, name, academic_year, status, subjects, created_at FROM mark_batches ORDER BY created_at DESC`
	var batches []models.MarkBatch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// SetBatchStatus updates a batch's lifecycle status.
func (r *MarkRepository) SetBatchStatus(ctx context.Context, id string, status models.BatchStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE mark_batches SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set batch status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpsertRecord writes one subject score, keyed by (batch, student, subject).
func (r *MarkRepository) UpsertRecord(ctx context.Context, record *models.MarkRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO mark_records (id, batch_id, student_id, subject, marks, max_marks, updated_by, updated_at)
		VALUES (:id, :batch_id, :student_id, :subject, :marks, :max_marks, :updated_by, :updated_at)
		ON CONFLICT (batch_id, student_id, subject) DO UPDATE SET
			marks = EXCLUDED.marks,
			max_marks = EXCLUDED.max_marks,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// ListRecordsByStudent returns every mark record for one student.
func (r *MarkRepository) ListRecordsByStudent(ctx context.Context, studentID string) ([]models.MarkRecord, error) {
	const query = `SELECT id, batch_id, student_id, subject, marks, max_marks, updated_by, updated_at FROM mark_records WHERE student_id = $1 ORDER BY updated_at`
	var records []models.MarkRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list records by student: %w", err)
	}
	return records, nil
}

// ListRecordsByBatch returns every mark record inside one batch.
func (r *MarkRepository) ListRecordsByBatch(ctx context.Context, batchID string) ([]models.MarkRecord, error) {
	const query = `SELECT id, batch_id, student_id, subject, marks, max_marks, updated_by, updated_at FROM mark_records WHERE batch_id = $1 ORDER BY student_id, subject`
	var records []models.MarkRecord
	if err := r.db.SelectContext(ctx, &records, query, batchID); err != nil {
		return nil, fmt.Errorf("list records by batch: %w", err)
	}
	return records, nil
}

// UpsertAttendance writes one day of a user's attendance ledger.
func (r *MarkRepository) UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	const query = `INSERT INTO attendance_records (id, user_id, date, is_present, hours, marked_by)
		VALUES (:id, :user_id, :date, :is_present, :hours, :marked_by)
		ON CONFLICT (user_id, date) DO UPDATE SET
			is_present = EXCLUDED.is_present,
			hours = EXCLUDED.hours,
			marked_by = EXCLUDED.marked_by`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListAttendanceByUser returns a user's full attendance ledger.
func (r *MarkRepository) ListAttendanceByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, user_id, date, is_present, hours, marked_by FROM attendance_records WHERE user_id = $1 ORDER BY date`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list attendance by user: %w", err)
	}
	return records, nil
}
