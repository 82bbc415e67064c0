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

// RequestRepository stores the approval petitions and the curriculum
// status they govern.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository creates a new instance of RequestRepository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// CreateUnlockRequest stores a new curriculum unlock petition.
func (r *RequestRepository) CreateUnlockRequest(ctx context.Context, req *models.CurriculumUnlockRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO edit_requests (id, hod_id, hod_name, dept_id, dept_name, batch_id, batch_name, status, created_at)
		VALUES (:id, :hod_id, :hod_name, :dept_id, :dept_name, :batch_id, :batch_name, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create unlock request: %w", err)
	}
	return nil
}

// FindUnlockRequest returns one curriculum unlock petition.
func (r *RequestRepository) FindUnlockRequest(ctx context.Context, id string) (*models.CurriculumUnlockRequest, error) {
	const query = `SELECT id, hod_id, hod_name, dept_id, dept_name, batch_id, batch_name, status, created_at FROM edit_requests WHERE id = $1 LIMIT 1`
	var req models.CurriculumUnlockRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find unlock request: %w", err)
	}
	return &req, nil
}

// ListUnlockRequests returns petitions, optionally filtered by status.
func (r *RequestRepository) ListUnlockRequests(ctx context.Context, status *models.RequestStatus) ([]models.CurriculumUnlockRequest, error) {
	query := `SELECT id, hod_id, hod_name, dept_id, dept_name, batch_id, batch_name, status, created_at FROM edit_requests`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	var reqs []models.CurriculumUnlockRequest
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, fmt.Errorf("list unlock requests: %w", err)
	}
	return reqs, nil
}

// DecideUnlockRequest flips the petition status and the dependent
// curriculum status in a single transaction. A partial application of the
// pair is a defect, so both statements share one commit.
func (r *RequestRepository) DecideUnlockRequest(ctx context.Context, id string, status models.RequestStatus, batchID, deptID string, curriculum models.CurriculumStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("decide unlock request: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE edit_requests SET status = $2 WHERE id = $1`, id, status); err != nil {
		return fmt.Errorf("decide unlock request: update status: %w", err)
	}

	const upsert = `INSERT INTO curriculum_statuses (batch_id, dept_id, status, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (batch_id, dept_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, batchID, deptID, curriculum, time.Now().UTC()); err != nil {
		return fmt.Errorf("decide unlock request: set curriculum status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("decide unlock request: commit: %w", err)
	}
	return nil
}

// CurriculumStatus returns the status for a (batch, department) pair,
// defaulting to FROZEN when no row exists.
func (r *RequestRepository) CurriculumStatus(ctx context.Context, batchID, deptID string) (models.CurriculumStatus, error) {
	const query = `SELECT status FROM curriculum_statuses WHERE batch_id = $1 AND dept_id = $2 LIMIT 1`
	var status models.CurriculumStatus
	if err := r.db.GetContext(ctx, &status, query, batchID, deptID); err != nil {
		if err == sql.ErrNoRows {
			return models.CurriculumFrozen, nil
		}
		return "", fmt.Errorf("get curriculum status: %w", err)
	}
	return status, nil
}

// UpsertAttendanceRequest stores a new attendance edit-authority petition,
// keyed by (requester, date).
func (r *RequestRepository) UpsertAttendanceRequest(ctx context.Context, req *models.AttendanceEditRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_edit_requests (id, requester_id, requester_name, dept_name, date, admin_approved, dean_approved, hod_approved, created_at)
		VALUES (:id, :requester_id, :requester_name, :dept_name, :date, :admin_approved, :dean_approved, :hod_approved, :created_at)
		ON CONFLICT (requester_id, date) DO UPDATE SET requester_name = EXCLUDED.requester_name, dept_name = EXCLUDED.dept_name`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("upsert attendance request: %w", err)
	}
	return nil
}

// FindAttendanceRequest returns one attendance edit-authority petition.
func (r *RequestRepository) FindAttendanceRequest(ctx context.Context, id string) (*models.AttendanceEditRequest, error) {
	const query = `SELECT id, requester_id, requester_name, dept_name, date, admin_approved, dean_approved, hod_approved, created_at FROM attendance_edit_requests WHERE id = $1 LIMIT 1`
	var req models.AttendanceEditRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance request: %w", err)
	}
	return &req, nil
}

// GetAttendanceRequest returns the petition for a requester and date.
func (r *RequestRepository) GetAttendanceRequest(ctx context.Context, requesterID, date string) (*models.AttendanceEditRequest, error) {
	const query = `SELECT id, requester_id, requester_name, dept_name, date, admin_approved, dean_approved, hod_approved, created_at FROM attendance_edit_requests WHERE requester_id = $1 AND date = $2 LIMIT 1`
	var req models.AttendanceEditRequest
	if err := r.db.GetContext(ctx, &req, query, requesterID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get attendance request: %w", err)
	}
	return &req, nil
}

// ListAttendanceRequests returns all attendance edit-authority petitions.
func (r *RequestRepository) ListAttendanceRequests(ctx context.Context) ([]models.AttendanceEditRequest, error) {
	const query = `SELECT id, requester_id, requester_name, dept_name, date, admin_approved, dean_approved, hod_approved, created_at FROM attendance_edit_requests ORDER BY created_at DESC`
	var reqs []models.AttendanceEditRequest
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("list attendance requests: %w", err)
	}
	return reqs, nil
}

// authorityColumns whitelists the per-authority flag columns. Each update
// touches exactly one column so concurrent authorities never clobber each
// other's decisions.
var authorityColumns = map[models.UserRole]string{
	models.RoleAdmin: "admin_approved",
	models.RoleDean:  "dean_approved",
	models.RoleHOD:   "hod_approved",
}

// SetAuthorityFlag writes a single authority's boolean on the petition.
func (r *RequestRepository) SetAuthorityFlag(ctx context.Context, id string, authority models.UserRole, approved bool) error {
	column, ok := authorityColumns[authority]
	if !ok {
		return fmt.Errorf("set authority flag: role %s holds no flag", authority)
	}
	query := fmt.Sprintf(`UPDATE attendance_edit_requests SET %s = $2 WHERE id = $1`, column)
	if _, err := r.db.ExecContext(ctx, query, id, approved); err != nil {
		return fmt.Errorf("set authority flag: %w", err)
	}
	return nil
}
