package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gapt-portal/gapt-api/internal/models"
)

const userColumns = `id, email, full_name, credential, password_hash, role, status, department, study_year, reg_no, designation, experience, mentor_id, mentor2_id, reveal_status, created_at, updated_at`

// UserRepository provides database access for the institutional registry.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address. Matching is
// case-insensitive so identity conflicts cannot hide behind casing.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(full_name) LIKE $%d OR LOWER(reg_no) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"email":      true,
		"full_name":  true,
		"reg_no":     true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// ListPendingReveal returns users with an undecided credential-reveal
// petition.
func (r *UserRepository) ListPendingReveal(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE reveal_status = $1 ORDER BY updated_at DESC`, userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RevealPending); err != nil {
		return nil, fmt.Errorf("list pending reveal petitions: %w", err)
	}
	return users, nil
}

// CountByRegNoCode counts users whose registration number carries the
// department code. Used to seed the legacy sequence numbering.
func (r *UserRepository) CountByRegNoCode(ctx context.Context, deptCode string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE reg_no LIKE '%' || $1 || '%'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, deptCode); err != nil {
		return 0, fmt.Errorf("count users by regno code: %w", err)
	}
	return count, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, full_name, credential, password_hash, role, status, department, study_year, reg_no, designation, experience, mentor_id, mentor2_id, reveal_status, created_at, updated_at)
		VALUES (:id, :email, :full_name, :credential, :password_hash, :role, :status, :department, :study_year, :reg_no, :designation, :experience, :mentor_id, :mentor2_id, :reveal_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update updates mutable profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET full_name = :full_name, role = :role, department = :department, study_year = :study_year, designation = :designation, experience = :experience, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdateStatus records an onboarding decision.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	const query = `UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

// UpdateRevealStatus moves the credential-reveal petition state.
func (r *UserRepository) UpdateRevealStatus(ctx context.Context, id string, status models.PasswordViewStatus) error {
	const query = `UPDATE users SET reveal_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update reveal status: %w", err)
	}
	return nil
}

// UpdateCredential replaces the stored credential and its login hash.
func (r *UserRepository) UpdateCredential(ctx context.Context, id, credential, passwordHash string) error {
	const query = `UPDATE users SET credential = $2, password_hash = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, credential, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

// AssignMentors sets the mentor back-references for a set of students.
func (r *UserRepository) AssignMentors(ctx context.Context, studentIDs []string, mentorID, mentor2ID string) error {
	if len(studentIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE users SET mentor_id = ?, mentor2_id = ?, updated_at = ? WHERE id IN (?)`, mentorID, mentor2ID, time.Now().UTC(), studentIDs)
	if err != nil {
		return fmt.Errorf("assign mentors: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("assign mentors: %w", err)
	}
	return nil
}

// Delete removes a user from the registry.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
