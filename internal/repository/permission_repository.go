package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gapt-portal/gapt-api/internal/models"
)

// PermissionRepository stores the role/feature access matrix.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository creates a new instance of PermissionRepository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Matrix returns the full matrix keyed by role. Features without a row
// resolve to NO_ACCESS at the service layer.
func (r *PermissionRepository) Matrix(ctx context.Context) (map[models.UserRole]models.PermissionMap, error) {
	const query = `SELECT role, feature, level FROM permissions`
	var rows []models.PermissionRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load permission matrix: %w", err)
	}

	matrix := make(map[models.UserRole]models.PermissionMap)
	for _, row := range rows {
		if matrix[row.Role] == nil {
			matrix[row.Role] = make(models.PermissionMap)
		}
		matrix[row.Role][row.Feature] = row.Level
	}
	return matrix, nil
}

// RoleMap returns the permission map for one role.
func (r *PermissionRepository) RoleMap(ctx context.Context, role models.UserRole) (models.PermissionMap, error) {
	const query = `SELECT role, feature, level FROM permissions WHERE role = $1`
	var rows []models.PermissionRow
	if err := r.db.SelectContext(ctx, &rows, query, role); err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}

	pm := make(models.PermissionMap, len(rows))
	for _, row := range rows {
		pm[row.Feature] = row.Level
	}
	return pm, nil
}

// SetLevel upserts a single matrix cell.
func (r *PermissionRepository) SetLevel(ctx context.Context, role models.UserRole, feature models.Feature, level models.AccessLevel) error {
	const query = `INSERT INTO permissions (role, feature, level, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (role, feature) DO UPDATE SET level = EXCLUDED.level, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, role, feature, level, time.Now().UTC()); err != nil {
		return fmt.Errorf("set permission level: %w", err)
	}
	return nil
}
