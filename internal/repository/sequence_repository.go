package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SequenceRepository hands out per-department register number sequence
// values. The upsert is atomic at the database, so two concurrent
// provisioning calls for the same department never receive the same value.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository creates a new instance of SequenceRepository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next increments and returns the sequence for a department code. A missing
// row starts from the given seed, so departments with pre-provisioned
// accounts continue from their existing count.
func (r *SequenceRepository) Next(ctx context.Context, deptCode string, seed int) (int, error) {
	const query = `INSERT INTO regno_sequences (dept_code, value) VALUES ($1, $2 + 1)
		ON CONFLICT (dept_code) DO UPDATE SET value = regno_sequences.value + 1
		RETURNING value`
	var value int
	if err := r.db.GetContext(ctx, &value, query, deptCode, seed); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return value, nil
}
