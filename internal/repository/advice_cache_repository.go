package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gapt-portal/gapt-api/internal/models"
)

// AdviceCacheRepository caches advisory reports in Redis so repeated views
// of the same student do not re-hit the external collaborator.
type AdviceCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAdviceCacheRepository creates a new instance of AdviceCacheRepository.
func NewAdviceCacheRepository(client *redis.Client, ttl time.Duration) *AdviceCacheRepository {
	return &AdviceCacheRepository{client: client, ttl: ttl}
}

func adviceKey(studentID string) string {
	return "advice:" + studentID
}

// Get returns the cached report for a student, or nil on a miss.
func (r *AdviceCacheRepository) Get(ctx context.Context, studentID string) (*models.AdvisoryReport, error) {
	raw, err := r.client.Get(ctx, adviceKey(studentID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached advice: %w", err)
	}
	var report models.AdvisoryReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode cached advice: %w", err)
	}
	return &report, nil
}

// Set stores a report for a student under the configured TTL.
func (r *AdviceCacheRepository) Set(ctx context.Context, studentID string, report *models.AdvisoryReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode advice: %w", err)
	}
	if err := r.client.Set(ctx, adviceKey(studentID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache advice: %w", err)
	}
	return nil
}

// Invalidate drops the cached report for a student.
func (r *AdviceCacheRepository) Invalidate(ctx context.Context, studentID string) error {
	if err := r.client.Del(ctx, adviceKey(studentID)).Err(); err != nil {
		return fmt.Errorf("invalidate advice: %w", err)
	}
	return nil
}
