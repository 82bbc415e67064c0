package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/pkg/config"
)

type adviceCache interface {
	Get(ctx context.Context, studentID string) (*models.AdvisoryReport, error)
	Set(ctx context.Context, studentID string, report *models.AdvisoryReport) error
}

// AdvisoryInput is the payload sent to the external analysis collaborator.
type AdvisoryInput struct {
	Attendance  int     `json:"attendance"`
	CGPA        float64 `json:"cgpa"`
	SGPA        float64 `json:"sgpa"`
	Credits     int     `json:"credits"`
	GreenPoints int     `json:"greenPoints"`
	StudentName string  `json:"studentName"`
}

// fallbackReport substitutes for any collaborator failure. Callers never
// see the failure itself.
func fallbackReport() *models.AdvisoryReport {
	return &models.AdvisoryReport{
		Summary: "Unable to generate analysis at this time.",
		Suggestions: []string{
			"Continue maintaining paperless workflows.",
			"Ensure consistent attendance.",
		},
		GreenImpactRating: 0,
	}
}

// AdvisorService proxies the analysis collaborator and caches the last
// good report per student.
type AdvisorService struct {
	cfg    config.AdvisorConfig
	client *http.Client
	cache  adviceCache
	logger *zap.Logger
}

// NewAdvisorService constructs the advisor service.
func NewAdvisorService(cfg config.AdvisorConfig, cache adviceCache, logger *zap.Logger) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}
}

// Analyze returns the collaborator's report for a student's academic
// summary. Cache hits short-circuit; any failure degrades to the fixed
// fallback report with a nil error.
func (s *AdvisorService) Analyze(ctx context.Context, studentID string, input AdvisoryInput) (*models.AdvisoryReport, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, studentID); err != nil {
			s.logger.Warn("advice cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	report, err := s.call(ctx, input)
	if err != nil {
		s.logger.Warn("advisory collaborator failed, serving fallback",
			zap.String("student_id", studentID),
			zap.Error(err))
		return fallbackReport(), nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, studentID, report); err != nil {
			s.logger.Warn("advice cache write failed", zap.Error(err))
		}
	}
	return report, nil
}

func (s *AdvisorService) call(ctx context.Context, input AdvisoryInput) (*models.AdvisoryReport, error) {
	if !s.cfg.Enabled || s.cfg.BaseURL == "" {
		return nil, fmt.Errorf("advisor disabled")
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode advisory input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call advisory collaborator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("advisory collaborator returned %d", resp.StatusCode)
	}

	var report models.AdvisoryReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode advisory response: %w", err)
	}
	if report.GreenImpactRating < 0 {
		report.GreenImpactRating = 0
	}
	if report.GreenImpactRating > 10 {
		report.GreenImpactRating = 10
	}
	return &report, nil
}
