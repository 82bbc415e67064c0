package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/pkg/config"
)

type mockAdviceCache struct {
	reports map[string]*models.AdvisoryReport
}

func (m *mockAdviceCache) Get(ctx context.Context, studentID string) (*models.AdvisoryReport, error) {
	return m.reports[studentID], nil
}

func (m *mockAdviceCache) Set(ctx context.Context, studentID string, report *models.AdvisoryReport) error {
	m.reports[studentID] = report
	return nil
}

func advisorConfig(baseURL string) config.AdvisorConfig {
	return config.AdvisorConfig{Enabled: true, BaseURL: baseURL, Timeout: 2 * time.Second}
}

func TestAdvisorServiceSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"summary":"Strong semester.","suggestions":["Keep it up."],"greenImpactRating":12}`))
	}))
	defer server.Close()

	cache := &mockAdviceCache{reports: map[string]*models.AdvisoryReport{}}
	svc := NewAdvisorService(advisorConfig(server.URL), cache, zap.NewNop())

	report, err := svc.Analyze(context.Background(), "s1", AdvisoryInput{StudentName: "Jai"})
	require.NoError(t, err)
	assert.Equal(t, "Strong semester.", report.Summary)
	assert.Equal(t, 10.0, report.GreenImpactRating, "rating is clamped to the 10-point scale")
	assert.Equal(t, report, cache.reports["s1"], "a good report is cached")
}

func TestAdvisorServiceFallbackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cache := &mockAdviceCache{reports: map[string]*models.AdvisoryReport{}}
	svc := NewAdvisorService(advisorConfig(server.URL), cache, zap.NewNop())

	report, err := svc.Analyze(context.Background(), "s1", AdvisoryInput{})
	require.NoError(t, err, "collaborator failures never surface as errors")
	assert.Equal(t, "Unable to generate analysis at this time.", report.Summary)
	assert.Equal(t, []string{
		"Continue maintaining paperless workflows.",
		"Ensure consistent attendance.",
	}, report.Suggestions)
	assert.Equal(t, 0.0, report.GreenImpactRating)
	assert.Empty(t, cache.reports, "the fallback is never cached")
}

func TestAdvisorServiceFallbackWhenDisabled(t *testing.T) {
	svc := NewAdvisorService(config.AdvisorConfig{Enabled: false}, nil, zap.NewNop())

	report, err := svc.Analyze(context.Background(), "s1", AdvisoryInput{})
	require.NoError(t, err)
	assert.Equal(t, fallbackReport(), report)
}

func TestAdvisorServiceCacheHitShortCircuits(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"summary":"fresh","suggestions":[],"greenImpactRating":5}`))
	}))
	defer server.Close()

	cached := &models.AdvisoryReport{Summary: "cached", GreenImpactRating: 7}
	cache := &mockAdviceCache{reports: map[string]*models.AdvisoryReport{"s1": cached}}
	svc := NewAdvisorService(advisorConfig(server.URL), cache, zap.NewNop())

	report, err := svc.Analyze(context.Background(), "s1", AdvisoryInput{})
	require.NoError(t, err)
	assert.Equal(t, cached, report)
	assert.Zero(t, calls, "a cache hit must not reach the collaborator")
}
