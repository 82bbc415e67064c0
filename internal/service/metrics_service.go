package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	approvalTotal   *prometheus.CounterVec
	advisorFallback prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	approvalTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Total approval decisions by workflow and outcome",
	}, []string{"workflow", "outcome"})

	advisorFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "advisor_fallbacks_total",
		Help: "Total advisory calls served by the fallback report",
	})

	registry.MustRegister(requestDuration, requestTotal, approvalTotal, advisorFallback)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		approvalTotal:   approvalTotal,
		advisorFallback: advisorFallback,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one HTTP request.
func (s *MetricsService) ObserveRequest(method, path, status string, duration time.Duration) {
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// CountApproval records one approval decision.
func (s *MetricsService) CountApproval(workflow, outcome string) {
	s.approvalTotal.WithLabelValues(workflow, outcome).Inc()
}

// CountAdvisorFallback records one advisory fallback.
func (s *MetricsService) CountAdvisorFallback() {
	s.advisorFallback.Inc()
}
