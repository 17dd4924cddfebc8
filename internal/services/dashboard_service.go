package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/udsstack/uds-monitor/internal/engine"
	"github.com/udsstack/uds-monitor/internal/metrics"
	"github.com/udsstack/uds-monitor/internal/models"
	"github.com/udsstack/uds-monitor/internal/periods"
	"github.com/udsstack/uds-monitor/internal/store"
	"github.com/udsstack/uds-monitor/internal/utils"
)

// ViewPipeline is the engine composition used by the service.
type ViewPipeline interface {
	ResourceView(ctx context.Context, req models.ViewRequest) (models.ViewResult, error)
}

// DashboardService is the facade the HTTP layer talks to. It owns request
// accounting: Prometheus outcome counters and a latency tracker whose p95 is
// logged periodically.
type DashboardService struct {
	logger      *slog.Logger
	pipeline    ViewPipeline
	metricStore *store.MetricStore
	latencies   *utils.LatencyTracker
}

// NewDashboardService constructs the dashboard facade.
func NewDashboardService(logger *slog.Logger, pipeline ViewPipeline, metricStore *store.MetricStore) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		logger:      logger,
		pipeline:    pipeline,
		metricStore: metricStore,
		latencies:   utils.NewLatencyTracker(1024),
	}
}

// GetResourceView computes the ranked, correlated dashboard view for one
// (account, period) request. Errors from the catalog or collector propagate
// unmodified so the caller can distinguish permission problems from
// transient failures.
func (s *DashboardService) GetResourceView(ctx context.Context, req models.ViewRequest) (models.ViewResult, error) {
	if s.pipeline == nil {
		return models.ViewResult{}, utils.NewAppError("dashboard.view", "pipeline not configured", nil)
	}

	start := time.Now()
	result, err := s.pipeline.ResourceView(ctx, req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveView(metrics.OutcomeError)
		s.logger.Error("resource view failed",
			slog.String("account", req.AccountKey),
			slog.String("period", req.PeriodID),
			slog.Any("error", err))
		return models.ViewResult{}, err
	}

	s.latencies.Observe(duration)
	metrics.ObserveView(metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("view latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	return result, nil
}

// InvalidateAccount drops every cached period for the account. Called after
// any out-of-band action that changes the underlying resource or metric set,
// such as a fresh remote scan completing.
func (s *DashboardService) InvalidateAccount(accountKey string) {
	if s.metricStore == nil {
		return
	}
	s.metricStore.Invalidate(accountKey)
	s.logger.Info("account cache invalidated", slog.String("account", accountKey))
}

// CacheStats reports what the metric store currently holds for the account.
func (s *DashboardService) CacheStats(accountKey string) store.Stats {
	if s.metricStore == nil {
		return store.Stats{PeriodsCached: []string{}}
	}
	return s.metricStore.Stats(accountKey)
}

// Periods lists the ids a view may be requested for.
func (s *DashboardService) Periods() []string {
	return periods.IDs()
}

// LatencyP95 returns the current p95 view latency.
func (s *DashboardService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

var _ ViewPipeline = (*engine.Pipeline)(nil)
