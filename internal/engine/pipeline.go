package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/udsstack/uds-monitor/internal/models"
)

// Catalog defines the resource catalog provider behaviour used by the
// pipeline. Organization and account scoping is enforced by the provider.
type Catalog interface {
	ListResources(ctx context.Context, organizationKey, accountFilter string) ([]models.ResourceRecord, error)
}

// MetricFetcher yields metric records for an (account, period) pair, from
// cache or the remote collector.
type MetricFetcher interface {
	Fetch(ctx context.Context, accountKey, organizationKey, periodID string, force bool) ([]models.MetricRecord, error)
}

// Pipeline composes the dashboard view: catalog + metrics in, correlated,
// aggregated and ranked resource rows out.
type Pipeline struct {
	logger     *slog.Logger
	catalog    Catalog
	fetcher    MetricFetcher
	correlator *Correlator
	aggregator *Aggregator
	ranker     *Ranker
}

// NewPipeline constructs the view pipeline.
func NewPipeline(logger *slog.Logger, catalog Catalog, fetcher MetricFetcher) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		catalog:    catalog,
		fetcher:    fetcher,
		correlator: NewCorrelator(logger),
		aggregator: NewAggregator(),
		ranker:     NewRanker(),
	}
}

// ResourceView executes the end-to-end composition for one request: list
// resources, fetch metrics (cache-aware), correlate, aggregate and rank.
// Catalog and collection errors propagate; partial or missing metric data
// never fails the view.
func (p *Pipeline) ResourceView(ctx context.Context, req models.ViewRequest) (models.ViewResult, error) {
	if p.catalog == nil || p.fetcher == nil {
		return models.ViewResult{}, fmt.Errorf("pipeline collaborators not configured")
	}

	resources, err := p.catalog.ListResources(ctx, req.OrganizationKey, req.AccountKey)
	if err != nil {
		return models.ViewResult{}, fmt.Errorf("list resources: %w", err)
	}

	metrics, err := p.fetcher.Fetch(ctx, req.AccountKey, req.OrganizationKey, req.PeriodID, req.ForceRefresh)
	if err != nil {
		return models.ViewResult{}, err
	}

	correlated := p.correlator.CorrelateAll(resources, metrics)

	views := make([]models.ResourceView, 0, len(resources))
	for i, resource := range resources {
		primary := p.aggregator.PrimaryMetric(resource, correlated[i])
		views = append(views, models.ResourceView{
			Resource:      resource,
			Metrics:       correlated[i],
			PrimaryMetric: primary,
			Trend:         p.aggregator.PrimaryTrend(primary, correlated[i]),
		})
	}
	p.ranker.Rank(views)

	result := models.ViewResult{
		RequestID: uuid.NewString(),
		Resources: views,
		Averages:  p.typeAverages(resources, correlated),
		Period:    req.PeriodID,
		FetchedAt: time.Now().UTC(),
	}

	p.logger.Debug("resource view computed",
		slog.String("account", req.AccountKey),
		slog.String("period", req.PeriodID),
		slog.Int("resources", len(views)),
		slog.Int("metrics", len(metrics)))
	return result, nil
}

// typeAverages computes the average of each type's leading preferred metric
// across its active resources.
func (p *Pipeline) typeAverages(resources []models.ResourceRecord, correlated [][]models.MetricRecord) []models.TypeAverage {
	seen := make(map[string]bool)
	averages := make([]models.TypeAverage, 0)
	for _, resource := range resources {
		if seen[resource.Type] {
			continue
		}
		seen[resource.Type] = true

		preferred := primaryPreferences[resource.Type]
		if len(preferred) == 0 {
			continue
		}
		if avg, ok := p.aggregator.TypeAverage(resource.Type, preferred[0], resources, correlated); ok {
			averages = append(averages, avg)
		}
	}
	return averages
}
