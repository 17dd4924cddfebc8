// Package fetcher mediates between the dashboard and the remote metric
// collection provider, answering from the metric store whenever it can.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/udsstack/uds-monitor/internal/metrics"
	"github.com/udsstack/uds-monitor/internal/models"
	"github.com/udsstack/uds-monitor/internal/periods"
	"github.com/udsstack/uds-monitor/internal/store"
)

// Collector is the external metric collection provider. It may be slow
// (network-bound) and must honour context cancellation.
type Collector interface {
	Collect(ctx context.Context, accountKey, organizationKey string, lookback time.Duration, maxSamples int) ([]models.MetricRecord, error)
}

// Fetcher returns cached metrics when the store is fresh and coalesces
// concurrent remote collections for the same (account, period) key so a user
// rapidly toggling time windows never triggers duplicate network work.
type Fetcher struct {
	logger    *slog.Logger
	store     *store.MetricStore
	collector Collector
	group     singleflight.Group
}

// New constructs a Fetcher over the given store and collection provider.
func New(logger *slog.Logger, metricStore *store.MetricStore, collector Collector) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		logger:    logger,
		store:     metricStore,
		collector: collector,
	}
}

// Fetch returns the metrics for (accountKey, periodID). Unless force is set,
// a fresh store entry short-circuits the remote call. On collection failure
// the store is left at its prior state.
func (f *Fetcher) Fetch(ctx context.Context, accountKey, organizationKey, periodID string, force bool) ([]models.MetricRecord, error) {
	window, err := periods.Resolve(periodID)
	if err != nil {
		return nil, err
	}

	if !force && f.store.IsFresh(accountKey, periodID) {
		if cached, err := f.store.Get(accountKey, periodID); err == nil {
			metrics.ObserveCacheLookup(true)
			f.logger.Debug("serving cached collection",
				slog.String("account", accountKey),
				slog.String("period", periodID),
				slog.Time("fetched_at", f.store.FetchedAt(accountKey, periodID)))
			return cached, nil
		}
	}
	metrics.ObserveCacheLookup(false)

	key := accountKey + "|" + periodID
	// The collection runs under the initiating caller's context, so joiners
	// share its outcome, cancellation included. A joiner whose own context is
	// still live retries on the next call; a cancelled initiator costs it one
	// extra round-trip at worst.
	result, err, shared := f.group.Do(key, func() (any, error) {
		return f.collect(ctx, accountKey, organizationKey, window)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.logger.Debug("coalesced metric collection",
			slog.String("account", accountKey), slog.String("period", periodID))
	}
	return result.([]models.MetricRecord), nil
}

func (f *Fetcher) collect(ctx context.Context, accountKey, organizationKey string, window periods.Window) ([]models.MetricRecord, error) {
	start := time.Now()
	collected, err := f.collector.Collect(ctx, accountKey, organizationKey, window.Lookback, window.MaxSamples)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveCollection(duration, metrics.OutcomeError)
		return nil, fmt.Errorf("collect %s/%s: %w", accountKey, window.ID, err)
	}
	metrics.ObserveCollection(duration, metrics.OutcomeSuccess)

	f.store.Put(accountKey, window.ID, collected)
	f.logger.Debug("metric collection stored",
		slog.String("account", accountKey),
		slog.String("period", window.ID),
		slog.Int("samples", len(collected)),
		slog.Duration("took", duration))
	return collected, nil
}

// Invalidate drops every cached period for the account, forcing the next
// Fetch to hit the provider.
func (f *Fetcher) Invalidate(accountKey string) {
	f.store.Invalidate(accountKey)
}
