package fetcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/udsstack/uds-monitor/internal/models"
	"github.com/udsstack/uds-monitor/internal/periods"
	"github.com/udsstack/uds-monitor/internal/repo"
	"github.com/udsstack/uds-monitor/internal/store"
)

type fakeCollector struct {
	mu      sync.Mutex
	calls   int32
	delay   time.Duration
	err     error
	metrics []models.MetricRecord
}

func (c *fakeCollector) Collect(ctx context.Context, accountKey, organizationKey string, lookback time.Duration, maxSamples int) ([]models.MetricRecord, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]models.MetricRecord(nil), c.metrics...), nil
}

func (c *fakeCollector) callCount() int {
	return int(atomic.LoadInt32(&c.calls))
}

func testMetrics() []models.MetricRecord {
	return []models.MetricRecord{
		{ResourceID: "i-1", ResourceType: "ec2", MetricName: "CPUUtilization", Value: 42.3, Unit: "Percent", Timestamp: time.Now().UTC()},
	}
}

func TestFetchCachesSecondCall(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics()}
	f := New(nil, store.NewMetricStore(), collector)

	first, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if collector.callCount() != 1 {
		t.Fatalf("expected exactly one provider call, got %d", collector.callCount())
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("unexpected result sizes: %d, %d", len(first), len(second))
	}
}

func TestForcedRefreshBypassesCache(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics()}
	f := New(nil, store.NewMetricStore(), collector)

	if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}

	if collector.callCount() != 2 {
		t.Fatalf("forced refresh should call the provider, got %d calls", collector.callCount())
	}
}

func TestUnknownPeriodRejectedBeforeIO(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics()}
	f := New(nil, store.NewMetricStore(), collector)

	_, err := f.Fetch(context.Background(), "acct-1", "org-1", "90m", false)
	if !errors.Is(err, periods.ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
	if collector.callCount() != 0 {
		t.Fatal("provider must not be called for an unknown period")
	}
}

func TestCollectionFailureLeavesStoreUntouched(t *testing.T) {
	metricStore := store.NewMetricStore()
	collector := &fakeCollector{err: repo.ErrCollectionFailed}
	f := New(nil, metricStore, collector)

	_, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false)
	if !errors.Is(err, repo.ErrCollectionFailed) {
		t.Fatalf("expected ErrCollectionFailed, got %v", err)
	}
	if metricStore.IsFresh("acct-1", "3h") {
		t.Fatal("failed collection must not poison the store")
	}
}

func TestPermissionDeniedSurfacedDistinctly(t *testing.T) {
	collector := &fakeCollector{err: repo.ErrPermissionDenied}
	f := New(nil, store.NewMetricStore(), collector)

	_, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false)
	if !errors.Is(err, repo.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if !errors.Is(err, repo.ErrCollectionFailed) {
		t.Fatal("permission denied should still match ErrCollectionFailed")
	}
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics(), delay: 50 * time.Millisecond}
	f := New(nil, store.NewMetricStore(), collector)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	wg.Wait()

	if collector.callCount() != 1 {
		t.Fatalf("concurrent fetches for one key should coalesce into one call, got %d", collector.callCount())
	}
}

func TestDistinctKeysFetchIndependently(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics()}
	f := New(nil, store.NewMetricStore(), collector)

	if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "1h", false); err != nil {
		t.Fatalf("fetch 1h: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "24h", false); err != nil {
		t.Fatalf("fetch 24h: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "acct-2", "org-1", "1h", false); err != nil {
		t.Fatalf("fetch acct-2: %v", err)
	}

	if collector.callCount() != 3 {
		t.Fatalf("expected 3 provider calls across distinct keys, got %d", collector.callCount())
	}
}

func TestCancellationAbortsCollection(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics(), delay: time.Second}
	metricStore := store.NewMetricStore()
	f := New(nil, metricStore, collector)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := f.Fetch(ctx, "acct-1", "org-1", "3h", false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if metricStore.IsFresh("acct-1", "3h") {
		t.Fatal("cancelled collection must not populate the store")
	}
}

func TestCoalescedCallersShareInitiatorCancellation(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics(), delay: time.Second}
	f := New(nil, store.NewMetricStore(), collector)

	initiatorCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var initiatorErr, joinerErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, initiatorErr = f.Fetch(initiatorCtx, "acct-1", "org-1", "3h", false)
	}()
	time.Sleep(20 * time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, joinerErr = f.Fetch(context.Background(), "acct-1", "org-1", "3h", false)
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	wg.Wait()

	if !errors.Is(initiatorErr, context.Canceled) {
		t.Fatalf("initiator: expected context.Canceled, got %v", initiatorErr)
	}
	// The joiner inherits the initiator's cancellation even though its own
	// context stayed live.
	if !errors.Is(joinerErr, context.Canceled) {
		t.Fatalf("joiner: expected shared cancellation, got %v", joinerErr)
	}

	// A retry with a live context goes back to the provider and succeeds.
	collector.delay = 0
	if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false); err != nil {
		t.Fatalf("retry after shared cancellation: %v", err)
	}
	if collector.callCount() != 2 {
		t.Fatalf("expected the retry to reach the provider, got %d calls", collector.callCount())
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	collector := &fakeCollector{metrics: testMetrics()}
	f := New(nil, store.NewMetricStore(), collector)

	if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	f.Invalidate("acct-1")
	if _, err := f.Fetch(context.Background(), "acct-1", "org-1", "3h", false); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	if collector.callCount() != 2 {
		t.Fatalf("expected refetch after invalidation, got %d calls", collector.callCount())
	}
}
