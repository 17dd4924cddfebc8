// Package store holds the in-memory, per-(account, period) metric cache.
// Entries stay fresh until explicitly invalidated; there is no time-based
// expiry and no persistence across restarts.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/udsstack/uds-monitor/internal/models"
)

// ErrNotFound signals that no entry exists for the requested key.
var ErrNotFound = errors.New("metric store: entry not found")

type entryKey struct {
	AccountKey string
	Period     string
}

type entry struct {
	fetchedAt time.Time
	metrics   []models.MetricRecord
}

// Stats summarises what the store holds for one account. Diagnostic only.
type Stats struct {
	EntryCount    int      `json:"entry_count"`
	PeriodsCached []string `json:"periods_cached"`
}

// MetricStore caches metric slices keyed by (accountKey, period). A Put
// replaces the previous entry for the key wholesale so stale samples from an
// earlier collection never leak into a newer one.
type MetricStore struct {
	mu      sync.RWMutex
	entries map[entryKey]entry
}

// NewMetricStore creates an empty store.
func NewMetricStore() *MetricStore {
	return &MetricStore{entries: make(map[entryKey]entry)}
}

// IsFresh reports whether an entry exists for the key. Entries are fresh for
// the lifetime of the process unless dropped by Invalidate.
func (s *MetricStore) IsFresh(accountKey, period string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[entryKey{accountKey, period}]
	return ok
}

// Get returns a copy of the cached metrics for the key, or ErrNotFound.
func (s *MetricStore) Get(accountKey, period string) ([]models.MetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryKey{accountKey, period}]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.MetricRecord(nil), e.metrics...), nil
}

// FetchedAt returns when the entry for the key was stored, or zero when the
// key is absent.
func (s *MetricStore) FetchedAt(accountKey, period string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[entryKey{accountKey, period}].fetchedAt
}

// Put atomically replaces the entry for the key. The slice is copied so the
// caller cannot mutate the cached data afterwards.
func (s *MetricStore) Put(accountKey, period string, metrics []models.MetricRecord) {
	copied := append([]models.MetricRecord(nil), metrics...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entryKey{accountKey, period}] = entry{
		fetchedAt: time.Now().UTC(),
		metrics:   copied,
	}
}

// Invalidate drops every period entry under the account. Entries for other
// accounts are untouched.
func (s *MetricStore) Invalidate(accountKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.AccountKey == accountKey {
			delete(s.entries, key)
		}
	}
}

// Stats reports how many entries an account currently holds and for which
// periods.
func (s *MetricStore) Stats(accountKey string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{PeriodsCached: []string{}}
	for key := range s.entries {
		if key.AccountKey == accountKey {
			stats.EntryCount++
			stats.PeriodsCached = append(stats.PeriodsCached, key.Period)
		}
	}
	return stats
}
