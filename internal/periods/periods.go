// Package periods defines the fixed table of named time windows the dashboard
// can request metrics for. Adding a period is a code change, not a runtime
// operation.
package periods

import (
	"fmt"
	"sort"
	"time"
)

// ErrUnknownPeriod signals a period id that is not in the table.
var ErrUnknownPeriod = fmt.Errorf("unknown period")

// Window bounds a metric collection: how far back to look and how many
// samples to request at most.
type Window struct {
	ID         string
	Lookback   time.Duration
	MaxSamples int
}

var table = map[string]Window{
	"1h":  {ID: "1h", Lookback: time.Hour, MaxSamples: 60},
	"3h":  {ID: "3h", Lookback: 3 * time.Hour, MaxSamples: 60},
	"6h":  {ID: "6h", Lookback: 6 * time.Hour, MaxSamples: 72},
	"12h": {ID: "12h", Lookback: 12 * time.Hour, MaxSamples: 72},
	"24h": {ID: "24h", Lookback: 24 * time.Hour, MaxSamples: 96},
	"3d":  {ID: "3d", Lookback: 72 * time.Hour, MaxSamples: 72},
	"7d":  {ID: "7d", Lookback: 7 * 24 * time.Hour, MaxSamples: 84},
}

// Resolve looks up a period id, returning ErrUnknownPeriod when it is not in
// the table.
func Resolve(id string) (Window, error) {
	window, ok := table[id]
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, id)
	}
	return window, nil
}

// IDs returns every known period id sorted by lookback, shortest first.
func IDs() []string {
	windows := make([]Window, 0, len(table))
	for _, w := range table {
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Lookback < windows[j].Lookback })
	ids := make([]string, 0, len(windows))
	for _, w := range windows {
		ids = append(ids, w.ID)
	}
	return ids
}
