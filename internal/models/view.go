package models

import "time"

// TrendDirection classifies the recent movement of a metric series.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Trend compares the most recent samples of a series against the older ones.
type Trend struct {
	AverageRecent float64        `json:"average_recent"`
	AverageOlder  float64        `json:"average_older"`
	Direction     TrendDirection `json:"direction"`
	PercentDelta  float64        `json:"percent_delta"`
}

// PrimaryMetric is the single most representative metric chosen for a
// resource, with its latest value rendered for compact display.
type PrimaryMetric struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Display   string    `json:"display"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ResourceView is one row of the dashboard: a resource joined with its
// correlated metrics and derived summaries. Recomputed on every request,
// never persisted.
type ResourceView struct {
	Resource      ResourceRecord `json:"resource"`
	Metrics       []MetricRecord `json:"metrics"`
	PrimaryMetric *PrimaryMetric `json:"primary_metric,omitempty"`
	Trend         *Trend         `json:"trend,omitempty"`
}

// TypeAverage is the average of a named metric across active resources of one
// type.
type TypeAverage struct {
	ResourceType string  `json:"resource_type"`
	MetricName   string  `json:"metric_name"`
	Average      float64 `json:"average"`
	Resources    int     `json:"resources"`
}

// ViewRequest identifies the account, organization and time window a
// dashboard view is computed for.
type ViewRequest struct {
	AccountKey      string
	OrganizationKey string
	PeriodID        string
	ForceRefresh    bool
}

// ViewResult is the end-to-end output of the view pipeline.
type ViewResult struct {
	RequestID string         `json:"request_id"`
	Resources []ResourceView `json:"resources"`
	Averages  []TypeAverage  `json:"averages,omitempty"`
	Period    string         `json:"period"`
	FetchedAt time.Time      `json:"fetched_at"`
}
