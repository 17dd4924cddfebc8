package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/udsstack/uds-monitor/internal/models"
)

// primaryPreferences orders metric names by how representative they are for
// each resource type. When none of the preferred names are present the first
// available metric is used instead; a resource with any metrics always gets a
// primary metric.
var primaryPreferences = map[string][]string{
	"ec2":             {"CPUUtilization", "NetworkIn", "NetworkOut"},
	"virtual_machine": {"Percentage CPU", "CPUUtilization", "Network In Total"},
	"rds":             {"CPUUtilization", "DatabaseConnections", "FreeStorageSpace"},
	"sql_database":    {"cpu_percent", "dtu_consumption_percent", "storage_percent"},
	"lambda":          {"Invocations", "Duration", "Errors"},
	"function_app":    {"FunctionExecutionCount", "FunctionExecutionUnits"},
	"apigateway":      {"Count", "Latency", "5XXError"},
	"api_management":  {"Requests", "Duration", "FailedRequests"},
	"elb":             {"RequestCount", "TargetResponseTime", "HTTPCode_ELB_5XX_Count"},
	"s3":              {"BucketSizeBytes", "NumberOfObjects"},
	"dynamodb":        {"ConsumedReadCapacityUnits", "ConsumedWriteCapacityUnits"},
	"ecs":             {"CPUUtilization", "MemoryUtilization"},
}

// Value formatting classes. Part of the contract: exports and tests depend
// on how each class renders.
var (
	countMetrics = map[string]bool{
		"Count": true, "Invocations": true, "Errors": true, "Requests": true,
		"RequestCount": true, "FunctionExecutionCount": true, "NumberOfObjects": true,
		"DatabaseConnections": true, "FailedRequests": true, "5XXError": true,
		"HTTPCode_ELB_5XX_Count": true, "Throttles": true,
	}
	latencyMetrics = map[string]bool{
		"Latency": true, "Duration": true, "TargetResponseTime": true,
		"IntegrationLatency": true,
	}
	utilizationMetrics = map[string]bool{
		"CPUUtilization": true, "MemoryUtilization": true, "Percentage CPU": true,
		"cpu_percent": true, "dtu_consumption_percent": true, "storage_percent": true,
	}
)

// trendWindow bounds how many of the most recent samples feed the trend
// comparison.
const trendWindow = 10

// Aggregator derives primary metrics, per-type averages and trend
// classifications from correlated metric data. It never fails on partial or
// malformed input; missing data degrades to "no primary metric".
type Aggregator struct{}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// PrimaryMetric picks the most representative metric for the resource from
// its correlated metrics and renders the latest sample. Returns nil only when
// the resource has no metrics at all.
func (a *Aggregator) PrimaryMetric(resource models.ResourceRecord, metrics []models.MetricRecord) *models.PrimaryMetric {
	if len(metrics) == 0 {
		return nil
	}

	name := ""
	for _, preferred := range primaryPreferences[resource.Type] {
		if hasMetric(metrics, preferred) {
			name = preferred
			break
		}
	}
	if name == "" {
		name = metrics[0].MetricName
	}

	latest := latestSample(metrics, name)
	if latest == nil {
		return nil
	}
	return &models.PrimaryMetric{
		Name:      name,
		Value:     latest.Value,
		Display:   FormatValue(name, latest.Value),
		Unit:      latest.Unit,
		Timestamp: latest.Timestamp,
	}
}

// TypeAverage averages the named metric across resources of the given type
// whose status is active. Inactive resources are excluded: their last
// reported value is stale and would bias the average. Uses the latest sample
// per resource. The boolean reports whether any resource contributed.
func (a *Aggregator) TypeAverage(resourceType, metricName string, resources []models.ResourceRecord, correlated [][]models.MetricRecord) (models.TypeAverage, bool) {
	values := make([]float64, 0, len(resources))
	for i, resource := range resources {
		if resource.Type != resourceType || !models.IsActiveStatus(resource.Status) {
			continue
		}
		if i >= len(correlated) {
			continue
		}
		if latest := latestSample(correlated[i], metricName); latest != nil {
			values = append(values, latest.Value)
		}
	}
	if len(values) == 0 {
		return models.TypeAverage{}, false
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return models.TypeAverage{}, false
	}
	return models.TypeAverage{
		ResourceType: resourceType,
		MetricName:   metricName,
		Average:      mean,
		Resources:    len(values),
	}, true
}

// Trend compares the recent window of the newest samples against the older
// remainder. With a single sample (or an empty older window) the series is
// reported stable with zero delta.
func (a *Aggregator) Trend(series []models.MetricRecord) *models.Trend {
	if len(series) == 0 {
		return nil
	}

	sorted := append([]models.MetricRecord(nil), series...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > trendWindow {
		sorted = sorted[:trendWindow]
	}

	// Halve short series so even two samples compare two windows; longer
	// series cap the recent window at five samples.
	split := (len(sorted) + 1) / 2
	if split > 5 {
		split = 5
	}
	recent := sorted[:split]
	older := sorted[split:]

	avgRecent := meanValue(recent)
	trend := &models.Trend{
		AverageRecent: avgRecent,
		Direction:     models.TrendStable,
	}
	if len(older) == 0 {
		return trend
	}

	avgOlder := meanValue(older)
	trend.AverageOlder = avgOlder
	switch {
	case avgRecent > avgOlder:
		trend.Direction = models.TrendUp
	case avgRecent < avgOlder:
		trend.Direction = models.TrendDown
	}
	if avgOlder > 0 {
		trend.PercentDelta = (avgRecent - avgOlder) / avgOlder * 100
	}
	return trend
}

// PrimaryTrend computes the trend for the resource's primary metric series.
func (a *Aggregator) PrimaryTrend(primary *models.PrimaryMetric, metrics []models.MetricRecord) *models.Trend {
	if primary == nil {
		return nil
	}
	series := make([]models.MetricRecord, 0, len(metrics))
	for _, m := range metrics {
		if m.MetricName == primary.Name {
			series = append(series, m)
		}
	}
	return a.Trend(series)
}

// FormatValue renders a metric value according to its semantic class: counts
// as integers, latencies in milliseconds, utilizations as percentages, and
// everything else with two decimals.
func FormatValue(metricName string, value float64) string {
	switch {
	case countMetrics[metricName]:
		return fmt.Sprintf("%d", int64(math.Round(value)))
	case latencyMetrics[metricName]:
		return fmt.Sprintf("%.1f ms", value)
	case utilizationMetrics[metricName]:
		return fmt.Sprintf("%.1f%%", value)
	default:
		return fmt.Sprintf("%.2f", value)
	}
}

func hasMetric(metrics []models.MetricRecord, name string) bool {
	for _, m := range metrics {
		if m.MetricName == name {
			return true
		}
	}
	return false
}

func latestSample(metrics []models.MetricRecord, name string) *models.MetricRecord {
	var latest *models.MetricRecord
	for i := range metrics {
		m := &metrics[i]
		if m.MetricName != name {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	return latest
}

func meanValue(metrics []models.MetricRecord) float64 {
	if len(metrics) == 0 {
		return 0
	}
	values := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		values = append(values, m.Value)
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}
