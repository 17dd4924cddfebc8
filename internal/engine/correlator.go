package engine

import (
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/udsstack/uds-monitor/internal/models"
)

// compositeSeparator joins a parent resource name with a synthetic child id
// in externally-reported metric ids (e.g. "myapi::health").
const compositeSeparator = "::"

// compositeIDTypes lists resource types whose reported metric ids are
// composed from a parent name plus a sub-resource suffix.
var compositeIDTypes = map[string]bool{
	"apigateway":     true,
	"api_management": true,
}

// metadata keys that may carry the composite-key parent name.
var parentNameKeys = []string{"apiName", "api_name", "parentName"}

// genericNames are placeholder names that recur across many distinct
// resources; matching on them would merge unrelated resources.
var genericNames = map[string]bool{
	"Node":         true,
	"Worker":       true,
	"Cluster Node": true,
}

// Correlator attributes flat metric records to the resources they describe
// using a prioritized matching policy: exact id, composite-key prefix, then
// name fallback.
type Correlator struct {
	logger *slog.Logger
}

// NewCorrelator creates a correlator.
func NewCorrelator(logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{logger: logger}
}

// matchRank returns how strongly a metric belongs to a resource: 0 means no
// match, higher values are stronger rules.
func matchRank(resource models.ResourceRecord, metric models.MetricRecord) int {
	if metric.ResourceType == resource.Type && metric.ResourceID == resource.ID {
		return 3
	}
	if compositeIDTypes[resource.Type] {
		if parent := parentName(resource); parent != "" &&
			strings.HasPrefix(metric.ResourceID, parent+compositeSeparator) {
			return 2
		}
	}
	if resource.Name != "" && !genericNames[resource.Name] && metric.ResourceName == resource.Name {
		return 1
	}
	return 0
}

func parentName(resource models.ResourceRecord) string {
	for _, key := range parentNameKeys {
		if v, ok := resource.Metadata[key]; ok {
			if name := cast.ToString(v); name != "" {
				return name
			}
		}
	}
	return ""
}

// Correlate returns the metrics belonging to a single resource under the
// precedence rules, preserving the input metric order.
func (c *Correlator) Correlate(resource models.ResourceRecord, metrics []models.MetricRecord) []models.MetricRecord {
	matched := make([]models.MetricRecord, 0)
	for _, metric := range metrics {
		if matchRank(resource, metric) > 0 {
			matched = append(matched, metric)
		}
	}
	return matched
}

// CorrelateAll attributes each metric to at most one resource across the
// whole catalog. A stronger rule always beats a weaker one; among resources
// matching at equal strength the earlier-declared resource wins, and an
// equal-strength name-fallback tie is logged rather than silently resolved.
func (c *Correlator) CorrelateAll(resources []models.ResourceRecord, metrics []models.MetricRecord) [][]models.MetricRecord {
	correlated := make([][]models.MetricRecord, len(resources))
	for i := range correlated {
		correlated[i] = []models.MetricRecord{}
	}

	for _, metric := range metrics {
		best := -1
		bestRank := 0
		ambiguous := false
		for i, resource := range resources {
			rank := matchRank(resource, metric)
			if rank == 0 {
				continue
			}
			switch {
			case rank > bestRank:
				best, bestRank = i, rank
				ambiguous = false
			case rank == bestRank && rank == 1:
				ambiguous = true
			}
		}
		if best < 0 {
			continue
		}
		if ambiguous {
			c.logger.Warn("ambiguous name-fallback correlation, keeping earliest resource",
				slog.String("metric", metric.MetricName),
				slog.String("resource_name", metric.ResourceName),
				slog.String("kept", resources[best].ID))
		}
		correlated[best] = append(correlated[best], metric)
	}

	return correlated
}
