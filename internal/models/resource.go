package models

import "time"

// ResourceRecord represents a monitored infrastructure object as reported by
// the resource catalog. The core only reads it; the catalog owns its lifecycle.
type ResourceRecord struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Region         string         `json:"region"`
	Status         string         `json:"status"`
	AccountID      string         `json:"account_id"`
	OrganizationID string         `json:"organization_id"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// DisplayName returns the name if present, falling back to the id.
func (r ResourceRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// StatusClass buckets resource statuses by how actionable they are.
type StatusClass int

const (
	StatusClassActive StatusClass = iota
	StatusClassTransitional
	StatusClassTerminal
	StatusClassUnknown
)

var statusClasses = map[string]StatusClass{
	"running":   StatusClassActive,
	"active":    StatusClassActive,
	"available": StatusClassActive,
	"in-use":    StatusClassActive,
	"ok":        StatusClassActive,

	"pending":  StatusClassTransitional,
	"starting": StatusClassTransitional,
	"stopping": StatusClassTransitional,
	"updating": StatusClassTransitional,

	"stopped":      StatusClassTerminal,
	"terminated":   StatusClassTerminal,
	"deallocated":  StatusClassTerminal,
	"failed":       StatusClassTerminal,
	"deleteFailed": StatusClassTerminal,
}

// ClassifyStatus maps a raw status string to its class. Unrecognised statuses
// sort last so surprising catalog states never displace actionable resources.
func ClassifyStatus(status string) StatusClass {
	if class, ok := statusClasses[status]; ok {
		return class
	}
	return StatusClassUnknown
}

// IsActiveStatus reports whether the status indicates the resource is
// currently operating, meaning its metrics are meaningful for aggregation.
func IsActiveStatus(status string) bool {
	return ClassifyStatus(status) == StatusClassActive
}

// MetricRecord is a single sample from the metric collection feed. Records
// sharing a (resourceType, resourceId, metricName) triple form a time series.
type MetricRecord struct {
	ResourceID   string    `json:"resource_id"`
	ResourceType string    `json:"resource_type"`
	ResourceName string    `json:"resource_name,omitempty"`
	MetricName   string    `json:"metric_name"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	Timestamp    time.Time `json:"timestamp"`
}
