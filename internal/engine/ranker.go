package engine

import (
	"sort"

	"github.com/udsstack/uds-monitor/internal/models"
)

// Ranker orders resources so the most actionable ones come first: active
// statuses before transitional and terminal, richer metric coverage before
// sparse, then type and name for a deterministic total order that keeps
// pagination stable across renders.
type Ranker struct{}

// NewRanker creates a ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank sorts views in place. The comparator chain is status class, correlated
// metric count (descending), resource type, display name, then id as the
// final tiebreak.
func (r *Ranker) Rank(views []models.ResourceView) {
	sort.SliceStable(views, func(i, j int) bool {
		return Less(views[i], views[j])
	})
}

// Less reports whether view a sorts before view b.
func Less(a, b models.ResourceView) bool {
	classA := models.ClassifyStatus(a.Resource.Status)
	classB := models.ClassifyStatus(b.Resource.Status)
	if classA != classB {
		return classA < classB
	}
	if len(a.Metrics) != len(b.Metrics) {
		return len(a.Metrics) > len(b.Metrics)
	}
	if a.Resource.Type != b.Resource.Type {
		return a.Resource.Type < b.Resource.Type
	}
	nameA := a.Resource.DisplayName()
	nameB := b.Resource.DisplayName()
	if nameA != nameB {
		return nameA < nameB
	}
	return a.Resource.ID < b.Resource.ID
}
