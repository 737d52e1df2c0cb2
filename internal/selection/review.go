package selection

import (
	"slices"

	"github.com/philipparndt/takeoff/internal/measurement"
)

// DefaultConfidenceThreshold is the review threshold used when none is configured
const DefaultConfidenceThreshold = 0.8

// ReviewFilter decides which measurements are visible and interactable
type ReviewFilter struct {
	ReviewMode          bool
	ConfidenceThreshold float64
	CurrentReviewID     string
}

// NewReviewFilter creates a filter with review mode off
func NewReviewFilter(threshold float64) ReviewFilter {
	return ReviewFilter{ConfidenceThreshold: threshold}
}

// Visible reports whether m is rendered. Rejected measurements and those of
// hidden conditions never are. In review mode, measurements that carry a
// confidence score below the threshold are hidden too, verified or not.
func (f ReviewFilter) Visible(m measurement.Measurement, conditions measurement.ConditionRegistry) bool {
	if m.IsRejected {
		return false
	}
	if conditions != nil {
		if c, ok := conditions.Condition(m.ConditionID); ok && !c.IsVisible {
			return false
		}
	}
	if f.ReviewMode && scored(m) && m.AIConfidence < f.ConfidenceThreshold {
		return false
	}
	return true
}

// Filter returns the visible measurements in their original order
func (f ReviewFilter) Filter(ms []measurement.Measurement, conditions measurement.ConditionRegistry) []measurement.Measurement {
	out := make([]measurement.Measurement, 0, len(ms))
	for _, m := range ms {
		if f.Visible(m, conditions) {
			out = append(out, m)
		}
	}
	return out
}

// Queue returns the ids awaiting review: AI-generated, neither verified nor
// rejected, and visible. Lowest confidence comes first.
func (f ReviewFilter) Queue(ms []measurement.Measurement, conditions measurement.ConditionRegistry) []string {
	pending := make([]measurement.Measurement, 0)
	for _, m := range ms {
		if m.IsAIGenerated && !m.IsVerified && f.Visible(m, conditions) {
			pending = append(pending, m)
		}
	}
	slices.SortStableFunc(pending, func(a, b measurement.Measurement) int {
		switch {
		case a.AIConfidence < b.AIConfidence:
			return -1
		case a.AIConfidence > b.AIConfidence:
			return 1
		}
		return 0
	})
	ids := make([]string, len(pending))
	for i, m := range pending {
		ids[i] = m.ID
	}
	return ids
}

// Step moves CurrentReviewID by delta positions through queue, wrapping
// around. With no current entry, stepping forward starts at the first and
// stepping back at the last. It returns the new current id.
func (f *ReviewFilter) Step(queue []string, delta int) (string, bool) {
	if len(queue) == 0 {
		f.CurrentReviewID = ""
		return "", false
	}
	i := slices.Index(queue, f.CurrentReviewID)
	switch {
	case i < 0 && delta >= 0:
		i = 0
	case i < 0:
		i = len(queue) - 1
	default:
		i = ((i+delta)%len(queue) + len(queue)) % len(queue)
	}
	f.CurrentReviewID = queue[i]
	return f.CurrentReviewID, true
}

func scored(m measurement.Measurement) bool {
	return m.IsAIGenerated || m.AIConfidence > 0
}
