package model

import (
	"time"

	"github.com/hindsight-journal/hindsight/pkg/domain/types"
)

// TimeRange is an inclusive interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t is within [Start, End].
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Mood describes the writer's current state as inferred by the caller.
type Mood struct {
	Sentiment        types.Sentiment `json:"sentiment,omitempty"`
	DominantEmotions []string        `json:"dominant_emotions,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
}

// SearchOptions narrows and tunes a contextual search. All filters are AND-ed.
type SearchOptions struct {
	ContextTypes    []types.ContextType
	EmotionalFilter []string
	ThematicFilter  []string
	TemporalRange   *TimeRange
	BoostRecent     bool
	// DiversityThreshold overrides the tuned default when set. Values <= 0 disable the filter.
	DiversityThreshold *float64
}

// Threshold is a helper to set SearchOptions.DiversityThreshold inline.
func Threshold(v float64) *float64 {
	return &v
}

// SearchResult is a ranked chunk. Display is the chunk text prefixed with its relative date;
// Chunk.Text is never modified.
type SearchResult struct {
	Chunk   *Chunk  `json:"chunk"`
	Score   float64 `json:"score"`
	Display string  `json:"display"`
}
