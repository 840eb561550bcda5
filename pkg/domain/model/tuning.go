package model

import (
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidTuning is returned by Tuning.Validate
var ErrInvalidTuning = goerr.New("invalid tuning")

// Tuning holds every tunable constant of indexing, ranking and context assembly.
type Tuning struct {
	Index     IndexTuning    `toml:"index"`
	Ranking   RankingTuning  `toml:"ranking"`
	Context   ContextTuning  `toml:"context"`
	FrameDays map[string]int `toml:"frame_days"`
}

type IndexTuning struct {
	ChunkSize         int `toml:"chunk_size"`
	ChunkOverlap      int `toml:"chunk_overlap"`
	MinChunkLength    int `toml:"min_chunk_length"`
	MaxEmbeddingBatch int `toml:"max_embedding_batch"`
	RetentionDays     int `toml:"retention_days"`
}

type RankingTuning struct {
	RecencyDivisorDays          float64 `toml:"recency_divisor_days"`
	RecencyWeight               float64 `toml:"recency_weight"`
	ExactMatchBoost             float64 `toml:"exact_match_boost"`
	ContextTypeBoost            float64 `toml:"context_type_boost"`
	DiversityThreshold          float64 `toml:"diversity_threshold"`
	EmotionalDiversityThreshold float64 `toml:"emotional_diversity_threshold"`
	ThematicDiversityThreshold  float64 `toml:"thematic_diversity_threshold"`
}

type ContextTuning struct {
	PrimaryK         int    `toml:"primary_k"`
	WidenedK         int    `toml:"widened_k"`
	RecentDays       int    `toml:"recent_days"`
	CombinedCap      int    `toml:"combined_cap"`
	HistoricalSlots  int    `toml:"historical_slots"`
	RecentSlots      int    `toml:"recent_slots"`
	MaxChunks        int    `toml:"max_chunks"`
	SnippetLength    int    `toml:"snippet_length"`
	SubstantiveChars int    `toml:"substantive_chars"`
	AssistantMarker  string `toml:"assistant_marker"`
}

// DefaultTuning returns the built-in constants.
func DefaultTuning() *Tuning {
	return &Tuning{
		Index: IndexTuning{
			ChunkSize:         250,
			ChunkOverlap:      75,
			MinChunkLength:    20,
			MaxEmbeddingBatch: 100,
			RetentionDays:     90,
		},
		Ranking: RankingTuning{
			RecencyDivisorDays:          30,
			RecencyWeight:               0.2,
			ExactMatchBoost:             1.5,
			ContextTypeBoost:            1.1,
			DiversityThreshold:          0.8,
			EmotionalDiversityThreshold: 0.7,
			ThematicDiversityThreshold:  0.9,
		},
		Context: ContextTuning{
			PrimaryK:         15,
			WidenedK:         30,
			RecentDays:       2,
			CombinedCap:      20,
			HistoricalSlots:  5,
			RecentSlots:      3,
			MaxChunks:        8,
			SnippetLength:    500,
			SubstantiveChars: 50,
			AssistantMarker:  "**AI**:",
		},
		FrameDays: map[string]int{
			string(types.TimeFrameRecent): 3,
			string(types.TimeFrameWeek):   7,
			string(types.TimeFrameMonth):  30,
		},
	}
}

// Days returns the window length of frame.
func (t *Tuning) Days(frame types.TimeFrame) int {
	return t.FrameDays[string(frame)]
}

// Validate checks the preconditions the algorithms rely on.
func (t *Tuning) Validate() error {
	idx := t.Index
	if idx.ChunkSize <= 0 {
		return goerr.Wrap(ErrInvalidTuning, "chunk_size must be positive", goerr.V("chunk_size", idx.ChunkSize))
	}
	if idx.ChunkOverlap < 0 || idx.ChunkOverlap >= idx.ChunkSize {
		return goerr.Wrap(ErrInvalidTuning, "chunk_overlap must be in [0, chunk_size)",
			goerr.V("chunk_size", idx.ChunkSize), goerr.V("chunk_overlap", idx.ChunkOverlap))
	}
	if idx.MaxEmbeddingBatch <= 0 {
		return goerr.Wrap(ErrInvalidTuning, "max_embedding_batch must be positive", goerr.V("max_embedding_batch", idx.MaxEmbeddingBatch))
	}
	if idx.RetentionDays <= 0 {
		return goerr.Wrap(ErrInvalidTuning, "retention_days must be positive", goerr.V("retention_days", idx.RetentionDays))
	}

	r := t.Ranking
	if r.RecencyDivisorDays <= 0 {
		return goerr.Wrap(ErrInvalidTuning, "recency_divisor_days must be positive", goerr.V("recency_divisor_days", r.RecencyDivisorDays))
	}
	if r.ExactMatchBoost < 1 || r.ContextTypeBoost < 1 {
		return goerr.Wrap(ErrInvalidTuning, "boost factors must be at least 1",
			goerr.V("exact_match_boost", r.ExactMatchBoost), goerr.V("context_type_boost", r.ContextTypeBoost))
	}

	c := t.Context
	if c.PrimaryK <= 0 || c.WidenedK <= 0 || c.CombinedCap <= 0 || c.MaxChunks <= 0 || c.SnippetLength <= 0 {
		return goerr.Wrap(ErrInvalidTuning, "context sizes must be positive")
	}
	if c.AssistantMarker == "" {
		return goerr.Wrap(ErrInvalidTuning, "assistant_marker is required")
	}

	for _, f := range types.AllTimeFrames() {
		if t.Days(f) <= 0 {
			return goerr.Wrap(ErrInvalidTuning, "frame_days must be positive", goerr.V("frame", f))
		}
	}
	if !(t.Days(types.TimeFrameRecent) < t.Days(types.TimeFrameWeek) && t.Days(types.TimeFrameWeek) < t.Days(types.TimeFrameMonth)) {
		return goerr.Wrap(ErrInvalidTuning, "frame_days must grow from recent to week to month")
	}

	return nil
}
