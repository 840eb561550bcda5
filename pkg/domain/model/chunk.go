package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
)

// ChunkID is a UUID-based identifier for Chunk
type ChunkID string

// NewChunkID generates a new UUID v4 ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

// Chunk is the atomic indexed unit: a window of a note's text with its embedding.
// Chunks are never modified once stored. A changed note has all of its chunks removed
// and new ones created.
type Chunk struct {
	ID              ChunkID           `json:"id"`
	Path            string            `json:"path"`
	Date            time.Time         `json:"date"`
	Text            string            `json:"text"`
	Vector          []float32         `json:"vector"`
	ContextType     types.ContextType `json:"context_type"`
	EmotionalTags   []string          `json:"emotional_tags,omitempty"`
	ThematicTags    []string          `json:"thematic_tags,omitempty"`
	TemporalMarkers []string          `json:"temporal_markers,omitempty"`
	// Hash fingerprints the whole source note text, not this chunk's text.
	Hash string `json:"hash"`
}

// Copy returns a deep copy of the chunk.
func (c *Chunk) Copy() *Chunk {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Vector = append([]float32(nil), c.Vector...)
	cp.EmotionalTags = append([]string(nil), c.EmotionalTags...)
	cp.ThematicTags = append([]string(nil), c.ThematicTags...)
	cp.TemporalMarkers = append([]string(nil), c.TemporalMarkers...)
	return &cp
}

// HasTag reports whether any of wanted appears in tags.
func HasTag(tags []string, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}
