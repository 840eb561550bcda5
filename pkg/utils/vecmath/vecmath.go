// Package vecmath holds the numeric and text primitives of the index: cosine similarity,
// overlapping chunking, fingerprints and diversity filtering.
package vecmath

import (
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Cosine returns the cosine similarity of a and b in [-1, 1]. Vectors of different length are
// compared over their shared prefix. A zero-magnitude operand yields 0.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// SplitIntoChunks splits text on whitespace into windows of size tokens, each starting
// size-overlap tokens after the previous one. The last window may be shorter. Callers must
// pass overlap < size; the advance is clamped to one token otherwise.
func SplitIntoChunks(text string, size, overlap int) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{strings.Join(tokens, " ")}
	}

	step := max(size-overlap, 1)

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := min(start+size, len(tokens))
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// Hash returns a deterministic fingerprint of s. Collisions are possible but rare.
func Hash(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// DiversityFilter walks items in order (highest score first) and keeps an item only if its
// similarity to every kept item is at most threshold. A threshold <= 0 disables filtering.
func DiversityFilter[T any](items []T, vector func(T) []float32, threshold float64) []T {
	if threshold <= 0 {
		return items
	}

	selected := make([]T, 0, len(items))
	for _, item := range items {
		v := vector(item)
		distinct := true
		for _, s := range selected {
			if Cosine(v, vector(s)) > threshold {
				distinct = false
				break
			}
		}
		if distinct {
			selected = append(selected, item)
		}
	}
	return selected
}
