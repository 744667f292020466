// Package dedup detects near-duplicate memories at write time.
package dedup

import (
	"math"

	"github.com/rcliao/memgate/internal/model"
	"github.com/rcliao/memgate/internal/similarity"
)

// DefaultThreshold is the write-time duplicate threshold.
const DefaultThreshold = 0.85

// Duplicate identifies an existing memory that matches a candidate.
type Duplicate struct {
	ID         string  `json:"existing_memory_id"`
	Text       string  `json:"existing_content"`
	Similarity float64 `json:"similarity"`
}

// FindDuplicate walks existing in the order given and returns the first
// memory whose similarity to candidate strictly exceeds threshold.
//
// This is first-match, not best-match: the caller is expected to pass
// results ordered most-relevant-first (as similarity search does), which
// makes first a good proxy for best. With an unstable input order the
// reported duplicate may vary between calls.
func FindDuplicate(candidate string, existing []model.Memory, threshold float64) (Duplicate, bool) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	for _, mem := range existing {
		sim := similarity.Jaccard(candidate, mem.Text)
		if sim > threshold {
			return Duplicate{
				ID:         mem.ID,
				Text:       mem.Text,
				Similarity: math.Round(sim*100) / 100,
			}, true
		}
	}
	return Duplicate{}, false
}
