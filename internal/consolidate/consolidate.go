// Package consolidate finds likely-redundant pairs across a memory corpus.
package consolidate

import (
	"context"
	"math"

	"github.com/rcliao/memgate/internal/model"
	"github.com/rcliao/memgate/internal/similarity"
)

// DefaultThreshold is the advisory consolidation threshold. It sits below
// the write-time duplicate threshold: a scan suggests cleanup, it never
// blocks anything.
const DefaultThreshold = 0.7

// CandidatePair is a pair of stored memories flagged as likely redundant.
type CandidatePair struct {
	Memory1ID   string  `json:"memory1_id"`
	Memory1Text string  `json:"memory1_text"`
	Memory2ID   string  `json:"memory2_id"`
	Memory2Text string  `json:"memory2_text"`
	Similarity  float64 `json:"similarity"`
}

// Scan compares every unordered pair of memories exactly once and returns
// the pairs whose similarity strictly exceeds threshold, in first-index
// then second-index order. The scan is read-only: merging is left to the
// caller via update/delete on the store.
//
// The walk is O(N²) with no upper bound on N, so ctx is checked between
// outer iterations and a cancelled scan returns ctx.Err.
func Scan(ctx context.Context, memories []model.Memory, threshold float64) ([]CandidatePair, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var pairs []CandidatePair
	for i := range memories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(memories); j++ {
			sim := similarity.Jaccard(memories[i].Text, memories[j].Text)
			if sim > threshold {
				pairs = append(pairs, CandidatePair{
					Memory1ID:   memories[i].ID,
					Memory1Text: memories[i].Text,
					Memory2ID:   memories[j].ID,
					Memory2Text: memories[j].Text,
					Similarity:  math.Round(sim*100) / 100,
				})
			}
		}
	}
	return pairs, nil
}
