// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"fmt"
	"sort"

	"github.com/bookloft/bookloft/internal/corpus"
)

// NeighborIndex answers k-nearest-neighbor queries over user rating vectors
// with cosine distance. The index is immutable after construction and safe
// for concurrent queries.
type NeighborIndex struct {
	vectors map[int]SparseVector
	norms   map[int]float64

	// userIDs holds ids in ascending order so query results are
	// deterministic when distances tie.
	userIDs []int
}

// BuildNeighborIndex vectorizes the corpus and precomputes vector norms.
func BuildNeighborIndex(c *corpus.Corpus) *NeighborIndex {
	return NewNeighborIndex(Vectorize(c))
}

// NewNeighborIndex builds an index from already-vectorized users. The
// vectors map is retained by the index and must not be mutated afterwards.
func NewNeighborIndex(vectors map[int]SparseVector) *NeighborIndex {
	ix := &NeighborIndex{
		vectors: vectors,
		norms:   make(map[int]float64, len(vectors)),
		userIDs: make([]int, 0, len(vectors)),
	}
	for id, vec := range vectors {
		ix.norms[id] = vec.Norm()
		ix.userIDs = append(ix.userIDs, id)
	}
	sort.Ints(ix.userIDs)
	return ix
}

// Users returns the number of users in the index.
func (ix *NeighborIndex) Users() int {
	return len(ix.userIDs)
}

// Vector returns the rating vector for a user.
func (ix *NeighborIndex) Vector(userID int) (SparseVector, bool) {
	vec, ok := ix.vectors[userID]
	return vec, ok
}

// neighbor pairs a candidate user with its distance to the query target.
type neighbor struct {
	userID   int
	distance float64
}

// Nearest returns up to k user ids closest to the target user by cosine
// distance, ascending. The target itself is never returned. Candidates with
// empty vectors are skipped because no distance is defined for them; if
// fewer than k candidates remain, all of them are returned.
//
// A target that is unknown to the index or has no ratings fails with
// ErrInsufficientData.
func (ix *NeighborIndex) Nearest(targetID, k int) ([]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: neighbors must be positive, got %d", ErrInvalidConfig, k)
	}
	target, ok := ix.vectors[targetID]
	if !ok || len(target) == 0 {
		return nil, fmt.Errorf("user %d: %w", targetID, ErrInsufficientData)
	}
	targetNorm := ix.norms[targetID]

	candidates := make([]neighbor, 0, len(ix.userIDs))
	for _, id := range ix.userIDs {
		if id == targetID {
			continue
		}
		vec := ix.vectors[id]
		if len(vec) == 0 {
			continue
		}
		candidates = append(candidates, neighbor{
			userID:   id,
			distance: CosineDistance(target, vec, targetNorm, ix.norms[id]),
		})
	}

	// Stable so equal distances resolve by ascending user id.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	ids := make([]int, len(candidates))
	for i, n := range candidates {
		ids[i] = n.userID
	}
	return ids, nil
}
