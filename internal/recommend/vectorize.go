// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"math"

	"github.com/bookloft/bookloft/internal/corpus"
)

// SparseVector is one user's rating profile: book id to rating value.
// Absent keys mean unrated, which is distinct from a stored zero rating.
type SparseVector map[string]float64

// Vectorize builds per-user sparse vectors from the rating events. Every
// user present in the corpus gets a vector, including users with no ratings
// (their vector is empty). If a user rated the same book more than once the
// later event wins, matching event order in the corpus.
func Vectorize(c *corpus.Corpus) map[int]SparseVector {
	vectors := make(map[int]SparseVector, len(c.Users))
	for i := range c.Users {
		vectors[c.Users[i].ID] = make(SparseVector)
	}
	for i := range c.Ratings {
		r := &c.Ratings[i]
		vec, ok := vectors[r.UserID]
		if !ok {
			vec = make(SparseVector)
			vectors[r.UserID] = vec
		}
		vec[r.BookID] = r.Value
	}
	return vectors
}

// Norm returns the Euclidean norm of the vector.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product over the shared keys of two sparse vectors.
func (v SparseVector) Dot(other SparseVector) float64 {
	// Iterate the smaller map.
	a, b := v, other
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for k, x := range a {
		if y, ok := b[k]; ok {
			sum += x * y
		}
	}
	return sum
}

// CosineDistance returns 1 - cosine similarity of two sparse vectors, using
// precomputed norms. A zero norm on either side yields the maximum distance
// of 1; callers are expected to have filtered empty vectors already.
func CosineDistance(a, b SparseVector, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - a.Dot(b)/(normA*normB)
}
