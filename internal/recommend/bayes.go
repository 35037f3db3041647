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

// RatingGroup collects all rating values one book received from a candidate
// user set. Groups preserve first-encounter order over the rating events,
// which is what the stable ranking sort falls back to on score ties.
type RatingGroup struct {
	BookID string
	Values []float64
}

// GroupRatings walks the rating events in order and groups values by book,
// keeping only ratings by users in the given set. Books in exclude are
// skipped entirely. The returned slice is ordered by each book's first
// appearance among the kept events.
func GroupRatings(ratings []corpus.Rating, users map[int]struct{}, exclude map[string]struct{}) []RatingGroup {
	index := make(map[string]int)
	var groups []RatingGroup
	for i := range ratings {
		r := &ratings[i]
		if _, ok := users[r.UserID]; !ok {
			continue
		}
		if _, ok := exclude[r.BookID]; ok {
			continue
		}
		gi, ok := index[r.BookID]
		if !ok {
			gi = len(groups)
			index[r.BookID] = gi
			groups = append(groups, RatingGroup{BookID: r.BookID})
		}
		groups[gi].Values = append(groups[gi].Values, r.Value)
	}
	return groups
}

// Aggregator scores rating groups with a Bayesian shrinkage average:
//
//	score = (sum + priorMean*priorCount) / (count + priorCount)
//
// A book with few ratings is pulled toward the prior mean; the pull fades
// as real ratings accumulate. With priorCount 5 and priorMean 3, a single
// 5-star rating scores 20/6, well under an honest 4-star consensus.
type Aggregator struct {
	priorCount float64
	priorMean  float64
}

// NewAggregator validates the prior parameters and returns an aggregator.
func NewAggregator(priorCount, priorMean float64) (*Aggregator, error) {
	if priorCount < 0 {
		return nil, fmt.Errorf("%w: prior_count must be non-negative, got %g", ErrInvalidConfig, priorCount)
	}
	if priorMean < 0 {
		return nil, fmt.Errorf("%w: prior_mean must be non-negative, got %g", ErrInvalidConfig, priorMean)
	}
	return &Aggregator{priorCount: priorCount, priorMean: priorMean}, nil
}

// Score computes the shrinkage average for one group of rating values.
// An empty group scores exactly the prior mean.
func (a *Aggregator) Score(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return (sum + a.priorMean*a.priorCount) / (float64(len(values)) + a.priorCount)
}

// Rank orders the groups by descending score. The sort is stable: groups
// with equal scores keep their relative (first-encounter) order.
func (a *Aggregator) Rank(groups []RatingGroup) []string {
	ranked := make([]RatingGroup, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return a.Score(ranked[i].Values) > a.Score(ranked[j].Values)
	})
	ids := make([]string, len(ranked))
	for i := range ranked {
		ids[i] = ranked[i].BookID
	}
	return ids
}

// Top ranks the groups and truncates to the first n book ids.
func (a *Aggregator) Top(groups []RatingGroup, n int) []string {
	ids := a.Rank(groups)
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}
