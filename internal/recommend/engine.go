// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bookloft/bookloft/internal/corpus"
)

// Engine orchestrates one recommendation request end to end: visitor
// injection, the by-location branch, and the by-similar-rater branch.
//
// The two branches are independent by contract. Each can fail on its own
// (no qualifying rater, insufficient neighbor data) without affecting the
// other, and their ranked lists are never merged or deduplicated.
type Engine struct {
	config *Config
	agg    *Aggregator
	logger zerolog.Logger

	// snapshot holds the precomputed neighbor index when offline fitting is
	// enabled. Nil means the index is built fresh per request over the
	// augmented corpus. Swapped atomically on rebuild.
	snapshot atomic.Pointer[Snapshot]
}

// NewEngine validates the configuration and returns an engine.
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	agg, err := NewAggregator(cfg.PriorCount, cfg.PriorMean)
	if err != nil {
		return nil, err
	}
	return &Engine{
		config: cfg.Clone(),
		agg:    agg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// SetSnapshot installs (or with nil, removes) the precomputed neighbor
// index. Requests in flight keep the snapshot they already loaded.
func (e *Engine) SetSnapshot(s *Snapshot) {
	e.snapshot.Store(s)
	if s != nil {
		e.logger.Info().
			Str("version", s.Version).
			Int("users", s.UserCount).
			Int("ratings", s.RatingCount).
			Msg("Neighbor snapshot installed")
	}
}

// Snapshot returns the currently installed snapshot, or nil.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Result is the outcome of one recommendation request. Exactly one of the
// list/err pair is meaningful per branch.
type Result struct {
	// VisitorID is the transient user id assigned for this request only.
	// It is never persisted and never valid in another request.
	VisitorID int `json:"visitor_id"`

	// BookID is what the favorite title resolved to.
	BookID string `json:"book_id"`

	// AmbiguousTitles counts catalogue entries sharing the favorite title.
	AmbiguousTitles int `json:"ambiguous_titles"`

	// ByLocation is the ranked list from co-located raters. Empty when no
	// user matched the location.
	ByLocation []string `json:"by_location"`

	// BySimilar is the ranked list from the similar-rater branch.
	BySimilar []string `json:"by_similar"`

	// BySimilarErr is the similarity branch failure, if any. Branch errors
	// are reported out of band so the other branch still returns.
	BySimilarErr error `json:"-"`
}

// Recommend runs both branches for a visitor described by a home location
// and one favorite title. The base corpus is treated as read-only; the
// visitor lives only in a request-local augmented copy.
//
// Title resolution failure is the only error that fails the whole request.
// A similarity-branch failure is carried in Result.BySimilarErr instead.
func (e *Engine) Recommend(ctx context.Context, base *corpus.Corpus, location, title string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	inj, err := Inject(base, location, title, e.config.MaxRating)
	if err != nil {
		return nil, err
	}
	if inj.AmbiguousTitles > 1 {
		e.logger.Warn().
			Str("title", title).
			Int("matches", inj.AmbiguousTitles).
			Str("book_id", inj.BookID).
			Msg("Ambiguous title, using first match")
	}

	result := &Result{
		VisitorID:       inj.VisitorID,
		BookID:          inj.BookID,
		AmbiguousTitles: inj.AmbiguousTitles,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.ByLocation = e.byLocation(inj.Corpus, location)
	}()
	go func() {
		defer wg.Done()
		result.BySimilar, result.BySimilarErr = e.bySimilar(inj.Corpus, inj.BookID, inj.VisitorID)
	}()
	wg.Wait()

	if result.BySimilarErr != nil {
		e.logger.Debug().
			Err(result.BySimilarErr).
			Str("book_id", inj.BookID).
			Msg("Similarity branch unavailable")
	}
	return result, nil
}

// byLocation ranks books rated by users whose location contains the query.
// No matching users, or matching users with no ratings, yields an empty
// list rather than an error.
func (e *Engine) byLocation(aug *corpus.Corpus, location string) []string {
	matched := UsersByLocation(aug.Users, location)
	if len(matched) == 0 {
		return nil
	}
	groups := GroupRatings(aug.Ratings, matched, nil)
	return e.agg.Top(groups, e.config.TopN)
}

// bySimilar anchors on the most prolific existing maximum-rating rater of
// the chosen book, finds that rater's k nearest neighbors, and ranks the
// books those neighbors rated. The chosen book itself is excluded from the
// output, and so is the visitor when selecting the anchor: a book whose only
// maximum rating is the visitor's own injection has no existing enthusiast
// to anchor on.
func (e *Engine) bySimilar(aug *corpus.Corpus, bookID string, visitorID int) ([]string, error) {
	anchor, err := e.anchorRater(aug.Ratings, bookID, visitorID)
	if err != nil {
		return nil, err
	}

	neighbors, err := e.nearest(aug, anchor)
	if err != nil {
		return nil, err
	}
	neighborSet := make(map[int]struct{}, len(neighbors))
	for _, id := range neighbors {
		neighborSet[id] = struct{}{}
	}

	groups := GroupRatings(aug.Ratings, neighborSet, map[string]struct{}{bookID: {}})
	return e.agg.Top(groups, e.config.TopN), nil
}

// anchorRater selects among all existing maximum-rating raters of the book
// the one with the highest rater count. Ties break to the lowest user id so
// the choice is a stable contract rather than an iteration artifact.
func (e *Engine) anchorRater(ratings []corpus.Rating, bookID string, visitorID int) (int, error) {
	best := -1
	bestCount := -1
	for i := range ratings {
		r := &ratings[i]
		if r.BookID != bookID || r.Value != e.config.MaxRating || r.UserID == visitorID {
			continue
		}
		if r.RaterCount > bestCount || (r.RaterCount == bestCount && r.UserID < best) {
			best = r.UserID
			bestCount = r.RaterCount
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("book %s: %w", bookID, ErrNoQualifyingRater)
	}
	return best, nil
}

// nearest queries the installed snapshot when one is present, otherwise
// builds a fresh index over the augmented corpus.
func (e *Engine) nearest(aug *corpus.Corpus, targetID int) ([]int, error) {
	if snap := e.snapshot.Load(); snap != nil {
		return snap.Index().Nearest(targetID, e.config.Neighbors)
	}
	return BuildNeighborIndex(aug).Nearest(targetID, e.config.Neighbors)
}
