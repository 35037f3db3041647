// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bookloft/bookloft/internal/corpus"
)

// engineTestCorpus is small enough to rank by hand.
//
// With priors (5, 3): a lone 5 scores 20/6, two ratings summing 9 score
// 24/7, and so on. The expected lists below are computed from those values.
func engineTestCorpus() *corpus.Corpus {
	return &corpus.Corpus{
		Users: []corpus.User{
			{ID: 1, Location: strptr("New York, USA")},
			{ID: 2, Location: strptr("New York City, USA")},
			{ID: 3, Location: strptr("Berlin, Germany")},
		},
		Books: []corpus.Book{
			{ID: "b1", Title: "The Hobbit"},
			{ID: "b2", Title: "Dune"},
			{ID: "b3", Title: "Emma"},
			{ID: "b4", Title: "Ulysses"},
		},
		Ratings: []corpus.Rating{
			{UserID: 1, BookID: "b1", Value: 5, RaterCount: 3},
			{UserID: 1, BookID: "b2", Value: 4, RaterCount: 3},
			{UserID: 1, BookID: "b3", Value: 4, RaterCount: 3},
			{UserID: 2, BookID: "b2", Value: 5, RaterCount: 2},
			{UserID: 2, BookID: "b3", Value: 1, RaterCount: 2},
			{UserID: 3, BookID: "b1", Value: 5, RaterCount: 2},
			{UserID: 3, BookID: "b4", Value: 5, RaterCount: 2},
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestRecommend(t *testing.T) {
	e := newTestEngine(t)
	base := engineTestCorpus()

	res, err := e.Recommend(context.Background(), base, "New York", "The Hobbit")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if res.VisitorID != 4 {
		t.Errorf("visitor id = %d, want 4", res.VisitorID)
	}
	if res.BookID != "b1" {
		t.Errorf("book id = %q, want b1", res.BookID)
	}

	// Users 1, 2, and the visitor match "New York". The visitor's own 5
	// lifts b1 to 25/7, ahead of b2 at 24/7 and b3 at 20/7.
	wantLoc := []string{"b1", "b2", "b3"}
	if !reflect.DeepEqual(res.ByLocation, wantLoc) {
		t.Errorf("ByLocation = %v, want %v", res.ByLocation, wantLoc)
	}

	// Anchor is user 1 (5-star rater of b1 with the highest rater count).
	// Neighbors are the visitor, user 2, user 3 in distance order; their
	// ratings minus b1 rank b2 and b4 at 20/6 (b2 grouped first), then b3.
	if res.BySimilarErr != nil {
		t.Fatalf("BySimilarErr = %v", res.BySimilarErr)
	}
	wantSim := []string{"b2", "b4", "b3"}
	if !reflect.DeepEqual(res.BySimilar, wantSim) {
		t.Errorf("BySimilar = %v, want %v", res.BySimilar, wantSim)
	}

	// The request must not leak the visitor into the base corpus.
	if len(base.Users) != 3 || len(base.Ratings) != 7 {
		t.Errorf("base mutated: %d users, %d ratings", len(base.Users), len(base.Ratings))
	}
}

func TestRecommendTitleNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Recommend(context.Background(), engineTestCorpus(), "New York", "No Such Book")
	if !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("error = %v, want ErrTitleNotFound", err)
	}
}

func TestRecommendNoQualifyingRater(t *testing.T) {
	e := newTestEngine(t)

	// "Emma" has ratings of 4 and 1 but no existing 5. The visitor's own
	// injected 5 must not count as a qualifying rater.
	res, err := e.Recommend(context.Background(), engineTestCorpus(), "New York", "Emma")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !errors.Is(res.BySimilarErr, ErrNoQualifyingRater) {
		t.Fatalf("BySimilarErr = %v, want ErrNoQualifyingRater", res.BySimilarErr)
	}
	if res.BySimilar != nil {
		t.Errorf("BySimilar = %v, want nil on branch failure", res.BySimilar)
	}

	// The location branch is unaffected by the similarity failure.
	wantLoc := []string{"b2", "b1", "b3"}
	if !reflect.DeepEqual(res.ByLocation, wantLoc) {
		t.Errorf("ByLocation = %v, want %v", res.ByLocation, wantLoc)
	}
}

func TestRecommendNoLocationMatch(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Recommend(context.Background(), engineTestCorpus(), "Atlantis", "The Hobbit")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// The visitor's own location contains "Atlantis", so the visitor always
	// matches, but their only rating is the chosen book.
	if len(res.ByLocation) != 1 || res.ByLocation[0] != "b1" {
		t.Errorf("ByLocation = %v, want [b1]", res.ByLocation)
	}
}

func TestRecommendWithSnapshot(t *testing.T) {
	e := newTestEngine(t)
	base := engineTestCorpus()
	e.SetSnapshot(NewSnapshot(Vectorize(base), len(base.Ratings)))

	res, err := e.Recommend(context.Background(), base, "New York", "The Hobbit")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.BySimilarErr != nil {
		t.Fatalf("BySimilarErr = %v", res.BySimilarErr)
	}
	// The snapshot predates the visitor, so neighbors are users 2 and 3
	// only; their rankable ratings produce the same order here.
	wantSim := []string{"b2", "b4", "b3"}
	if !reflect.DeepEqual(res.BySimilar, wantSim) {
		t.Errorf("BySimilar = %v, want %v", res.BySimilar, wantSim)
	}
}

func TestRecommendCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Recommend(ctx, engineTestCorpus(), "New York", "The Hobbit")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero neighbors", mutate: func(c *Config) { c.Neighbors = 0 }},
		{name: "zero top_n", mutate: func(c *Config) { c.TopN = 0 }},
		{name: "negative prior_count", mutate: func(c *Config) { c.PriorCount = -1 }},
		{name: "zero max_rating", mutate: func(c *Config) { c.MaxRating = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if _, err := NewEngine(cfg, zerolog.Nop()); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewEngine error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
