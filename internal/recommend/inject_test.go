// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"errors"
	"testing"

	"github.com/bookloft/bookloft/internal/corpus"
)

func strptr(s string) *string { return &s }

func injectTestCorpus() *corpus.Corpus {
	return &corpus.Corpus{
		Users: []corpus.User{
			{ID: 1, Location: strptr("Lisbon, Portugal")},
			{ID: 2, Location: strptr("Porto, Portugal")},
		},
		Books: []corpus.Book{
			{ID: "b1", Title: "Blindness"},
			{ID: "b2", Title: "The Double"},
			{ID: "b3", Title: "The Double"},
		},
		Ratings: []corpus.Rating{
			{UserID: 1, BookID: "b1", Value: 5, RaterCount: 1},
		},
	}
}

func TestInject(t *testing.T) {
	base := injectTestCorpus()

	inj, err := Inject(base, "Lisbon", "Blindness", 5)
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}

	if inj.VisitorID != 3 {
		t.Errorf("visitor id = %d, want 3", inj.VisitorID)
	}
	if inj.BookID != "b1" {
		t.Errorf("book id = %q, want b1", inj.BookID)
	}
	if inj.AmbiguousTitles != 1 {
		t.Errorf("ambiguous titles = %d, want 1", inj.AmbiguousTitles)
	}

	// Base untouched.
	if len(base.Users) != 2 || len(base.Ratings) != 1 {
		t.Fatalf("base mutated: %d users, %d ratings", len(base.Users), len(base.Ratings))
	}

	// The appended rating references the visitor and the resolved book,
	// at full rating with a rater count of one.
	last := inj.Corpus.Ratings[len(inj.Corpus.Ratings)-1]
	if last.UserID != inj.VisitorID || last.BookID != "b1" || last.Value != 5 || last.RaterCount != 1 {
		t.Errorf("injected rating = %+v", last)
	}
	visitor := inj.Corpus.Users[len(inj.Corpus.Users)-1]
	if visitor.ID != inj.VisitorID || visitor.Location == nil || *visitor.Location != "Lisbon" {
		t.Errorf("injected user = %+v", visitor)
	}
}

func TestInjectRepeatableFromSameBase(t *testing.T) {
	base := injectTestCorpus()

	first, err := Inject(base, "Lisbon", "Blindness", 5)
	if err != nil {
		t.Fatalf("first Inject: %v", err)
	}
	second, err := Inject(base, "Porto", "Blindness", 5)
	if err != nil {
		t.Fatalf("second Inject: %v", err)
	}
	// Same base, same fresh id: visitors are request-scoped, never carried over.
	if first.VisitorID != second.VisitorID {
		t.Errorf("visitor ids differ across injections from same base: %d vs %d", first.VisitorID, second.VisitorID)
	}
	if len(base.Users) != 2 {
		t.Errorf("base mutated after two injections: %d users", len(base.Users))
	}
}

func TestInjectTitleNotFound(t *testing.T) {
	base := injectTestCorpus()
	_, err := Inject(base, "Lisbon", "No Such Book", 5)
	if !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("error = %v, want ErrTitleNotFound", err)
	}
	if len(base.Users) != 2 || len(base.Ratings) != 1 {
		t.Errorf("failed injection mutated base")
	}
}

func TestInjectAmbiguousTitleUsesFirstMatch(t *testing.T) {
	inj, err := Inject(injectTestCorpus(), "Lisbon", "The Double", 5)
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if inj.BookID != "b2" {
		t.Errorf("book id = %q, want first match b2", inj.BookID)
	}
	if inj.AmbiguousTitles != 2 {
		t.Errorf("ambiguous titles = %d, want 2", inj.AmbiguousTitles)
	}
}
