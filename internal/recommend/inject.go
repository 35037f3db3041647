// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"fmt"

	"github.com/bookloft/bookloft/internal/corpus"
)

// Injection is the result of adding a transient visitor to a corpus.
type Injection struct {
	// Corpus is the augmented copy. The base corpus passed to Inject is
	// never modified.
	Corpus *corpus.Corpus

	// VisitorID is the id assigned to the injected user.
	VisitorID int

	// BookID is the id the favorite title resolved to.
	BookID string

	// AmbiguousTitles is the number of catalogue entries sharing the title.
	// Values above 1 mean BookID is the first match in corpus order.
	AmbiguousTitles int
}

// Inject resolves the favorite title against the catalogue and returns a
// copy of the base corpus with one synthetic user (the visitor) and one
// rating for the resolved book appended. The visitor's id is the current
// user count plus one, and the appended rating carries a rater count of one
// since it is the visitor's only rating.
//
// Resolution is exact title match. If the title is unknown, Inject fails
// with ErrTitleNotFound before touching anything.
func Inject(base *corpus.Corpus, location, title string, rating float64) (*Injection, error) {
	ids := base.BooksByTitle(title)
	if len(ids) == 0 {
		return nil, fmt.Errorf("inject %q: %w", title, ErrTitleNotFound)
	}
	bookID := ids[0]

	visitorID := base.NextUserID()
	loc := location
	aug := base.WithVisitor(
		corpus.User{
			ID:       visitorID,
			Location: &loc,
			Source:   "visitor",
		},
		corpus.Rating{
			UserID:     visitorID,
			BookID:     bookID,
			Value:      rating,
			RaterCount: 1,
		},
	)

	return &Injection{
		Corpus:          aug,
		VisitorID:       visitorID,
		BookID:          bookID,
		AmbiguousTitles: len(ids),
	}, nil
}
