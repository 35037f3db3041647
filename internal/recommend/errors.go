// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import "errors"

// Sentinel errors returned by the engine. Callers match with errors.Is; the
// API layer maps them to response error codes.
var (
	// ErrTitleNotFound indicates the favorite title resolves to no known book.
	ErrTitleNotFound = errors.New("title not found in catalogue")

	// ErrInsufficientData indicates a neighbor query targeted a user with no
	// rating history, so no distance is defined.
	ErrInsufficientData = errors.New("insufficient rating history for neighbor query")

	// ErrNoQualifyingRater indicates the chosen book has no existing
	// maximum-rating rater to anchor the similarity branch on.
	ErrNoQualifyingRater = errors.New("no qualifying rater for book")

	// ErrInvalidConfig indicates engine configuration failed validation.
	ErrInvalidConfig = errors.New("invalid recommend configuration")

	// ErrNoSnapshot indicates a snapshot-backed operation ran before any
	// snapshot was loaded or built.
	ErrNoSnapshot = errors.New("no neighbor snapshot available")
)
