// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package ingest loads the Book-Crossing and goodbooks-10k datasets and
// merges them into one corpus.
//
// Book-Crossing is the primary source: its ISBNs, titles, and user home
// locations drive the engine. goodbooks-10k contributes ratings plus the
// author/year/cover metadata Book-Crossing lacks. Books are merged by ISBN
// with Book-Crossing fields winning where both sources carry a value; users
// from the two sources are kept distinct and assigned sequential internal
// ids in load order.
package ingest
