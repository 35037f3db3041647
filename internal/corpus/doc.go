// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package corpus defines the in-memory rating corpus the recommendation
// engine reasons over: users, books, and rating events.
//
// A Corpus is a point-in-time snapshot. It is never mutated in place; the
// only write operation is WithVisitor, which returns an augmented copy and
// leaves the receiver untouched. This copy-on-write discipline is what makes
// the unmodified base corpus safe to share read-only across concurrent
// recommendation requests.
package corpus
