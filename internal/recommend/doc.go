// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package recommend implements the Bookloft recommendation engine.
//
// A request carries two signals about an otherwise anonymous visitor: a home
// location and one favorite title. The engine injects the visitor into a copy
// of the rating corpus as a transient user and produces two independently
// ranked book lists:
//
//   - by location: books rated by users whose home location contains the
//     visitor's location string
//   - by similar rater: books rated by the k nearest neighbors (cosine
//     distance over sparse rating vectors) of the most prolific
//     maximum-rating rater of the visitor's favorite book
//
// Both lists are scored with a Bayesian shrinkage average so that a single
// enthusiastic rating cannot outrank a well-attested favorite. The lists are
// deliberately kept separate; they answer different questions and are never
// merged or deduplicated against each other.
//
// The neighbor index can be built fresh per request over the augmented
// corpus, or precomputed offline and loaded as an immutable versioned
// Snapshot (see cmd/fit and the storage subpackage).
package recommend
