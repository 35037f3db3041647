// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"strings"

	"github.com/bookloft/bookloft/internal/corpus"
)

// MatchLocation reports whether a stored location matches a query. Matching
// is case-sensitive substring containment: "York" matches both
// "New York, USA" and "Yorkshire, UK". A nil stored location never matches.
func MatchLocation(stored *string, query string) bool {
	if stored == nil {
		return false
	}
	return strings.Contains(*stored, query)
}

// UsersByLocation returns the id set of users whose location matches the
// query. An empty query matches every user with a known location; callers
// that do not want that behavior must reject empty queries before calling.
func UsersByLocation(users []corpus.User, query string) map[int]struct{} {
	matched := make(map[int]struct{})
	for i := range users {
		if MatchLocation(users[i].Location, query) {
			matched[users[i].ID] = struct{}{}
		}
	}
	return matched
}
