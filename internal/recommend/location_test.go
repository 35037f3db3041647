// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"testing"

	"github.com/bookloft/bookloft/internal/corpus"
)

func TestMatchLocation(t *testing.T) {
	tests := []struct {
		name   string
		stored *string
		query  string
		want   bool
	}{
		{name: "exact", stored: strptr("New York, USA"), query: "New York, USA", want: true},
		{name: "substring", stored: strptr("New York, USA"), query: "York", want: true},
		{name: "case sensitive", stored: strptr("New York, USA"), query: "new york", want: false},
		{name: "no match", stored: strptr("Berlin, Germany"), query: "York", want: false},
		{name: "nil never matches", stored: nil, query: "", want: false},
		{name: "empty query matches known location", stored: strptr("Oslo"), query: "", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchLocation(tt.stored, tt.query); got != tt.want {
				t.Errorf("MatchLocation(%v, %q) = %v, want %v", tt.stored, tt.query, got, tt.want)
			}
		})
	}
}

func TestUsersByLocation(t *testing.T) {
	users := []corpus.User{
		{ID: 1, Location: strptr("New York, USA")},
		{ID: 2, Location: strptr("Yorkshire, UK")},
		{ID: 3, Location: strptr("Berlin, Germany")},
		{ID: 4},
	}

	got := UsersByLocation(users, "York")
	if len(got) != 2 {
		t.Fatalf("matched %d users, want 2: %v", len(got), got)
	}
	for _, id := range []int{1, 2} {
		if _, ok := got[id]; !ok {
			t.Errorf("user %d missing from match set", id)
		}
	}

	// Narrower query matches a subset of a broader one.
	broad := UsersByLocation(users, "York")
	narrow := UsersByLocation(users, "New York")
	for id := range narrow {
		if _, ok := broad[id]; !ok {
			t.Errorf("narrow match %d not in broad match set", id)
		}
	}

	// Empty query matches everyone with a known location, never user 4.
	all := UsersByLocation(users, "")
	if len(all) != 3 {
		t.Errorf("empty query matched %d users, want 3", len(all))
	}
	if _, ok := all[4]; ok {
		t.Error("user with unknown location matched")
	}
}
