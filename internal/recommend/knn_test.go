// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/bookloft/bookloft/internal/corpus"
)

func TestVectorize(t *testing.T) {
	c := &corpus.Corpus{
		Users: []corpus.User{{ID: 1}, {ID: 2}, {ID: 3}},
		Ratings: []corpus.Rating{
			{UserID: 1, BookID: "a", Value: 5},
			{UserID: 1, BookID: "b", Value: 0},
			{UserID: 2, BookID: "a", Value: 3},
			{UserID: 1, BookID: "a", Value: 4}, // later event wins
		},
	}
	vectors := Vectorize(c)

	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3 (ratingless users included)", len(vectors))
	}
	want1 := SparseVector{"a": 4, "b": 0}
	if !reflect.DeepEqual(vectors[1], want1) {
		t.Errorf("user 1 vector = %v, want %v", vectors[1], want1)
	}
	if len(vectors[3]) != 0 {
		t.Errorf("user 3 should have an empty vector, got %v", vectors[3])
	}
	// A stored zero must stay a dimension of the vector.
	if _, ok := vectors[1]["b"]; !ok {
		t.Error("zero-valued rating dropped from vector")
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b SparseVector
		want float64
	}{
		{name: "identical", a: SparseVector{"x": 2, "y": 1}, b: SparseVector{"x": 2, "y": 1}, want: 0},
		{name: "orthogonal", a: SparseVector{"x": 1}, b: SparseVector{"y": 1}, want: 1},
		{name: "no overlap", a: SparseVector{"x": 3}, b: SparseVector{"z": 4}, want: 1},
		{name: "parallel scaled", a: SparseVector{"x": 1, "y": 2}, b: SparseVector{"x": 2, "y": 4}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineDistance(tt.a, tt.b, tt.a.Norm(), tt.b.Norm())
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineDistance() = %g, want %g", got, tt.want)
			}
		})
	}
}

func knnTestIndex() *NeighborIndex {
	// User 1 and 2 share taste exactly, 3 overlaps partially, 4 is
	// orthogonal, 5 has no ratings.
	return NewNeighborIndex(map[int]SparseVector{
		1: {"a": 5, "b": 4},
		2: {"a": 5, "b": 4},
		3: {"a": 5, "c": 1},
		4: {"d": 5},
		5: {},
	})
}

func TestNearest(t *testing.T) {
	ix := knnTestIndex()

	tests := []struct {
		name    string
		target  int
		k       int
		want    []int
		wantErr error
	}{
		{name: "orders by distance", target: 1, k: 3, want: []int{2, 3, 4}},
		{name: "truncates to k", target: 1, k: 1, want: []int{2}},
		{name: "fewer candidates than k", target: 1, k: 50, want: []int{2, 3, 4}},
		{name: "empty vector target", target: 5, k: 3, wantErr: ErrInsufficientData},
		{name: "unknown target", target: 99, k: 3, wantErr: ErrInsufficientData},
		{name: "non-positive k", target: 1, k: 0, wantErr: ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Nearest(tt.target, tt.k)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Nearest() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Nearest() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Nearest(%d, %d) = %v, want %v", tt.target, tt.k, got, tt.want)
			}
		})
	}
}

func TestNearestNeverReturnsTarget(t *testing.T) {
	ix := knnTestIndex()
	for _, target := range []int{1, 2, 3, 4} {
		got, err := ix.Nearest(target, 10)
		if err != nil {
			t.Fatalf("Nearest(%d): %v", target, err)
		}
		for _, id := range got {
			if id == target {
				t.Errorf("Nearest(%d) returned the target itself", target)
			}
		}
	}
}

func TestNearestTieBreaksByUserID(t *testing.T) {
	// Users 10 and 20 are equidistant from the target.
	ix := NewNeighborIndex(map[int]SparseVector{
		1:  {"a": 1},
		10: {"b": 1},
		20: {"b": 1},
	})
	got, err := ix.Nearest(1, 2)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	want := []int{10, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tie order = %v, want %v", got, want)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := NewSnapshot(map[int]SparseVector{
		1: {"a": 5, "b": 0},
		2: {"a": 3},
	}, 3)

	data, err := snap.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var restored Snapshot
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if restored.Version != snap.Version {
		t.Errorf("version = %q, want %q", restored.Version, snap.Version)
	}
	if restored.UserCount != 2 || restored.RatingCount != 3 {
		t.Errorf("counts = (%d, %d), want (2, 3)", restored.UserCount, restored.RatingCount)
	}

	// The restored index must answer queries identically.
	origNearest, err := snap.Index().Nearest(1, 5)
	if err != nil {
		t.Fatalf("original Nearest: %v", err)
	}
	gotNearest, err := restored.Index().Nearest(1, 5)
	if err != nil {
		t.Fatalf("restored Nearest: %v", err)
	}
	if !reflect.DeepEqual(gotNearest, origNearest) {
		t.Errorf("restored Nearest = %v, want %v", gotNearest, origNearest)
	}
}
