// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Snapshot is a precomputed, immutable neighbor index with identifying
// metadata. The vectors and the index are serialized and loaded as one unit
// under one version, so a loaded snapshot can never mix artifacts from
// different fitting runs.
type Snapshot struct {
	// Version uniquely identifies the fitting run that produced the snapshot.
	Version string `json:"version"`

	// CreatedAt is when the snapshot was fitted.
	CreatedAt time.Time `json:"created_at"`

	// UserCount and RatingCount describe the corpus the snapshot was
	// fitted over.
	UserCount   int `json:"user_count"`
	RatingCount int `json:"rating_count"`

	index *NeighborIndex
}

// NewSnapshot fits a snapshot over the given vectors and stamps it with a
// fresh version.
func NewSnapshot(vectors map[int]SparseVector, ratingCount int) *Snapshot {
	return &Snapshot{
		Version:     uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		UserCount:   len(vectors),
		RatingCount: ratingCount,
		index:       NewNeighborIndex(vectors),
	}
}

// Index returns the snapshot's neighbor index.
func (s *Snapshot) Index() *NeighborIndex {
	return s.index
}

// snapshotPayload is the wire form. Vector norms are cheap to recompute, so
// only the raw vectors travel.
type snapshotPayload struct {
	Version     string               `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UserCount   int                  `json:"user_count"`
	RatingCount int                  `json:"rating_count"`
	Vectors     map[int]SparseVector `json:"vectors"`
}

// MarshalBinary serializes the snapshot as one JSON blob.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	if s.index == nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w", s.Version, ErrNoSnapshot)
	}
	data, err := json.Marshal(snapshotPayload{
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UserCount:   s.UserCount,
		RatingCount: s.RatingCount,
		Vectors:     s.index.vectors,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w", s.Version, err)
	}
	return data, nil
}

// UnmarshalBinary restores a snapshot, rebuilding the index and its norms
// from the serialized vectors.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	var p snapshotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	s.Version = p.Version
	s.CreatedAt = p.CreatedAt
	s.UserCount = p.UserCount
	s.RatingCount = p.RatingCount
	s.index = NewNeighborIndex(p.Vectors)
	return nil
}
