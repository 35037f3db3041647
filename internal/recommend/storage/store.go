// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package storage persists fitted neighbor snapshots in BadgerDB.
//
// A snapshot is written as one blob under one key, plus a small metadata
// record for cheap status queries. Writing blob and metadata in a single
// transaction means a reader can never observe a version whose artifacts
// come from different fitting runs.
package storage

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/bookloft/bookloft/internal/logging"
	"github.com/bookloft/bookloft/internal/recommend"
)

// Key layout.
const (
	keySnapshot = "snapshot:current"
	keyMeta     = "snapshot:meta"
)

// ErrNotFound indicates no snapshot has been persisted yet.
var ErrNotFound = errors.New("snapshot not found in store")

// Meta is the lightweight snapshot descriptor stored alongside the blob.
type Meta struct {
	Version     string `json:"version"`
	CreatedAt   string `json:"created_at"`
	UserCount   int    `json:"user_count"`
	RatingCount int    `json:"rating_count"`
	SizeBytes   int    `json:"size_bytes"`
}

// Store is a BadgerDB-backed snapshot store.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithCompactL0OnClose(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store at %s: %w", path, err)
	}
	logging.Debug().Str("path", path).Msg("Snapshot store opened")
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close snapshot store: %w", err)
	}
	return nil
}

// Save persists the snapshot, replacing any previous one. Blob and metadata
// are committed in one transaction.
func (s *Store) Save(snap *recommend.Snapshot) error {
	blob, err := snap.MarshalBinary()
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	meta, err := json.Marshal(Meta{
		Version:     snap.Version,
		CreatedAt:   snap.CreatedAt.Format(time.RFC3339),
		UserCount:   snap.UserCount,
		RatingCount: snap.RatingCount,
		SizeBytes:   len(blob),
	})
	if err != nil {
		return fmt.Errorf("save snapshot meta: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keySnapshot), blob); err != nil {
			return err
		}
		return txn.Set([]byte(keyMeta), meta)
	})
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.Version, err)
	}
	logging.Info().
		Str("version", snap.Version).
		Int("size_bytes", len(blob)).
		Msg("Snapshot persisted")
	return nil
}

// Load reads and rebuilds the persisted snapshot.
func (s *Store) Load() (*recommend.Snapshot, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySnapshot))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap recommend.Snapshot
	if err := snap.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &snap, nil
}

// LoadMeta reads the snapshot descriptor without deserializing the blob.
func (s *Store) LoadMeta() (*Meta, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot meta: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("load snapshot meta: %w", err)
	}
	return &meta, nil
}
