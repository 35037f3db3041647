// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Command fit precomputes the neighbor snapshot offline: it loads the
// corpus from DuckDB, vectorizes it, builds the index, and persists a
// versioned snapshot to the BadgerDB store the server reads at startup.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/bookloft/bookloft/internal/config"
	"github.com/bookloft/bookloft/internal/database"
	"github.com/bookloft/bookloft/internal/logging"
	"github.com/bookloft/bookloft/internal/metrics"
	"github.com/bookloft/bookloft/internal/recommend"
	"github.com/bookloft/bookloft/internal/recommend/storage"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging)

	if err := run(cfg); err != nil {
		metrics.RecordSnapshotBuild("error", 0)
		logging.Fatal().Err(err).Msg("Fitting failed")
	}
}

func run(cfg *config.Config) error {
	start := time.Now()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	c, err := db.LoadCorpus(context.Background())
	if err != nil {
		return err
	}

	snap := recommend.NewSnapshot(recommend.Vectorize(c), len(c.Ratings))

	store, err := storage.Open(cfg.Snapshot.Path)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if err := store.Save(snap); err != nil {
		return err
	}
	metrics.RecordSnapshotBuild("success", snap.UserCount)
	logging.Info().
		Str("version", snap.Version).
		Int("users", snap.UserCount).
		Int("ratings", snap.RatingCount).
		Dur("duration", time.Since(start)).
		Msg("Snapshot fitted and persisted")
	return nil
}
