// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Command ingest loads the Book-Crossing and goodbooks-10k dumps into the
// database, optionally enriching book metadata from the Google Books API.
package main

import (
	"context"
	"flag"

	"github.com/bookloft/bookloft/internal/config"
	"github.com/bookloft/bookloft/internal/database"
	"github.com/bookloft/bookloft/internal/enrich"
	"github.com/bookloft/bookloft/internal/ingest"
	"github.com/bookloft/bookloft/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	bxDir := flag.String("bx", "", "directory with BX-Users.csv, BX-Books.csv, BX-Book-Ratings.csv")
	gbDir := flag.String("goodbooks", "", "directory with goodbooks-10k books.csv and ratings.csv")
	doEnrich := flag.Bool("enrich", false, "fill metadata gaps from the Google Books API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging)

	if *bxDir == "" && *gbDir == "" {
		logging.Fatal().Msg("At least one of -bx or -goodbooks is required")
	}

	if err := run(cfg, ingest.Sources{BXDir: *bxDir, GoodbooksDir: *gbDir}, *doEnrich); err != nil {
		logging.Fatal().Err(err).Msg("Ingest failed")
	}
}

func run(cfg *config.Config, src ingest.Sources, doEnrich bool) error {
	ctx := context.Background()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	c, err := ingest.Run(ctx, db, src)
	if err != nil {
		return err
	}

	if doEnrich {
		client := enrich.NewClient(cfg.Enrich)
		updated, err := client.Run(ctx, db, c.Books)
		if err != nil {
			return err
		}
		logging.Info().Int("updated", updated).Msg("Metadata enrichment finished")
	}

	logging.Info().
		Int("users", len(c.Users)).
		Int("books", len(c.Books)).
		Int("ratings", len(c.Ratings)).
		Msg("Ingest complete")
	return nil
}
