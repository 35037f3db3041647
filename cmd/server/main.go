// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Command server runs the Bookloft HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookloft/bookloft/internal/api"
	"github.com/bookloft/bookloft/internal/config"
	"github.com/bookloft/bookloft/internal/database"
	"github.com/bookloft/bookloft/internal/logging"
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
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	c, err := db.LoadCorpus(context.Background())
	if err != nil {
		return err
	}

	engine, err := recommend.NewEngine(&cfg.Recommend, logging.Logger())
	if err != nil {
		return err
	}

	var store *storage.Store
	if cfg.Snapshot.Enabled {
		store, err = storage.Open(cfg.Snapshot.Path)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		snap, err := store.Load()
		switch {
		case err == nil:
			engine.SetSnapshot(snap)
		case errors.Is(err, storage.ErrNotFound):
			logging.Warn().Msg("No persisted snapshot found, neighbor index will be built per request until one is fitted")
		default:
			return err
		}
	}

	server := api.NewServer(cfg, db, engine, c, store)
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", httpServer.Addr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}
