// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bookloft/bookloft/internal/config"
	"github.com/bookloft/bookloft/internal/corpus"
	"github.com/bookloft/bookloft/internal/database"
	"github.com/bookloft/bookloft/internal/logging"
	"github.com/bookloft/bookloft/internal/recommend"
	"github.com/bookloft/bookloft/internal/recommend/storage"
)

// Server wires the engine, the corpus, and the stores behind the HTTP API.
type Server struct {
	cfg    *config.Config
	db     *database.DB
	engine *recommend.Engine
	store  *storage.Store // nil when snapshots are disabled

	// corpus is the in-memory base corpus, swapped atomically after an
	// ingest-triggered reload. Request handlers only ever read it.
	corpus atomic.Pointer[corpus.Corpus]

	// rebuilding guards the async snapshot rebuild.
	rebuilding atomic.Bool

	validate *validator.Validate
	logger   zerolog.Logger
}

// NewServer assembles the API server. The snapshot store may be nil.
func NewServer(cfg *config.Config, db *database.DB, engine *recommend.Engine, c *corpus.Corpus, store *storage.Store) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		engine:   engine,
		store:    store,
		validate: validator.New(),
		logger:   logging.With().Str("component", "api").Logger(),
	}
	s.corpus.Store(c)
	return s
}

// Corpus returns the current base corpus.
func (s *Server) Corpus() *corpus.Corpus {
	return s.corpus.Load()
}

// SetCorpus swaps in a freshly loaded base corpus.
func (s *Server) SetCorpus(c *corpus.Corpus) {
	s.corpus.Store(c)
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if s.cfg.Server.RateLimit > 0 {
		r.Use(httprate.Limit(
			s.cfg.Server.RateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
				NewResponseWriter(w, req).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded")
			}),
		))
	}
	r.Use(observeMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", s.handleRecommend)
		r.Get("/books/{bookID}", s.handleGetBook)
		r.Get("/locations", s.handleLocations)
		r.Get("/snapshot", s.handleSnapshotStatus)
		r.Post("/snapshot/rebuild", s.handleSnapshotRebuild)
	})

	return r
}

// handleHealth reports liveness and database connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := s.db.Ping(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "database unavailable")
		return
	}
	c := s.Corpus()
	rw.Success(map[string]any{
		"status":  "ok",
		"users":   len(c.Users),
		"books":   len(c.Books),
		"ratings": len(c.Ratings),
	})
}
