// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/bookloft/bookloft/internal/corpus"
	"github.com/bookloft/bookloft/internal/metrics"
	"github.com/bookloft/bookloft/internal/recommend"
	"github.com/bookloft/bookloft/internal/recommend/storage"
)

// handleSnapshotStatus reports the installed neighbor snapshot, if any.
func (s *Server) handleSnapshotStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := map[string]any{
		"enabled":    s.cfg.Snapshot.Enabled,
		"installed":  false,
		"rebuilding": s.rebuilding.Load(),
	}
	if snap := s.engine.Snapshot(); snap != nil {
		status["installed"] = true
		status["version"] = snap.Version
		status["created_at"] = snap.CreatedAt
		status["users"] = snap.UserCount
		status["ratings"] = snap.RatingCount
	}
	if s.store != nil {
		if meta, err := s.store.LoadMeta(); err == nil {
			status["persisted_version"] = meta.Version
			status["persisted_size_bytes"] = meta.SizeBytes
		} else if !errors.Is(err, storage.ErrNotFound) {
			rw.InternalError(err)
			return
		}
	}
	rw.Success(status)
}

// handleSnapshotRebuild kicks off an asynchronous refit of the neighbor
// snapshot over the current corpus. Only one rebuild runs at a time.
func (s *Server) handleSnapshotRebuild(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if s.store == nil {
		rw.BadRequest("snapshots are disabled")
		return
	}
	if !s.rebuilding.CompareAndSwap(false, true) {
		rw.Error(http.StatusConflict, ErrCodeConflict, "rebuild already in progress")
		return
	}

	go s.rebuildSnapshot(s.Corpus())

	rw.Success(map[string]any{"status": "rebuild started"})
}

func (s *Server) rebuildSnapshot(c *corpus.Corpus) {
	defer s.rebuilding.Store(false)
	start := time.Now()

	snap := recommend.NewSnapshot(recommend.Vectorize(c), len(c.Ratings))
	if err := s.store.Save(snap); err != nil {
		metrics.RecordSnapshotBuild("error", 0)
		s.logger.Error().Err(err).Msg("Snapshot rebuild failed")
		return
	}
	s.engine.SetSnapshot(snap)
	metrics.RecordSnapshotBuild("success", snap.UserCount)
	s.logger.Info().
		Str("version", snap.Version).
		Dur("duration", time.Since(start)).
		Msg("Snapshot rebuilt")
}
