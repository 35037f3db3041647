// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	bookID := chi.URLParam(r, "bookID")
	if bookID == "" {
		rw.BadRequest("book id is required")
		return
	}

	book, err := s.db.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			rw.NotFound("book not found")
			return
		}
		rw.InternalError(err)
		return
	}
	rw.Success(book)
}

// handleLocations serves location autocomplete for the submission form.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.BadRequest("query parameter q is required")
		return
	}

	locations, err := s.db.SearchLocations(r.Context(), query, 20)
	if err != nil {
		rw.InternalError(err)
		return
	}
	if locations == nil {
		locations = []string{}
	}
	rw.Success(map[string]any{"locations": locations})
}
