// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package api

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	"github.com/bookloft/bookloft/internal/corpus"
	"github.com/bookloft/bookloft/internal/logging"
	"github.com/bookloft/bookloft/internal/metrics"
	"github.com/bookloft/bookloft/internal/recommend"
)

// RecommendRequest is the POST /api/v1/recommendations payload.
type RecommendRequest struct {
	// Location is the visitor's home location, matched as a case-sensitive
	// substring against stored locations.
	Location string `json:"location" validate:"required,max=250"`

	// FavoriteTitle must exactly match a catalogue title.
	FavoriteTitle string `json:"favorite_title" validate:"required,max=500"`
}

// BranchResult is one ranked list with its status. Code is empty when the
// branch produced a list.
type BranchResult struct {
	Status string        `json:"status"`
	Code   string        `json:"code,omitempty"`
	Books  []corpus.Book `json:"books"`
}

// RecommendResponse is the recommendation payload.
type RecommendResponse struct {
	// VisitorID identifies the transient user for this response only; it
	// is never valid in another request.
	VisitorID int `json:"visitor_id"`

	BookID          string `json:"book_id"`
	AmbiguousTitles int    `json:"ambiguous_titles,omitempty"`

	ByLocation BranchResult `json:"by_location"`
	BySimilar  BranchResult `json:"by_similar"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		details := map[string]string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, "validation failed", details)
		return
	}

	start := time.Now()
	result, err := s.engine.Recommend(r.Context(), s.Corpus(), req.Location, req.FavoriteTitle)
	if err != nil {
		if errors.Is(err, recommend.ErrTitleNotFound) {
			metrics.RecordRecommendation("title_not_found", time.Since(start))
			rw.NotFound("favorite title not found")
			return
		}
		metrics.RecordRecommendation("error", time.Since(start))
		rw.InternalError(err)
		return
	}
	metrics.RecordRecommendation("ok", time.Since(start))

	resp := RecommendResponse{
		VisitorID:  result.VisitorID,
		BookID:     result.BookID,
		ByLocation: s.branchResult(r, result.ByLocation, nil),
		BySimilar:  s.branchResult(r, result.BySimilar, result.BySimilarErr),
	}
	if result.AmbiguousTitles > 1 {
		resp.AmbiguousTitles = result.AmbiguousTitles
	}
	rw.Success(resp)
}

// branchResult resolves a ranked id list into book details, or maps the
// branch error to a status code. Branch failures never fail the request.
func (s *Server) branchResult(r *http.Request, ids []string, branchErr error) BranchResult {
	if branchErr != nil {
		code := ErrCodeInternalError
		switch {
		case errors.Is(branchErr, recommend.ErrNoQualifyingRater):
			code = BranchCodeNoQualifyingRater
		case errors.Is(branchErr, recommend.ErrInsufficientData):
			code = BranchCodeInsufficientHistory
		}
		metrics.RecordBranchFailure("by_similar", code)
		return BranchResult{Status: "unavailable", Code: code, Books: []corpus.Book{}}
	}

	books, err := s.db.GetBooks(r.Context(), ids)
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Book detail lookup failed")
		// Fall back to bare ids from the in-memory corpus.
		books = books[:0]
		c := s.Corpus()
		for _, id := range ids {
			if b, ok := c.Book(id); ok {
				books = append(books, b)
			}
		}
	}
	if books == nil {
		books = []corpus.Book{}
	}
	return BranchResult{Status: BranchStatusOK, Books: books}
}
