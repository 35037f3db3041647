// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bookloft/bookloft/internal/corpus"
	"github.com/bookloft/bookloft/internal/database"
	"github.com/bookloft/bookloft/internal/logging"
	"github.com/bookloft/bookloft/internal/metrics"
)

// Sources names the dataset directories. An empty directory skips that
// source entirely.
type Sources struct {
	BXDir        string
	GoodbooksDir string
}

// raw holds the parsed but unmerged source rows.
type raw struct {
	bxUsers   []bxUser
	bxBooks   []bxBook
	bxRatings []bxRating
	gbBooks   []gbBook
	gbRatings []gbRating
}

// load parses all source files concurrently; the files are independent so
// a parse failure in any of them cancels the rest.
func load(ctx context.Context, src Sources) (*raw, error) {
	var r raw
	g, _ := errgroup.WithContext(ctx)

	if src.BXDir != "" {
		g.Go(func() error {
			var err error
			r.bxUsers, err = loadBXUsers(filepath.Join(src.BXDir, bxUsersFile))
			return err
		})
		g.Go(func() error {
			var err error
			r.bxBooks, err = loadBXBooks(filepath.Join(src.BXDir, bxBooksFile))
			return err
		})
		g.Go(func() error {
			var err error
			r.bxRatings, err = loadBXRatings(filepath.Join(src.BXDir, bxRatingsFile))
			return err
		})
	}
	if src.GoodbooksDir != "" {
		g.Go(func() error {
			var err error
			r.gbBooks, err = loadGBBooks(filepath.Join(src.GoodbooksDir, gbBooksFile))
			return err
		})
		g.Go(func() error {
			var err error
			r.gbRatings, err = loadGBRatings(filepath.Join(src.GoodbooksDir, gbRatingsFile))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}
	return &r, nil
}

// merge combines the raw rows into one corpus.
//
// Books merge by ISBN, Book-Crossing fields winning where both carry a
// value. Users get sequential internal ids: Book-Crossing users first in
// file order, then goodbooks raters in ascending source id. Ratings whose
// book or user did not survive the merge are dropped.
func merge(r *raw) *corpus.Corpus {
	c := &corpus.Corpus{}

	bookIndex := make(map[string]int)
	for _, b := range r.bxBooks {
		if _, ok := bookIndex[b.ISBN]; ok {
			continue
		}
		bookIndex[b.ISBN] = len(c.Books)
		c.Books = append(c.Books, corpus.Book{
			ID:       b.ISBN,
			Title:    b.Title,
			Authors:  b.Author,
			Year:     b.Year,
			CoverURL: b.CoverURL,
		})
	}
	gbByISBN := make(map[string]int)
	for i, b := range r.gbBooks {
		gbByISBN[b.ISBN] = i
		if bi, ok := bookIndex[b.ISBN]; ok {
			dst := &c.Books[bi]
			if dst.Authors == "" {
				dst.Authors = b.Authors
			}
			if dst.Year == 0 {
				dst.Year = b.Year
			}
			if dst.CoverURL == "" {
				dst.CoverURL = b.CoverURL
			}
			continue
		}
		bookIndex[b.ISBN] = len(c.Books)
		c.Books = append(c.Books, corpus.Book{
			ID:       b.ISBN,
			Title:    b.Title,
			Authors:  b.Authors,
			Year:     b.Year,
			CoverURL: b.CoverURL,
		})
	}

	bxUserIDs := make(map[int]int, len(r.bxUsers))
	for _, u := range r.bxUsers {
		if _, ok := bxUserIDs[u.SourceID]; ok {
			continue
		}
		id := len(c.Users) + 1
		bxUserIDs[u.SourceID] = id
		c.Users = append(c.Users, corpus.User{
			ID:       id,
			Location: u.Location,
			Age:      u.Age,
			Source:   "bookcrossing",
		})
	}

	gbSourceIDs := make(map[int]struct{})
	for _, rt := range r.gbRatings {
		gbSourceIDs[rt.SourceUserID] = struct{}{}
	}
	sortedGB := make([]int, 0, len(gbSourceIDs))
	for id := range gbSourceIDs {
		sortedGB = append(sortedGB, id)
	}
	sort.Ints(sortedGB)
	gbUserIDs := make(map[int]int, len(sortedGB))
	for _, sourceID := range sortedGB {
		id := len(c.Users) + 1
		gbUserIDs[sourceID] = id
		c.Users = append(c.Users, corpus.User{ID: id, Source: "goodbooks"})
	}

	gbISBN := make(map[int]string, len(r.gbBooks))
	for _, b := range r.gbBooks {
		gbISBN[b.BookID] = b.ISBN
	}

	for _, rt := range r.bxRatings {
		userID, ok := bxUserIDs[rt.SourceUserID]
		if !ok {
			continue
		}
		if _, ok := bookIndex[rt.ISBN]; !ok {
			continue
		}
		c.Ratings = append(c.Ratings, corpus.Rating{
			UserID: userID,
			BookID: rt.ISBN,
			Value:  rt.Value,
		})
	}
	for _, rt := range r.gbRatings {
		isbn, ok := gbISBN[rt.BookID]
		if !ok {
			continue
		}
		userID := gbUserIDs[rt.SourceUserID]
		c.Ratings = append(c.Ratings, corpus.Rating{
			UserID: userID,
			BookID: isbn,
			Value:  rt.Value,
		})
	}

	counts := corpus.RaterCounts(c.Ratings)
	for i := range c.Ratings {
		c.Ratings[i].RaterCount = counts[c.Ratings[i].UserID]
	}
	return c
}

// Run loads, merges, and writes the datasets into the database, replacing
// any previous contents.
func Run(ctx context.Context, db *database.DB, src Sources) (*corpus.Corpus, error) {
	logger := logging.With().Str("component", "ingest").Logger()

	r, err := load(ctx, src)
	if err != nil {
		return nil, err
	}
	metrics.RecordIngestRows("bookcrossing", "users", len(r.bxUsers))
	metrics.RecordIngestRows("bookcrossing", "books", len(r.bxBooks))
	metrics.RecordIngestRows("bookcrossing", "ratings", len(r.bxRatings))
	metrics.RecordIngestRows("goodbooks", "books", len(r.gbBooks))
	metrics.RecordIngestRows("goodbooks", "ratings", len(r.gbRatings))

	c := merge(r)
	logger.Info().
		Int("users", len(c.Users)).
		Int("books", len(c.Books)).
		Int("ratings", len(c.Ratings)).
		Msg("Datasets merged")

	if err := db.Reset(ctx); err != nil {
		return nil, err
	}
	if err := db.InsertUsers(ctx, c.Users); err != nil {
		return nil, err
	}
	if err := db.InsertBooks(ctx, c.Books); err != nil {
		return nil, err
	}
	if err := db.InsertRatings(ctx, c.Ratings); err != nil {
		return nil, err
	}
	if err := db.RecomputeRaterCounts(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
