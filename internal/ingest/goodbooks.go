// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// goodbooks-10k file names.
const (
	gbBooksFile   = "books.csv"
	gbRatingsFile = "ratings.csv"
)

// gbBook is a raw goodbooks-10k book row. The dataset keys ratings by an
// internal book id; ISBN is what lets us merge with Book-Crossing.
type gbBook struct {
	BookID   int
	ISBN     string
	Title    string
	Authors  string
	Year     int
	CoverURL string
}

// gbRating is a raw goodbooks-10k rating row.
type gbRating struct {
	SourceUserID int
	BookID       int
	Value        float64
}

// headerIndex maps column names to positions so column order changes in the
// dataset do not break parsing.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func field(rec []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// loadGBBooks parses books.csv. Rows without an ISBN cannot be merged and
// are dropped.
func loadGBBooks(path string) ([]gbBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	idx := headerIndex(header)

	var books []gbBook
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		bookID, err := strconv.Atoi(field(rec, idx, "book_id"))
		if err != nil {
			continue
		}
		isbn := field(rec, idx, "isbn")
		if isbn == "" {
			continue
		}
		b := gbBook{
			BookID:   bookID,
			ISBN:     isbn,
			Title:    field(rec, idx, "title"),
			Authors:  field(rec, idx, "authors"),
			CoverURL: field(rec, idx, "image_url"),
		}
		if yearStr := field(rec, idx, "original_publication_year"); yearStr != "" {
			if year, err := strconv.ParseFloat(yearStr, 64); err == nil {
				b.Year = int(year)
			}
		}
		books = append(books, b)
	}
	return books, nil
}

// loadGBRatings parses ratings.csv.
func loadGBRatings(path string) ([]gbRating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	idx := headerIndex(header)

	var ratings []gbRating
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		userID, err := strconv.Atoi(field(rec, idx, "user_id"))
		if err != nil {
			continue
		}
		bookID, err := strconv.Atoi(field(rec, idx, "book_id"))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(field(rec, idx, "rating"), 64)
		if err != nil {
			continue
		}
		ratings = append(ratings, gbRating{SourceUserID: userID, BookID: bookID, Value: value})
	}
	return ratings, nil
}
