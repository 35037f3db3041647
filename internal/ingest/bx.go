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

// BX file names as distributed in the Book-Crossing dump.
const (
	bxUsersFile   = "BX-Users.csv"
	bxBooksFile   = "BX-Books.csv"
	bxRatingsFile = "BX-Book-Ratings.csv"
)

// bxUser is a raw Book-Crossing user row keyed by the source user id.
type bxUser struct {
	SourceID int
	Location *string
	Age      *int
}

// bxBook is a raw Book-Crossing book row.
type bxBook struct {
	ISBN     string
	Title    string
	Author   string
	Year     int
	CoverURL string
}

// bxRating is a raw Book-Crossing rating row.
type bxRating struct {
	SourceUserID int
	ISBN         string
	Value        float64
}

func newBXReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// loadBXUsers parses BX-Users.csv. "NULL" ages and empty locations become
// absent rather than zero values.
func loadBXUsers(path string) ([]bxUser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := newBXReader(f)
	if _, err := cr.Read(); err != nil { // header
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	var users []bxUser
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) < 3 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		u := bxUser{SourceID: id}
		if loc := strings.TrimSpace(rec[1]); loc != "" {
			u.Location = &loc
		}
		if ageStr := strings.TrimSpace(rec[2]); ageStr != "" && ageStr != "NULL" {
			if age, err := strconv.Atoi(ageStr); err == nil {
				u.Age = &age
			}
		}
		users = append(users, u)
	}
	return users, nil
}

// loadBXBooks parses BX-Books.csv, keeping the large cover variant.
func loadBXBooks(path string) ([]bxBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := newBXReader(f)
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	var books []bxBook
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) < 4 {
			continue
		}
		b := bxBook{
			ISBN:   strings.TrimSpace(rec[0]),
			Title:  strings.TrimSpace(rec[1]),
			Author: strings.TrimSpace(rec[2]),
		}
		if b.ISBN == "" || b.Title == "" {
			continue
		}
		if year, err := strconv.Atoi(strings.TrimSpace(rec[3])); err == nil {
			b.Year = year
		}
		if len(rec) >= 8 {
			b.CoverURL = strings.TrimSpace(rec[7])
		}
		books = append(books, b)
	}
	return books, nil
}

// loadBXRatings parses BX-Book-Ratings.csv. Zero is an explicit rating and
// is kept.
func loadBXRatings(path string) ([]bxRating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := newBXReader(f)
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	var ratings []bxRating
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) < 3 {
			continue
		}
		userID, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			continue
		}
		isbn := strings.TrimSpace(rec[1])
		if isbn == "" {
			continue
		}
		ratings = append(ratings, bxRating{SourceUserID: userID, ISBN: isbn, Value: value})
	}
	return ratings, nil
}
