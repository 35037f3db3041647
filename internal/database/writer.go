// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package database

import (
	"context"
	"fmt"

	"github.com/bookloft/bookloft/internal/corpus"
)

// Reset drops all corpus rows. Ingest runs are full rebuilds.
func (db *DB) Reset(ctx context.Context) error {
	for _, table := range []string{"ratings", "books", "users"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// InsertUsers bulk-inserts users inside one transaction.
func (db *DB) InsertUsers(ctx context.Context, users []corpus.User) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert users: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO users (id, location, age, source) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert users: %w", err)
	}
	defer stmt.Close()

	for i := range users {
		u := &users[i]
		var loc, age any
		if u.Location != nil {
			loc = *u.Location
		}
		if u.Age != nil {
			age = *u.Age
		}
		if _, err := stmt.ExecContext(ctx, u.ID, loc, age, u.Source); err != nil {
			return fmt.Errorf("insert user %d: %w", u.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert users: %w", err)
	}
	return nil
}

// InsertBooks bulk-inserts books inside one transaction.
func (db *DB) InsertBooks(ctx context.Context, books []corpus.Book) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert books: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO books (id, title, authors, year, cover_url) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert books: %w", err)
	}
	defer stmt.Close()

	for i := range books {
		b := &books[i]
		if _, err := stmt.ExecContext(ctx, b.ID, b.Title, b.Authors, b.Year, b.CoverURL); err != nil {
			return fmt.Errorf("insert book %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert books: %w", err)
	}
	return nil
}

// InsertRatings bulk-inserts ratings inside one transaction. Rater counts
// are written as given; call RecomputeRaterCounts afterwards to make them
// consistent with the stored events.
func (db *DB) InsertRatings(ctx context.Context, ratings []corpus.Rating) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert ratings: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ratings (user_id, book_id, value, rater_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert ratings: %w", err)
	}
	defer stmt.Close()

	for i := range ratings {
		r := &ratings[i]
		if _, err := stmt.ExecContext(ctx, r.UserID, r.BookID, r.Value, r.RaterCount); err != nil {
			return fmt.Errorf("insert rating (%d, %s): %w", r.UserID, r.BookID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert ratings: %w", err)
	}
	return nil
}

// RecomputeRaterCounts rewrites every rating's denormalized rater count
// from the stored events, in one statement.
func (db *DB) RecomputeRaterCounts(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE ratings SET rater_count = counts.n
		FROM (SELECT user_id, COUNT(*) AS n FROM ratings GROUP BY user_id) AS counts
		WHERE ratings.user_id = counts.user_id`)
	if err != nil {
		return fmt.Errorf("recompute rater counts: %w", err)
	}
	return nil
}

// UpdateBookMetadata fills in enriched fields for one book.
func (db *DB) UpdateBookMetadata(ctx context.Context, b corpus.Book) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE books SET authors = ?, year = ?, cover_url = ? WHERE id = ?`,
		b.Authors, b.Year, b.CoverURL, b.ID)
	if err != nil {
		return fmt.Errorf("update book %s: %w", b.ID, err)
	}
	return nil
}
