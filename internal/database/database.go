// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package database is the DuckDB-backed durable store for the rating corpus.
//
// The HTTP service loads the full corpus into memory at startup and serves
// from there; DuckDB is the system of record that ingest writes to and the
// source for point lookups (book details, location autocomplete) that do
// not need the in-memory corpus.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/bookloft/bookloft/internal/config"
	"github.com/bookloft/bookloft/internal/corpus"
	"github.com/bookloft/bookloft/internal/logging"
)

// DB wraps the DuckDB connection.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database file, creating parent directories and the schema
// as needed.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, cfg.MaxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	logging.Debug().Str("path", cfg.Path).Int("threads", threads).Msg("Database opened")
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Ping verifies connectivity, for health checks.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (db *DB) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			location VARCHAR,
			age INTEGER,
			source VARCHAR NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			id VARCHAR PRIMARY KEY,
			title VARCHAR NOT NULL,
			authors VARCHAR NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			cover_url VARCHAR NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id INTEGER NOT NULL,
			book_id VARCHAR NOT NULL,
			value DOUBLE NOT NULL,
			rater_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_book ON ratings (book_id)`,
		`CREATE INDEX IF NOT EXISTS idx_books_title ON books (title)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// LoadCorpus reads the three tables into an in-memory corpus. Users and
// ratings come back ordered by id and insertion so downstream grouping and
// tie-breaking are deterministic across restarts.
func (db *DB) LoadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	c := &corpus.Corpus{}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, location, age, source FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u corpus.User
		var loc sql.NullString
		var age sql.NullInt32
		if err := rows.Scan(&u.ID, &loc, &age, &u.Source); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if loc.Valid {
			l := loc.String
			u.Location = &l
		}
		if age.Valid {
			a := int(age.Int32)
			u.Age = &a
		}
		c.Users = append(c.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	bookRows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, authors, year, cover_url FROM books ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	defer bookRows.Close()
	for bookRows.Next() {
		var b corpus.Book
		if err := bookRows.Scan(&b.ID, &b.Title, &b.Authors, &b.Year, &b.CoverURL); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		c.Books = append(c.Books, b)
	}
	if err := bookRows.Err(); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	ratingRows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, book_id, value, rater_count FROM ratings ORDER BY user_id, rowid`)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	defer ratingRows.Close()
	for ratingRows.Next() {
		var r corpus.Rating
		if err := ratingRows.Scan(&r.UserID, &r.BookID, &r.Value, &r.RaterCount); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		c.Ratings = append(c.Ratings, r)
	}
	if err := ratingRows.Err(); err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	logging.Info().
		Int("users", len(c.Users)).
		Int("books", len(c.Books)).
		Int("ratings", len(c.Ratings)).
		Msg("Corpus loaded")
	return c, nil
}

// GetBook fetches one book by id. sql.ErrNoRows signals absence.
func (db *DB) GetBook(ctx context.Context, id string) (corpus.Book, error) {
	var b corpus.Book
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, authors, year, cover_url FROM books WHERE id = ?`, id).
		Scan(&b.ID, &b.Title, &b.Authors, &b.Year, &b.CoverURL)
	if err != nil {
		return corpus.Book{}, fmt.Errorf("get book %s: %w", id, err)
	}
	return b, nil
}

// GetBooks fetches details for a list of book ids, preserving input order.
// Unknown ids are skipped.
func (db *DB) GetBooks(ctx context.Context, ids []string) ([]corpus.Book, error) {
	books := make([]corpus.Book, 0, len(ids))
	for _, id := range ids {
		b, err := db.GetBook(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// SearchLocations returns distinct stored locations containing the query,
// for autocomplete. Matching is case-sensitive to mirror the engine's
// location matcher.
func (db *DB) SearchLocations(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT location FROM users
		 WHERE location IS NOT NULL AND position(? IN location) > 0
		 ORDER BY location LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	return locations, nil
}
