// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func writeBXDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, bxUsersFile,
		"\"User-ID\";\"Location\";\"Age\"\n"+
			"\"11\";\"new york, usa\";\"30\"\n"+
			"\"12\";\"berlin, germany\";\"NULL\"\n"+
			"\"13\";\"\";\"NULL\"\n")
	writeFile(t, dir, bxBooksFile,
		"\"ISBN\";\"Book-Title\";\"Book-Author\";\"Year-Of-Publication\";\"Publisher\";\"Image-URL-S\";\"Image-URL-M\";\"Image-URL-L\"\n"+
			"\"0001\";\"The Hobbit\";\"J.R.R. Tolkien\";\"1937\";\"Allen\";\"s\";\"m\";\"http://img/hobbit-l.jpg\"\n"+
			"\"0002\";\"Dune\";\"\";\"0\";\"Chilton\";\"s\";\"m\";\"\"\n")
	writeFile(t, dir, bxRatingsFile,
		"\"User-ID\";\"ISBN\";\"Book-Rating\"\n"+
			"\"11\";\"0001\";\"5\"\n"+
			"\"11\";\"0002\";\"0\"\n"+
			"\"12\";\"0001\";\"4\"\n"+
			"\"12\";\"9999\";\"3\"\n") // unknown ISBN dropped
	return dir
}

func writeGBDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, gbBooksFile,
		"book_id,isbn,authors,original_publication_year,title,image_url\n"+
			"1,0002,Frank Herbert,1965.0,Dune,http://img/dune.jpg\n"+
			"2,0003,Jane Austen,1815.0,Emma,http://img/emma.jpg\n"+
			"3,,Nobody,2000.0,No ISBN,\n")
	writeFile(t, dir, gbRatingsFile,
		"user_id,book_id,rating\n"+
			"7,1,5\n"+
			"7,2,4\n"+
			"8,2,3\n"+
			"8,3,2\n") // book without ISBN dropped
	return dir
}

func TestLoadAndMerge(t *testing.T) {
	src := Sources{BXDir: writeBXDir(t), GoodbooksDir: writeGBDir(t)}
	r, err := load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c := merge(r)

	// 2 BX books + 1 goodbooks-only book; the ISBN-less row is dropped.
	if len(c.Books) != 3 {
		t.Fatalf("books = %d, want 3", len(c.Books))
	}
	// BX fields win; goodbooks fills gaps.
	dune, ok := c.Book("0002")
	if !ok {
		t.Fatal("merged book 0002 missing")
	}
	if dune.Title != "Dune" || dune.Authors != "Frank Herbert" || dune.Year != 1965 {
		t.Errorf("merged Dune = %+v", dune)
	}
	if dune.CoverURL != "http://img/dune.jpg" {
		t.Errorf("Dune cover = %q", dune.CoverURL)
	}

	// 3 BX users then 2 goodbooks raters, ids 1..5 in order.
	if len(c.Users) != 5 {
		t.Fatalf("users = %d, want 5", len(c.Users))
	}
	for i, u := range c.Users {
		if u.ID != i+1 {
			t.Errorf("user[%d].ID = %d, want %d", i, u.ID, i+1)
		}
	}
	if c.Users[0].Location == nil || *c.Users[0].Location != "new york, usa" {
		t.Errorf("user 1 = %+v", c.Users[0])
	}
	if c.Users[1].Age != nil {
		t.Errorf("NULL age parsed as %d", *c.Users[1].Age)
	}
	if c.Users[2].Location != nil {
		t.Errorf("empty location should be nil, got %q", *c.Users[2].Location)
	}
	if c.Users[3].Source != "goodbooks" || c.Users[4].Source != "goodbooks" {
		t.Errorf("goodbooks users = %+v, %+v", c.Users[3], c.Users[4])
	}

	// 3 surviving BX ratings (incl. the explicit zero) + 3 goodbooks ones.
	if len(c.Ratings) != 6 {
		t.Fatalf("ratings = %d, want 6: %+v", len(c.Ratings), c.Ratings)
	}
	counts := make(map[int]int)
	for _, rt := range c.Ratings {
		counts[rt.UserID]++
	}
	for _, rt := range c.Ratings {
		if rt.RaterCount != counts[rt.UserID] {
			t.Errorf("rating %+v rater_count mismatch, want %d", rt, counts[rt.UserID])
		}
	}
}

func TestLoadBXOnly(t *testing.T) {
	r, err := load(context.Background(), Sources{BXDir: writeBXDir(t)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c := merge(r)
	if len(c.Books) != 2 || len(c.Users) != 3 {
		t.Errorf("BX-only corpus = %d books, %d users", len(c.Books), len(c.Users))
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir() // no files at all
	if _, err := load(context.Background(), Sources{BXDir: dir}); err == nil {
		t.Fatal("expected error for missing source files")
	}
}
