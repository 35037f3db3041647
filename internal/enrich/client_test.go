// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bookloft/bookloft/internal/config"
	"github.com/bookloft/bookloft/internal/corpus"
)

func testClient(baseURL string) *Client {
	return NewClient(config.EnrichConfig{
		BaseURL:           baseURL,
		RequestsPerSecond: 1000,
		Burst:             1000,
		Timeout:           5 * time.Second,
	})
}

const duneResponse = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "Dune",
			"authors": ["Frank Herbert"],
			"publishedDate": "1965-08-01",
			"imageLinks": {"thumbnail": "http://img/dune.jpg"}
		}
	}]
}`

func TestLookup(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("q"); got != "isbn:0441172717" {
			t.Errorf("query = %q", got)
		}
		w.Write([]byte(duneResponse)) //nolint:errcheck
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	v, err := c.Lookup(context.Background(), "0441172717")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if v.Title != "Dune" || v.Authors != "Frank Herbert" || v.Year != 1965 {
		t.Errorf("volume = %+v", v)
	}
	if v.CoverURL != "http://img/dune.jpg" {
		t.Errorf("cover = %q", v.CoverURL)
	}

	// Second lookup is served from cache.
	if _, err := c.Lookup(context.Background(), "0441172717"); err != nil {
		t.Fatalf("cached Lookup: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", calls.Load())
	}
}

func TestLookupNotFound(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"totalItems": 0}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for range 2 {
		if _, err := c.Lookup(context.Background(), "unknown"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	}
	// Misses are cached too.
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", calls.Load())
	}
}

func TestLookupBreakerOpensOnFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var lastErr error
	for i := 0; i < 6; i++ {
		_, lastErr = c.Lookup(context.Background(), "isbn-"+string(rune('a'+i)))
	}
	if lastErr == nil {
		t.Fatal("expected breaker to reject after consecutive failures")
	}
}

func TestFill(t *testing.T) {
	b := corpus.Book{ID: "x", Title: "Dune", Authors: "Frank Herbert"}
	v := Volume{Authors: "Someone Else", Year: 1965, CoverURL: "http://img/x.jpg"}
	got := Fill(b, v)
	if got.Authors != "Frank Herbert" {
		t.Errorf("existing author overwritten: %q", got.Authors)
	}
	if got.Year != 1965 || got.CoverURL != "http://img/x.jpg" {
		t.Errorf("gaps not filled: %+v", got)
	}
}
