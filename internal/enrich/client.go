// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package enrich fills missing book metadata (authors, publication year,
// cover image) from the Google Books volumes API.
//
// The upstream API is rate limited and occasionally flaky, so the client
// wraps every call in a client-side rate limiter and a circuit breaker, and
// memoizes lookups in an LRU cache. Misses are not errors worth stopping
// an ingest run for; callers skip and move on.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bookloft/bookloft/internal/cache"
	"github.com/bookloft/bookloft/internal/config"
	"github.com/bookloft/bookloft/internal/corpus"
	"github.com/bookloft/bookloft/internal/logging"
	"github.com/bookloft/bookloft/internal/metrics"
)

// ErrNotFound indicates the API has no volume for the ISBN.
var ErrNotFound = errors.New("no volume found for isbn")

// Volume is the metadata extracted from one API result.
type Volume struct {
	Title    string
	Authors  string
	Year     int
	CoverURL string
}

// volumesResponse mirrors the slice of the API response we consume.
type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			PublishedDate string   `json:"publishedDate"`
			ImageLinks    struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Client queries the volumes API by ISBN.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[Volume]
	cache   *cache.LRU[Volume]
	logger  zerolog.Logger
}

// NewClient builds a client from the enrichment configuration.
func NewClient(cfg config.EnrichConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker[Volume](gobreaker.Settings{
			Name:    "google-books",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		cache:  cache.NewLRU[Volume](10000, time.Hour),
		logger: logging.With().Str("component", "enrich").Logger(),
	}
}

// Lookup fetches metadata for one ISBN. Not-found is reported as
// ErrNotFound and is cached like a hit would be, so repeated misses do not
// burn request budget.
func (c *Client) Lookup(ctx context.Context, isbn string) (Volume, error) {
	if v, ok := c.cache.Get(isbn); ok {
		if v == (Volume{}) {
			return v, fmt.Errorf("isbn %s: %w", isbn, ErrNotFound)
		}
		return v, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Volume{}, fmt.Errorf("lookup isbn %s: %w", isbn, err)
	}

	v, err := c.breaker.Execute(func() (Volume, error) {
		return c.fetch(ctx, isbn)
	})
	if errors.Is(err, ErrNotFound) {
		c.cache.Add(isbn, Volume{})
		metrics.RecordEnrichLookup("not_found")
		return Volume{}, fmt.Errorf("isbn %s: %w", isbn, ErrNotFound)
	}
	if err != nil {
		metrics.RecordEnrichLookup("error")
		return Volume{}, fmt.Errorf("lookup isbn %s: %w", isbn, err)
	}
	c.cache.Add(isbn, v)
	metrics.RecordEnrichLookup("hit")
	return v, nil
}

func (c *Client) fetch(ctx context.Context, isbn string) (Volume, error) {
	u := c.baseURL + "?q=" + url.QueryEscape("isbn:"+isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Volume{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Volume{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Volume{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var vr volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return Volume{}, fmt.Errorf("decode response: %w", err)
	}
	if vr.TotalItems == 0 || len(vr.Items) == 0 {
		return Volume{}, ErrNotFound
	}

	info := vr.Items[0].VolumeInfo
	v := Volume{
		Title:    info.Title,
		CoverURL: info.ImageLinks.Thumbnail,
	}
	for i, a := range info.Authors {
		if i > 0 {
			v.Authors += ", "
		}
		v.Authors += a
	}
	// PublishedDate is "2006", "2006-01", or "2006-01-02".
	if len(info.PublishedDate) >= 4 {
		if year, err := strconv.Atoi(info.PublishedDate[:4]); err == nil {
			v.Year = year
		}
	}
	return v, nil
}

// Fill merges looked-up metadata into a book, only where the book has gaps.
func Fill(b corpus.Book, v Volume) corpus.Book {
	if b.Authors == "" {
		b.Authors = v.Authors
	}
	if b.Year == 0 {
		b.Year = v.Year
	}
	if b.CoverURL == "" {
		b.CoverURL = v.CoverURL
	}
	return b
}
