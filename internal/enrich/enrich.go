// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookloft/bookloft/internal/corpus"
	"github.com/bookloft/bookloft/internal/database"
)

// Run fills metadata gaps for every book missing an author, year, or cover,
// writing updates back to the database. Lookup misses are skipped; any
// other lookup error aborts the run so a tripped breaker is not hammered.
func (c *Client) Run(ctx context.Context, db *database.DB, books []corpus.Book) (updated int, err error) {
	for i := range books {
		b := books[i]
		if b.Authors != "" && b.Year != 0 && b.CoverURL != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return updated, fmt.Errorf("enrich: %w", err)
		}

		v, err := c.Lookup(ctx, b.ID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}

		filled := Fill(b, v)
		if filled == b {
			continue
		}
		if err := db.UpdateBookMetadata(ctx, filled); err != nil {
			return updated, err
		}
		updated++
	}
	c.logger.Info().Int("updated", updated).Int("scanned", len(books)).Msg("Enrichment pass complete")
	return updated, nil
}
