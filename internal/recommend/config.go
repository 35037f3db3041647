// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package recommend

import "fmt"

// Config controls the recommendation engine.
type Config struct {
	// Neighbors is k for the nearest-neighbor query.
	// Default: 20
	Neighbors int `json:"neighbors" koanf:"neighbors"`

	// TopN is the number of books returned per ranked list.
	// Default: 5
	TopN int `json:"top_n" koanf:"top_n"`

	// PriorCount is the weight of the prior in the shrinkage average,
	// expressed as a virtual rating count.
	// Default: 5
	PriorCount float64 `json:"prior_count" koanf:"prior_count"`

	// PriorMean is the prior mean rating the shrinkage average pulls toward.
	// Default: 3
	PriorMean float64 `json:"prior_mean" koanf:"prior_mean"`

	// MaxRating is the top of the rating scale. The injected visitor rating
	// uses this value, and the similarity branch anchors on raters who gave
	// the chosen book exactly this rating.
	// Default: 5
	MaxRating float64 `json:"max_rating" koanf:"max_rating"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Neighbors:  20,
		TopN:       5,
		PriorCount: 5,
		PriorMean:  3,
		MaxRating:  5,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Neighbors <= 0 {
		return fmt.Errorf("%w: neighbors must be positive, got %d", ErrInvalidConfig, c.Neighbors)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidConfig, c.TopN)
	}
	if c.PriorCount < 0 {
		return fmt.Errorf("%w: prior_count must be non-negative, got %g", ErrInvalidConfig, c.PriorCount)
	}
	if c.PriorMean < 0 {
		return fmt.Errorf("%w: prior_mean must be non-negative, got %g", ErrInvalidConfig, c.PriorMean)
	}
	if c.MaxRating <= 0 {
		return fmt.Errorf("%w: max_rating must be positive, got %g", ErrInvalidConfig, c.MaxRating)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
