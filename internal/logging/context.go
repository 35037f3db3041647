// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey struct{}

var requestIDKey = contextKey{}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request id from the context, if present.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// Ctx returns a logger annotated with the context's request id, or the
// global logger if the context carries none.
func Ctx(ctx context.Context) zerolog.Logger {
	logger := Logger()
	if id, ok := RequestID(ctx); ok {
		logger = logger.With().Str("request_id", id).Logger()
	}
	return logger
}
