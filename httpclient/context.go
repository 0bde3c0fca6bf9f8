/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"

	"github.com/dexkit/go-dexscreener/log"
)

type ctxKey int

const (
	ctxKeyTier ctxKey = iota
	ctxKeyRequestID
	ctxKeyLogger
)

func getStringFromContext(ctx context.Context, key ctxKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// NewContextWithTier creates a new context with the name of the rate tier
// which gate should admit the request.
func NewContextWithTier(ctx context.Context, tier string) context.Context {
	return context.WithValue(ctx, ctxKeyTier, tier)
}

// GetTierFromContext extracts the rate tier name from the context.
func GetTierFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyTier)
}

// NewContextWithRequestID creates a new context with request ID that will be sent in X-Request-ID header.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext extracts request ID from the context.
func GetRequestIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyRequestID)
}

// NewContextWithLogger creates a new context with a logger that round trippers use instead of the default one.
func NewContextWithLogger(ctx context.Context, logger log.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// GetLoggerFromContext extracts logger from the context.
func GetLoggerFromContext(ctx context.Context) log.FieldLogger {
	if logger, ok := ctx.Value(ctxKeyLogger).(log.FieldLogger); ok {
		return logger
	}
	return nil
}

// loggerProvider returns a function that takes a logger from the context and falls back to the given one.
func loggerProvider(fallback log.FieldLogger) func(ctx context.Context) log.FieldLogger {
	if fallback == nil {
		fallback = log.NewDisabledLogger()
	}
	return func(ctx context.Context) log.FieldLogger {
		if logger := GetLoggerFromContext(ctx); logger != nil {
			return logger
		}
		return fallback
	}
}
