package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NewRunID returns a fresh run id
func NewRunID() string {
	return uuid.NewString()
}

// EnsureRunID returns ctx unchanged when it already carries a run id, and a
// child context with a new one otherwise
func EnsureRunID(ctx context.Context) context.Context {
	if RunID(ctx) != "" {
		return ctx
	}
	return WithRunID(ctx, NewRunID())
}

// WithComponent tags logger with the component name. A nil logger means the
// global one.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With("component", component)
}

// WithError tags logger with err; a nil err leaves it unchanged
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With("error", err.Error())
}
