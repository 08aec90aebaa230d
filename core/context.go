package core

import "context"

// Context keys for run options
type contextKey string

const (
	suppressProgressKey contextKey = "suppressProgress"
	runIDKey            contextKey = "runID"
)

// WithSuppressProgress silences per-repository progress lines for runs driven by
// another surface, such as the MCP server.
func WithSuppressProgress(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressProgressKey, true)
}

// shouldSuppressProgress returns whether progress lines should be suppressed
func shouldSuppressProgress(ctx context.Context) bool {
	suppress, ok := ctx.Value(suppressProgressKey).(bool)
	return ok && suppress
}

// withRunID attaches the tracked run ID
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the tracked run ID, or zero when the run is not tracked
func runIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(runIDKey).(int64)
	return id
}
