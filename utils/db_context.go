package utils

import (
	"context"
	"time"
)

// Repository call budgets. Fast is for single-row lookups on the request path
// (auth, sessions, health), slow for sweeps across every workspace.
const (
	FastQueryTimeout    = 5 * time.Second
	DefaultQueryTimeout = 15 * time.Second
	SlowQueryTimeout    = 2 * time.Minute
)

func withQueryTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}

func GetFastQueryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withQueryTimeout(ctx, FastQueryTimeout)
}

func GetDefaultQueryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withQueryTimeout(ctx, DefaultQueryTimeout)
}

// GetSlowQueryContext is used by the maintenance jobs.
func GetSlowQueryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withQueryTimeout(ctx, SlowQueryTimeout)
}
