package repository

import (
	"context"
	"time"
)

// ProcessingGuardRepository defines the interface for the per-query
// in-flight lock. It keeps two concurrent process triggers for the same
// query from running the pipeline twice, across service instances.
type ProcessingGuardRepository interface {
	// Acquire takes the lock for a query. Returns false when another run
	// already holds it. The expiry bounds lock leakage after a crash.
	Acquire(ctx context.Context, queryID string, expiry time.Duration) (bool, error)
	// Release frees the lock once the pipeline reaches a terminal state.
	Release(ctx context.Context, queryID string) error
}
