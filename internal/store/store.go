package store

import (
	"context"

	"github.com/splitkit/splitkit/internal/experiment"
)

// Store defines the interface for collector-side event storage.
type Store interface {
	// Event operations
	InsertEvent(ctx context.Context, r experiment.Result) error
	Events(ctx context.Context, experimentID string) ([]experiment.Result, error)
	EventCount(ctx context.Context) (int, error)
	ExperimentCounts(ctx context.Context) (map[string]int, error)

	// Lifecycle
	Close() error
}
