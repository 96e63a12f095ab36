package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// SnapshotStore persists orderbook snapshot history for later analysis and
// back-testing.
type SnapshotStore interface {
	Insert(ctx context.Context, snap BookSnapshot) error
	ListByTicker(ctx context.Context, ticker string, opts ListOpts) ([]BookSnapshot, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]BookSnapshot, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// DecisionStore persists quoting decision history.
type DecisionStore interface {
	Insert(ctx context.Context, dec QuoteDecision) error
	GetByID(ctx context.Context, id string) (QuoteDecision, error)
	ListByTicker(ctx context.Context, ticker string, opts ListOpts) ([]QuoteDecision, error)
	ListRecent(ctx context.Context, limit int) ([]QuoteDecision, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]QuoteDecision, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
