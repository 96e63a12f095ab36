package domain

import "context"

// BookCache stores the latest processed orderbook snapshot per ticker.
type BookCache interface {
	SetSnapshot(ctx context.Context, snap BookSnapshot) error
	GetSnapshot(ctx context.Context, ticker string) (BookSnapshot, error)
	GetBBO(ctx context.Context, ticker string) (bestBid, bestAsk int, err error)
}

// DecisionCache stores the latest quoting decision per ticker.
type DecisionCache interface {
	Set(ctx context.Context, dec QuoteDecision) error
	Get(ctx context.Context, ticker string) (QuoteDecision, error)
}

// DecisionBus fans quoting decisions out to downstream consumers.
type DecisionBus interface {
	Publish(ctx context.Context, dec QuoteDecision) error
	Subscribe(ctx context.Context) (<-chan QuoteDecision, error)
}
