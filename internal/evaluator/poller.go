package evaluator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/kalshibot/internal/domain"
	"github.com/alanyoungcy/kalshibot/internal/platform/kalshi"
)

// Run drives the fixed-interval polling loop: every PollInterval it fetches
// one snapshot per configured market and evaluates them concurrently. One
// pipeline per market, no cross-market state, so ordering between markets
// is irrelevant. It blocks until ctx is cancelled.
func (e *Evaluator) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "evaluation loop starting",
		slog.Int("markets", len(e.cfg.Tickers)),
		slog.Duration("interval", e.cfg.PollInterval),
	)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.InfoContext(ctx, "evaluation loop stopped")
			return ctx.Err()
		case <-ticker.C:
			e.evaluateAll(ctx)
		}
	}
}

// EvaluateAll runs a single pass over every configured market and returns
// the decisions that succeeded. Used by scan mode and by each poll tick.
func (e *Evaluator) EvaluateAll(ctx context.Context) []domain.QuoteDecision {
	results := make([]domain.QuoteDecision, len(e.cfg.Tickers))
	ok := make([]bool, len(e.cfg.Tickers))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range e.cfg.Tickers {
		g.Go(func() error {
			dec, err := e.EvaluateTicker(gctx, t)
			if err != nil {
				// A malformed snapshot rejects this market only; the
				// other pipelines keep running.
				e.logger.WarnContext(gctx, "market evaluation failed",
					slog.String("ticker", t), slog.String("error", err.Error()))
				return nil
			}
			results[i] = dec
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.QuoteDecision, 0, len(results))
	for i, dec := range results {
		if ok[i] {
			out = append(out, dec)
		}
	}
	return out
}

func (e *Evaluator) evaluateAll(ctx context.Context) {
	decisions := e.EvaluateAll(ctx)

	quotes := 0
	for _, d := range decisions {
		if d.Action == domain.ActionQuote {
			quotes++
		}
	}
	e.logger.DebugContext(ctx, "evaluation pass complete",
		slog.Int("evaluated", len(decisions)),
		slog.Int("quotable", quotes),
	)
}

// HandleWSOrderbook is the entry point for stream mode: the WebSocket
// client calls it for every orderbook update it receives.
func (e *Evaluator) HandleWSOrderbook(ctx context.Context, raw kalshi.Orderbook) {
	if _, err := e.EvaluateRaw(ctx, raw); err != nil {
		e.logger.WarnContext(ctx, "stream evaluation failed",
			slog.String("ticker", raw.Ticker), slog.String("error", err.Error()))
	}
}
