// Package evaluator runs the snapshot-to-decision pipeline: a raw Kalshi
// orderbook goes through the orderbook engine, the resulting spread and mid
// feed the fee engine, and the verdict comes out as a QuoteDecision that is
// cached, persisted, published, and (when interesting) alerted on.
//
// Every evaluation builds a fresh immutable book from one atomic snapshot,
// so any number of markets can be evaluated concurrently with no shared
// state between them.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/kalshibot/internal/domain"
	"github.com/alanyoungcy/kalshibot/internal/fees"
	"github.com/alanyoungcy/kalshibot/internal/notify"
	"github.com/alanyoungcy/kalshibot/internal/orderbook"
	"github.com/alanyoungcy/kalshibot/internal/platform/kalshi"
)

// BookSource fetches raw market data. *kalshi.Client satisfies it; tests
// substitute a fake.
type BookSource interface {
	GetOrderbook(ctx context.Context, ticker string, depth int) (kalshi.Orderbook, error)
	GetMarket(ctx context.Context, ticker string) (kalshi.Market, error)
}

// Config holds the evaluation parameters shared by every market.
type Config struct {
	Tickers           []string
	Contracts         int
	MinProfitCents    float64
	Role              fees.Role
	Depth             int
	TopOfBookFallback bool
	PollInterval      time.Duration
}

// Deps bundles the optional collaborators. Any nil field is skipped; the
// evaluator itself needs none of them to produce decisions.
type Deps struct {
	Snapshots     domain.SnapshotStore
	Decisions     domain.DecisionStore
	Books         domain.BookCache
	DecisionCache domain.DecisionCache
	Bus           domain.DecisionBus
	Notifier      *notify.Notifier
}

// Evaluator turns raw orderbook snapshots into quoting decisions.
type Evaluator struct {
	cfg      Config
	source   BookSource
	schedule fees.Schedule
	deps     Deps
	logger   *slog.Logger
}

// New creates an Evaluator.
func New(cfg Config, source BookSource, schedule fees.Schedule, deps Deps, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		cfg:      cfg,
		source:   source,
		schedule: schedule,
		deps:     deps,
		logger:   logger.With(slog.String("component", "evaluator")),
	}
}

// EvaluateTicker fetches the current orderbook for ticker and evaluates it.
// A fetch or construction failure affects only this market.
func (e *Evaluator) EvaluateTicker(ctx context.Context, ticker string) (domain.QuoteDecision, error) {
	raw, err := e.source.GetOrderbook(ctx, ticker, e.cfg.Depth)
	if err != nil {
		return domain.QuoteDecision{}, fmt.Errorf("evaluator: fetch orderbook %s: %w", ticker, err)
	}

	if e.cfg.TopOfBookFallback && len(raw.YesBids) == 0 && len(raw.NoBids) == 0 {
		raw = e.topOfBookFallback(ctx, ticker, raw)
	}

	return e.EvaluateRaw(ctx, raw)
}

// EvaluateRaw evaluates one raw snapshot. Both sides must originate from the
// same point-in-time read; comparing stale and fresh sides manufactures
// spurious crossed markets.
func (e *Evaluator) EvaluateRaw(ctx context.Context, raw kalshi.Orderbook) (domain.QuoteDecision, error) {
	yesBids, noBids := raw.Levels()

	book, err := orderbook.New(raw.Ticker, yesBids, noBids)
	if err != nil {
		return domain.QuoteDecision{}, fmt.Errorf("evaluator: build book: %w", err)
	}

	snap := book.Snapshot()
	dec, err := e.decide(snap)
	if err != nil {
		return domain.QuoteDecision{}, fmt.Errorf("evaluator: decide %s: %w", raw.Ticker, err)
	}

	e.record(ctx, snap, dec)
	return dec, nil
}

// decide maps a book snapshot to a quoting decision via the fee engine.
func (e *Evaluator) decide(snap domain.BookSnapshot) (domain.QuoteDecision, error) {
	dec := domain.QuoteDecision{
		ID:        uuid.New().String(),
		Ticker:    snap.Ticker,
		Action:    domain.ActionSkip,
		Contracts: e.cfg.Contracts,
		Role:      e.cfg.Role.String(),
		CreatedAt: time.Now().UTC(),
	}

	if snap.Spread == nil || snap.MidPrice == nil {
		switch {
		case snap.Empty:
			dec.Reason = "empty book: no liquidity on either side"
		default:
			dec.Reason = "one-sided book: no spread to quote inside"
		}
		return dec, nil
	}

	verdict, err := e.schedule.ShouldQuote(
		*snap.Spread, e.cfg.Contracts, *snap.MidPrice, e.cfg.MinProfitCents, e.cfg.Role,
	)
	if err != nil {
		return domain.QuoteDecision{}, err
	}

	dec.Reason = verdict.Reason
	dec.ObservedSpread = snap.Spread
	dec.MidPrice = snap.MidPrice
	dec.RecommendedBid = verdict.RecommendedBid
	dec.RecommendedAsk = verdict.RecommendedAsk
	dec.ExpectedNetProfit = verdict.ExpectedNetProfit
	dec.BreakevenSpread = verdict.BreakevenSpread
	dec.RequiredSpread = verdict.RequiredSpread
	if verdict.ShouldQuote {
		dec.Action = domain.ActionQuote
	}
	return dec, nil
}

// record pushes the snapshot and decision out to every configured
// collaborator. Collaborator failures are logged, never propagated: a dead
// cache must not stop the evaluation loop.
func (e *Evaluator) record(ctx context.Context, snap domain.BookSnapshot, dec domain.QuoteDecision) {
	if e.deps.Books != nil {
		if err := e.deps.Books.SetSnapshot(ctx, snap); err != nil {
			e.logger.WarnContext(ctx, "book cache write failed",
				slog.String("ticker", snap.Ticker), slog.String("error", err.Error()))
		}
	}
	if e.deps.Snapshots != nil {
		if err := e.deps.Snapshots.Insert(ctx, snap); err != nil {
			e.logger.WarnContext(ctx, "snapshot store write failed",
				slog.String("ticker", snap.Ticker), slog.String("error", err.Error()))
		}
	}
	if e.deps.DecisionCache != nil {
		if err := e.deps.DecisionCache.Set(ctx, dec); err != nil {
			e.logger.WarnContext(ctx, "decision cache write failed",
				slog.String("ticker", dec.Ticker), slog.String("error", err.Error()))
		}
	}
	if e.deps.Decisions != nil {
		if err := e.deps.Decisions.Insert(ctx, dec); err != nil {
			e.logger.WarnContext(ctx, "decision store write failed",
				slog.String("ticker", dec.Ticker), slog.String("error", err.Error()))
		}
	}
	if e.deps.Bus != nil {
		if err := e.deps.Bus.Publish(ctx, dec); err != nil {
			e.logger.WarnContext(ctx, "decision publish failed",
				slog.String("ticker", dec.Ticker), slog.String("error", err.Error()))
		}
	}

	e.notifyInteresting(ctx, snap, dec)
}

// notifyInteresting alerts on the two states an operator acts on: a market
// worth quoting, and a crossed book.
func (e *Evaluator) notifyInteresting(ctx context.Context, snap domain.BookSnapshot, dec domain.QuoteDecision) {
	if e.deps.Notifier == nil {
		return
	}

	if dec.Action == domain.ActionQuote {
		msg := fmt.Sprintf("%s: quote %d@%d¢ / %d@%d¢, expected net %.2f¢",
			dec.Ticker, dec.Contracts, dec.RecommendedBid, dec.Contracts, dec.RecommendedAsk,
			dec.ExpectedNetProfit)
		if err := e.deps.Notifier.Notify(ctx, "quote_opportunity", "Quote opportunity", msg); err != nil {
			e.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}

	if snap.Crossed && snap.Spread != nil {
		msg := fmt.Sprintf("%s: crossed book, spread %d¢ (bid %d > ask %d)",
			snap.Ticker, *snap.Spread, *snap.BestBid, *snap.BestAsk)
		if err := e.deps.Notifier.Notify(ctx, "crossed_market", "Crossed market", msg); err != nil {
			e.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
}

// topOfBookFallback synthesizes a one-level raw book from the market
// endpoint's yes_bid/no_bid when the orderbook endpoint came back empty.
// Quantity is unknown at this granularity, so each level carries 1.
func (e *Evaluator) topOfBookFallback(ctx context.Context, ticker string, raw kalshi.Orderbook) kalshi.Orderbook {
	mkt, err := e.source.GetMarket(ctx, ticker)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			e.logger.DebugContext(ctx, "top-of-book fallback unavailable",
				slog.String("ticker", ticker), slog.String("error", err.Error()))
		}
		return raw
	}

	if mkt.YesBid > 0 {
		raw.YesBids = append(raw.YesBids, kalshi.PriceLevel{Price: mkt.YesBid, Quantity: 1})
	}
	if mkt.NoBid > 0 {
		raw.NoBids = append(raw.NoBids, kalshi.PriceLevel{Price: mkt.NoBid, Quantity: 1})
	}
	return raw
}
