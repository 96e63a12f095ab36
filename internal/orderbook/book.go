// Package orderbook converts Kalshi's bid-only orderbook format into a
// YES-centric two-sided view and provides spread, depth, and VWAP analysis.
//
// Kalshi returns only bids, for YES and for NO. A NO bid at price p is the
// same commitment as an offer to sell YES at 100-p, so the NO side is
// converted into derived YES asks. All prices are integer cents in [0,100];
// the conversion is a bijection on that range.
package orderbook

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

var (
	// ErrPriceOutOfRange is returned when an input price is outside [0,100].
	ErrPriceOutOfRange = errors.New("price out of range [0,100]")

	// ErrNegativeQuantity is returned when an input quantity is negative.
	ErrNegativeQuantity = errors.New("negative quantity")
)

// Book is a processed, YES-centric orderbook for one market. It is built
// once per raw snapshot and never mutated afterwards, so it is safe to read
// from any number of goroutines without locking.
type Book struct {
	ticker  string
	yesBids []domain.PriceLevel // sorted descending by price
	yesAsks []domain.PriceLevel // derived from NO bids, sorted ascending
	noBids  []domain.PriceLevel // raw NO side retained for traceability

	bestBid  int
	bestAsk  int
	hasBid   bool
	hasAsk   bool
	bidDepth int
	askDepth int

	builtAt time.Time
}

// New builds a Book from a raw snapshot: the YES bid levels and the NO bid
// levels, both from the same point-in-time read. Duplicate prices within one
// side are summed, not overwritten. Invalid input (price outside [0,100] or
// a negative quantity) is rejected outright; nothing is clamped.
func New(ticker string, yesBids, noBids []domain.PriceLevel) (*Book, error) {
	bids, err := normalize(yesBids)
	if err != nil {
		return nil, fmt.Errorf("orderbook %s: yes side: %w", ticker, err)
	}
	rawNo, err := normalize(noBids)
	if err != nil {
		return nil, fmt.Errorf("orderbook %s: no side: %w", ticker, err)
	}

	// NO bid at p <=> YES ask at 100-p, same quantity. The mapping cannot
	// collide for valid input, but the asks are run through normalize anyway
	// so malformed upstream data degrades to summed levels instead of
	// duplicate prices on one side.
	asks := make([]domain.PriceLevel, len(rawNo))
	for i, lvl := range rawNo {
		asks[i] = domain.PriceLevel{Price: 100 - lvl.Price, Quantity: lvl.Quantity}
	}
	asks, err = normalize(asks)
	if err != nil {
		return nil, fmt.Errorf("orderbook %s: derived asks: %w", ticker, err)
	}

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })
	sort.Slice(rawNo, func(i, j int) bool { return rawNo[i].Price > rawNo[j].Price })

	b := &Book{
		ticker:  ticker,
		yesBids: bids,
		yesAsks: asks,
		noBids:  rawNo,
		builtAt: time.Now().UTC(),
	}

	if len(bids) > 0 {
		b.bestBid = bids[0].Price
		b.hasBid = true
	}
	if len(asks) > 0 {
		b.bestAsk = asks[0].Price
		b.hasAsk = true
	}
	for _, lvl := range bids {
		b.bidDepth += lvl.Quantity
	}
	for _, lvl := range asks {
		b.askDepth += lvl.Quantity
	}

	return b, nil
}

// normalize validates levels and merges duplicate prices by summing their
// quantities. The returned slice is a fresh allocation; input order is not
// preserved.
func normalize(levels []domain.PriceLevel) ([]domain.PriceLevel, error) {
	byPrice := make(map[int]int, len(levels))
	for _, lvl := range levels {
		if lvl.Price < 0 || lvl.Price > 100 {
			return nil, fmt.Errorf("%w: %d", ErrPriceOutOfRange, lvl.Price)
		}
		if lvl.Quantity < 0 {
			return nil, fmt.Errorf("%w: %d at price %d", ErrNegativeQuantity, lvl.Quantity, lvl.Price)
		}
		byPrice[lvl.Price] += lvl.Quantity
	}

	out := make([]domain.PriceLevel, 0, len(byPrice))
	for price, qty := range byPrice {
		out = append(out, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return out, nil
}

// Ticker returns the market ticker this book was built for.
func (b *Book) Ticker() string { return b.ticker }

// BestBid returns the highest YES bid price. ok is false when the bid side
// is empty; callers must not treat that as a zero price.
func (b *Book) BestBid() (price int, ok bool) { return b.bestBid, b.hasBid }

// BestAsk returns the lowest derived YES ask price. ok is false when the
// ask side is empty.
func (b *Book) BestAsk() (price int, ok bool) { return b.bestAsk, b.hasAsk }

// Mid returns the midpoint of best bid and best ask. ok is false unless
// both sides are present.
func (b *Book) Mid() (mid float64, ok bool) {
	if !b.hasBid || !b.hasAsk {
		return 0, false
	}
	return float64(b.bestBid+b.bestAsk) / 2, true
}

// Spread returns best ask minus best bid. ok is false unless both sides are
// present. A negative spread is a valid crossed-market state and is returned
// as-is, never corrected.
func (b *Book) Spread() (spread int, ok bool) {
	if !b.hasBid || !b.hasAsk {
		return 0, false
	}
	return b.bestAsk - b.bestBid, true
}

// IsEmpty reports whether both sides are absent.
func (b *Book) IsEmpty() bool { return !b.hasBid && !b.hasAsk }

// IsOneSided reports whether exactly one side is absent.
func (b *Book) IsOneSided() bool { return b.hasBid != b.hasAsk }

// IsCrossed reports whether best bid exceeds best ask (negative spread).
// This signals arbitrage or stale upstream data, not an error.
func (b *Book) IsCrossed() bool {
	return b.hasBid && b.hasAsk && b.bestAsk-b.bestBid < 0
}

// levels returns the requested side, already sorted best-first.
func (b *Book) levels(side domain.Side) []domain.PriceLevel {
	if side == domain.SideBid {
		return b.yesBids
	}
	return b.yesAsks
}

// CumulativeDepth sums quantities across the best nLevels price levels on
// the requested side, truncated to however many levels exist.
func (b *Book) CumulativeDepth(side domain.Side, nLevels int) int {
	lvls := b.levels(side)
	if nLevels > len(lvls) {
		nLevels = len(lvls)
	}
	total := 0
	for i := 0; i < nLevels; i++ {
		total += lvls[i].Quantity
	}
	return total
}

// DepthAtPrice returns the quantity resting exactly at price on the given
// side, or zero when no level exists there.
func (b *Book) DepthAtPrice(price int, side domain.Side) int {
	for _, lvl := range b.levels(side) {
		if lvl.Price == price {
			return lvl.Quantity
		}
	}
	return 0
}

// VWAP returns the volume-weighted average price, in fractional cents, for
// filling quantity contracts starting from the best price and walking
// outward. ok is false when the side cannot fill the full quantity — a
// partial average would silently understate the cost of a fill, so none is
// produced.
func (b *Book) VWAP(side domain.Side, quantity int) (price float64, ok bool) {
	if quantity <= 0 {
		return 0, false
	}

	remaining := quantity
	value := 0
	for _, lvl := range b.levels(side) {
		take := lvl.Quantity
		if take > remaining {
			take = remaining
		}
		value += lvl.Price * take
		remaining -= take
		if remaining == 0 {
			break
		}
	}
	if remaining > 0 {
		return 0, false
	}
	return float64(value) / float64(quantity), true
}

// Bids returns a copy of the YES bid levels, sorted descending by price.
func (b *Book) Bids() []domain.PriceLevel {
	return append([]domain.PriceLevel(nil), b.yesBids...)
}

// Asks returns a copy of the derived YES ask levels, sorted ascending.
func (b *Book) Asks() []domain.PriceLevel {
	return append([]domain.PriceLevel(nil), b.yesAsks...)
}

// NoBids returns a copy of the raw NO bid levels, sorted descending.
func (b *Book) NoBids() []domain.PriceLevel {
	return append([]domain.PriceLevel(nil), b.noBids...)
}

// Snapshot returns an immutable copy of every derived field, decoupled from
// the book, suitable for logging, caching, or storage.
func (b *Book) Snapshot() domain.BookSnapshot {
	snap := domain.BookSnapshot{
		Ticker:    b.ticker,
		YesBids:   b.Bids(),
		YesAsks:   b.Asks(),
		BidDepth:  b.bidDepth,
		AskDepth:  b.askDepth,
		Empty:     b.IsEmpty(),
		OneSided:  b.IsOneSided(),
		Crossed:   b.IsCrossed(),
		Timestamp: b.builtAt,
	}
	if b.hasBid {
		bid := b.bestBid
		snap.BestBid = &bid
	}
	if b.hasAsk {
		ask := b.bestAsk
		snap.BestAsk = &ask
	}
	if mid, ok := b.Mid(); ok {
		snap.MidPrice = &mid
	}
	if spread, ok := b.Spread(); ok {
		snap.Spread = &spread
	}
	return snap
}
