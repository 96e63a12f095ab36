package evaluator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/kalshibot/internal/domain"
	"github.com/alanyoungcy/kalshibot/internal/fees"
	"github.com/alanyoungcy/kalshibot/internal/platform/kalshi"
)

// fakeSource serves canned orderbooks and markets keyed by ticker.
type fakeSource struct {
	books    map[string]kalshi.Orderbook
	markets  map[string]kalshi.Market
	bookErr  map[string]error
	mktCalls int
}

func (f *fakeSource) GetOrderbook(_ context.Context, ticker string, _ int) (kalshi.Orderbook, error) {
	if err := f.bookErr[ticker]; err != nil {
		return kalshi.Orderbook{}, err
	}
	ob, ok := f.books[ticker]
	if !ok {
		return kalshi.Orderbook{Ticker: ticker}, nil
	}
	return ob, nil
}

func (f *fakeSource) GetMarket(_ context.Context, ticker string) (kalshi.Market, error) {
	f.mktCalls++
	mkt, ok := f.markets[ticker]
	if !ok {
		return kalshi.Market{}, errors.New("market not found")
	}
	return mkt, nil
}

// recordingStore captures writes and optionally fails them.
type recordingStore struct {
	snaps    []domain.BookSnapshot
	failWith error
}

func (r *recordingStore) Insert(_ context.Context, snap domain.BookSnapshot) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.snaps = append(r.snaps, snap)
	return nil
}

func (r *recordingStore) ListByTicker(context.Context, string, domain.ListOpts) ([]domain.BookSnapshot, error) {
	return nil, nil
}

func (r *recordingStore) ListBefore(context.Context, time.Time, int) ([]domain.BookSnapshot, error) {
	return nil, nil
}

func (r *recordingStore) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type recordingDecisionStore struct {
	decisions []domain.QuoteDecision
	failWith  error
}

func (r *recordingDecisionStore) Insert(_ context.Context, dec domain.QuoteDecision) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.decisions = append(r.decisions, dec)
	return nil
}

func (r *recordingDecisionStore) GetByID(context.Context, string) (domain.QuoteDecision, error) {
	return domain.QuoteDecision{}, domain.ErrNotFound
}

func (r *recordingDecisionStore) ListByTicker(context.Context, string, domain.ListOpts) ([]domain.QuoteDecision, error) {
	return nil, nil
}

func (r *recordingDecisionStore) ListRecent(context.Context, int) ([]domain.QuoteDecision, error) {
	return nil, nil
}

func (r *recordingDecisionStore) ListBefore(context.Context, time.Time, int) ([]domain.QuoteDecision, error) {
	return nil, nil
}

func (r *recordingDecisionStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEvaluator(cfg Config, source BookSource, deps Deps) *Evaluator {
	if cfg.Contracts == 0 {
		cfg.Contracts = 100
	}
	return New(cfg, source, fees.Default(), deps, testLogger())
}

func rawBook(ticker string, yes, no [][2]int) kalshi.Orderbook {
	ob := kalshi.Orderbook{Ticker: ticker, Timestamp: time.Now().UTC()}
	for _, l := range yes {
		ob.YesBids = append(ob.YesBids, kalshi.PriceLevel{Price: l[0], Quantity: l[1]})
	}
	for _, l := range no {
		ob.NoBids = append(ob.NoBids, kalshi.PriceLevel{Price: l[0], Quantity: l[1]})
	}
	return ob
}

func TestEvaluateTickerQuotes(t *testing.T) {
	src := &fakeSource{books: map[string]kalshi.Orderbook{
		// YES bid 45, NO bid 45 => YES ask 55: a 10¢ spread around mid 50.
		"KXWIDE": rawBook("KXWIDE", [][2]int{{45, 100}}, [][2]int{{45, 200}}),
	}}
	ev := newTestEvaluator(Config{MinProfitCents: 10.0, Role: fees.Maker}, src, Deps{})

	dec, err := ev.EvaluateTicker(context.Background(), "KXWIDE")
	require.NoError(t, err)

	assert.Equal(t, domain.ActionQuote, dec.Action)
	assert.Equal(t, "KXWIDE", dec.Ticker)
	assert.NotEmpty(t, dec.ID)
	require.NotNil(t, dec.ObservedSpread)
	assert.Equal(t, 10, *dec.ObservedSpread)
	require.NotNil(t, dec.MidPrice)
	assert.Equal(t, 50.0, *dec.MidPrice)

	want, err := fees.Default().ShouldQuote(10, 100, 50.0, 10.0, fees.Maker)
	require.NoError(t, err)
	assert.Equal(t, want.RecommendedBid, dec.RecommendedBid)
	assert.Equal(t, want.RecommendedAsk, dec.RecommendedAsk)
	assert.InDelta(t, want.ExpectedNetProfit, dec.ExpectedNetProfit, 1e-9)
}

func TestEvaluateTickerSkipsThinSpread(t *testing.T) {
	src := &fakeSource{books: map[string]kalshi.Orderbook{
		// YES bid 49, NO bid 50 => YES ask 50: 1¢ spread.
		"KXTHIN": rawBook("KXTHIN", [][2]int{{49, 100}}, [][2]int{{50, 100}}),
	}}
	ev := newTestEvaluator(Config{MinProfitCents: 50.0, Role: fees.Maker}, src, Deps{})

	dec, err := ev.EvaluateTicker(context.Background(), "KXTHIN")
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSkip, dec.Action)
	assert.Contains(t, dec.Reason, "unprofitable")
}

func TestEvaluateRawEmptyBook(t *testing.T) {
	ev := newTestEvaluator(Config{Role: fees.Maker}, &fakeSource{}, Deps{})

	dec, err := ev.EvaluateRaw(context.Background(), rawBook("KXEMPTY", nil, nil))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSkip, dec.Action)
	assert.Contains(t, dec.Reason, "empty book")
	assert.Nil(t, dec.ObservedSpread)
	assert.Nil(t, dec.MidPrice)
}

func TestEvaluateRawOneSidedBook(t *testing.T) {
	ev := newTestEvaluator(Config{Role: fees.Maker}, &fakeSource{}, Deps{})

	dec, err := ev.EvaluateRaw(context.Background(), rawBook("KXONE", [][2]int{{48, 100}}, nil))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSkip, dec.Action)
	assert.Contains(t, dec.Reason, "one-sided")
}

func TestEvaluateRawRejectsMalformedSnapshot(t *testing.T) {
	ev := newTestEvaluator(Config{Role: fees.Maker}, &fakeSource{}, Deps{})

	_, err := ev.EvaluateRaw(context.Background(), rawBook("KXBAD", [][2]int{{101, 10}}, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KXBAD")
}

func TestEvaluateAllIsolatesFailures(t *testing.T) {
	src := &fakeSource{
		books: map[string]kalshi.Orderbook{
			"KXGOOD": rawBook("KXGOOD", [][2]int{{45, 100}}, [][2]int{{45, 100}}),
			"KXBAD":  rawBook("KXBAD", [][2]int{{200, 10}}, nil),
		},
		bookErr: map[string]error{"KXDOWN": errors.New("http 503")},
	}
	ev := newTestEvaluator(Config{
		Tickers:        []string{"KXGOOD", "KXBAD", "KXDOWN"},
		MinProfitCents: 10.0,
		Role:           fees.Maker,
	}, src, Deps{})

	decisions := ev.EvaluateAll(context.Background())

	require.Len(t, decisions, 1)
	assert.Equal(t, "KXGOOD", decisions[0].Ticker)
}

func TestTopOfBookFallback(t *testing.T) {
	src := &fakeSource{
		books: map[string]kalshi.Orderbook{
			"KXFALL": {Ticker: "KXFALL"}, // orderbook endpoint is empty
		},
		markets: map[string]kalshi.Market{
			"KXFALL": {Ticker: "KXFALL", YesBid: 45, NoBid: 52},
		},
	}
	ev := newTestEvaluator(Config{
		MinProfitCents:    0.0,
		Role:              fees.Maker,
		TopOfBookFallback: true,
	}, src, Deps{})

	dec, err := ev.EvaluateTicker(context.Background(), "KXFALL")
	require.NoError(t, err)

	// yes_bid 45 and no_bid 52 synthesize bid 45 / ask 48.
	assert.Equal(t, 1, src.mktCalls)
	require.NotNil(t, dec.ObservedSpread)
	assert.Equal(t, 3, *dec.ObservedSpread)
	require.NotNil(t, dec.MidPrice)
	assert.Equal(t, 46.5, *dec.MidPrice)
}

func TestTopOfBookFallbackDisabled(t *testing.T) {
	src := &fakeSource{
		books:   map[string]kalshi.Orderbook{"KXFALL": {Ticker: "KXFALL"}},
		markets: map[string]kalshi.Market{"KXFALL": {Ticker: "KXFALL", YesBid: 45, NoBid: 52}},
	}
	ev := newTestEvaluator(Config{Role: fees.Maker, TopOfBookFallback: false}, src, Deps{})

	dec, err := ev.EvaluateTicker(context.Background(), "KXFALL")
	require.NoError(t, err)

	assert.Zero(t, src.mktCalls)
	assert.Contains(t, dec.Reason, "empty book")
}

func TestRecordWritesCollaborators(t *testing.T) {
	snaps := &recordingStore{}
	decs := &recordingDecisionStore{}
	src := &fakeSource{books: map[string]kalshi.Orderbook{
		"KXREC": rawBook("KXREC", [][2]int{{45, 100}}, [][2]int{{45, 100}}),
	}}
	ev := newTestEvaluator(Config{MinProfitCents: 10.0, Role: fees.Maker}, src, Deps{
		Snapshots: snaps,
		Decisions: decs,
	})

	dec, err := ev.EvaluateTicker(context.Background(), "KXREC")
	require.NoError(t, err)

	require.Len(t, snaps.snaps, 1)
	assert.Equal(t, "KXREC", snaps.snaps[0].Ticker)
	require.Len(t, decs.decisions, 1)
	assert.Equal(t, dec.ID, decs.decisions[0].ID)
}

func TestRecordFailureDoesNotPropagate(t *testing.T) {
	src := &fakeSource{books: map[string]kalshi.Orderbook{
		"KXREC": rawBook("KXREC", [][2]int{{45, 100}}, [][2]int{{45, 100}}),
	}}
	ev := newTestEvaluator(Config{MinProfitCents: 10.0, Role: fees.Maker}, src, Deps{
		Snapshots: &recordingStore{failWith: errors.New("pg down")},
		Decisions: &recordingDecisionStore{failWith: errors.New("pg down")},
	})

	_, err := ev.EvaluateTicker(context.Background(), "KXREC")
	assert.NoError(t, err)
}

func TestDecisionIDsAreUnique(t *testing.T) {
	ev := newTestEvaluator(Config{Role: fees.Maker}, &fakeSource{}, Deps{})

	a, err := ev.EvaluateRaw(context.Background(), rawBook("KXID", nil, nil))
	require.NoError(t, err)
	b, err := ev.EvaluateRaw(context.Background(), rawBook("KXID", nil, nil))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
