package orderbook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

func lvl(price, qty int) domain.PriceLevel {
	return domain.PriceLevel{Price: price, Quantity: qty}
}

func TestNewConvertsNoBidsToYesAsks(t *testing.T) {
	book, err := New("KXTEST",
		[]domain.PriceLevel{lvl(45, 100), lvl(44, 200)},
		[]domain.PriceLevel{lvl(40, 100), lvl(60, 200), lvl(70, 300)},
	)
	require.NoError(t, err)

	// NO bid at p becomes a YES ask at 100-p, sorted ascending.
	assert.Equal(t, []domain.PriceLevel{lvl(30, 300), lvl(40, 200), lvl(60, 100)}, book.Asks())

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 30, ask)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 45, bid)
}

func TestNewSumsDuplicatePrices(t *testing.T) {
	book, err := New("KXTEST",
		[]domain.PriceLevel{lvl(45, 100), lvl(45, 50), lvl(44, 10)},
		[]domain.PriceLevel{lvl(50, 20), lvl(50, 30)},
	)
	require.NoError(t, err)

	assert.Equal(t, []domain.PriceLevel{lvl(45, 150), lvl(44, 10)}, book.Bids())
	assert.Equal(t, []domain.PriceLevel{lvl(50, 50)}, book.Asks())
	assert.Equal(t, 160, book.CumulativeDepth(domain.SideBid, 10))
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New("KXBAD", []domain.PriceLevel{lvl(101, 10)}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)
	assert.Contains(t, err.Error(), "KXBAD")
	assert.Contains(t, err.Error(), "yes side")

	_, err = New("KXBAD", nil, []domain.PriceLevel{lvl(50, -5)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
	assert.Contains(t, err.Error(), "no side")

	_, err = New("KXBAD", []domain.PriceLevel{lvl(-1, 5)}, nil)
	assert.True(t, errors.Is(err, ErrPriceOutOfRange))
}

func TestEmptyBook(t *testing.T) {
	book, err := New("KXEMPTY", nil, nil)
	require.NoError(t, err)

	assert.True(t, book.IsEmpty())
	assert.False(t, book.IsOneSided())
	assert.False(t, book.IsCrossed())

	_, ok := book.BestBid()
	assert.False(t, ok)
	_, ok = book.BestAsk()
	assert.False(t, ok)
	_, ok = book.Mid()
	assert.False(t, ok)
	_, ok = book.Spread()
	assert.False(t, ok)
}

func TestOneSidedBook(t *testing.T) {
	book, err := New("KXONE", []domain.PriceLevel{lvl(48, 100)}, nil)
	require.NoError(t, err)

	assert.False(t, book.IsEmpty())
	assert.True(t, book.IsOneSided())

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 48, bid)

	// No ask side, so no mid and no spread.
	_, ok = book.Mid()
	assert.False(t, ok)
	_, ok = book.Spread()
	assert.False(t, ok)
}

func TestCrossedBook(t *testing.T) {
	// YES bid 60, NO bid 50 => derived YES ask 50: bid above ask.
	book, err := New("KXCROSS",
		[]domain.PriceLevel{lvl(60, 100)},
		[]domain.PriceLevel{lvl(50, 100)},
	)
	require.NoError(t, err)

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.Equal(t, -10, spread)
	assert.True(t, book.IsCrossed())

	mid, ok := book.Mid()
	require.True(t, ok)
	assert.Equal(t, 55.0, mid)
}

func TestZeroSpreadIsNotCrossed(t *testing.T) {
	book, err := New("KXTOUCH",
		[]domain.PriceLevel{lvl(50, 100)},
		[]domain.PriceLevel{lvl(50, 100)}, // derived ask at 50
	)
	require.NoError(t, err)

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.Equal(t, 0, spread)
	assert.False(t, book.IsCrossed())
}

func TestDepth(t *testing.T) {
	book, err := New("KXDEPTH",
		[]domain.PriceLevel{lvl(48, 100), lvl(47, 200), lvl(46, 300)},
		[]domain.PriceLevel{lvl(49, 150)}, // ask at 51
	)
	require.NoError(t, err)

	assert.Equal(t, 100, book.CumulativeDepth(domain.SideBid, 1))
	assert.Equal(t, 300, book.CumulativeDepth(domain.SideBid, 2))
	assert.Equal(t, 600, book.CumulativeDepth(domain.SideBid, 3))
	// Requesting more levels than exist truncates.
	assert.Equal(t, 600, book.CumulativeDepth(domain.SideBid, 99))
	assert.Equal(t, 150, book.CumulativeDepth(domain.SideAsk, 5))

	assert.Equal(t, 200, book.DepthAtPrice(47, domain.SideBid))
	assert.Equal(t, 0, book.DepthAtPrice(45, domain.SideBid))
	assert.Equal(t, 150, book.DepthAtPrice(51, domain.SideAsk))
}

func TestVWAP(t *testing.T) {
	book, err := New("KXVWAP",
		[]domain.PriceLevel{lvl(48, 100), lvl(47, 200), lvl(46, 300)},
		nil,
	)
	require.NoError(t, err)

	// 100@48 + 150@47 = (4800+7050)/250 = 47.4
	vwap, ok := book.VWAP(domain.SideBid, 250)
	require.True(t, ok)
	assert.InDelta(t, 47.4, vwap, 1e-9)

	// Exactly the full book.
	vwap, ok = book.VWAP(domain.SideBid, 600)
	require.True(t, ok)
	assert.InDelta(t, (4800.0+9400.0+13800.0)/600.0, vwap, 1e-9)

	// More than available: absent, not partial.
	_, ok = book.VWAP(domain.SideBid, 601)
	assert.False(t, ok)

	// Non-positive quantity: absent.
	_, ok = book.VWAP(domain.SideBid, 0)
	assert.False(t, ok)
	_, ok = book.VWAP(domain.SideBid, -10)
	assert.False(t, ok)

	// Empty ask side cannot fill anything.
	_, ok = book.VWAP(domain.SideAsk, 1)
	assert.False(t, ok)
}

func TestSnapshotIsDecoupled(t *testing.T) {
	book, err := New("KXSNAP",
		[]domain.PriceLevel{lvl(45, 100)},
		[]domain.PriceLevel{lvl(45, 200)}, // ask at 55
	)
	require.NoError(t, err)

	snap := book.Snapshot()
	require.NotNil(t, snap.BestBid)
	require.NotNil(t, snap.BestAsk)
	require.NotNil(t, snap.MidPrice)
	require.NotNil(t, snap.Spread)
	assert.Equal(t, 45, *snap.BestBid)
	assert.Equal(t, 55, *snap.BestAsk)
	assert.Equal(t, 50.0, *snap.MidPrice)
	assert.Equal(t, 10, *snap.Spread)
	assert.Equal(t, 100, snap.BidDepth)
	assert.Equal(t, 200, snap.AskDepth)
	assert.False(t, snap.Empty)
	assert.False(t, snap.OneSided)
	assert.False(t, snap.Crossed)

	// Mutating the snapshot's slices must not leak into the book.
	snap.YesBids[0].Quantity = 1
	assert.Equal(t, 100, book.Bids()[0].Quantity)
}

func TestSnapshotAbsentFields(t *testing.T) {
	book, err := New("KXSNAP2", []domain.PriceLevel{lvl(48, 100)}, nil)
	require.NoError(t, err)

	snap := book.Snapshot()
	require.NotNil(t, snap.BestBid)
	assert.Nil(t, snap.BestAsk)
	assert.Nil(t, snap.MidPrice)
	assert.Nil(t, snap.Spread)
	assert.True(t, snap.OneSided)
}

func TestBoundaryPrices(t *testing.T) {
	// Prices 0 and 100 are valid; NO bid at 0 maps to YES ask at 100.
	book, err := New("KXBOUND",
		[]domain.PriceLevel{lvl(0, 10)},
		[]domain.PriceLevel{lvl(0, 20), lvl(100, 30)},
	)
	require.NoError(t, err)

	assert.Equal(t, []domain.PriceLevel{lvl(0, 30), lvl(100, 20)}, book.Asks())

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 0, bid)
}
