package fees

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldQuoteProfitable(t *testing.T) {
	s := Default()

	dec, err := s.ShouldQuote(10, 100, 50.0, 10.0, Maker)
	require.NoError(t, err)

	assert.True(t, dec.ShouldQuote)
	assert.Equal(t, 45, dec.RecommendedBid)
	assert.Equal(t, 55, dec.RecommendedAsk)
	assert.Positive(t, dec.ExpectedNetProfit)
	assert.Contains(t, dec.Reason, "profitable")

	a, err := s.Analyze(100, 45, 55, Maker)
	require.NoError(t, err)
	assert.InDelta(t, a.NetProfitCents, dec.ExpectedNetProfit, 1e-9)
}

func TestShouldQuoteUnprofitable(t *testing.T) {
	s := Default()

	dec, err := s.ShouldQuote(1, 100, 50.0, 20.0, Maker)
	require.NoError(t, err)

	assert.False(t, dec.ShouldQuote)
	assert.Contains(t, dec.Reason, "unprofitable")
	// The skip reason carries the actionable spread.
	assert.Contains(t, dec.Reason, fmt.Sprintf("need %d¢ spread", dec.RequiredSpread))
	assert.Positive(t, dec.RequiredSpread)
	assert.Positive(t, dec.BreakevenSpread)
	assert.LessOrEqual(t, dec.BreakevenSpread, dec.RequiredSpread)
}

func TestShouldQuoteIsIdempotent(t *testing.T) {
	s := Default()

	first, err := s.ShouldQuote(7, 150, 43.5, 5.0, Taker)
	require.NoError(t, err)
	second, err := s.ShouldQuote(7, 150, 43.5, 5.0, Taker)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestShouldQuoteRounding(t *testing.T) {
	s := Default()

	// Odd spread around a fractional mid rounds half away from zero:
	// 47.5 - 2.5 = 45, 47.5 + 2.5 = 50.
	dec, err := s.ShouldQuote(5, 100, 47.5, 0.0, Maker)
	require.NoError(t, err)
	assert.Equal(t, 45, dec.RecommendedBid)
	assert.Equal(t, 50, dec.RecommendedAsk)
}

func TestShouldQuoteClampsToPriceRange(t *testing.T) {
	s := Default()

	dec, err := s.ShouldQuote(10, 100, 2.0, 0.0, Maker)
	require.NoError(t, err)
	assert.Equal(t, 1, dec.RecommendedBid)
	assert.Equal(t, 7, dec.RecommendedAsk)

	dec, err = s.ShouldQuote(10, 100, 98.0, 0.0, Maker)
	require.NoError(t, err)
	assert.Equal(t, 93, dec.RecommendedBid)
	assert.Equal(t, 99, dec.RecommendedAsk)
}

func TestShouldQuoteNegativeSpread(t *testing.T) {
	s := Default()

	// A crossed book narrows the recommendation instead of failing; the
	// verdict simply comes out unprofitable.
	dec, err := s.ShouldQuote(-10, 100, 50.0, 10.0, Maker)
	require.NoError(t, err)
	assert.False(t, dec.ShouldQuote)
	assert.GreaterOrEqual(t, dec.RecommendedAsk, 1)
	assert.LessOrEqual(t, dec.RecommendedBid, 99)
}

func TestShouldQuoteInvalidInput(t *testing.T) {
	s := Default()

	_, err := s.ShouldQuote(10, -1, 50.0, 0.0, Maker)
	assert.ErrorIs(t, err, ErrNegativeContracts)

	_, err = s.ShouldQuote(10, 100, 100.5, 0.0, Maker)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)

	_, err = s.ShouldQuote(10, 100, -0.5, 0.0, Maker)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)
}

func TestShouldQuoteZeroContracts(t *testing.T) {
	s := Default()

	// Zero contracts nets zero; it only quotes when the target is zero too.
	dec, err := s.ShouldQuote(10, 0, 50.0, 0.0, Maker)
	require.NoError(t, err)
	assert.True(t, dec.ShouldQuote)
	assert.Zero(t, dec.ExpectedNetProfit)

	dec, err = s.ShouldQuote(10, 0, 50.0, 5.0, Maker)
	require.NoError(t, err)
	assert.False(t, dec.ShouldQuote)
}
