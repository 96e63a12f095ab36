package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeFormula(t *testing.T) {
	s := Default()

	calc, err := s.Fee(100, 48, Maker)
	require.NoError(t, err)

	// fee = rate * C * P * (1-P), in dollars.
	want := 0.0175 * 100 * 0.48 * 0.52
	assert.InDelta(t, want, calc.FeeDollars, 1e-9)
	assert.InDelta(t, want*100, calc.FeeCents, 1e-9)
	assert.Equal(t, 0.48, calc.PriceDecimal)
	assert.InDelta(t, 0.48, calc.RiskPerContract, 1e-9)
	assert.InDelta(t, 48.0, calc.TotalRisk, 1e-9)
}

func TestFeeSymmetricAboutFifty(t *testing.T) {
	s := Default()
	for _, p := range []int{1, 10, 30, 48, 50} {
		low, err := s.Fee(100, p, Maker)
		require.NoError(t, err)
		high, err := s.Fee(100, 100-p, Maker)
		require.NoError(t, err)
		assert.InDelta(t, low.FeeCents, high.FeeCents, 1e-9, "price %d", p)
	}

	// Worst case is exactly at 50¢.
	atMid, _ := s.Fee(100, 50, Maker)
	near, _ := s.Fee(100, 49, Maker)
	assert.Greater(t, atMid.FeeCents, near.FeeCents)
}

func TestFeeLinearInContracts(t *testing.T) {
	s := Default()
	one, err := s.Fee(100, 37, Maker)
	require.NoError(t, err)
	two, err := s.Fee(200, 37, Maker)
	require.NoError(t, err)
	assert.InDelta(t, 2*one.FeeCents, two.FeeCents, 1e-9)
}

func TestTakerIsFourTimesMaker(t *testing.T) {
	s := Default()
	maker, err := s.Fee(100, 42, Maker)
	require.NoError(t, err)
	taker, err := s.Fee(100, 42, Taker)
	require.NoError(t, err)
	assert.InDelta(t, 4*maker.FeeCents, taker.FeeCents, 1e-9)
}

func TestFeeDegenerateAndInvalidInput(t *testing.T) {
	s := Default()

	calc, err := s.Fee(0, 50, Maker)
	require.NoError(t, err)
	assert.Zero(t, calc.FeeCents)

	// Price 0 and 100 are valid and fee-free: nothing is at risk.
	calc, err = s.Fee(100, 0, Maker)
	require.NoError(t, err)
	assert.Zero(t, calc.FeeCents)
	calc, err = s.Fee(100, 100, Taker)
	require.NoError(t, err)
	assert.Zero(t, calc.FeeCents)

	_, err = s.Fee(-1, 50, Maker)
	assert.ErrorIs(t, err, ErrNegativeContracts)
	_, err = s.Fee(100, 101, Maker)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)
	_, err = s.Fee(100, -1, Maker)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)
}

func TestRoundTripFee(t *testing.T) {
	s := Default()
	entry, _ := s.Fee(100, 48, Maker)
	exit, _ := s.Fee(100, 52, Maker)

	total, err := s.RoundTripFee(100, 48, 52, Maker)
	require.NoError(t, err)
	assert.InDelta(t, entry.FeeCents+exit.FeeCents, total, 1e-9)
}

func TestAnalyze(t *testing.T) {
	s := Default()

	a, err := s.Analyze(100, 45, 55, Maker)
	require.NoError(t, err)

	assert.Equal(t, 10, a.Spread)
	assert.InDelta(t, 1000.0, a.GrossProfitCents, 1e-9)

	wantFees := (0.0175*100*0.45*0.55 + 0.0175*100*0.55*0.45) * 100
	assert.InDelta(t, wantFees, a.TotalFeesCents, 1e-9)
	assert.InDelta(t, 1000.0-wantFees, a.NetProfitCents, 1e-9)
	assert.InDelta(t, a.NetProfitCents/100, a.NetPerContractCents, 1e-9)
	assert.True(t, a.Profitable)

	require.NotNil(t, a.ROIPercent)
	assert.InDelta(t, a.NetProfitCents/float64(100*45)*100, *a.ROIPercent, 1e-9)
}

func TestAnalyzeLosingTrade(t *testing.T) {
	s := Default()

	// A 1¢ spread at the midpoint cannot clear taker fees.
	a, err := s.Analyze(100, 50, 51, Taker)
	require.NoError(t, err)
	assert.Negative(t, a.NetProfitCents)
	assert.False(t, a.Profitable)
}

func TestAnalyzeROIAbsent(t *testing.T) {
	s := Default()

	a, err := s.Analyze(0, 45, 55, Maker)
	require.NoError(t, err)
	assert.Nil(t, a.ROIPercent)

	a, err = s.Analyze(100, 0, 10, Maker)
	require.NoError(t, err)
	assert.Nil(t, a.ROIPercent)
}

func TestMinSpreadForBreakeven(t *testing.T) {
	s := Default()

	spread, err := s.MinSpreadForBreakeven(100, 50, Maker)
	require.NoError(t, err)

	// The reported spread clears zero and is minimal among valid spreads.
	net, err := s.ExpectedProfit(spread, 100, 50, Maker)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, net, 0.0)

	if spread > 1 {
		narrower, err := s.ExpectedProfit(spread-1, 100, 50, Maker)
		require.NoError(t, err)
		assert.Less(t, narrower, 0.0)
	}
}

func TestMinSpreadTakerNeedsMore(t *testing.T) {
	s := Default()

	maker, err := s.MinSpreadForBreakeven(100, 50, Maker)
	require.NoError(t, err)
	taker, err := s.MinSpreadForBreakeven(100, 50, Taker)
	require.NoError(t, err)
	assert.Greater(t, taker, maker)
}

func TestMinSpreadWidensWithTarget(t *testing.T) {
	s := Default()

	breakeven, err := s.MinSpreadForProfit(100, 50, 0, Maker)
	require.NoError(t, err)
	forProfit, err := s.MinSpreadForProfit(100, 50, 200, Maker)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, forProfit, breakeven)
}

func TestMinSpreadCheaperAwayFromMid(t *testing.T) {
	s := Default()

	// Fees peak at 50¢, so quoting at an extreme mid breaks even no later.
	atMid, err := s.MinSpreadForBreakeven(100, 50, Taker)
	require.NoError(t, err)
	atEdge, err := s.MinSpreadForBreakeven(100, 90, Taker)
	require.NoError(t, err)
	assert.LessOrEqual(t, atEdge, atMid)
}

func TestMinSpreadUnreachableTargetCapped(t *testing.T) {
	s := Default()

	// One contract can never net 10,000¢; the search reports its upper bound.
	spread, err := s.MinSpreadForProfit(1, 50, 10000, Maker)
	require.NoError(t, err)
	assert.Equal(t, 50, spread)
}

func TestMinSpreadInvalidInput(t *testing.T) {
	s := Default()

	_, err := s.MinSpreadForProfit(-1, 50, 0, Maker)
	assert.ErrorIs(t, err, ErrNegativeContracts)
	_, err = s.MinSpreadForProfit(100, 101, 0, Maker)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)
}

func TestExpectedProfitMatchesAnalyze(t *testing.T) {
	s := Default()

	net, err := s.ExpectedProfit(10, 100, 50, Maker)
	require.NoError(t, err)

	a, err := s.Analyze(100, 45, 55, Maker)
	require.NoError(t, err)
	assert.InDelta(t, a.NetProfitCents, net, 1e-9)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("maker")
	require.NoError(t, err)
	assert.Equal(t, Maker, role)

	role, err = ParseRole("taker")
	require.NoError(t, err)
	assert.Equal(t, Taker, role)

	_, err = ParseRole("broker")
	assert.Error(t, err)

	assert.Equal(t, "maker", Maker.String())
	assert.Equal(t, "taker", Taker.String())
}

func TestCustomSchedule(t *testing.T) {
	s := Schedule{MakerRate: 0.01, TakerRate: 0.02}

	calc, err := s.Fee(100, 50, Taker)
	require.NoError(t, err)
	assert.InDelta(t, 0.02*100*0.25*100, calc.FeeCents, 1e-9)
	assert.Equal(t, 0.01, s.Rate(Maker))
	assert.Equal(t, 0.02, s.Rate(Taker))
}
