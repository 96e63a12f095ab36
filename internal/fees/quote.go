package fees

import (
	"fmt"
	"math"
)

// Decision is the verdict of ShouldQuote: quote the market at the
// recommended prices, or skip it. The skip path carries the spread that
// would have been required, so callers can log an actionable reason.
type Decision struct {
	ShouldQuote bool
	Reason      string

	RecommendedBid int // cents, clamped to [1,99]
	RecommendedAsk int

	ExpectedNetProfit float64 // cents, after fees
	BreakevenSpread   int     // cents
	RequiredSpread    int     // cents, to hit the profit target

	Analysis Analysis
}

// ShouldQuote decides whether a market with the observed spread is worth
// quoting contracts around mid (fractional cents) for at least
// minProfitCents of net profit per round trip at the given role.
//
// The recommended quotes are mid - spread/2 and mid + spread/2, rounded
// half away from zero (math.Round) and clamped to [1,99]. Rounding policy
// matters on borderline quotes: half-away-from-zero widens rather than
// narrows an odd spread around a fractional mid.
//
// The function is pure: identical inputs always produce identical
// decisions, which keeps back-testing over historical snapshots
// deterministic.
func (s Schedule) ShouldQuote(spreadCents, contracts int, mid float64, minProfitCents float64, role Role) (Decision, error) {
	if contracts < 0 {
		return Decision{}, fmt.Errorf("fees: %w: %d", ErrNegativeContracts, contracts)
	}
	if mid < 0 || mid > 100 {
		return Decision{}, fmt.Errorf("fees: %w: mid %.2f", ErrPriceOutOfRange, mid)
	}

	half := float64(spreadCents) / 2
	bid := clampPrice(int(math.Round(mid - half)))
	ask := clampPrice(int(math.Round(mid + half)))

	analysis, err := s.Analyze(contracts, bid, ask, role)
	if err != nil {
		return Decision{}, err
	}

	midInt := int(math.Round(mid))
	breakeven, err := s.MinSpreadForBreakeven(contracts, midInt, role)
	if err != nil {
		return Decision{}, err
	}
	required, err := s.MinSpreadForProfit(contracts, midInt, minProfitCents, role)
	if err != nil {
		return Decision{}, err
	}

	dec := Decision{
		RecommendedBid:    bid,
		RecommendedAsk:    ask,
		ExpectedNetProfit: analysis.NetProfitCents,
		BreakevenSpread:   breakeven,
		RequiredSpread:    required,
		Analysis:          analysis,
	}

	if analysis.NetProfitCents >= minProfitCents {
		dec.ShouldQuote = true
		dec.Reason = fmt.Sprintf("profitable: %.2f¢ net (target %.2f¢)",
			analysis.NetProfitCents, minProfitCents)
	} else {
		dec.Reason = fmt.Sprintf("unprofitable: %.2f¢ < %.2f¢; need %d¢ spread (current %d¢, breakeven %d¢)",
			analysis.NetProfitCents, minProfitCents, required, spreadCents, breakeven)
	}
	return dec, nil
}
