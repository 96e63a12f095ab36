// Package fees implements the Kalshi fee model and the profitability policy
// built on top of it.
//
// A trade of C contracts at price P (decimal, price_cents/100) is charged
//
//	fee = rate * C * P * (1-P)
//
// where rate is 0.0175 for makers and 0.07 for takers. The fee is symmetric
// about 50¢ and worst exactly at the mid of the price range, so quoting
// near 50¢ needs a wider spread to clear fees than quoting at the extremes.
package fees

import (
	"errors"
	"fmt"
)

var (
	// ErrPriceOutOfRange is returned when a price is outside [0,100] cents.
	ErrPriceOutOfRange = errors.New("price out of range [0,100]")

	// ErrNegativeContracts is returned for a negative contract count.
	ErrNegativeContracts = errors.New("negative contract count")
)

// Role distinguishes the two fee rates: providing liquidity (maker) versus
// taking it (taker).
type Role int

const (
	Maker Role = iota
	Taker
)

// String returns the lowercase role name.
func (r Role) String() string {
	if r == Taker {
		return "taker"
	}
	return "maker"
}

// ParseRole converts a config string into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "maker", "":
		return Maker, nil
	case "taker":
		return Taker, nil
	default:
		return Maker, fmt.Errorf("unknown role %q", s)
	}
}

// Schedule carries the maker and taker fee rates. It is passed explicitly
// into every computation so tests and back-tests can substitute alternate
// schedules without process-wide state. The taker rate is exactly 4x the
// maker rate on the production schedule; nothing in the math depends on
// that ratio, but Default preserves it.
type Schedule struct {
	MakerRate float64
	TakerRate float64
}

// Default returns the Kalshi production fee schedule.
func Default() Schedule {
	return Schedule{
		MakerRate: 0.0175, // 1.75% of amount at risk
		TakerRate: 0.07,   // 7.00%, 4x maker
	}
}

// Rate returns the fee rate for the given role.
func (s Schedule) Rate(role Role) float64 {
	if role == Taker {
		return s.TakerRate
	}
	return s.MakerRate
}

// Calculation is the full breakdown of a single fee computation. Monetary
// fields carry explicit units; fee amounts are fractional cents because the
// formula is non-integer.
type Calculation struct {
	Contracts       int
	PriceCents      int
	PriceDecimal    float64
	RiskPerContract float64 // dollars: min(P, 1-P)
	TotalRisk       float64 // dollars
	FeeCents        float64
	FeeDollars      float64
	Rate            float64
}

// Fee computes the fee for a single trade of contracts at priceCents under
// the given role. Zero contracts is a valid degenerate input (zero fee);
// negative contracts and out-of-range prices are rejected.
func (s Schedule) Fee(contracts, priceCents int, role Role) (Calculation, error) {
	if contracts < 0 {
		return Calculation{}, fmt.Errorf("fees: %w: %d", ErrNegativeContracts, contracts)
	}
	if priceCents < 0 || priceCents > 100 {
		return Calculation{}, fmt.Errorf("fees: %w: %d", ErrPriceOutOfRange, priceCents)
	}

	// The one place integer cents become a decimal probability.
	p := float64(priceCents) / 100

	risk := p
	if 1-p < risk {
		risk = 1 - p
	}

	rate := s.Rate(role)
	feeDollars := rate * float64(contracts) * p * (1 - p)

	return Calculation{
		Contracts:       contracts,
		PriceCents:      priceCents,
		PriceDecimal:    p,
		RiskPerContract: risk,
		TotalRisk:       float64(contracts) * risk,
		FeeCents:        feeDollars * 100,
		FeeDollars:      feeDollars,
		Rate:            rate,
	}, nil
}

// RoundTripFee returns the total fee in cents for entering at entryCents and
// exiting at exitCents, both legs at the same contract count and role.
// Round trips are not mixed-role in this model.
func (s Schedule) RoundTripFee(contracts, entryCents, exitCents int, role Role) (float64, error) {
	entry, err := s.Fee(contracts, entryCents, role)
	if err != nil {
		return 0, err
	}
	exit, err := s.Fee(contracts, exitCents, role)
	if err != nil {
		return 0, err
	}
	return entry.FeeCents + exit.FeeCents, nil
}

// Analysis is the result of evaluating a round-trip entry/exit pair.
// ROIPercent is nil when the denominator is degenerate (zero contracts or a
// zero entry price); that is an absent answer, not a zero return.
type Analysis struct {
	Contracts  int
	EntryPrice int // cents
	ExitPrice  int // cents
	Spread     int // cents, exit - entry

	GrossProfitCents float64
	EntryFee         Calculation
	ExitFee          Calculation
	TotalFeesCents   float64

	NetProfitCents      float64
	NetPerContractCents float64
	ROIPercent          *float64
	Profitable          bool
}

// Analyze evaluates the profitability of buying contracts at entryCents and
// selling at exitCents, with both legs charged at the given role. Gross
// profit may be negative; the verdict is net-of-fees.
func (s Schedule) Analyze(contracts, entryCents, exitCents int, role Role) (Analysis, error) {
	entryFee, err := s.Fee(contracts, entryCents, role)
	if err != nil {
		return Analysis{}, err
	}
	exitFee, err := s.Fee(contracts, exitCents, role)
	if err != nil {
		return Analysis{}, err
	}

	spread := exitCents - entryCents
	gross := float64(contracts * spread)
	totalFees := entryFee.FeeCents + exitFee.FeeCents
	net := gross - totalFees

	a := Analysis{
		Contracts:      contracts,
		EntryPrice:     entryCents,
		ExitPrice:      exitCents,
		Spread:         spread,
		GrossProfitCents: gross,
		EntryFee:       entryFee,
		ExitFee:        exitFee,
		TotalFeesCents: totalFees,
		NetProfitCents: net,
		Profitable:     net > 0,
	}
	if contracts > 0 {
		a.NetPerContractCents = net / float64(contracts)
	}
	if contracts > 0 && entryCents > 0 {
		roi := net / float64(contracts*entryCents) * 100
		a.ROIPercent = &roi
	}
	return a, nil
}

// maxSearchSpread bounds the minimum-spread search. A binary market spread
// beyond 50¢ is never quotable in practice, so the search reports 50 when
// nothing narrower clears.
const maxSearchSpread = 50

// MinSpreadForProfit returns the smallest integer spread, in cents, for
// which a round trip of contracts quoted around midCents nets at least
// targetCents after fees. Quotes are placed at mid - s/2 and mid + s/2
// (integer division); spreads whose quotes would leave [1,99] are skipped.
func (s Schedule) MinSpreadForProfit(contracts, midCents int, targetCents float64, role Role) (int, error) {
	if contracts < 0 {
		return 0, fmt.Errorf("fees: %w: %d", ErrNegativeContracts, contracts)
	}
	if midCents < 0 || midCents > 100 {
		return 0, fmt.Errorf("fees: %w: mid %d", ErrPriceOutOfRange, midCents)
	}

	for spread := 1; spread < maxSearchSpread; spread++ {
		bid := midCents - spread/2
		ask := midCents + spread/2
		if bid < 1 || ask > 99 {
			continue
		}

		a, err := s.Analyze(contracts, bid, ask, role)
		if err != nil {
			return 0, err
		}
		if a.NetProfitCents >= targetCents {
			return spread, nil
		}
	}
	return maxSearchSpread, nil
}

// MinSpreadForBreakeven returns the smallest integer spread whose round
// trip around midCents nets >= 0 after fees. Ties resolve to the smaller
// spread that still clears zero.
func (s Schedule) MinSpreadForBreakeven(contracts, midCents int, role Role) (int, error) {
	return s.MinSpreadForProfit(contracts, midCents, 0, role)
}

// ExpectedProfit returns the net profit in cents of a round trip quoted at
// the given spread around midCents, with the recommended prices clamped to
// [1,99]. The result may be negative.
func (s Schedule) ExpectedProfit(spreadCents, contracts, midCents int, role Role) (float64, error) {
	bid := clampPrice(midCents - spreadCents/2)
	ask := clampPrice(midCents + spreadCents/2)

	a, err := s.Analyze(contracts, bid, ask, role)
	if err != nil {
		return 0, err
	}
	return a.NetProfitCents, nil
}

// clampPrice clamps an output quote price to the meaningful range for a
// binary contract. 0¢ and 100¢ quotes are certainties, not prices.
func clampPrice(p int) int {
	if p < 1 {
		return 1
	}
	if p > 99 {
		return 99
	}
	return p
}
