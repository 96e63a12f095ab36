package domain

import "time"

// DecisionAction is the outcome of a quoting evaluation.
type DecisionAction string

const (
	ActionQuote DecisionAction = "quote"
	ActionSkip  DecisionAction = "skip"
)

// QuoteDecision is the evaluator's verdict for one market at one point in
// time: quote it at the recommended prices, or skip it and say what spread
// would have been needed. Monetary amounts are fractional cents because the
// fee formula is non-integer.
type QuoteDecision struct {
	ID     string         `json:"id"`
	Ticker string         `json:"ticker"`
	Action DecisionAction `json:"action"`
	Reason string         `json:"reason"`

	Contracts int    `json:"contracts"`
	Role      string `json:"role"` // "maker" or "taker"

	ObservedSpread *int     `json:"observed_spread,omitempty"` // cents; nil when book had no spread
	MidPrice       *float64 `json:"mid_price,omitempty"`       // cents

	RecommendedBid int `json:"recommended_bid"` // cents, clamped to [1,99]
	RecommendedAsk int `json:"recommended_ask"`

	ExpectedNetProfit float64 `json:"expected_net_profit"` // cents, after fees
	BreakevenSpread   int     `json:"breakeven_spread"`    // cents
	RequiredSpread    int     `json:"required_spread"`     // cents, for the profit target

	CreatedAt time.Time `json:"created_at"`
}
