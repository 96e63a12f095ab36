package domain

import "time"

// PriceLevel is a single price+quantity entry on one side of a book.
// Prices are integer cents in [0,100]; quantities are contract counts.
type PriceLevel struct {
	Price    int `json:"price"`
	Quantity int `json:"quantity"`
}

// Side selects one side of a YES-centric orderbook.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// BookSnapshot is an immutable copy of a processed orderbook: both derived
// sides plus every metric the evaluator consumes. Best bid/ask, mid, and
// spread are pointers because an empty or one-sided book has no answer for
// them — nil means "no liquidity", which is distinct from zero.
type BookSnapshot struct {
	Ticker   string       `json:"ticker"`
	YesBids  []PriceLevel `json:"yes_bids"`
	YesAsks  []PriceLevel `json:"yes_asks"`
	BestBid  *int         `json:"best_bid,omitempty"`
	BestAsk  *int         `json:"best_ask,omitempty"`
	MidPrice *float64     `json:"mid_price,omitempty"`
	Spread   *int         `json:"spread,omitempty"`
	BidDepth int          `json:"bid_depth"`
	AskDepth int          `json:"ask_depth"`
	Empty    bool         `json:"empty"`
	OneSided bool         `json:"one_sided"`
	Crossed  bool         `json:"crossed"`

	Timestamp time.Time `json:"timestamp"`
}
