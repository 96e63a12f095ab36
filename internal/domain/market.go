package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusOpen    MarketStatus = "open"
	MarketStatusClosed  MarketStatus = "closed"
	MarketStatusSettled MarketStatus = "settled"
)

// Market represents a Kalshi binary-option market.
type Market struct {
	Ticker       string
	EventTicker  string
	Title        string
	Status       MarketStatus
	YesBid       int // top-of-book cents as reported by the market endpoint
	NoBid        int
	LastPrice    int
	Volume24H    int64
	OpenInterest int64
	CloseTime    *time.Time
	UpdatedAt    time.Time
}
