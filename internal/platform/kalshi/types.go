package kalshi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// Market represents a market as returned by the Kalshi REST API. Only the
// fields the evaluator consumes are mapped.
type Market struct {
	Ticker       string `json:"ticker"`
	EventTicker  string `json:"event_ticker"`
	Title        string `json:"title"`
	Status       string `json:"status"` // "open", "closed", "settled"
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	NoBid        int    `json:"no_bid"`
	NoAsk        int    `json:"no_ask"`
	LastPrice    int    `json:"last_price"`
	Volume24H    int64  `json:"volume_24h"`
	OpenInterest int64  `json:"open_interest"`
	CloseTime    string `json:"close_time"`
}

// ToDomain converts the API DTO into the domain market type.
func (m Market) ToDomain() domain.Market {
	out := domain.Market{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		Title:        m.Title,
		Status:       domain.MarketStatus(m.Status),
		YesBid:       m.YesBid,
		NoBid:        m.NoBid,
		LastPrice:    m.LastPrice,
		Volume24H:    m.Volume24H,
		OpenInterest: m.OpenInterest,
		UpdatedAt:    time.Now().UTC(),
	}
	if t, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
		out.CloseTime = &t
	}
	return out
}

// PriceLevel is a single price+quantity entry in the Kalshi orderbook.
//
// The REST orderbook endpoint returns levels as two-element arrays
// [price, quantity]; some WebSocket payloads use object form. Both decode
// into this type.
type PriceLevel struct {
	Price    int // cents
	Quantity int // contracts
}

// UnmarshalJSON accepts both the [price, quantity] array form and the
// {"price": p, "quantity": q} object form.
func (l *PriceLevel) UnmarshalJSON(data []byte) error {
	var arr []int
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) < 2 {
			return fmt.Errorf("kalshi: price level needs 2 elements, got %d", len(arr))
		}
		l.Price = arr[0]
		l.Quantity = arr[1]
		return nil
	}

	var obj struct {
		Price    int `json:"price"`
		Quantity int `json:"quantity"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("kalshi: decode price level: %w", err)
	}
	l.Price = obj.Price
	l.Quantity = obj.Quantity
	return nil
}

// MarshalJSON emits the array form, matching the REST endpoint.
func (l PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{l.Price, l.Quantity})
}

// Orderbook is the raw bid-only orderbook for a Kalshi market: YES bids and
// NO bids from the same point-in-time read.
type Orderbook struct {
	Ticker    string       `json:"ticker"`
	YesBids   []PriceLevel `json:"yes"`
	NoBids    []PriceLevel `json:"no"`
	Timestamp time.Time    `json:"-"`
}

// Levels converts both raw sides into domain price levels.
func (o Orderbook) Levels() (yesBids, noBids []domain.PriceLevel) {
	yesBids = make([]domain.PriceLevel, len(o.YesBids))
	for i, l := range o.YesBids {
		yesBids[i] = domain.PriceLevel{Price: l.Price, Quantity: l.Quantity}
	}
	noBids = make([]domain.PriceLevel, len(o.NoBids))
	for i, l := range o.NoBids {
		noBids[i] = domain.PriceLevel{Price: l.Price, Quantity: l.Quantity}
	}
	return yesBids, noBids
}

// ErrorResponse represents a Kalshi API error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// Kalshi WebSocket DTOs
// --------------------------------------------------------------------------

// WSMessage is the envelope for Kalshi WebSocket messages.
type WSMessage struct {
	Type string          `json:"type"` // "orderbook_snapshot", "orderbook_delta", ...
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}

// WSOrderbook is the orderbook data received via WebSocket.
type WSOrderbook struct {
	Ticker string       `json:"market_ticker"`
	Yes    []PriceLevel `json:"yes"`
	No     []PriceLevel `json:"no"`
}

// ToOrderbook converts a WSOrderbook into the REST orderbook shape.
func (w *WSOrderbook) ToOrderbook() Orderbook {
	return Orderbook{
		Ticker:    w.Ticker,
		YesBids:   w.Yes,
		NoBids:    w.No,
		Timestamp: time.Now().UTC(),
	}
}

// WSSubscribeCmd is the command sent to subscribe to WebSocket channels.
type WSSubscribeCmd struct {
	ID     int64             `json:"id"`
	Cmd    string            `json:"cmd"` // "subscribe" or "unsubscribe"
	Params WSSubscribeParams `json:"params"`
}

// WSSubscribeParams defines the subscription parameters.
type WSSubscribeParams struct {
	Channels []string `json:"channels"`
	Tickers  []string `json:"market_tickers"`
}
