package kalshi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLevelDecodesArrayForm(t *testing.T) {
	var ob Orderbook
	raw := `{"ticker":"KXTEST","yes":[[45,100],[44,200]],"no":[[40,100],[60,200]]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &ob))

	assert.Equal(t, "KXTEST", ob.Ticker)
	require.Len(t, ob.YesBids, 2)
	assert.Equal(t, PriceLevel{Price: 45, Quantity: 100}, ob.YesBids[0])
	require.Len(t, ob.NoBids, 2)
	assert.Equal(t, PriceLevel{Price: 60, Quantity: 200}, ob.NoBids[1])
}

func TestPriceLevelDecodesObjectForm(t *testing.T) {
	var lvl PriceLevel
	require.NoError(t, json.Unmarshal([]byte(`{"price":37,"quantity":50}`), &lvl))
	assert.Equal(t, PriceLevel{Price: 37, Quantity: 50}, lvl)
}

func TestPriceLevelRejectsShortArray(t *testing.T) {
	var lvl PriceLevel
	err := json.Unmarshal([]byte(`[45]`), &lvl)
	assert.Error(t, err)
}

func TestPriceLevelMarshalsArrayForm(t *testing.T) {
	data, err := json.Marshal(PriceLevel{Price: 45, Quantity: 100})
	require.NoError(t, err)
	assert.JSONEq(t, `[45,100]`, string(data))
}

func TestWSOrderbookToOrderbook(t *testing.T) {
	var msg WSOrderbook
	raw := `{"market_ticker":"KXWS","yes":[[48,10]],"no":[{"price":47,"quantity":20}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	ob := msg.ToOrderbook()
	assert.Equal(t, "KXWS", ob.Ticker)
	require.Len(t, ob.YesBids, 1)
	assert.Equal(t, PriceLevel{Price: 48, Quantity: 10}, ob.YesBids[0])
	require.Len(t, ob.NoBids, 1)
	assert.Equal(t, PriceLevel{Price: 47, Quantity: 20}, ob.NoBids[0])
	assert.False(t, ob.Timestamp.IsZero())
}

func TestMarketToDomain(t *testing.T) {
	m := Market{
		Ticker:    "KXTEST",
		Status:    "open",
		YesBid:    45,
		NoBid:     52,
		CloseTime: "2026-12-31T23:59:59Z",
	}

	d := m.ToDomain()
	assert.Equal(t, "KXTEST", d.Ticker)
	assert.Equal(t, 45, d.YesBid)
	require.NotNil(t, d.CloseTime)
	assert.Equal(t, 2026, d.CloseTime.Year())

	// Unparseable close time stays absent.
	m.CloseTime = "soon"
	assert.Nil(t, m.ToDomain().CloseTime)
}
