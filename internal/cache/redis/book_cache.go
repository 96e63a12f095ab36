package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/kalshibot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// BookCache implements domain.BookCache using Redis sorted sets and hashes
// for each market's processed YES-view book.
//
// Key schema:
//
//	book:{ticker}:bids     - sorted set of bid prices (score = price cents)
//	book:{ticker}:asks     - sorted set of ask prices (score = price cents)
//	book:{ticker}:bid:qty  - hash mapping price -> quantity for bids
//	book:{ticker}:ask:qty  - hash mapping price -> quantity for asks
//	book:{ticker}:bbo      - hash with "bid" and "ask" fields (best prices)
//	book:{ticker}:meta     - hash with "ts", "empty", "one_sided", "crossed"
type BookCache struct {
	rdb *redis.Client
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client) *BookCache {
	return &BookCache{rdb: c.Underlying()}
}

func bookBidsKey(ticker string) string   { return "book:" + ticker + ":bids" }
func bookAsksKey(ticker string) string   { return "book:" + ticker + ":asks" }
func bookBidQtyKey(ticker string) string { return "book:" + ticker + ":bid:qty" }
func bookAskQtyKey(ticker string) string { return "book:" + ticker + ":ask:qty" }
func bookBBOKey(ticker string) string    { return "book:" + ticker + ":bbo" }
func bookMetaKey(ticker string) string   { return "book:" + ticker + ":meta" }

// SetSnapshot atomically replaces the cached book for a ticker. It clears
// existing keys and repopulates both sorted sets, the quantity hashes, the
// BBO hash, and the metadata hash in one transaction.
func (bc *BookCache) SetSnapshot(ctx context.Context, snap domain.BookSnapshot) error {
	bidsKey := bookBidsKey(snap.Ticker)
	asksKey := bookAsksKey(snap.Ticker)
	bidQtyKey := bookBidQtyKey(snap.Ticker)
	askQtyKey := bookAskQtyKey(snap.Ticker)
	bboKey := bookBBOKey(snap.Ticker)
	metaKey := bookMetaKey(snap.Ticker)

	pipe := bc.rdb.TxPipeline()

	pipe.Del(ctx, bidsKey, asksKey, bidQtyKey, askQtyKey, bboKey, metaKey)

	for _, lvl := range snap.YesBids {
		priceStr := strconv.Itoa(lvl.Price)
		pipe.ZAdd(ctx, bidsKey, redis.Z{Score: float64(lvl.Price), Member: priceStr})
		pipe.HSet(ctx, bidQtyKey, priceStr, strconv.Itoa(lvl.Quantity))
	}
	for _, lvl := range snap.YesAsks {
		priceStr := strconv.Itoa(lvl.Price)
		pipe.ZAdd(ctx, asksKey, redis.Z{Score: float64(lvl.Price), Member: priceStr})
		pipe.HSet(ctx, askQtyKey, priceStr, strconv.Itoa(lvl.Quantity))
	}

	// BBO fields are written only when the side exists; their absence is the
	// signal GetBBO relies on.
	if snap.BestBid != nil {
		pipe.HSet(ctx, bboKey, "bid", strconv.Itoa(*snap.BestBid))
	}
	if snap.BestAsk != nil {
		pipe.HSet(ctx, bboKey, "ask", strconv.Itoa(*snap.BestAsk))
	}

	pipe.HSet(ctx, metaKey,
		"ts", strconv.FormatInt(snap.Timestamp.UnixNano(), 10),
		"empty", strconv.FormatBool(snap.Empty),
		"one_sided", strconv.FormatBool(snap.OneSided),
		"crossed", strconv.FormatBool(snap.Crossed),
	)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set book snapshot %s: %w", snap.Ticker, err)
	}
	return nil
}

// GetSnapshot reconstructs a full BookSnapshot from Redis. It returns
// domain.ErrNotFound if no book data exists for the ticker.
func (bc *BookCache) GetSnapshot(ctx context.Context, ticker string) (domain.BookSnapshot, error) {
	pipe := bc.rdb.Pipeline()

	// Bids highest first, asks lowest first, matching the book's own order.
	bidsCmd := pipe.ZRevRangeWithScores(ctx, bookBidsKey(ticker), 0, -1)
	asksCmd := pipe.ZRangeWithScores(ctx, bookAsksKey(ticker), 0, -1)
	bidQtyCmd := pipe.HGetAll(ctx, bookBidQtyKey(ticker))
	askQtyCmd := pipe.HGetAll(ctx, bookAskQtyKey(ticker))
	bboCmd := pipe.HGetAll(ctx, bookBBOKey(ticker))
	metaCmd := pipe.HGetAll(ctx, bookMetaKey(ticker))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.BookSnapshot{}, fmt.Errorf("redis: get book snapshot %s: %w", ticker, err)
	}

	metaVals, _ := metaCmd.Result()
	if len(metaVals) == 0 {
		return domain.BookSnapshot{}, domain.ErrNotFound
	}

	snap := domain.BookSnapshot{Ticker: ticker}

	if tsStr, ok := metaVals["ts"]; ok {
		if tsNano, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			snap.Timestamp = time.Unix(0, tsNano).UTC()
		}
	}
	snap.Empty = metaVals["empty"] == "true"
	snap.OneSided = metaVals["one_sided"] == "true"
	snap.Crossed = metaVals["crossed"] == "true"

	bidQtys, _ := bidQtyCmd.Result()
	snap.YesBids, snap.BidDepth = buildLevels(bidsCmd, bidQtys)

	askQtys, _ := askQtyCmd.Result()
	snap.YesAsks, snap.AskDepth = buildLevels(asksCmd, askQtys)

	bboVals, _ := bboCmd.Result()
	if bidStr, ok := bboVals["bid"]; ok {
		if bid, err := strconv.Atoi(bidStr); err == nil {
			snap.BestBid = &bid
		}
	}
	if askStr, ok := bboVals["ask"]; ok {
		if ask, err := strconv.Atoi(askStr); err == nil {
			snap.BestAsk = &ask
		}
	}
	if snap.BestBid != nil && snap.BestAsk != nil {
		mid := float64(*snap.BestBid+*snap.BestAsk) / 2
		spread := *snap.BestAsk - *snap.BestBid
		snap.MidPrice = &mid
		snap.Spread = &spread
	}

	return snap, nil
}

// buildLevels zips a sorted-set range with its quantity hash into price
// levels, summing total depth along the way.
func buildLevels(cmd *redis.ZSliceCmd, qtys map[string]string) ([]domain.PriceLevel, int) {
	zs, _ := cmd.Result()
	levels := make([]domain.PriceLevel, 0, len(zs))
	depth := 0
	for _, z := range zs {
		priceStr, ok := z.Member.(string)
		if !ok {
			continue
		}
		qty := 0
		if qtyStr, exists := qtys[priceStr]; exists {
			qty, _ = strconv.Atoi(qtyStr)
		}
		levels = append(levels, domain.PriceLevel{Price: int(z.Score), Quantity: qty})
		depth += qty
	}
	return levels, depth
}

// GetBBO retrieves the best bid and ask from the BBO hash. It returns
// domain.ErrNotFound if no BBO data exists for the ticker.
func (bc *BookCache) GetBBO(ctx context.Context, ticker string) (bestBid, bestAsk int, err error) {
	vals, err := bc.rdb.HGetAll(ctx, bookBBOKey(ticker)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis: get bbo %s: %w", ticker, err)
	}
	if len(vals) == 0 {
		return 0, 0, domain.ErrNotFound
	}

	if bidStr, ok := vals["bid"]; ok {
		bestBid, _ = strconv.Atoi(bidStr)
	}
	if askStr, ok := vals["ask"]; ok {
		bestAsk, _ = strconv.Atoi(askStr)
	}
	return bestBid, bestAsk, nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
