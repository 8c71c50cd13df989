package historical

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rustyeddy/backtester/market"
)

// redisBar is the JSON wire shape for a cached bar; Redis has no notion of
// the market.Bar struct's float validation, so the boundary is explicit.
type redisBar struct {
	Ticker string    `json:"ticker"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Time   time.Time `json:"time"`
}

// RedisHotCache is an optional read-through cache layer shared across
// backtest processes on one host, sitting in front of the per-process
// segment cache so concurrent runs against the same ticker/window don't
// each pay for a separate provider fetch. A nil *RedisHotCache disables
// the layer entirely; HistoricalMarketService treats that as "in-memory
// only", its default.
type RedisHotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisHotCache wraps an existing client; ttl governs how long a
// cached segment is considered fresh.
func NewRedisHotCache(rdb *redis.Client, ttl time.Duration) *RedisHotCache {
	return &RedisHotCache{rdb: rdb, ttl: ttl}
}

func redisSegmentKey(ticker string, start, end time.Time) string {
	return fmt.Sprintf("backtester:segment:%s:%d:%d", ticker, start.Unix(), end.Unix())
}

// Get attempts a read-through fetch; a miss or deserialization failure is
// reported as (nil, false) rather than an error, since this layer is
// purely advisory: the segment cache and provider are always available
// as a fallback.
func (c *RedisHotCache) Get(ctx context.Context, ticker string, start, end time.Time) (*market.HistoricalData, bool) {
	raw, err := c.rdb.Get(ctx, redisSegmentKey(ticker, start, end)).Bytes()
	if err != nil {
		return nil, false
	}
	var bars []redisBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, false
	}

	hd := market.NewHistoricalData(ticker)
	for _, b := range bars {
		bar := market.Bar{Ticker: ticker, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume, Time: b.Time}
		if err := hd.Insert(bar); err != nil {
			return nil, false
		}
	}
	return hd, true
}

// Put caches a segment. Write failures are swallowed: this layer never
// makes a backtest fail.
func (c *RedisHotCache) Put(ctx context.Context, ticker string, start, end time.Time, hd *market.HistoricalData) {
	bars := hd.Bars()
	out := make([]redisBar, len(bars))
	for i, b := range bars {
		out[i] = redisBar{Ticker: b.Ticker, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume, Time: b.Time}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, redisSegmentKey(ticker, start, end), raw, c.ttl)
}
