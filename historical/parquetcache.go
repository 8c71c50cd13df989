package historical

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/rustyeddy/backtester/market"
)

// barRecord is the on-disk Parquet schema for one cached bar.
type barRecord struct {
	Ticker string  `parquet:"ticker"`
	Time   int64   `parquet:"time,timestamp(millisecond)"`
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume float64 `parquet:"volume"`
}

// DiskCache persists segments as one Parquet file per (ticker, start, end)
// cache key under Dir, at day granularity, mirroring the original's
// `<ticker>_<start>_to_<end>.cache` naming.
type DiskCache struct {
	Dir string
}

// NewDiskCache roots a disk cache at dir, creating it if necessary.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &DiskCache{Dir: dir}, nil
}

func (c *DiskCache) path(ticker string, start, end time.Time) string {
	const dateFormat = "2006-01-02"
	filename := fmt.Sprintf("%s_%s_to_%s.parquet", ticker, start.Format(dateFormat), end.Format(dateFormat))
	return filepath.Join(c.Dir, filename)
}

// Save writes a segment's bars to disk. Write failures are logged by the
// caller, not fatal to the backtest (the data still lives in the
// in-memory segment cache).
func (c *DiskCache) Save(ticker string, start, end time.Time, hd *market.HistoricalData) error {
	bars := hd.Bars()
	records := make([]barRecord, len(bars))
	for i, b := range bars {
		records[i] = barRecord{
			Ticker: b.Ticker,
			Time:   b.Time.UnixMilli(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return parquet.WriteFile(c.path(ticker, start, end), records)
}

// Load reads a cached segment from disk. A corrupted file is deleted and
// treated as a cache miss (self-healing, per the historical service's
// failure policy), not returned as an error.
func (c *DiskCache) Load(ticker string, start, end time.Time) (*market.HistoricalData, bool) {
	path := c.path(ticker, start, end)
	records, err := parquet.ReadFile[barRecord](path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false
		}
		_ = os.Remove(path)
		return nil, false
	}

	hd := market.NewHistoricalData(ticker)
	for _, r := range records {
		bar := market.Bar{
			Ticker: r.Ticker,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
			Time:   time.UnixMilli(r.Time).UTC(),
		}
		if err := hd.Insert(bar); err != nil {
			_ = os.Remove(path)
			return nil, false
		}
	}
	return hd, true
}

// Clear deletes every cached segment file under Dir.
func (c *DiskCache) Clear() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		_ = os.Remove(filepath.Join(c.Dir, e.Name()))
	}
	return nil
}
