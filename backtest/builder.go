package backtest

import (
	"errors"
	"time"

	"github.com/rustyeddy/backtester/historical"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/provider"
)

var (
	ErrNoTickers       = errors.New("backtest: at least one ticker must be specified")
	ErrNoProvider      = errors.New("backtest: a data provider must be specified")
	ErrNoAlgorithms    = errors.New("backtest: at least one algorithm must be specified")
	ErrBadPreviousDays = errors.New("backtest: previous days must be positive")
	ErrBadInterval     = errors.New("backtest: interval must be positive")
)

// StrategySpec pairs an Algorithm with the starting capital of the
// Portfolio it trades.
type StrategySpec struct {
	Algorithm      Algorithm
	InitialCapital float64
}

// ProgressFunc is invoked after every processed tick (admitted ticks
// thinned by Interval) with its timestamp, the count processed so far,
// and the number of admitted ticks.
type ProgressFunc func(at time.Time, processed, total int)

// Builder assembles an Engine. Fields mirror the configuration surface a
// caller assembles programmatically or loads from config.Config.
type Builder struct {
	Tickers               []string
	PreviousDays          int
	MarketConfig          market.Config
	ShouldPrint           bool
	Interval              time.Duration
	RunOnMarketClosed     bool // disables session filtering entirely; weekends are admitted too
	AutoLiquidateOnFinish bool
	RiskFreeRate          float64 // annual; defaults to 0.02 if zero

	Provider provider.Provider
	CacheDir string // empty disables the on-disk bar cache

	Strategies []StrategySpec

	Metrics      *metrics.Recorder // nil disables instrumentation
	ProgressFunc ProgressFunc       // nil disables progress reporting

	Journal journal.Journal // nil disables trade/equity journaling
}

// Build validates the configuration and returns a ready-to-run Engine.
func (b Builder) Build() (*Engine, error) {
	if len(b.Tickers) == 0 {
		return nil, ErrNoTickers
	}
	if b.Provider == nil {
		return nil, ErrNoProvider
	}
	if len(b.Strategies) == 0 {
		return nil, ErrNoAlgorithms
	}
	if b.PreviousDays <= 0 {
		return nil, ErrBadPreviousDays
	}
	if b.Interval <= 0 {
		return nil, ErrBadInterval
	}
	if b.RiskFreeRate == 0 {
		b.RiskFreeRate = defaultRiskFreeRate
	}

	svcOpts := []historical.Option{}
	if b.CacheDir != "" {
		disk, err := historical.NewDiskCache(b.CacheDir)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, historical.WithDiskCache(disk))
	}
	if b.Metrics != nil {
		svcOpts = append(svcOpts, historical.WithMetrics(b.Metrics))
	}

	svc := historical.New(b.Provider, 3, svcOpts...)

	return &Engine{builder: b, svc: svc}, nil
}
