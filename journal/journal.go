// journal/journal.go
package journal

import (
	"context"
	"time"
)

// TradeRecord is one detected trade, as attributed by the backtest
// engine's trade detector, persisted for later analysis independent of
// the in-memory AlgorithmStatistics report.
type TradeRecord struct {
	RunID       string
	AlgorithmID string
	Ticker      string
	Side        string // "BUY", "SELL", "SHORT", "COVER"
	Quantity    float64
	Price       float64
	Time        time.Time
}

// EquitySnapshot is one strategy's total portfolio value at a tick.
type EquitySnapshot struct {
	RunID       string
	AlgorithmID string
	Time        time.Time
	Value       float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// RunRecorder is implemented by journals that can also persist a
// run-level summary once a backtest finishes. CSVJournal does not
// implement it; SQLite does.
type RunRecorder interface {
	RecordBacktest(ctx context.Context, run BacktestRun) error
}
