package journal

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, algorithm_id, ticker, side, quantity, price, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.AlgorithmID, t.Ticker, t.Side, t.Quantity, t.Price, t.Time,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, algorithm_id, time, value)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.AlgorithmID, e.Time, e.Value,
	)
	return err
}

func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, created, algorithm_id, tickers, start_time, end_time, initial_value, final_value, total_trades, max_drawdown, sharpe_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.AlgorithmID, strings.Join(r.Tickers, ","), r.Start, r.End,
		r.InitialValue, r.FinalValue, r.TotalTrades, r.MaxDrawdown, r.SharpeRatio,
	)
	return err
}

func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	var r BacktestRun
	var tickers string

	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, algorithm_id, tickers, start_time, end_time, initial_value, final_value, total_trades, max_drawdown, sharpe_ratio
		FROM backtest_runs WHERE run_id = ?`, runID)

	err := row.Scan(&r.RunID, &r.Created, &r.AlgorithmID, &tickers, &r.Start, &r.End,
		&r.InitialValue, &r.FinalValue, &r.TotalTrades, &r.MaxDrawdown, &r.SharpeRatio)
	if err != nil {
		return BacktestRun{}, err
	}
	if tickers != "" {
		r.Tickers = strings.Split(tickers, ",")
	}
	return r, nil
}

func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, algorithm_id, ticker, side, quantity, price, time
		FROM trades WHERE run_id = ? ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.RunID, &t.AlgorithmID, &t.Ticker, &t.Side, &t.Quantity, &t.Price, &t.Time); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, algorithm_id, time, value
		FROM equity WHERE run_id = ? ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.AlgorithmID, &e.Time, &e.Value); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExportBacktestOrg loads a run's summary and renders it as an Org block.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID, orgPath string) error {
	run, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return err
	}
	run.OrgPath = orgPath
	return run.WriteBacktestOrg()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
