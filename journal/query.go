package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns the most recent trade recorded for a run/ticker pair.
func (j *SQLite) GetTrade(runID, ticker string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT run_id, algorithm_id, ticker, side, quantity, price, time
		FROM trades
		WHERE run_id = ? AND ticker = ?
		ORDER BY time DESC LIMIT 1`, runID, ticker)

	err := row.Scan(&rec.RunID, &rec.AlgorithmID, &rec.Ticker, &rec.Side, &rec.Quantity, &rec.Price, &rec.Time)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("no trade found for run %q ticker %q", runID, ticker)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesBetween returns trades whose time is within [start, end).
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, algorithm_id, ticker, side, quantity, price, time
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(&rec.RunID, &rec.AlgorithmID, &rec.Ticker, &rec.Side, &rec.Quantity, &rec.Price, &rec.Time); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns equity snapshots whose time is within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, algorithm_id, time, value
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var rec EquitySnapshot
		if err := rows.Scan(&rec.RunID, &rec.AlgorithmID, &rec.Time, &rec.Value); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
