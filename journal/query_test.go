package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	at := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)

	expected := TradeRecord{
		RunID:       "run-1",
		AlgorithmID: "buy-and-hold",
		Ticker:      "AAPL",
		Side:        "BUY",
		Quantity:    1500.0,
		Price:       101.2345,
		Time:        at,
	}

	require.NoError(t, j.RecordTrade(expected))

	actual, err := j.GetTrade("run-1", "AAPL")
	require.NoError(t, err)

	assert.Equal(t, expected.RunID, actual.RunID)
	assert.Equal(t, expected.AlgorithmID, actual.AlgorithmID)
	assert.Equal(t, expected.Ticker, actual.Ticker)
	assert.Equal(t, expected.Side, actual.Side)
	assert.InDelta(t, expected.Quantity, actual.Quantity, 1e-6)
	assert.InDelta(t, expected.Price, actual.Price, 1e-9)
	assert.True(t, actual.Time.Equal(expected.Time))
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("run-1", "NONEXISTENT")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no trade found")
}

func TestGetTradeReturnsMostRecent(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(TradeRecord{RunID: "run-1", AlgorithmID: "a", Ticker: "AAPL", Side: "BUY", Quantity: 10, Price: 100, Time: base}))
	require.NoError(t, j.RecordTrade(TradeRecord{RunID: "run-1", AlgorithmID: "a", Ticker: "AAPL", Side: "SELL", Quantity: 10, Price: 110, Time: base.Add(time.Hour)}))

	got, err := j.GetTrade("run-1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "SELL", got.Side)
	assert.InDelta(t, 110.0, got.Price, 1e-9)
}

func TestListTradesBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	baseTime := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	trades := []TradeRecord{
		{RunID: "r", AlgorithmID: "a", Ticker: "AAPL", Side: "BUY", Quantity: 10, Price: 100, Time: baseTime.Add(1 * time.Hour)},
		{RunID: "r", AlgorithmID: "a", Ticker: "MSFT", Side: "BUY", Quantity: 5, Price: 200, Time: baseTime.Add(5 * time.Hour)},
		{RunID: "r", AlgorithmID: "a", Ticker: "TSLA", Side: "SHORT", Quantity: 2, Price: 300, Time: baseTime.Add(10 * time.Hour)},
		{RunID: "r", AlgorithmID: "a", Ticker: "AMZN", Side: "BUY", Quantity: 1, Price: 400, Time: baseTime.Add(24 * time.Hour)},
	}

	for _, trade := range trades {
		require.NoError(t, j.RecordTrade(trade))
	}

	start := baseTime.Add(3 * time.Hour)
	end := baseTime.Add(12 * time.Hour)

	results, err := j.ListTradesBetween(start, end)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "MSFT", results[0].Ticker)
	assert.Equal(t, "TSLA", results[1].Ticker)
}

func TestListTradesBetweenOrdering(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	baseTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	trades := []TradeRecord{
		{RunID: "r", AlgorithmID: "a", Ticker: "TSLA", Side: "BUY", Quantity: 1, Price: 300, Time: baseTime.Add(10 * time.Hour)},
		{RunID: "r", AlgorithmID: "a", Ticker: "AAPL", Side: "BUY", Quantity: 1, Price: 100, Time: baseTime.Add(2 * time.Hour)},
		{RunID: "r", AlgorithmID: "a", Ticker: "MSFT", Side: "BUY", Quantity: 1, Price: 200, Time: baseTime.Add(5 * time.Hour)},
	}

	for _, trade := range trades {
		require.NoError(t, j.RecordTrade(trade))
	}

	results, err := j.ListTradesBetween(baseTime, baseTime.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "AAPL", results[0].Ticker)
	assert.Equal(t, "MSFT", results[1].Ticker)
	assert.Equal(t, "TSLA", results[2].Ticker)

	assert.True(t, results[0].Time.Before(results[1].Time))
	assert.True(t, results[1].Time.Before(results[2].Time))
}

func TestListTradesBetweenEmpty(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	results, err := j.ListTradesBetween(start, end)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListTradesBetweenBoundaryInclusiveExclusive(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(TradeRecord{RunID: "r", AlgorithmID: "a", Ticker: "AAPL", Side: "BUY", Quantity: 1, Price: 100, Time: at}))

	results, err := j.ListTradesBetween(at, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = j.ListTradesBetween(at.Add(-time.Hour), at)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListEquityBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "r", AlgorithmID: "a", Time: base, Value: 10000}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "r", AlgorithmID: "a", Time: base.Add(time.Hour), Value: 10100}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "r", AlgorithmID: "a", Time: base.Add(2 * time.Hour), Value: 9950}))

	results, err := j.ListEquityBetween(base, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 10000.0, results[0].Value, 1e-6)
	assert.InDelta(t, 10100.0, results[1].Value, 1e-6)
}
