package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)

	trade := TradeRecord{
		RunID:       "run-12345678-abcd",
		AlgorithmID: "breakout",
		Ticker:      "AAPL",
		Side:        "BUY",
		Quantity:    1000,
		Price:       185.50,
		Time:        at,
	}

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade: AAPL BUY (run-1234)")

	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":RUN_ID: run-12345678-abcd")
	assert.Contains(t, result, ":ALGORITHM: breakout")
	assert.Contains(t, result, ":TICKER: AAPL")
	assert.Contains(t, result, ":SIDE: BUY")
	assert.Contains(t, result, ":QUANTITY: 1000.0000")
	assert.Contains(t, result, ":PRICE: 185.5000")
	assert.Contains(t, result, ":TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgShortID(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		RunID:       "short",
		AlgorithmID: "breakout",
		Ticker:      "GBP",
		Side:        "SELL",
		Quantity:    500,
		Price:       50,
		Time:        time.Now(),
	}

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, "** Trade: GBP SELL (short)")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	open1 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	open2 := time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC)

	trades := []TradeRecord{
		{RunID: "trade-001", AlgorithmID: "a", Ticker: "AAPL", Side: "BUY", Quantity: 1000, Price: 180, Time: open1},
		{RunID: "trade-002", AlgorithmID: "a", Ticker: "MSFT", Side: "SELL", Quantity: 500, Price: 250, Time: open2},
	}

	result := FormatTradesOrg(trades)

	assert.Contains(t, result, "AAPL")
	assert.Contains(t, result, "MSFT")
	assert.Contains(t, result, "trade-001")
	assert.Contains(t, result, "trade-002")

	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2, "Expected two trades separated by blank lines")
}

func TestFormatTradesOrgEmpty(t *testing.T) {
	t.Parallel()

	result := FormatTradesOrg([]TradeRecord{})
	assert.Empty(t, result)
}

func TestFormatTradesOrgSingle(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		RunID:       "single",
		AlgorithmID: "a",
		Ticker:      "TSLA",
		Side:        "SHORT",
		Quantity:    750,
		Price:       220,
		Time:        time.Now(),
	}

	result := FormatTradesOrg([]TradeRecord{trade})

	assert.Contains(t, result, "TSLA")
	assert.Contains(t, result, "single")
	assert.NotContains(t, result, "\n\n\n")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "long ID gets truncated", input: "trade-12345678-abcdef-more-chars", expected: "trade-12"},
		{name: "exactly 8 characters", input: "12345678", expected: "12345678"},
		{name: "less than 8 characters", input: "short", expected: "short"},
		{name: "empty string", input: "", expected: ""},
		{name: "exactly 9 characters gets truncated", input: "123456789", expected: "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shortID(tt.input)
			assert.Equal(t, tt.expected, result)
			assert.LessOrEqual(t, len(result), 8)
		})
	}
}

func TestFormatTradeOrgStructure(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		RunID:       "structure-test",
		AlgorithmID: "a",
		Ticker:      "NVDA",
		Side:        "COVER",
		Quantity:    100,
		Price:       500,
		Time:        time.Now(),
	}

	result := FormatTradeOrg(trade)

	lines := strings.Split(result, "\n")
	require.Greater(t, len(lines), 10)

	assert.True(t, strings.HasPrefix(lines[0], "** Trade:"))

	propertiesStart, propertiesEnd := -1, -1
	for i, line := range lines {
		if line == ":PROPERTIES:" {
			propertiesStart = i
		}
		if line == ":END:" && propertiesStart >= 0 && propertiesEnd < 0 {
			propertiesEnd = i
			break
		}
	}

	assert.Greater(t, propertiesStart, 0)
	assert.Greater(t, propertiesEnd, propertiesStart)

	thesisIdx, executionIdx, reviewIdx := -1, -1, -1
	for i, line := range lines {
		if strings.Contains(line, "*** Thesis") {
			thesisIdx = i
		}
		if strings.Contains(line, "*** Execution") {
			executionIdx = i
		}
		if strings.Contains(line, "*** Review") {
			reviewIdx = i
		}
	}

	assert.Greater(t, thesisIdx, propertiesEnd)
	assert.Greater(t, executionIdx, thesisIdx)
	assert.Greater(t, reviewIdx, executionIdx)
}
