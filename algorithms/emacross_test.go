package algorithms

import (
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/stretchr/testify/assert"
)

func TestEMACrossBuysOnBullishCrossAndSellsOnBearishCross(t *testing.T) {
	algo := NewEMACross("AAPL", "", 2, 3)
	p := portfolio.New(10_000)
	at := time.Now()

	closes := []float64{100, 100, 100, 100, 110, 120, 90, 80, 70}
	for i, c := range closes {
		bars := map[string]market.Bar{"AAPL": {Ticker: "AAPL", Close: c}}
		algo.OnUpdate(bars, at.Add(time.Duration(i)*time.Minute), p)
	}

	// A clear run-up should have triggered a long entry at some point...
	assert.Greater(t, p.TotalPositions, 0)
	// ...and the sharp reversal should have closed it back out, leaving no position.
	_, holding := p.Position("AAPL")
	assert.False(t, holding)
}

func TestEMACrossIgnoresUnknownTicker(t *testing.T) {
	algo := NewEMACross("AAPL", "custom-id", 2, 3)
	assert.Equal(t, "custom-id", algo.AlgorithmID())

	p := portfolio.New(10_000)
	bars := map[string]market.Bar{"MSFT": {Ticker: "MSFT", Close: 300}}
	algo.OnUpdate(bars, time.Now(), p)
	assert.Equal(t, 10_000.0, p.Cash)
}
