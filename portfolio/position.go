package portfolio

import (
	"fmt"
	"time"
)

// Position is a net-long holding of one ticker, tracked by aggregate cost
// basis rather than per-lot records. Mutation is exclusive to the owning
// Portfolio's single writer.
type Position struct {
	Quantity     float64
	CostBasis    float64
	RealizedPnL  float64
	LastUpdate   time.Time
}

// AverageCost returns CostBasis/Quantity, or zero when flat.
func (p *Position) AverageCost() float64 {
	if p.Quantity <= 0 {
		return 0
	}
	return p.CostBasis / p.Quantity
}

// AddShares folds a new lot into the position's weighted average cost
// basis: CostBasis accumulates qty*price, Quantity accumulates qty.
func (p *Position) AddShares(qty, price float64, at time.Time) {
	p.Quantity += qty
	p.CostBasis += qty * price
	p.LastUpdate = at
}

// RemoveShares reduces the position by qty at the given sale price,
// crediting RealizedPnL at the position's average cost as of the sale.
// It fails if qty exceeds the held quantity. When the position reaches
// zero, CostBasis resets to zero (a flat position carries no cost basis).
func (p *Position) RemoveShares(qty, price float64, at time.Time) (realized float64, err error) {
	if qty > p.Quantity {
		return 0, fmt.Errorf("remove %g shares, only %g held: %w", qty, p.Quantity, ErrInsufficientShares)
	}
	avgCost := p.AverageCost()
	realized = (price - avgCost) * qty
	p.RealizedPnL += realized
	p.Quantity -= qty
	p.CostBasis -= avgCost * qty
	p.LastUpdate = at
	if p.Quantity == 0 {
		p.CostBasis = 0
	}
	return realized, nil
}
