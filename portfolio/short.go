package portfolio

import (
	"fmt"
	"time"
)

// ShortPosition is a net-short holding: Quantity shares owed, opened at
// EntryPrice. Unlike Position, EntryPrice is set by the first lot and
// never re-averaged on subsequent AddShares calls.
type ShortPosition struct {
	Quantity    float64
	EntryPrice  float64
	RealizedPnL float64
	LastUpdate  time.Time
}

// AddShares increases the shorted quantity. EntryPrice is set only when
// the position is opened from flat; later adds leave it unchanged.
func (s *ShortPosition) AddShares(qty, price float64, at time.Time) {
	if s.Quantity == 0 {
		s.EntryPrice = price
	}
	s.Quantity += qty
	s.LastUpdate = at
}

// RemoveShares covers qty shares at the given price, crediting RealizedPnL
// at the position's (fixed) EntryPrice. It fails if qty exceeds the
// quantity owed.
func (s *ShortPosition) RemoveShares(qty, price float64, at time.Time) (realized float64, err error) {
	if qty > s.Quantity {
		return 0, fmt.Errorf("cover %g shares, only %g owed: %w", qty, s.Quantity, ErrInsufficientShares)
	}
	realized = (s.EntryPrice - price) * qty
	s.RealizedPnL += realized
	s.Quantity -= qty
	s.LastUpdate = at
	if s.Quantity == 0 {
		s.EntryPrice = 0
	}
	return realized, nil
}
