package portfolio

import "errors"

var (
	ErrInsufficientFunds   = errors.New("insufficient cash")
	ErrInsufficientMargin  = errors.New("insufficient margin")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrNoPosition          = errors.New("no open position for ticker")
	ErrNoShort             = errors.New("no open short for ticker")
	ErrNoPriceData         = errors.New("no price data for ticker")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidPrice        = errors.New("price must be positive")
)
