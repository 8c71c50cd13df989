// Package portfolio implements the accounting model a single backtest
// strategy trades against: cash, margin, long/short equity positions,
// options, and stop-order bookkeeping, with every mutation tied to a cash
// or margin movement per the invariants this package enforces.
package portfolio

import (
	"fmt"
	"sync"
	"time"
)

// MarginRequirement is the fraction of short notional held back from
// MarginAvailable while a short is open, and released (at entry notional)
// on cover.
const MarginRequirement = 0.5

// Portfolio is owned by exactly one strategy. All mutators are guarded by
// a single mutex; there is no per-position locking, since only one
// strategy ever writes a given Portfolio (the backtest engine's
// auto-liquidation pass runs after strategy code on the same tick, not
// concurrently with it).
type Portfolio struct {
	mu sync.Mutex

	Cash            float64
	MarginAvailable float64

	positions  map[string]*Position
	shorts     map[string]*ShortPosition
	options    map[string][]Option
	stopOrders map[string][]StopOrder
	lastClose  map[string]float64

	// TotalPositions counts every mutating call (buys, sells, shorts,
	// covers, option purchases, and stop-order registrations), not
	// merely detector-visible trades.
	TotalPositions int
}

// New returns a Portfolio seeded with initialCash and margin capacity of
// 2x initialCash.
func New(initialCash float64) *Portfolio {
	return &Portfolio{
		Cash:            initialCash,
		MarginAvailable: initialCash * 2,
		positions:       make(map[string]*Position),
		shorts:          make(map[string]*ShortPosition),
		options:         make(map[string][]Option),
		stopOrders:      make(map[string][]StopOrder),
		lastClose:       make(map[string]float64),
	}
}

func validateOrder(qty, price float64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// BuyStock opens or augments a long position, debiting cash. Fails with
// ErrInsufficientFunds if qty*price exceeds Cash; state is unchanged on
// failure.
func (p *Portfolio) BuyStock(ticker string, qty, price float64, at time.Time) error {
	if err := validateOrder(qty, price); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := qty * price
	if cost > p.Cash {
		return fmt.Errorf("buy %s %g@%g costs %g, have %g cash: %w", ticker, qty, price, cost, p.Cash, ErrInsufficientFunds)
	}

	pos, ok := p.positions[ticker]
	if !ok {
		pos = &Position{}
		p.positions[ticker] = pos
	}
	pos.AddShares(qty, price, at)
	p.Cash -= cost
	p.TotalPositions++
	return nil
}

// SellStock reduces a long position, crediting cash and realized P&L.
// Fails with ErrNoPosition / ErrInsufficientShares, leaving state
// unchanged. A position that reaches zero quantity is removed from the
// portfolio.
func (p *Portfolio) SellStock(ticker string, qty, price float64, at time.Time) error {
	if err := validateOrder(qty, price); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[ticker]
	if !ok {
		return fmt.Errorf("sell %s: %w", ticker, ErrNoPosition)
	}
	if _, err := pos.RemoveShares(qty, price, at); err != nil {
		return fmt.Errorf("sell %s: %w", ticker, err)
	}
	p.Cash += qty * price
	if pos.Quantity == 0 {
		delete(p.positions, ticker)
	}
	p.TotalPositions++
	return nil
}

// ShortStock opens or augments a short position, crediting proceeds to
// cash and reserving MarginRequirement*notional from MarginAvailable.
// Fails with ErrInsufficientMargin if the reservation would drive
// MarginAvailable negative.
func (p *Portfolio) ShortStock(ticker string, qty, price float64, at time.Time) error {
	if err := validateOrder(qty, price); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	margin := qty * price * MarginRequirement
	if margin > p.MarginAvailable {
		return fmt.Errorf("short %s %g@%g needs %g margin, have %g: %w", ticker, qty, price, margin, p.MarginAvailable, ErrInsufficientMargin)
	}

	sp, ok := p.shorts[ticker]
	if !ok {
		sp = &ShortPosition{}
		p.shorts[ticker] = sp
	}
	sp.AddShares(qty, price, at)
	p.Cash += qty * price
	p.MarginAvailable -= margin
	p.TotalPositions++
	return nil
}

// CoverShort reduces a short position, debiting cash for the buy-back and
// releasing margin reserved at the short's entry price (not the cover
// price). Fails with ErrNoShort / ErrInsufficientShares /
// ErrInsufficientFunds, leaving state unchanged.
func (p *Portfolio) CoverShort(ticker string, qty, price float64, at time.Time) error {
	if err := validateOrder(qty, price); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.shorts[ticker]
	if !ok {
		return fmt.Errorf("cover %s: %w", ticker, ErrNoShort)
	}
	cost := qty * price
	if cost > p.Cash {
		return fmt.Errorf("cover %s %g@%g costs %g, have %g cash: %w", ticker, qty, price, cost, p.Cash, ErrInsufficientFunds)
	}

	entryPrice := sp.EntryPrice
	if _, err := sp.RemoveShares(qty, price, at); err != nil {
		return fmt.Errorf("cover %s: %w", ticker, err)
	}
	p.Cash -= cost
	p.MarginAvailable += qty * entryPrice * MarginRequirement
	if sp.Quantity == 0 {
		delete(p.shorts, ticker)
	}
	p.TotalPositions++
	return nil
}

// BuyOption debits cash for contracts*100*premium and records the option.
// Fails with ErrInsufficientFunds, leaving state unchanged.
func (p *Portfolio) BuyOption(o Option) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := o.Cost()
	if cost > p.Cash {
		return fmt.Errorf("buy option %s %s: costs %g, have %g cash: %w", o.Ticker, o.Kind, cost, p.Cash, ErrInsufficientFunds)
	}
	p.options[o.Ticker] = append(p.options[o.Ticker], o)
	p.Cash -= cost
	p.TotalPositions++
	return nil
}

// SetStopLoss and SetTakeProfit append a data-only StopOrder. Neither the
// Portfolio nor the backtest engine evaluates these; see StopOrder's doc.
func (p *Portfolio) SetStopLoss(ticker string, trigger, qty float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopOrders[ticker] = append(p.stopOrders[ticker], StopOrder{Ticker: ticker, TriggerPrice: trigger, Quantity: qty, Kind: StopLoss})
	p.TotalPositions++
}

func (p *Portfolio) SetTakeProfit(ticker string, trigger, qty float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopOrders[ticker] = append(p.stopOrders[ticker], StopOrder{Ticker: ticker, TriggerPrice: trigger, Quantity: qty, Kind: TakeProfit})
	p.TotalPositions++
}

// TotalValue returns cash + long market value - short market value +
// option value, using currentPrices where present. For a ticker with an
// open position or short but no entry in currentPrices, it falls back to
// the last close seen by any prior TotalValue call; if neither is
// available it returns ErrNoPriceData naming the ticker.
func (p *Portfolio) TotalValue(currentPrices map[string]float64, at time.Time) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ticker, price := range currentPrices {
		p.lastClose[ticker] = price
	}

	total := p.Cash

	for ticker, pos := range p.positions {
		price, err := p.priceForLocked(ticker, currentPrices)
		if err != nil {
			return 0, err
		}
		total += pos.Quantity * price
	}
	for ticker, sp := range p.shorts {
		price, err := p.priceForLocked(ticker, currentPrices)
		if err != nil {
			return 0, err
		}
		total -= sp.Quantity * price
	}
	for ticker, opts := range p.options {
		price, err := p.priceForLocked(ticker, currentPrices)
		if err != nil {
			return 0, err
		}
		for _, o := range opts {
			total += o.Value(price, at)
		}
	}

	return total, nil
}

func (p *Portfolio) priceForLocked(ticker string, currentPrices map[string]float64) (float64, error) {
	if price, ok := currentPrices[ticker]; ok {
		return price, nil
	}
	if price, ok := p.lastClose[ticker]; ok {
		return price, nil
	}
	return 0, fmt.Errorf("%s: %w", ticker, ErrNoPriceData)
}

// Position, Short, Options and StopOrders give read-only access to a
// ticker's holdings. The returned Position/ShortPosition pointers alias
// internal state and must not be mutated by callers outside this package.
func (p *Portfolio) Position(ticker string) (*Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[ticker]
	return pos, ok
}

func (p *Portfolio) Short(ticker string) (*ShortPosition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.shorts[ticker]
	return sp, ok
}

func (p *Portfolio) Options(ticker string) []Option {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Option, len(p.options[ticker]))
	copy(out, p.options[ticker])
	return out
}

func (p *Portfolio) StopOrders(ticker string) []StopOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StopOrder, len(p.stopOrders[ticker]))
	copy(out, p.stopOrders[ticker])
	return out
}

// Snapshot captures quantity/cost-basis for every open long and short
// position. It is the unit the trade detector diffs across a tick.
type Snapshot struct {
	Longs  map[string]LongSnapshot
	Shorts map[string]ShortSnapshot
}

type LongSnapshot struct {
	Quantity   float64
	AverageCost float64
}

type ShortSnapshot struct {
	Quantity   float64
	EntryPrice float64
}

// Snapshot deep-copies the current long/short holdings.
func (p *Portfolio) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Longs:  make(map[string]LongSnapshot, len(p.positions)),
		Shorts: make(map[string]ShortSnapshot, len(p.shorts)),
	}
	for ticker, pos := range p.positions {
		snap.Longs[ticker] = LongSnapshot{Quantity: pos.Quantity, AverageCost: pos.AverageCost()}
	}
	for ticker, sp := range p.shorts {
		snap.Shorts[ticker] = ShortSnapshot{Quantity: sp.Quantity, EntryPrice: sp.EntryPrice}
	}
	return snap
}

// LongTickers and ShortTickers list tickers with a currently open
// position, used by the engine's auto-liquidation pass.
func (p *Portfolio) LongTickers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.positions))
	for t := range p.positions {
		out = append(out, t)
	}
	return out
}

func (p *Portfolio) ShortTickers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.shorts))
	for t := range p.shorts {
		out = append(out, t)
	}
	return out
}

// LongQuantity and ShortQuantity report open quantity for a ticker (zero
// if none), used by the "auto-liquidation leaves every portfolio flat"
// testable property.
func (p *Portfolio) LongQuantity(ticker string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pos, ok := p.positions[ticker]; ok {
		return pos.Quantity
	}
	return 0
}

func (p *Portfolio) ShortQuantity(ticker string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sp, ok := p.shorts[ticker]; ok {
		return sp.Quantity
	}
	return 0
}
