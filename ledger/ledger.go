// Package ledger owns cash and positions for one simulated account. It is the
// single source of truth for account state; only the matching simulator
// mutates it.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/quantlab/papertrade/market"
)

var (
	// ErrInsufficientCash means a debit or freeze exceeds available cash.
	ErrInsufficientCash = errors.New("ledger: insufficient cash")
	// ErrInsufficientPosition means a sell or freeze exceeds held volume.
	ErrInsufficientPosition = errors.New("ledger: insufficient position")
	// ErrInvariant wraps a detected break of the cash/position invariant.
	// It is fatal to the run: continuing would silently corrupt accounting.
	ErrInvariant = errors.New("ledger: invariant violation")
)

// Account is the cash side of the ledger.
type Account struct {
	ID             string
	InitialCapital float64
	AvailableCash  float64
	FrozenCash     float64
}

// Position is one symbol's holding. AvailableVolume <= Volume; the gap models
// settlement holds (frozen sell orders, T+1 buys).
type Position struct {
	Symbol          string
	Volume          int64
	AvailableVolume int64
	AvgCost         float64
	CurrentPrice    float64
}

// MarketValue is Volume x CurrentPrice.
func (p Position) MarketValue() float64 { return float64(p.Volume) * p.CurrentPrice }

// UnrealizedPnL is (CurrentPrice - AvgCost) x Volume.
func (p Position) UnrealizedPnL() float64 {
	return (p.CurrentPrice - p.AvgCost) * float64(p.Volume)
}

// Snapshot is a consistent read-only view handed to the risk manager and the
// strategy callback.
type Snapshot struct {
	AccountID      string
	InitialCapital float64
	AvailableCash  float64
	FrozenCash     float64
	MarketValue    float64
	TotalAssets    float64
	Positions      []Position
}

// Position returns the snapshot entry for symbol, if any.
func (s Snapshot) Position(symbol string) (Position, bool) {
	for _, p := range s.Positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return Position{}, false
}

// Option configures a Ledger at construction.
type Option func(*Ledger)

// WithT1Settlement holds bought volume out of AvailableVolume until the next
// SettleDaily call, the way T+1 markets do.
func WithT1Settlement() Option {
	return func(l *Ledger) { l.t1 = true }
}

// Ledger holds the account and positions behind one lock. Within a backtest
// run all access is single-threaded; the lock exists for the real-time loop
// where timer ticks and manual order entry race.
type Ledger struct {
	mu        sync.Mutex
	acct      Account
	positions map[string]*Position
	unsettled map[string]int64 // T+1: volume bought since last settle
	t1        bool
}

// New builds a ledger with all capital available.
func New(accountID string, initialCapital float64, opts ...Option) *Ledger {
	l := &Ledger{
		acct: Account{
			ID:             accountID,
			InitialCapital: initialCapital,
			AvailableCash:  initialCapital,
		},
		positions: make(map[string]*Position),
		unsettled: make(map[string]int64),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// roundCent keeps cash arithmetic on cent boundaries so the invariant holds
// within float tolerance over long runs.
func roundCent(v float64) float64 { return math.Round(v*100) / 100 }

// Account returns a copy of the cash state.
func (l *Ledger) Account() Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acct
}

// AvailableCash returns cash usable for new buys.
func (l *Ledger) AvailableCash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acct.AvailableCash
}

// FrozenCash returns cash reserved by pending buy orders.
func (l *Ledger) FrozenCash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acct.FrozenCash
}

// Position returns a copy of the holding for symbol.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns all holdings sorted by symbol.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positionsLocked()
}

func (l *Ledger) positionsLocked() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// MarketValue is the summed mark-to-market value of all positions.
func (l *Ledger) MarketValue() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.marketValueLocked()
}

func (l *Ledger) marketValueLocked() float64 {
	var mv float64
	for _, p := range l.positions {
		mv += p.MarketValue()
	}
	return mv
}

// TotalAssets = available cash + frozen cash + market value.
func (l *Ledger) TotalAssets() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acct.AvailableCash + l.acct.FrozenCash + l.marketValueLocked()
}

// Snapshot returns a consistent copy of the full account state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	mv := l.marketValueLocked()
	return Snapshot{
		AccountID:      l.acct.ID,
		InitialCapital: l.acct.InitialCapital,
		AvailableCash:  l.acct.AvailableCash,
		FrozenCash:     l.acct.FrozenCash,
		MarketValue:    mv,
		TotalAssets:    l.acct.AvailableCash + l.acct.FrozenCash + mv,
		Positions:      l.positionsLocked(),
	}
}

// FreezeCash moves amount from available to frozen ahead of a buy.
func (l *Ledger) FreezeCash(amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount < 0 {
		return fmt.Errorf("%w: negative freeze %.2f", ErrInvariant, amount)
	}
	amount = roundCent(amount)
	if l.acct.AvailableCash < amount {
		return fmt.Errorf("%w: need %.2f, available %.2f",
			ErrInsufficientCash, amount, l.acct.AvailableCash)
	}
	l.acct.AvailableCash = roundCent(l.acct.AvailableCash - amount)
	l.acct.FrozenCash = roundCent(l.acct.FrozenCash + amount)
	return nil
}

// UnfreezeCash returns frozen cash to available. Amounts beyond what is
// frozen are clamped, mirroring the refund path for cancelled orders.
func (l *Ledger) UnfreezeCash(amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount < 0 {
		return
	}
	amount = math.Min(roundCent(amount), l.acct.FrozenCash)
	l.acct.FrozenCash = roundCent(l.acct.FrozenCash - amount)
	l.acct.AvailableCash = roundCent(l.acct.AvailableCash + amount)
}

// FreezePosition reserves volume for a pending sell order.
func (l *Ledger) FreezePosition(symbol string, volume int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	if !ok || p.AvailableVolume < volume {
		var have int64
		if ok {
			have = p.AvailableVolume
		}
		return fmt.Errorf("%w: %s need %d, available %d",
			ErrInsufficientPosition, symbol, volume, have)
	}
	p.AvailableVolume -= volume
	return nil
}

// UnfreezePosition releases reserved sell volume back to available.
func (l *Ledger) UnfreezePosition(symbol string, volume int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	if !ok {
		return
	}
	p.AvailableVolume += volume
	if p.AvailableVolume > p.Volume {
		p.AvailableVolume = p.Volume
	}
}

// ApplyFill atomically settles one fill against cash and positions and
// returns the gross realized P&L (sells only; before fees).
//
// Buys debit price x volume + commission from available cash and fold the
// fill into the weighted-average cost. Sells credit the net proceeds and
// reduce volume without moving the average cost (single-lot accounting).
// Preconditions are expected to be pre-checked by the matching simulator,
// but the ledger re-validates so the invariant survives concurrent callers.
func (l *Ledger) ApplyFill(side market.Side, symbol string, price float64, volume int64, commission, tax float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !side.Valid() || volume <= 0 || price <= 0 {
		return 0, fmt.Errorf("%w: fill side=%v price=%.4f volume=%d",
			ErrInvariant, side, price, volume)
	}

	notional := roundCent(price * float64(volume))

	switch side {
	case market.Buy:
		cost := roundCent(notional + commission)
		if l.acct.AvailableCash < cost {
			return 0, fmt.Errorf("%w: need %.2f, available %.2f",
				ErrInsufficientCash, cost, l.acct.AvailableCash)
		}
		l.acct.AvailableCash = roundCent(l.acct.AvailableCash - cost)

		p, ok := l.positions[symbol]
		if !ok {
			p = &Position{Symbol: symbol}
			l.positions[symbol] = p
		}
		totalCost := p.AvgCost*float64(p.Volume) + price*float64(volume)
		p.Volume += volume
		p.AvgCost = totalCost / float64(p.Volume)
		p.CurrentPrice = price
		if l.t1 {
			l.unsettled[symbol] += volume
		} else {
			p.AvailableVolume += volume
		}
		return 0, nil

	case market.Sell:
		p, ok := l.positions[symbol]
		if !ok || p.Volume < volume {
			var have int64
			if ok {
				have = p.Volume
			}
			return 0, fmt.Errorf("%w: %s need %d, held %d",
				ErrInsufficientPosition, symbol, volume, have)
		}

		realized := roundCent((price - p.AvgCost) * float64(volume))
		proceeds := roundCent(notional - commission - tax)
		l.acct.AvailableCash = roundCent(l.acct.AvailableCash + proceeds)

		p.Volume -= volume
		p.CurrentPrice = price
		if p.Volume == 0 {
			delete(l.positions, symbol)
			delete(l.unsettled, symbol)
		} else if p.AvailableVolume > p.Volume {
			p.AvailableVolume = p.Volume
		}

		if l.acct.AvailableCash < 0 {
			return 0, fmt.Errorf("%w: available cash %.2f after sell",
				ErrInvariant, l.acct.AvailableCash)
		}
		return realized, nil
	}
	return 0, fmt.Errorf("%w: unreachable side %v", ErrInvariant, side)
}

// MarkToMarket updates a position's valuation price. Cash is untouched and no
// P&L is realized.
func (l *Ledger) MarkToMarket(symbol string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.positions[symbol]; ok && price > 0 {
		p.CurrentPrice = price
	}
}

// SettleDaily releases T+1 buy holds. Call once per trading-day boundary.
func (l *Ledger) SettleDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for symbol, vol := range l.unsettled {
		if p, ok := l.positions[symbol]; ok {
			p.AvailableVolume += vol
			if p.AvailableVolume > p.Volume {
				p.AvailableVolume = p.Volume
			}
		}
		delete(l.unsettled, symbol)
	}
}

// CheckInvariant verifies available cash >= 0, frozen cash >= 0, and per-
// position 0 <= available <= volume. Returns ErrInvariant on any break.
func (l *Ledger) CheckInvariant() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acct.AvailableCash < 0 {
		return fmt.Errorf("%w: available cash %.2f", ErrInvariant, l.acct.AvailableCash)
	}
	if l.acct.FrozenCash < 0 {
		return fmt.Errorf("%w: frozen cash %.2f", ErrInvariant, l.acct.FrozenCash)
	}
	for _, p := range l.positions {
		if p.Volume < 0 || p.AvailableVolume < 0 || p.AvailableVolume > p.Volume {
			return fmt.Errorf("%w: %s volume=%d available=%d",
				ErrInvariant, p.Symbol, p.Volume, p.AvailableVolume)
		}
	}
	return nil
}
