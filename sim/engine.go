// Package sim converts orders into trades against a simplified market model
// and is the only writer to the ledger. Fills are all-or-nothing: an order
// either fully fills at the slipped execution price or is rejected with no
// ledger mutation.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantlab/papertrade/internal/id"
	"github.com/quantlab/papertrade/journal"
	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
)

type quote struct {
	price float64
	time  time.Time
}

// Exchange is the order matching simulator for one account.
type Exchange struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	costs   CostModel
	journal journal.Journal
	log     *zap.Logger

	quotes map[string]quote
	orders map[string]*Order
	trades []Trade
	peak   float64
}

// ExchangeOption configures an Exchange at construction.
type ExchangeOption func(*Exchange)

// WithLogger attaches a logger for fill/reject events.
func WithLogger(log *zap.Logger) ExchangeOption {
	return func(e *Exchange) { e.log = log }
}

// NewExchange wires the simulator to its ledger and journal.
func NewExchange(l *ledger.Ledger, costs CostModel, j journal.Journal, opts ...ExchangeOption) *Exchange {
	if j == nil {
		j = journal.Nop{}
	}
	e := &Exchange{
		ledger:  l,
		costs:   costs,
		journal: j,
		log:     zap.NewNop(),
		quotes:  make(map[string]quote),
		orders:  make(map[string]*Order),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Snapshot returns a consistent copy of the account state.
func (e *Exchange) Snapshot() ledger.Snapshot { return e.ledger.Snapshot() }

// CheckInvariant re-validates the ledger's cash/position invariant.
func (e *Exchange) CheckInvariant() error { return e.ledger.CheckInvariant() }

// Quote returns the last seen price for symbol.
func (e *Exchange) Quote(symbol string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.quotes[symbol]
	return q.price, ok
}

// Submit validates, freezes, and attempts to match one order. The returned
// trade is non-nil when the order filled immediately. Rejections come back
// as a *Rejection error with the rejected order; any other error is fatal
// to the run.
func (e *Exchange) Submit(ctx context.Context, req OrderRequest) (Order, *Trade, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clockLocked(req.Symbol)
	o := &Order{
		ID:         id.New(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Type:       req.Type,
		Price:      req.Price,
		Volume:     req.Volume,
		Status:     StatusPending,
		SubmitTime: now,
		reason:     req.Reason,
	}

	if reason := validate(req); reason != "" {
		return e.rejectLocked(o, RejectValidation, reason)
	}

	q, hasQuote := e.quotes[req.Symbol]
	if req.Type == Market && !hasQuote {
		return e.rejectLocked(o, RejectNoQuote, fmt.Sprintf("no quote for %s", req.Symbol))
	}

	// Freeze before matching so a resting order's funds/volume stay
	// reserved until fill or cancel.
	switch req.Side {
	case market.Buy:
		base := req.Price
		if req.Type == Market {
			base = q.price
		}
		est := roundCent(e.costs.ExecutionPrice(market.Buy, base) * float64(req.Volume))
		frozen := roundCent(est + e.costs.Commission(est))
		if err := e.ledger.FreezeCash(frozen); err != nil {
			if errors.Is(err, ledger.ErrInsufficientCash) {
				return e.rejectLocked(o, RejectInsufficientFunds, err.Error())
			}
			return *o, nil, err
		}
		o.frozenCash = frozen
	case market.Sell:
		if err := e.ledger.FreezePosition(req.Symbol, req.Volume); err != nil {
			if errors.Is(err, ledger.ErrInsufficientPosition) {
				return e.rejectLocked(o, RejectInsufficientPosition, err.Error())
			}
			return *o, nil, err
		}
	}

	e.orders[o.ID] = o
	if err := e.journal.RecordOrder(e.orderRecordLocked(o)); err != nil {
		e.log.Warn("journal order failed", zap.Error(err))
	}

	if !hasQuote {
		return *o, nil, nil // limit order resting until a quote arrives
	}

	trade, rej, err := e.tryMatchLocked(o, q)
	if err != nil {
		return *o, nil, err
	}
	if rej != nil {
		return *o, nil, rej
	}
	return *o, trade, nil
}

func validate(req OrderRequest) string {
	switch {
	case req.Symbol == "":
		return "symbol is required"
	case !req.Side.Valid():
		return "side must be BUY or SELL"
	case req.Type != Market && req.Type != Limit:
		return "type must be MARKET or LIMIT"
	case req.Volume <= 0:
		return fmt.Sprintf("volume must be positive, got %d", req.Volume)
	case req.Type == Limit && req.Price <= 0:
		return fmt.Sprintf("limit price must be positive, got %.4f", req.Price)
	}
	return ""
}

// clockLocked keeps backtests deterministic by preferring data time over
// wall time.
func (e *Exchange) clockLocked(symbol string) time.Time {
	if q, ok := e.quotes[symbol]; ok && !q.time.IsZero() {
		return q.time
	}
	var latest time.Time
	for _, q := range e.quotes {
		if q.time.After(latest) {
			latest = q.time
		}
	}
	if !latest.IsZero() {
		return latest
	}
	return time.Now()
}

func (e *Exchange) rejectLocked(o *Order, code RejectCode, reason string) (Order, *Trade, error) {
	o.Status = StatusRejected
	o.RejectReason = reason
	e.orders[o.ID] = o
	if err := e.journal.RecordOrder(e.orderRecordLocked(o)); err != nil {
		e.log.Warn("journal order failed", zap.Error(err))
	}
	e.log.Debug("order rejected",
		zap.String("order_id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.String("code", string(code)),
		zap.String("reason", reason))
	return *o, nil, &Rejection{Code: code, Reason: reason}
}

// tryMatchLocked fills o against q if it crosses. Market orders always fill;
// limit buys need quote <= limit, limit sells need quote >= limit, and fill
// at the limit price. A nil, nil, nil return means the order keeps resting.
func (e *Exchange) tryMatchLocked(o *Order, q quote) (*Trade, *Rejection, error) {
	base := q.price
	if o.Type == Limit {
		if o.Side == market.Buy && q.price > o.Price {
			return nil, nil, nil
		}
		if o.Side == market.Sell && q.price < o.Price {
			return nil, nil, nil
		}
		base = o.Price
	}

	exec := e.costs.ExecutionPrice(o.Side, base)
	notional := roundCent(exec * float64(o.Volume))
	commission := e.costs.Commission(notional)
	tax := e.costs.StampTax(o.Side, notional)

	var realized float64
	switch o.Side {
	case market.Buy:
		// Release the estimate, then settle the exact cost. On failure
		// the ledger is exactly as it was before the order existed.
		e.ledger.UnfreezeCash(o.frozenCash)
		o.frozenCash = 0
		var err error
		realized, err = e.ledger.ApplyFill(market.Buy, o.Symbol, exec, o.Volume, commission, 0)
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientCash) {
				_, _, rerr := e.rejectLocked(o, RejectInsufficientFunds, err.Error())
				var rej *Rejection
				errors.As(rerr, &rej)
				return nil, rej, nil
			}
			return nil, nil, err
		}
	case market.Sell:
		var err error
		realized, err = e.ledger.ApplyFill(market.Sell, o.Symbol, exec, o.Volume, commission, tax)
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientPosition) {
				e.ledger.UnfreezePosition(o.Symbol, o.Volume)
				_, _, rerr := e.rejectLocked(o, RejectInsufficientPosition, err.Error())
				var rej *Rejection
				errors.As(rerr, &rej)
				return nil, rej, nil
			}
			return nil, nil, err
		}
	}

	t := Trade{
		ID:         id.New(),
		OrderID:    o.ID,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Price:      exec,
		Volume:     o.Volume,
		Commission: commission,
		StampTax:   tax,
		Reason:     o.reason,
		Time:       q.time,
	}
	if o.Side == market.Sell {
		t.RealizedPnL = roundCent(realized - commission - tax)
	}

	o.FilledVolume = o.Volume
	o.Status = StatusFilled
	o.FilledTime = q.time

	e.trades = append(e.trades, t)
	e.journalFillLocked(o, t)
	e.log.Debug("order filled",
		zap.String("order_id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.String("side", o.Side.String()),
		zap.Float64("price", exec),
		zap.Int64("volume", o.Volume),
		zap.Float64("realized_pnl", t.RealizedPnL))

	return &t, nil, nil
}

func (e *Exchange) journalFillLocked(o *Order, t Trade) {
	if err := e.journal.RecordOrder(e.orderRecordLocked(o)); err != nil {
		e.log.Warn("journal order failed", zap.Error(err))
	}
	snap := e.ledger.Snapshot()
	if err := e.journal.RecordTrade(journal.TradeRecord{
		TradeID:     t.ID,
		OrderID:     t.OrderID,
		AccountID:   snap.AccountID,
		Symbol:      t.Symbol,
		Side:        t.Side.String(),
		Price:       t.Price,
		Volume:      t.Volume,
		Commission:  roundCent(t.Commission + t.StampTax),
		RealizedPnL: t.RealizedPnL,
		TradeTime:   t.Time,
	}); err != nil {
		e.log.Warn("journal trade failed", zap.Error(err))
	}
	e.journalPositionLocked(snap, t.Symbol)
	e.recordEquityLocked(snap, t.Time)
}

func (e *Exchange) journalPositionLocked(snap ledger.Snapshot, symbol string) {
	rec := journal.PositionRecord{AccountID: snap.AccountID, Symbol: symbol}
	if p, ok := snap.Position(symbol); ok {
		rec.Volume = p.Volume
		rec.AvgCost = p.AvgCost
		rec.CurrentPrice = p.CurrentPrice
		rec.UnrealizedPnL = p.UnrealizedPnL()
	}
	if err := e.journal.RecordPosition(rec); err != nil {
		e.log.Warn("journal position failed", zap.Error(err))
	}
}

// OnBar updates the mark price from a bar close and retries resting orders
// for that symbol. A non-nil error is fatal to the run.
func (e *Exchange) OnBar(bar market.Bar) error {
	return e.onQuote(bar.Symbol, bar.Close, bar.Time)
}

// OnTick is the tick twin of OnBar for the real-time loop.
func (e *Exchange) OnTick(tick market.Tick) error {
	return e.onQuote(tick.Symbol, tick.Last, tick.Time)
}

func (e *Exchange) onQuote(symbol string, price float64, t time.Time) error {
	if symbol == "" || price <= 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	q := quote{price: price, time: t}
	e.quotes[symbol] = q
	e.ledger.MarkToMarket(symbol, price)

	for _, o := range e.pendingLocked(symbol) {
		if _, _, err := e.tryMatchLocked(o, q); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exchange) pendingLocked(symbol string) []*Order {
	var out []*Order
	for _, o := range e.orders {
		if o.Status == StatusPending && o.Symbol == symbol {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cancel revokes a resting order, refunding frozen cash or volume.
func (e *Exchange) Cancel(orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	if o.Status != StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrNotCancellable, orderID, o.Status)
	}

	switch o.Side {
	case market.Buy:
		e.ledger.UnfreezeCash(o.frozenCash)
		o.frozenCash = 0
	case market.Sell:
		e.ledger.UnfreezePosition(o.Symbol, o.Volume)
	}

	o.Status = StatusCancelled
	if err := e.journal.RecordOrder(e.orderRecordLocked(o)); err != nil {
		e.log.Warn("journal order failed", zap.Error(err))
	}
	return nil
}

// Order returns a copy of the order under id.
func (e *Exchange) Order(orderID string) (Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// PendingOrders returns all resting orders.
func (e *Exchange) PendingOrders() []Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Order
	for _, o := range e.orders {
		if o.Status == StatusPending {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Trades returns a copy of all fills in execution order.
func (e *Exchange) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// SettleDaily releases T+1 holds at a trading-day boundary.
func (e *Exchange) SettleDaily() { e.ledger.SettleDaily() }

// RecordSnapshot appends an equity snapshot for time t and returns it.
func (e *Exchange) RecordSnapshot(t time.Time) journal.EquityRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordEquityLocked(e.ledger.Snapshot(), t)
}

func (e *Exchange) recordEquityLocked(snap ledger.Snapshot, t time.Time) journal.EquityRecord {
	if snap.TotalAssets > e.peak {
		e.peak = snap.TotalAssets
	}
	var dd float64
	if e.peak > 0 {
		dd = (e.peak - snap.TotalAssets) / e.peak
	}
	rec := journal.EquityRecord{
		AccountID:     snap.AccountID,
		Time:          t,
		TotalAssets:   snap.TotalAssets,
		Cash:          snap.AvailableCash + snap.FrozenCash,
		MarketValue:   snap.MarketValue,
		Drawdown:      dd,
		PositionCount: len(snap.Positions),
	}
	if err := e.journal.RecordEquity(rec); err != nil {
		e.log.Warn("journal equity failed", zap.Error(err))
	}
	if err := e.journal.RecordAccount(journal.AccountRecord{
		AccountID:      snap.AccountID,
		InitialCapital: snap.InitialCapital,
		AvailableCash:  snap.AvailableCash,
		FrozenCash:     snap.FrozenCash,
		TotalAssets:    snap.TotalAssets,
		Status:         "active",
		CreatedAt:      t,
		UpdatedAt:      t,
	}); err != nil {
		e.log.Warn("journal account failed", zap.Error(err))
	}
	return rec
}

func (e *Exchange) orderRecordLocked(o *Order) journal.OrderRecord {
	return journal.OrderRecord{
		OrderID:      o.ID,
		AccountID:    e.ledger.Account().ID,
		Symbol:       o.Symbol,
		Side:         o.Side.String(),
		Type:         o.Type.String(),
		Price:        o.Price,
		Volume:       o.Volume,
		FilledVolume: o.FilledVolume,
		Status:       o.Status.String(),
		RejectReason: o.RejectReason,
		SubmitTime:   o.SubmitTime,
		FilledTime:   o.FilledTime,
	}
}
