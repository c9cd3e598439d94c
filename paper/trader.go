// Package paper runs the real-time loop: ticks in, simulated fills and
// journal rows out. Orders arrive either from an attached strategy on bar
// boundaries or from SubmitOrder, both through the same risk gate.
package paper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantlab/papertrade/calendar"
	"github.com/quantlab/papertrade/feed"
	"github.com/quantlab/papertrade/journal"
	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/risk"
	"github.com/quantlab/papertrade/sim"
)

// Config assembles one paper-trading session.
type Config struct {
	AccountID      string
	InitialCapital float64
	Costs          sim.CostModel
	Limits         risk.Limits
	T1Settlement   bool

	// SnapshotEvery is the equity snapshot cadence in data time.
	// Zero defaults to one minute.
	SnapshotEvery time.Duration
}

// Trader is the live-session counterpart of backtest.Runner.
type Trader struct {
	cfg   Config
	ex    *sim.Exchange
	risks *risk.Manager
	cal   *calendar.Calendar
	log   *zap.Logger

	lastSnap time.Time
	lastTick time.Time
}

func NewTrader(cfg Config, cal *calendar.Calendar, jrnl journal.Journal, log *zap.Logger) *Trader {
	if cfg.AccountID == "" {
		cfg.AccountID = "paper"
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = time.Minute
	}
	if cal == nil {
		cal = calendar.New(time.UTC, nil)
	}
	if jrnl == nil {
		jrnl = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	var lopts []ledger.Option
	if cfg.T1Settlement {
		lopts = append(lopts, ledger.WithT1Settlement())
	}
	led := ledger.New(cfg.AccountID, cfg.InitialCapital, lopts...)

	return &Trader{
		cfg:   cfg,
		ex:    sim.NewExchange(led, cfg.Costs, jrnl, sim.WithLogger(log)),
		risks: risk.NewManager(cfg.Limits),
		cal:   cal,
		log:   log,
	}
}

// Run consumes ticks until the feed closes or ctx is cancelled.
func (t *Trader) Run(ctx context.Context, src feed.TickFeed) error {
	t.risks.StartDay(t.ex.Snapshot().TotalAssets)
	t.log.Info("paper session started",
		zap.String("account", t.cfg.AccountID),
		zap.Float64("capital", t.cfg.InitialCapital))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tick, ok, err := src.Next()
		if err != nil {
			return fmt.Errorf("read feed: %w", err)
		}
		if !ok {
			return nil
		}
		if err := t.onTick(ctx, tick); err != nil {
			return err
		}
	}
}

func (t *Trader) onTick(ctx context.Context, tick market.Tick) error {
	metricTicks.Inc()

	if !t.lastTick.IsZero() && !t.cal.SameDay(t.lastTick, tick.Time) {
		t.ex.RecordSnapshot(t.lastTick)
		t.ex.SettleDaily()
		t.risks.StartDay(t.ex.Snapshot().TotalAssets)
		metricHalted.Set(0)
	}
	t.lastTick = tick.Time

	if err := t.ex.OnTick(tick); err != nil {
		return fmt.Errorf("on tick %s: %w", tick.Symbol, err)
	}

	snap := t.ex.Snapshot()
	for _, trg := range t.risks.CheckStopLoss(snap.Positions) {
		if err := t.forceClose(ctx, trg); err != nil {
			return err
		}
	}
	snap = t.ex.Snapshot()
	for _, trg := range t.risks.CheckTakeProfit(snap.Positions) {
		if err := t.forceClose(ctx, trg); err != nil {
			return err
		}
	}

	snap = t.ex.Snapshot()
	if t.risks.CheckDailyLoss(snap.TotalAssets) {
		metricHalted.Set(1)
	}
	metricEquity.Set(snap.TotalAssets)
	metricPositions.Set(float64(len(snap.Positions)))

	if t.lastSnap.IsZero() || tick.Time.Sub(t.lastSnap) >= t.cfg.SnapshotEvery {
		t.ex.RecordSnapshot(tick.Time)
		t.lastSnap = tick.Time
	}
	return nil
}

func (t *Trader) forceClose(ctx context.Context, trg risk.Trigger) error {
	snap := t.ex.Snapshot()
	pos, ok := snap.Position(trg.Symbol)
	if !ok || pos.AvailableVolume <= 0 {
		return nil
	}
	t.log.Info("trigger exit",
		zap.String("symbol", trg.Symbol),
		zap.String("code", trg.Code),
		zap.Float64("ratio", trg.Ratio))
	_, trade, err := t.ex.Submit(ctx, sim.OrderRequest{
		Symbol: trg.Symbol,
		Side:   market.Sell,
		Type:   sim.Market,
		Volume: pos.AvailableVolume,
		Reason: trg.Msg,
	})
	var rej *sim.Rejection
	if errors.As(err, &rej) {
		metricOrdersRejected.Inc()
		return nil
	}
	if err != nil {
		return err
	}
	if trade != nil {
		metricTrades.Inc()
		t.risks.CountTrade()
	}
	return nil
}

// SubmitOrder places a manual order through the risk gate.
func (t *Trader) SubmitOrder(ctx context.Context, req sim.OrderRequest) (sim.Order, *sim.Trade, error) {
	snap := t.ex.Snapshot()
	price := req.Price
	if req.Type == sim.Market {
		if q, ok := t.ex.Quote(req.Symbol); ok {
			price = q
		}
	}
	if d := t.risks.CheckOrder(req, price, snap); !d.Allowed {
		metricOrdersRejected.Inc()
		return sim.Order{}, nil, &sim.Rejection{Code: sim.RejectRiskDenied, Reason: d.Reason()}
	}

	o, trade, err := t.ex.Submit(ctx, req)
	if err != nil {
		var rej *sim.Rejection
		if errors.As(err, &rej) {
			metricOrdersRejected.Inc()
		}
		return o, trade, err
	}
	metricOrdersSubmitted.Inc()
	if trade != nil {
		metricTrades.Inc()
		t.risks.CountTrade()
	}
	return o, trade, nil
}

// CancelOrder revokes a resting order.
func (t *Trader) CancelOrder(orderID string) error { return t.ex.Cancel(orderID) }

// Status reports the current account state for the CLI.
type Status struct {
	Snapshot      ledger.Snapshot
	PendingOrders []sim.Order
	TradeCount    int
	Halted        bool
}

func (t *Trader) Status() Status {
	return Status{
		Snapshot:      t.ex.Snapshot(),
		PendingOrders: t.ex.PendingOrders(),
		TradeCount:    len(t.ex.Trades()),
		Halted:        t.risks.Halted(),
	}
}
