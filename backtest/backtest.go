// Package backtest replays historical bars through the simulator: mark,
// trigger checks, strategy, risk gate, submit. The loop is single-threaded
// so identical inputs always produce identical journals.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantlab/papertrade/calendar"
	"github.com/quantlab/papertrade/feed"
	"github.com/quantlab/papertrade/internal/id"
	"github.com/quantlab/papertrade/journal"
	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/risk"
	"github.com/quantlab/papertrade/sim"
	"github.com/quantlab/papertrade/stats"
	"github.com/quantlab/papertrade/strategies"
)

// Config assembles one backtest run.
type Config struct {
	AccountID      string
	InitialCapital float64
	Costs          sim.CostModel
	Limits         risk.Limits
	RiskFreeRate   float64
	T1Settlement   bool

	// Benchmark is an optional daily series aligned with trading days,
	// used for alpha/beta.
	Benchmark []float64
}

// Runner owns the components of one run. Build with New, drive with Run.
type Runner struct {
	cfg   Config
	ex    *sim.Exchange
	risks *risk.Manager
	cal   *calendar.Calendar
	strat strategies.Strategy
	jrnl  journal.Journal
	log   *zap.Logger
}

func New(cfg Config, strat strategies.Strategy, cal *calendar.Calendar, jrnl journal.Journal, log *zap.Logger) *Runner {
	if cfg.AccountID == "" {
		cfg.AccountID = "backtest"
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

	return &Runner{
		cfg:   cfg,
		ex:    sim.NewExchange(led, cfg.Costs, jrnl, sim.WithLogger(log)),
		risks: risk.NewManager(cfg.Limits),
		cal:   cal,
		strat: strat,
		jrnl:  jrnl,
		log:   log,
	}
}

// Exchange exposes the simulator, mainly for inspection in tests.
func (r *Runner) Exchange() *sim.Exchange { return r.ex }

// Run consumes the feed to exhaustion and returns the metrics report.
// A ledger invariant breach aborts the run with the underlying error.
func (r *Runner) Run(ctx context.Context, src feed.BarFeed) (Result, error) {
	var (
		res     Result
		dayEq   []float64
		curDay  time.Time
		lastBar time.Time
	)

	r.risks.StartDay(r.ex.Snapshot().TotalAssets)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		bar, ok, err := src.Next()
		if err != nil {
			return res, fmt.Errorf("read feed: %w", err)
		}
		if !ok {
			break
		}
		res.Bars++

		if !curDay.IsZero() && !r.cal.SameDay(curDay, bar.Time) {
			dayEq = append(dayEq, r.rollDay(lastBar))
		}
		if curDay.IsZero() || !r.cal.SameDay(curDay, bar.Time) {
			curDay = bar.Time
		}
		lastBar = bar.Time

		if err := r.step(ctx, bar, &res); err != nil {
			return res, err
		}
	}

	if !lastBar.IsZero() {
		rec := r.ex.RecordSnapshot(lastBar)
		dayEq = append(dayEq, rec.TotalAssets)
	}

	res.Days = len(dayEq)
	res.EquityCurve = append([]float64{r.cfg.InitialCapital}, dayEq...)
	res.Trades = r.ex.Trades()
	res.Final = r.ex.Snapshot()

	var sellPnL []float64
	for _, t := range res.Trades {
		if t.Side == market.Sell {
			sellPnL = append(sellPnL, t.RealizedPnL)
		}
	}
	res.Metrics = stats.Analyze(res.EquityCurve, sellPnL, r.cfg.Benchmark, stats.Options{
		RiskFreeRate: r.cfg.RiskFreeRate,
	})
	return res, nil
}

// rollDay closes out the finished trading day: snapshot its equity, settle
// T+1 holds, and reset the daily risk counters.
func (r *Runner) rollDay(dayEnd time.Time) float64 {
	rec := r.ex.RecordSnapshot(dayEnd)
	r.ex.SettleDaily()
	r.risks.StartDay(rec.TotalAssets)
	return rec.TotalAssets
}

// step processes one bar end to end.
func (r *Runner) step(ctx context.Context, bar market.Bar, res *Result) error {
	if err := r.ex.OnBar(bar); err != nil {
		return fmt.Errorf("on bar %s %s: %w", bar.Symbol, bar.Time.Format("2006-01-02"), err)
	}

	snap := r.ex.Snapshot()

	// Stops close before take-profits when both fire on the same mark.
	for _, trg := range r.risks.CheckStopLoss(snap.Positions) {
		if err := r.forceClose(ctx, snap, trg, res); err != nil {
			return err
		}
	}
	snap = r.ex.Snapshot()
	for _, trg := range r.risks.CheckTakeProfit(snap.Positions) {
		if err := r.forceClose(ctx, snap, trg, res); err != nil {
			return err
		}
	}

	snap = r.ex.Snapshot()
	if r.risks.CheckDailyLoss(snap.TotalAssets) {
		return nil // breaker tripped, no new strategy orders today
	}

	for _, req := range r.strat.OnBar(bar, snap) {
		if err := r.submit(ctx, req, bar.Time, res); err != nil {
			return err
		}
		snap = r.ex.Snapshot()
	}
	return nil
}

// forceClose sells the triggered position at market. Trigger exits bypass
// the order gate: they reduce exposure and must run even when halted.
func (r *Runner) forceClose(ctx context.Context, snap ledger.Snapshot, trg risk.Trigger, res *Result) error {
	pos, ok := snap.Position(trg.Symbol)
	if !ok || pos.AvailableVolume <= 0 {
		return nil // nothing sellable yet, retried on the next mark
	}
	req := sim.OrderRequest{
		Symbol: trg.Symbol,
		Side:   market.Sell,
		Type:   sim.Market,
		Volume: pos.AvailableVolume,
		Reason: trg.Msg,
	}
	r.log.Info("trigger exit",
		zap.String("symbol", trg.Symbol),
		zap.String("code", trg.Code),
		zap.Float64("ratio", trg.Ratio))
	return r.submitUnchecked(ctx, req, res)
}

// submit runs the risk gate, journals a synthetic rejected order on
// denial, and otherwise hands the request to the exchange.
func (r *Runner) submit(ctx context.Context, req sim.OrderRequest, at time.Time, res *Result) error {
	snap := r.ex.Snapshot()
	price := req.Price
	if req.Type == sim.Market {
		if q, ok := r.ex.Quote(req.Symbol); ok {
			price = q
		}
	}

	if d := r.risks.CheckOrder(req, price, snap); !d.Allowed {
		res.Rejected++
		r.log.Debug("order denied by risk",
			zap.String("symbol", req.Symbol),
			zap.String("reason", d.Reason()))
		if err := r.jrnl.RecordOrder(journal.OrderRecord{
			OrderID:      id.New(),
			AccountID:    snap.AccountID,
			Symbol:       req.Symbol,
			Side:         req.Side.String(),
			Type:         req.Type.String(),
			Price:        req.Price,
			Volume:       req.Volume,
			Status:       sim.StatusRejected.String(),
			RejectReason: d.Reason(),
			SubmitTime:   at,
		}); err != nil {
			r.log.Warn("journal order failed", zap.Error(err))
		}
		return nil
	}

	return r.submitUnchecked(ctx, req, res)
}

func (r *Runner) submitUnchecked(ctx context.Context, req sim.OrderRequest, res *Result) error {
	_, trade, err := r.ex.Submit(ctx, req)
	if err != nil {
		var rej *sim.Rejection
		if errors.As(err, &rej) {
			res.Rejected++
			return nil
		}
		if errors.Is(err, ledger.ErrInvariant) {
			return fmt.Errorf("aborting run: %w", err)
		}
		return err
	}
	if trade != nil {
		r.risks.CountTrade()
	}
	return nil
}
