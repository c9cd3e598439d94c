package risk

import (
	"fmt"
	"sync"

	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/sim"
)

// Violation codes reported in decisions and journalled reject reasons.
const (
	CodeHalted               = "TRADING_HALTED"
	CodeOrderTooLarge        = "ORDER_TOO_LARGE"
	CodePositionCap          = "POSITION_CAP"
	CodeTotalPositionCap     = "TOTAL_POSITION_CAP"
	CodeInsufficientPosition = "INSUFFICIENT_POSITION"
	CodeDailyTradeLimit      = "DAILY_TRADE_LIMIT"
	CodeDailyLossLimit       = "DAILY_LOSS_LIMIT"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason flattens the first violation into a journalable string.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	v := d.Violations[0]
	return fmt.Sprintf("%s: %s", v.Code, v.Msg)
}

// Manager holds the per-day risk state for one account.
type Manager struct {
	mu     sync.Mutex
	limits Limits

	dayStartEquity float64
	tradesToday    int
	halted         bool
}

func NewManager(limits Limits) *Manager {
	return &Manager{limits: limits}
}

// Limits returns the configured constraints.
func (m *Manager) Limits() Limits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limits
}

// StartDay resets the daily counters against the opening equity.
func (m *Manager) StartDay(equity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dayStartEquity = equity
	m.tradesToday = 0
	m.halted = false
}

// CountTrade registers one executed trade against the daily cap.
func (m *Manager) CountTrade() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tradesToday++
}

// Halted reports whether the daily-loss breaker has tripped.
func (m *Manager) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// CheckOrder evaluates one order intent against the account snapshot. The
// estimated notional uses the last quote for market orders and the limit
// price otherwise. Checks short-circuit: the first failing class decides.
func (m *Manager) CheckOrder(req sim.OrderRequest, price float64, snap ledger.Snapshot) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Decision{Allowed: true}

	if m.halted {
		d.add(CodeHalted, "daily loss limit reached, trading halted until next session")
		return d
	}

	notional := price * float64(req.Volume)

	if m.limits.MaxSingleOrderValue > 0 && notional > m.limits.MaxSingleOrderValue {
		d.add(CodeOrderTooLarge,
			fmt.Sprintf("order value %.2f exceeds max %.2f", notional, m.limits.MaxSingleOrderValue))
		return d
	}

	if req.Side == market.Buy && snap.TotalAssets > 0 {
		symbolValue := notional
		if p, ok := snap.Position(req.Symbol); ok {
			symbolValue += p.MarketValue()
		}
		if m.limits.MaxPositionRatio > 0 && symbolValue/snap.TotalAssets > m.limits.MaxPositionRatio {
			d.add(CodePositionCap,
				fmt.Sprintf("%s would be %.1f%% of assets, max %.1f%%",
					req.Symbol, 100*symbolValue/snap.TotalAssets, 100*m.limits.MaxPositionRatio))
			return d
		}
		totalValue := snap.MarketValue + notional
		if m.limits.MaxTotalPositionRatio > 0 && totalValue/snap.TotalAssets > m.limits.MaxTotalPositionRatio {
			d.add(CodeTotalPositionCap,
				fmt.Sprintf("total exposure would be %.1f%% of assets, max %.1f%%",
					100*totalValue/snap.TotalAssets, 100*m.limits.MaxTotalPositionRatio))
			return d
		}
	}

	if req.Side == market.Sell {
		p, ok := snap.Position(req.Symbol)
		if !ok || p.AvailableVolume < req.Volume {
			var avail int64
			if ok {
				avail = p.AvailableVolume
			}
			d.add(CodeInsufficientPosition,
				fmt.Sprintf("sell %d %s but only %d available", req.Volume, req.Symbol, avail))
			return d
		}
	}

	if m.limits.MaxDailyTrades > 0 && m.tradesToday >= m.limits.MaxDailyTrades {
		d.add(CodeDailyTradeLimit,
			fmt.Sprintf("daily trade count %d reached max %d", m.tradesToday, m.limits.MaxDailyTrades))
		return d
	}

	return d
}
