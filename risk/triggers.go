package risk

import (
	"fmt"

	"github.com/quantlab/papertrade/ledger"
)

// Trigger names a position that breached a stop-loss or take-profit level.
type Trigger struct {
	Symbol string
	Code   string
	Ratio  float64 // signed return on cost at trigger time
	Msg    string
}

const (
	CodeStopLoss   = "STOP_LOSS"
	CodeTakeProfit = "TAKE_PROFIT"
)

// returnOnCost is unrealized P&L over cost basis, 0 when the basis is empty.
func returnOnCost(p ledger.Position) float64 {
	basis := p.AvgCost * float64(p.Volume)
	if basis <= 0 {
		return 0
	}
	return p.UnrealizedPnL() / basis
}

// CheckStopLoss returns positions whose loss ratio reached the stop level.
// When both stop and take-profit fire on the same mark, callers close stops
// first.
func (m *Manager) CheckStopLoss(positions []ledger.Position) []Trigger {
	m.mu.Lock()
	ratio := m.limits.StopLossRatio
	m.mu.Unlock()
	if ratio <= 0 {
		return nil
	}

	var out []Trigger
	for _, p := range positions {
		if r := returnOnCost(p); r <= -ratio {
			out = append(out, Trigger{
				Symbol: p.Symbol,
				Code:   CodeStopLoss,
				Ratio:  r,
				Msg:    fmt.Sprintf("%s down %.1f%%, stop at %.1f%%", p.Symbol, -100*r, 100*ratio),
			})
		}
	}
	return out
}

// CheckTakeProfit returns positions whose gain reached the take-profit level.
func (m *Manager) CheckTakeProfit(positions []ledger.Position) []Trigger {
	m.mu.Lock()
	ratio := m.limits.TakeProfitRatio
	m.mu.Unlock()
	if ratio <= 0 {
		return nil
	}

	var out []Trigger
	for _, p := range positions {
		if r := returnOnCost(p); r >= ratio {
			out = append(out, Trigger{
				Symbol: p.Symbol,
				Code:   CodeTakeProfit,
				Ratio:  r,
				Msg:    fmt.Sprintf("%s up %.1f%%, target at %.1f%%", p.Symbol, 100*r, 100*ratio),
			})
		}
	}
	return out
}

// CheckDailyLoss trips the circuit breaker when equity has fallen from the
// day's opening level by the configured ratio. Once tripped it stays tripped
// until StartDay. Open positions are untouched; only new orders stop.
func (m *Manager) CheckDailyLoss(equity float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.halted {
		return true
	}
	if m.limits.MaxDailyLossRatio <= 0 || m.dayStartEquity <= 0 {
		return false
	}
	loss := (m.dayStartEquity - equity) / m.dayStartEquity
	if loss >= m.limits.MaxDailyLossRatio {
		m.halted = true
	}
	return m.halted
}
