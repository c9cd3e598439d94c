package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/sim"
)

func snapWith(cash float64, positions ...ledger.Position) ledger.Snapshot {
	var mv float64
	for _, p := range positions {
		mv += p.MarketValue()
	}
	return ledger.Snapshot{
		AccountID:     "TEST-1",
		AvailableCash: cash,
		MarketValue:   mv,
		TotalAssets:   cash + mv,
		Positions:     positions,
	}
}

func buyReq(symbol string, volume int64) sim.OrderRequest {
	return sim.OrderRequest{Symbol: symbol, Side: market.Buy, Type: sim.Market, Volume: volume}
}

func TestCheckOrderAllows(t *testing.T) {
	t.Parallel()

	m := NewManager(DefaultLimits())
	m.StartDay(100000)

	d := m.CheckOrder(buyReq("600519", 100), 10.00, snapWith(100000))
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Violations)
}

func TestCheckOrderHalted(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxDailyLossRatio = 0.05
	m := NewManager(limits)
	m.StartDay(100000)

	require.True(t, m.CheckDailyLoss(94000), "6% loss trips the breaker")

	d := m.CheckOrder(buyReq("600519", 100), 10.00, snapWith(94000))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeHalted, d.Violations[0].Code)
}

func TestCheckOrderTooLarge(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxSingleOrderValue = 5000
	m := NewManager(limits)
	m.StartDay(100000)

	d := m.CheckOrder(buyReq("600519", 1000), 10.00, snapWith(100000))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeOrderTooLarge, d.Violations[0].Code)
}

func TestCheckOrderPositionCap(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxPositionRatio = 0.30
	m := NewManager(limits)
	m.StartDay(100000)

	// Existing 25k position + 10k order on a 100k account breaches 30%.
	held := ledger.Position{Symbol: "600519", Volume: 2500, AvailableVolume: 2500, AvgCost: 10, CurrentPrice: 10}
	d := m.CheckOrder(buyReq("600519", 1000), 10.00, snapWith(75000, held))
	require.False(t, d.Allowed)
	assert.Equal(t, CodePositionCap, d.Violations[0].Code)

	// A different symbol is judged on its own exposure.
	d = m.CheckOrder(buyReq("000001", 1000), 10.00, snapWith(75000, held))
	assert.True(t, d.Allowed)
}

func TestCheckOrderTotalCap(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxPositionRatio = 1 // isolate the aggregate cap
	limits.MaxTotalPositionRatio = 0.5
	m := NewManager(limits)
	m.StartDay(100000)

	held := ledger.Position{Symbol: "600519", Volume: 4500, AvailableVolume: 4500, AvgCost: 10, CurrentPrice: 10}
	d := m.CheckOrder(buyReq("000001", 1000), 10.00, snapWith(55000, held))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeTotalPositionCap, d.Violations[0].Code)
}

func TestCheckOrderSellWithoutPosition(t *testing.T) {
	t.Parallel()

	m := NewManager(DefaultLimits())
	m.StartDay(100000)

	req := sim.OrderRequest{Symbol: "600519", Side: market.Sell, Type: sim.Market, Volume: 100}
	d := m.CheckOrder(req, 10.00, snapWith(100000))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeInsufficientPosition, d.Violations[0].Code)
}

func TestCheckOrderDailyTradeLimit(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.MaxDailyTrades = 2
	m := NewManager(limits)
	m.StartDay(100000)

	m.CountTrade()
	m.CountTrade()

	d := m.CheckOrder(buyReq("600519", 100), 10.00, snapWith(100000))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeDailyTradeLimit, d.Violations[0].Code)

	// A new day resets the counter.
	m.StartDay(100000)
	d = m.CheckOrder(buyReq("600519", 100), 10.00, snapWith(100000))
	assert.True(t, d.Allowed)
}

func TestDecisionReason(t *testing.T) {
	t.Parallel()

	var d Decision
	d.add(CodeHalted, "stopped")
	assert.Equal(t, "TRADING_HALTED: stopped", d.Reason())
	assert.Empty(t, Decision{Allowed: true}.Reason())
}
