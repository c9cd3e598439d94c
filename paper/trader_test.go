package paper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/papertrade/feed"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/risk"
	"github.com/quantlab/papertrade/sim"
)

func testTrader(capital float64, limits risk.Limits) *Trader {
	return NewTrader(Config{
		AccountID:      "PAPER-1",
		InitialCapital: capital,
		Costs:          sim.CostModel{},
		Limits:         limits,
	}, nil, nil, nil)
}

func ticks(symbol string, prices ...float64) []market.Tick {
	out := make([]market.Tick, len(prices))
	for i, p := range prices {
		out[i] = market.Tick{
			Symbol: symbol,
			Time:   time.Date(2024, 3, 1, 9, 30, i, 0, time.UTC),
			Last:   p,
		}
	}
	return out
}

func TestManualOrderFillsOnQuote(t *testing.T) {
	t.Parallel()

	tr := testTrader(100000, risk.Limits{})
	require.NoError(t, tr.Run(context.Background(), feed.NewSliceTickFeed(ticks("600519", 10.00))))

	o, trade, err := tr.SubmitOrder(context.Background(), sim.OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: sim.Market, Volume: 100,
	})
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, sim.StatusFilled, o.Status)
	assert.InDelta(t, 10.00, trade.Price, 1e-9)

	st := tr.Status()
	assert.InDelta(t, 99000, st.Snapshot.AvailableCash, 1e-9)
	assert.Equal(t, 1, st.TradeCount)
	assert.False(t, st.Halted)
}

func TestManualOrderDeniedByRisk(t *testing.T) {
	t.Parallel()

	tr := testTrader(100000, risk.Limits{MaxSingleOrderValue: 500})
	require.NoError(t, tr.Run(context.Background(), feed.NewSliceTickFeed(ticks("600519", 10.00))))

	_, _, err := tr.SubmitOrder(context.Background(), sim.OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: sim.Market, Volume: 100,
	})
	var rej *sim.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, sim.RejectRiskDenied, rej.Code)
	assert.InDelta(t, 100000, tr.Status().Snapshot.AvailableCash, 1e-9)
}

func TestRestingLimitFillsOnLaterTick(t *testing.T) {
	t.Parallel()

	tr := testTrader(100000, risk.Limits{})
	require.NoError(t, tr.Run(context.Background(), feed.NewSliceTickFeed(ticks("600519", 10.00))))

	_, trade, err := tr.SubmitOrder(context.Background(), sim.OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: sim.Limit, Price: 9.50, Volume: 100,
	})
	require.NoError(t, err)
	assert.Nil(t, trade)
	require.Len(t, tr.Status().PendingOrders, 1)

	require.NoError(t, tr.Run(context.Background(), feed.NewSliceTickFeed(ticks("600519", 9.40))))

	st := tr.Status()
	assert.Empty(t, st.PendingOrders)
	assert.Equal(t, 1, st.TradeCount)
}

func TestStopLossClosesOnTick(t *testing.T) {
	t.Parallel()

	tr := testTrader(100000, risk.Limits{StopLossRatio: 0.10})
	require.NoError(t, tr.Run(context.Background(), feed.NewSliceTickFeed(ticks("600519", 10.00))))

	_, _, err := tr.SubmitOrder(context.Background(), sim.OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: sim.Market, Volume: 100,
	})
	require.NoError(t, err)

	require.NoError(t, tr.Run(context.Background(), feed.NewSliceTickFeed(ticks("600519", 8.50))))

	st := tr.Status()
	assert.Empty(t, st.Snapshot.Positions)
	assert.Equal(t, 2, st.TradeCount)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := testTrader(100000, risk.Limits{})
	err := tr.Run(ctx, feed.NewSliceTickFeed(ticks("600519", 10.00)))
	assert.ErrorIs(t, err, context.Canceled)
}
