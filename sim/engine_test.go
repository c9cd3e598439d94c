package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
)

var testCosts = CostModel{
	SlippageRate:   0, // exact prices keep the arithmetic checkable
	CommissionRate: 0.0003,
	MinCommission:  5.00,
	StampTaxRate:   0.001,
}

func newTestExchange(t *testing.T, capital float64) *Exchange {
	t.Helper()
	return NewExchange(ledger.New("TEST-1", capital), testCosts, nil)
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 15, 0, 0, 0, time.UTC)
}

func feedBar(t *testing.T, ex *Exchange, symbol string, close float64, d int) {
	t.Helper()
	require.NoError(t, ex.OnBar(market.Bar{
		Symbol: symbol,
		Time:   day(d),
		Open:   close, High: close, Low: close, Close: close,
		Volume: 1000000,
	}))
}

func TestMarketBuyFill(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)

	o, trade, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
	})
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, StatusFilled, o.Status)
	assert.InDelta(t, 10.00, trade.Price, 1e-9)
	assert.InDelta(t, 5.00, trade.Commission, 1e-9)
	assert.InDelta(t, 0, trade.StampTax, 1e-9)

	snap := ex.Snapshot()
	assert.InDelta(t, 98995.00, snap.AvailableCash, 1e-9)
	assert.InDelta(t, 0, snap.FrozenCash, 1e-9)
	assert.InDelta(t, 99995.00, snap.TotalAssets, 1e-9)
}

func TestMarkToMarketRaisesEquity(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)
	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
	})
	require.NoError(t, err)

	feedBar(t, ex, "600519", 12.00, 2)

	snap := ex.Snapshot()
	assert.InDelta(t, 100195.00, snap.TotalAssets, 1e-9)
	assert.InDelta(t, 98995.00, snap.AvailableCash, 1e-9, "marks never move cash")
}

func TestSellRealizedPnL(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)
	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
	})
	require.NoError(t, err)

	feedBar(t, ex, "600519", 12.00, 2)
	_, trade, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Sell, Type: Market, Volume: 100,
	})
	require.NoError(t, err)
	require.NotNil(t, trade)

	// (12 - 10) * 100 gross, minus 5 commission and 1.20 stamp tax.
	assert.InDelta(t, 5.00, trade.Commission, 1e-9)
	assert.InDelta(t, 1.20, trade.StampTax, 1e-9)
	assert.InDelta(t, 193.80, trade.RealizedPnL, 1e-9)

	snap := ex.Snapshot()
	assert.InDelta(t, 100188.80, snap.AvailableCash, 1e-9)
	assert.Empty(t, snap.Positions)
}

func TestZeroFeeRoundTripIsFlat(t *testing.T) {
	t.Parallel()

	ex := NewExchange(ledger.New("TEST-1", 50000), CostModel{}, nil)
	feedBar(t, ex, "000001", 25.00, 1)

	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "000001", Side: market.Buy, Type: Market, Volume: 200,
	})
	require.NoError(t, err)

	_, trade, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "000001", Side: market.Sell, Type: Market, Volume: 200,
	})
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.InDelta(t, 0, trade.RealizedPnL, 1e-9)
	assert.InDelta(t, 50000, ex.Snapshot().TotalAssets, 1e-9)
}

func TestRejectInsufficientFunds(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 500)
	feedBar(t, ex, "600519", 10.00, 1)

	o, trade, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
	})
	require.Error(t, err)
	assert.Nil(t, trade)

	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectInsufficientFunds, rej.Code)
	assert.Equal(t, StatusRejected, o.Status)

	snap := ex.Snapshot()
	assert.InDelta(t, 500, snap.AvailableCash, 1e-9)
	assert.InDelta(t, 0, snap.FrozenCash, 1e-9)
	assert.NoError(t, ex.CheckInvariant())
}

func TestRejectInsufficientPosition(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)

	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Sell, Type: Market, Volume: 100,
	})
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectInsufficientPosition, rej.Code)
}

func TestRejectNoQuote(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)

	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
	})
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectNoQuote, rej.Code)
}

func TestRejectValidation(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)

	for name, req := range map[string]OrderRequest{
		"zero volume":    {Symbol: "600519", Side: market.Buy, Type: Market, Volume: 0},
		"no symbol":      {Side: market.Buy, Type: Market, Volume: 100},
		"bad side":       {Symbol: "600519", Type: Market, Volume: 100},
		"limit no price": {Symbol: "600519", Side: market.Buy, Type: Limit, Volume: 100},
	} {
		_, _, err := ex.Submit(context.Background(), req)
		var rej *Rejection
		require.ErrorAs(t, err, &rej, name)
		assert.Equal(t, RejectValidation, rej.Code, name)
	}
}

func TestLimitBuyRestsThenFills(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)

	o, trade, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Limit, Price: 9.50, Volume: 100,
	})
	require.NoError(t, err)
	assert.Nil(t, trade, "quote above limit must not fill")
	assert.Equal(t, StatusPending, o.Status)
	assert.Greater(t, ex.Snapshot().FrozenCash, 0.0)

	// Quote falls through the limit; the fill price is the limit price.
	feedBar(t, ex, "600519", 9.40, 2)

	got, ok := ex.Order(o.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFilled, got.Status)

	trades := ex.Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, 9.50, trades[0].Price, 1e-9)

	snap := ex.Snapshot()
	// 100000 - 950 - 5 commission
	assert.InDelta(t, 99045.00, snap.AvailableCash, 1e-9)
	assert.InDelta(t, 0, snap.FrozenCash, 1e-9)
}

func TestLimitSellFillsWhenCrossed(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)
	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
	})
	require.NoError(t, err)

	o, trade, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Sell, Type: Limit, Price: 11.00, Volume: 100,
	})
	require.NoError(t, err)
	assert.Nil(t, trade)

	p, _ := ex.Snapshot().Position("600519")
	assert.Equal(t, int64(0), p.AvailableVolume, "resting sell keeps volume frozen")

	feedBar(t, ex, "600519", 11.50, 2)

	got, _ := ex.Order(o.ID)
	assert.Equal(t, StatusFilled, got.Status)
	trades := ex.Trades()
	require.Len(t, trades, 2)
	assert.InDelta(t, 11.00, trades[1].Price, 1e-9)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)

	o, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Limit, Price: 9.00, Volume: 100,
	})
	require.NoError(t, err)
	require.Greater(t, ex.Snapshot().FrozenCash, 0.0)

	require.NoError(t, ex.Cancel(o.ID))

	snap := ex.Snapshot()
	assert.InDelta(t, 0, snap.FrozenCash, 1e-9)
	assert.InDelta(t, 100000, snap.AvailableCash, 1e-9)

	got, _ := ex.Order(o.ID)
	assert.Equal(t, StatusCancelled, got.Status)

	assert.ErrorIs(t, ex.Cancel(o.ID), ErrNotCancellable)
	assert.ErrorIs(t, ex.Cancel("nope"), ErrUnknownOrder)
}

func TestCancelSellRefundsVolume(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)
	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
	})
	require.NoError(t, err)

	o, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Sell, Type: Limit, Price: 15.00, Volume: 100,
	})
	require.NoError(t, err)

	require.NoError(t, ex.Cancel(o.ID))
	p, _ := ex.Snapshot().Position("600519")
	assert.Equal(t, int64(100), p.AvailableVolume)
}

func TestFillsAreAllOrNothing(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)

	for i := 0; i < 5; i++ {
		_, _, err := ex.Submit(context.Background(), OrderRequest{
			Symbol: "600519", Side: market.Buy, Type: Market, Volume: 100,
		})
		require.NoError(t, err)
	}

	for _, tr := range ex.Trades() {
		assert.Equal(t, int64(100), tr.Volume)
	}
	assert.Empty(t, ex.PendingOrders())
}

func TestPendingOrders(t *testing.T) {
	t.Parallel()

	ex := newTestExchange(t, 100000)
	feedBar(t, ex, "600519", 10.00, 1)

	_, _, err := ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Limit, Price: 9.00, Volume: 100,
	})
	require.NoError(t, err)
	_, _, err = ex.Submit(context.Background(), OrderRequest{
		Symbol: "600519", Side: market.Buy, Type: Limit, Price: 8.00, Volume: 100,
	})
	require.NoError(t, err)

	assert.Len(t, ex.PendingOrders(), 2)
}
