package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/sim"
)

func bar(symbol string, day int, close float64) market.Bar {
	return market.Bar{
		Symbol: symbol,
		Time:   time.Date(2024, 3, day, 15, 0, 0, 0, time.UTC),
		Close:  close,
	}
}

func flatSnap(cash float64) ledger.Snapshot {
	return ledger.Snapshot{AvailableCash: cash, TotalAssets: cash}
}

func heldSnap(symbol string, volume int64, price, cash float64) ledger.Snapshot {
	p := ledger.Position{
		Symbol: symbol, Volume: volume, AvailableVolume: volume,
		AvgCost: price, CurrentPrice: price,
	}
	return ledger.Snapshot{
		AvailableCash: cash,
		MarketValue:   p.MarketValue(),
		TotalAssets:   cash + p.MarketValue(),
		Positions:     []ledger.Position{p},
	}
}

func TestSMACrossWarmup(t *testing.T) {
	t.Parallel()

	s := NewSMACross(2, 3, 0.2)

	// No signals until the slow window fills plus one diff observation.
	for i := 1; i <= 3; i++ {
		assert.Empty(t, s.OnBar(bar("600519", i, 10), flatSnap(100000)))
	}
}

func TestSMACrossGoldenCrossBuys(t *testing.T) {
	t.Parallel()

	s := NewSMACross(2, 3, 0.2)
	snap := flatSnap(100000)

	// Falling then sharply rising closes force fast above slow.
	closes := []float64{12, 11, 10, 10.5, 14}
	var got []sim.OrderRequest
	for i, c := range closes {
		got = s.OnBar(bar("600519", i+1, c), snap)
		if len(got) > 0 {
			break
		}
	}

	require.Len(t, got, 1)
	assert.Equal(t, market.Buy, got[0].Side)
	assert.Equal(t, sim.Market, got[0].Type)
	// 20% of 100k at the signal close, in whole hundreds.
	assert.Equal(t, int64(0), got[0].Volume%100)
	assert.Greater(t, got[0].Volume, int64(0))
}

func TestSMACrossDeathCrossSells(t *testing.T) {
	t.Parallel()

	s := NewSMACross(2, 3, 0.2)

	closes := []float64{10, 10.5, 14, 13, 9, 8}
	var got []sim.OrderRequest
	for i, c := range closes {
		// Pretend the account holds the symbol so the exit can fire.
		got = s.OnBar(bar("600519", i+1, c), heldSnap("600519", 1000, c, 50000))
		if len(got) > 0 && got[0].Side == market.Sell {
			break
		}
	}

	require.NotEmpty(t, got)
	assert.Equal(t, market.Sell, got[0].Side)
	assert.Equal(t, int64(1000), got[0].Volume)
}

func TestSMACrossIgnoresCrossWhenHolding(t *testing.T) {
	t.Parallel()

	s := NewSMACross(2, 3, 0.2)

	closes := []float64{12, 11, 10, 10.5, 14}
	var got []sim.OrderRequest
	for i, c := range closes {
		got = s.OnBar(bar("600519", i+1, c), heldSnap("600519", 100, c, 50000))
	}
	assert.Empty(t, got, "no pyramiding on repeat golden crosses")
}

func TestSMACrossSizing(t *testing.T) {
	t.Parallel()

	s := NewSMACross(2, 3, 0.2)

	assert.Equal(t, int64(2000), s.sizeFor(100000, 10))
	assert.Equal(t, int64(600), s.sizeFor(100000, 31)) // 645 floored to lot
	assert.Equal(t, int64(0), s.sizeFor(100000, 0))
	assert.Equal(t, int64(0), s.sizeFor(0, 10))
}

func TestNoop(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Noop{}.OnBar(market.Bar{}, ledger.Snapshot{}))
	assert.Equal(t, "noop", Noop{}.Name())
}
