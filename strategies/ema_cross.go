package strategies

import (
	"math"

	"github.com/quantlab/papertrade/indicators"
	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/sim"
)

// EMACross is the exponential twin of SMACross: enter on a fast/slow EMA
// golden cross when flat, flatten on the death cross. EMAs react faster
// than simple averages, so it trades more often on choppy series.
type EMACross struct {
	FastPeriod    int     // 10
	SlowPeriod    int     // 30
	PositionRatio float64 // 0.2
	LotSize       int64   // 100

	emas map[string]*emaPair
}

type emaPair struct {
	fast, slow *indicators.EMA
	prev       float64
	seen       bool
}

func NewEMACross(fast, slow int, positionRatio float64) *EMACross {
	if fast <= 0 {
		fast = 10
	}
	if slow <= fast {
		slow = fast * 3
	}
	if positionRatio <= 0 || positionRatio > 1 {
		positionRatio = 0.2
	}
	return &EMACross{
		FastPeriod:    fast,
		SlowPeriod:    slow,
		PositionRatio: positionRatio,
		LotSize:       100,
		emas:          make(map[string]*emaPair),
	}
}

func (e *EMACross) Name() string { return "ema_cross" }

func (e *EMACross) OnBar(bar market.Bar, snap ledger.Snapshot) []sim.OrderRequest {
	pair, ok := e.emas[bar.Symbol]
	if !ok {
		pair = &emaPair{
			fast: indicators.NewEMA(e.FastPeriod),
			slow: indicators.NewEMA(e.SlowPeriod),
		}
		e.emas[bar.Symbol] = pair
	}

	pair.fast.Update(bar.Close)
	pair.slow.Update(bar.Close)
	if !pair.slow.Ready() {
		return nil
	}

	diff := pair.fast.Value() - pair.slow.Value()
	prev, seen := pair.prev, pair.seen
	pair.prev, pair.seen = diff, true
	if !seen {
		return nil
	}

	pos, held := snap.Position(bar.Symbol)

	if prev <= 0 && diff > 0 && !held {
		vol := e.sizeFor(snap.TotalAssets, bar.Close)
		if vol <= 0 {
			return nil
		}
		return []sim.OrderRequest{{
			Symbol: bar.Symbol,
			Side:   market.Buy,
			Type:   sim.Market,
			Volume: vol,
			Reason: "ema golden cross",
		}}
	}

	if prev >= 0 && diff < 0 && held && pos.AvailableVolume > 0 {
		return []sim.OrderRequest{{
			Symbol: bar.Symbol,
			Side:   market.Sell,
			Type:   sim.Market,
			Volume: pos.AvailableVolume,
			Reason: "ema death cross",
		}}
	}

	return nil
}

func (e *EMACross) sizeFor(totalAssets, price float64) int64 {
	if price <= 0 || totalAssets <= 0 {
		return 0
	}
	shares := int64(math.Floor(totalAssets * e.PositionRatio / price))
	lot := e.LotSize
	if lot <= 0 {
		lot = 1
	}
	return shares / lot * lot
}
