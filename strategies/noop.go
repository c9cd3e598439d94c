package strategies

import (
	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/sim"
)

// Noop never trades. Useful for replaying data to build an equity baseline
// and for wiring tests.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) OnBar(market.Bar, ledger.Snapshot) []sim.OrderRequest { return nil }
