// Package strategies holds the trading logic plugged into the replay and
// paper loops. A strategy sees one bar at a time plus the current account
// snapshot and emits order intents; the risk layer decides what actually
// gets submitted.
package strategies

import (
	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/sim"
)

type Strategy interface {
	Name() string
	// OnBar is called once per bar in time order. Returned requests are
	// submitted in slice order.
	OnBar(bar market.Bar, snap ledger.Snapshot) []sim.OrderRequest
}
