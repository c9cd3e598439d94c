// Package market holds the value types shared across the engine: bars, ticks
// and the order side enum.
package market

import "time"

// Bar is one OHLCV observation for a symbol. Feeds must deliver bars with
// non-decreasing timestamps per symbol; gaps are opaque to the engine.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Tick is a single quote observation used by the real-time loop.
type Tick struct {
	Symbol string
	Time   time.Time
	Last   float64
	Bid    float64
	Ask    float64
	Volume int64
}

// Side is the direction of an order or fill.
type Side int8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return "UNKNOWN"
}

// Valid reports whether s is one of the two defined sides.
func (s Side) Valid() bool { return s == Buy || s == Sell }
