package sim

import (
	"time"

	"github.com/quantlab/papertrade/market"
)

// Trade is an immutable fill record. RealizedPnL is net of commission and
// stamp tax and is non-zero only for closing (sell) fills.
type Trade struct {
	ID          string
	OrderID     string
	Symbol      string
	Side        market.Side
	Price       float64
	Volume      int64
	Commission  float64
	StampTax    float64
	RealizedPnL float64
	Reason      string
	Time        time.Time
}
