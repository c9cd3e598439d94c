// Package risk gates orders against account limits and watches open
// positions for stop-loss, take-profit, and daily-loss triggers. It never
// touches the ledger; callers act on its decisions.
package risk

// Limits are the hard constraints applied before any order reaches the
// simulator. Ratios are fractions of total assets.
type Limits struct {
	// Exposure limits
	MaxPositionRatio      float64 // 0.30: single-symbol market value cap
	MaxTotalPositionRatio float64 // 0.95: aggregate market value cap
	MaxSingleOrderValue   float64 // 0 disables; notional cap per order

	// Trade constraints
	MaxDailyTrades int // 0 disables

	// Position triggers
	StopLossRatio   float64 // 0.10: close when loss ratio reaches this
	TakeProfitRatio float64 // 0 disables

	// Circuit breaker
	MaxDailyLossRatio float64 // 0.05: halt new orders for the day
}

// DefaultLimits mirror a conservative retail account profile.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionRatio:      0.30,
		MaxTotalPositionRatio: 0.95,
		MaxSingleOrderValue:   0,
		MaxDailyTrades:        0,
		StopLossRatio:         0.10,
		TakeProfitRatio:       0,
		MaxDailyLossRatio:     0.05,
	}
}
