package sim

import (
	"math"

	"github.com/quantlab/papertrade/market"
)

// CostModel is the flat slippage/commission/stamp-tax execution model. Rates
// are fractions (0.0003 = 3 bps). Stamp tax applies to sells only.
type CostModel struct {
	SlippageRate   float64
	CommissionRate float64
	MinCommission  float64
	StampTaxRate   float64
}

// DefaultCosts mirrors common A-share retail rates.
func DefaultCosts() CostModel {
	return CostModel{
		SlippageRate:   0.0001,
		CommissionRate: 0.00025,
		MinCommission:  5.0,
		StampTaxRate:   0.001,
	}
}

func roundCent(v float64) float64 { return math.Round(v*100) / 100 }

// ExecutionPrice applies adverse slippage to the quote and rounds to cents:
// buys pay up, sells receive less.
func (c CostModel) ExecutionPrice(side market.Side, quote float64) float64 {
	if side == market.Buy {
		return roundCent(quote * (1 + c.SlippageRate))
	}
	return roundCent(quote * (1 - c.SlippageRate))
}

// Commission is notional x rate with the configured floor.
func (c CostModel) Commission(notional float64) float64 {
	return roundCent(math.Max(notional*c.CommissionRate, c.MinCommission))
}

// StampTax is notional x rate for sells, zero for buys.
func (c CostModel) StampTax(side market.Side, notional float64) float64 {
	if side != market.Sell {
		return 0
	}
	return roundCent(notional * c.StampTaxRate)
}
