package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantlab/papertrade/market"
)

func TestExecutionPrice(t *testing.T) {
	t.Parallel()

	c := CostModel{SlippageRate: 0.001}

	assert.InDelta(t, 10.01, c.ExecutionPrice(market.Buy, 10.00), 1e-9)
	assert.InDelta(t, 9.99, c.ExecutionPrice(market.Sell, 10.00), 1e-9)

	// Zero slippage passes the quote through.
	zero := CostModel{}
	assert.InDelta(t, 10.00, zero.ExecutionPrice(market.Buy, 10.00), 1e-9)
}

func TestCommissionFloor(t *testing.T) {
	t.Parallel()

	c := CostModel{CommissionRate: 0.0003, MinCommission: 5.0}

	// Small notional hits the minimum.
	assert.InDelta(t, 5.00, c.Commission(1000), 1e-9)
	// Large notional pays the rate.
	assert.InDelta(t, 30.00, c.Commission(100000), 1e-9)
}

func TestStampTaxSellOnly(t *testing.T) {
	t.Parallel()

	c := CostModel{StampTaxRate: 0.001}

	assert.InDelta(t, 0, c.StampTax(market.Buy, 10000), 1e-9)
	assert.InDelta(t, 10.00, c.StampTax(market.Sell, 10000), 1e-9)
}
