package paper

import "github.com/prometheus/client_golang/prometheus"

var (
	metricTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "papertrade_ticks_total", Help: "Ticks consumed from the quote feed"})
	metricOrdersSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "papertrade_orders_submitted_total", Help: "Orders accepted by the simulator"})
	metricOrdersRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "papertrade_orders_rejected_total", Help: "Orders rejected by risk checks or the simulator"})
	metricTrades = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "papertrade_trades_total", Help: "Fills executed"})
	metricEquity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_equity", Help: "Current total assets"})
	metricPositions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_open_positions", Help: "Open position count"})
	metricHalted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_trading_halted", Help: "1 when the daily-loss breaker is tripped"})
)

func init() {
	prometheus.MustRegister(
		metricTicks,
		metricOrdersSubmitted,
		metricOrdersRejected,
		metricTrades,
		metricEquity,
		metricPositions,
		metricHalted,
	)
}
