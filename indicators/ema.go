// Package indicators holds streaming indicator state machines fed one bar
// close at a time.
package indicators

import "fmt"

// EMA computes an exponential moving average over closes. It is not ready
// until it has seen a full period of observations.
type EMA struct {
	n     int
	alpha float64

	seen  int
	value float64
	ready bool
}

func NewEMA(period int) *EMA {
	if period <= 0 {
		panic(fmt.Sprintf("EMA period must be > 0, got %d", period))
	}
	return &EMA{n: period, alpha: 2.0 / float64(period+1)}
}

func (e *EMA) Warmup() int    { return e.n }
func (e *EMA) Ready() bool    { return e.ready }
func (e *EMA) Value() float64 { return e.value }

func (e *EMA) Reset() {
	e.seen = 0
	e.value = 0
	e.ready = false
}

// Update folds one close into the average. The first observation seeds the
// value directly.
func (e *EMA) Update(close float64) {
	e.seen++
	if e.seen == 1 {
		e.value = close
	} else {
		e.value = e.alpha*close + (1.0-e.alpha)*e.value
	}
	if e.seen >= e.n {
		e.ready = true
	}
}
