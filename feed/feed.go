// Package feed supplies market data to the replay and paper loops. Feeds
// are pull-based iterators so a backtest consumes them deterministically.
package feed

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quantlab/papertrade/market"
)

// ErrDataUnavailable marks a source that could not be opened or has gone
// bad mid-stream. Open uses it to decide whether to fail over.
var ErrDataUnavailable = errors.New("feed: data unavailable")

// BarFeed yields bars in ascending time order. ok=false means exhausted.
type BarFeed interface {
	Next() (bar market.Bar, ok bool, err error)
	Close() error
}

// TickFeed is the real-time twin of BarFeed.
type TickFeed interface {
	Next() (tick market.Tick, ok bool, err error)
	Close() error
}

// Opener constructs one candidate source. Openers are tried in order.
type Opener func() (BarFeed, error)

// Open returns the first source that opens, skipping candidates that
// report ErrDataUnavailable. Any other error aborts immediately.
func Open(log *zap.Logger, openers ...Opener) (BarFeed, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var lastErr error
	for i, open := range openers {
		f, err := open()
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
		log.Warn("data source unavailable, trying next",
			zap.Int("source", i), zap.Error(err))
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrDataUnavailable
	}
	return nil, fmt.Errorf("all %d data sources failed: %w", len(openers), lastErr)
}
