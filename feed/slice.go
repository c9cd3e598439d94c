package feed

import "github.com/quantlab/papertrade/market"

// SliceFeed replays an in-memory bar series. Used by tests and by callers
// that already hold their data.
type SliceFeed struct {
	bars []market.Bar
	pos  int
}

func NewSliceFeed(bars []market.Bar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

func (f *SliceFeed) Next() (market.Bar, bool, error) {
	if f.pos >= len(f.bars) {
		return market.Bar{}, false, nil
	}
	b := f.bars[f.pos]
	f.pos++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// SliceTickFeed replays an in-memory tick series.
type SliceTickFeed struct {
	ticks []market.Tick
	pos   int
}

func NewSliceTickFeed(ticks []market.Tick) *SliceTickFeed {
	return &SliceTickFeed{ticks: ticks}
}

func (f *SliceTickFeed) Next() (market.Tick, bool, error) {
	if f.pos >= len(f.ticks) {
		return market.Tick{}, false, nil
	}
	t := f.ticks[f.pos]
	f.pos++
	return t, true, nil
}

func (f *SliceTickFeed) Close() error { return nil }
