package feed

import "github.com/quantlab/papertrade/market"

// MergedFeed interleaves several bar feeds into one time-ordered stream so
// a multi-symbol backtest sees the market in playback order. Input feeds
// must each be time-ordered; ties keep source order.
type MergedFeed struct {
	feeds []BarFeed
	heads []*market.Bar
}

func Merge(feeds ...BarFeed) *MergedFeed {
	return &MergedFeed{feeds: feeds, heads: make([]*market.Bar, len(feeds))}
}

func (m *MergedFeed) Next() (market.Bar, bool, error) {
	best := -1
	for i, f := range m.feeds {
		if m.heads[i] == nil && f != nil {
			b, ok, err := f.Next()
			if err != nil {
				return market.Bar{}, false, err
			}
			if !ok {
				m.feeds[i] = nil
				continue
			}
			m.heads[i] = &b
		}
		if m.heads[i] == nil {
			continue
		}
		if best < 0 || m.heads[i].Time.Before(m.heads[best].Time) {
			best = i
		}
	}
	if best < 0 {
		return market.Bar{}, false, nil
	}
	b := *m.heads[best]
	m.heads[best] = nil
	return b, true, nil
}

func (m *MergedFeed) Close() error {
	var first error
	for _, f := range m.feeds {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
