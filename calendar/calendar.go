// Package calendar provides the trading-calendar service injected into the
// replay loop and the risk manager. It is constructed once per process; there
// is no package-level calendar state.
package calendar

import "time"

const dateLayout = "2006-01-02"

// Calendar answers trading-day questions for a single market. The zero value
// is not usable; construct with New.
type Calendar struct {
	loc      *time.Location
	holidays map[string]struct{}
}

// New builds a calendar for the given location. Holidays are "2006-01-02"
// dates; malformed entries are ignored. A nil location defaults to UTC.
func New(loc *time.Location, holidays []string) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	h := make(map[string]struct{}, len(holidays))
	for _, d := range holidays {
		if _, err := time.ParseInLocation(dateLayout, d, loc); err == nil {
			h[d] = struct{}{}
		}
	}
	return &Calendar{loc: loc, holidays: h}
}

// IsTradingDay reports whether t falls on a weekday that is not a holiday.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	t = t.In(c.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[t.Format(dateLayout)]
	return !holiday
}

// SameDay reports whether a and b fall on the same calendar date.
func (c *Calendar) SameDay(a, b time.Time) bool {
	a, b = a.In(c.loc), b.In(c.loc)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NextTradingDay returns midnight of the first trading day after t.
func (c *Calendar) NextTradingDay(t time.Time) time.Time {
	t = t.In(c.loc)
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	for {
		d = d.AddDate(0, 0, 1)
		if c.IsTradingDay(d) {
			return d
		}
	}
}
