package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/quantlab/papertrade/market"
)

// csvLayouts are tried in order when parsing the date column.
var csvLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// CSVFeed streams bars from a daily-bar file with a header row of
// date,open,high,low,close,volume. All rows belong to one symbol.
type CSVFeed struct {
	symbol string
	f      *os.File
	r      *csv.Reader
	line   int
}

// OpenCSV opens path for symbol and consumes the header. A missing file
// reports ErrDataUnavailable so failover can move on.
func OpenCSV(symbol, path string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, path)
		}
		return nil, err
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, path, err)
	}
	return &CSVFeed{symbol: symbol, f: f, r: r, line: 1}, nil
}

func (c *CSVFeed) Next() (market.Bar, bool, error) {
	rec, err := c.r.Read()
	if err == io.EOF {
		return market.Bar{}, false, nil
	}
	if err != nil {
		return market.Bar{}, false, err
	}
	c.line++
	if len(rec) < 6 {
		return market.Bar{}, false, fmt.Errorf("csv line %d: want 6 fields, got %d", c.line, len(rec))
	}

	t, err := parseDate(rec[0])
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("csv line %d: %w", c.line, err)
	}
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("csv line %d: %w", c.line, err)
		}
		vals[i] = v
	}
	vol, err := strconv.ParseInt(rec[5], 10, 64)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("csv line %d: %w", c.line, err)
	}

	return market.Bar{
		Symbol: c.symbol,
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vol,
	}, true, nil
}

func (c *CSVFeed) Close() error { return c.f.Close() }

func parseDate(s string) (time.Time, error) {
	for _, layout := range csvLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
