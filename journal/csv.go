package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV journals trades and equity snapshots to two flat files. Account,
// position and order state is not representable in this format and is
// silently skipped; use SQLite when the full schema matters.
type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

// NewCSV creates (truncating) both output files and writes headers.
func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{"trade_id", "order_id", "account_id", "symbol", "side", "price", "volume", "commission", "realized_pnl", "trade_time"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"account_id", "timestamp", "total_assets", "cash", "market_value", "drawdown", "position_count"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSV{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func f(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func i(v int64) string   { return strconv.FormatInt(v, 10) }

func (j *CSV) RecordAccount(AccountRecord) error   { return nil }
func (j *CSV) RecordPosition(PositionRecord) error { return nil }
func (j *CSV) RecordOrder(OrderRecord) error       { return nil }

func (j *CSV) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.OrderID,
		t.AccountID,
		t.Symbol,
		t.Side,
		f(t.Price),
		i(t.Volume),
		f(t.Commission),
		f(t.RealizedPnL),
		t.TradeTime.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquityRecord) error {
	err := j.equity.Write([]string{
		e.AccountID,
		e.Time.Format(time.RFC3339),
		f(e.TotalAssets),
		f(e.Cash),
		f(e.MarketValue),
		f(e.Drawdown),
		i(int64(e.PositionCount)),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	err1 := j.tf.Close()
	err2 := j.ef.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
