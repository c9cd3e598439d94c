package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists the event log to a single database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordAccount(a AccountRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO accounts
		(account_id, initial_capital, available_cash, frozen_cash, total_assets, created_at, updated_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			available_cash = excluded.available_cash,
			frozen_cash = excluded.frozen_cash,
			total_assets = excluded.total_assets,
			updated_at = excluded.updated_at,
			status = excluded.status`,
		a.AccountID, a.InitialCapital, a.AvailableCash, a.FrozenCash,
		a.TotalAssets, a.CreatedAt, a.UpdatedAt, a.Status,
	)
	return err
}

func (j *SQLite) RecordPosition(p PositionRecord) error {
	if p.Volume == 0 {
		// A closed position leaves no row.
		_, err := j.db.Exec(`DELETE FROM positions WHERE account_id = ? AND symbol = ?`,
			p.AccountID, p.Symbol)
		return err
	}
	_, err := j.db.Exec(`
		INSERT INTO positions
		(account_id, symbol, volume, avg_cost, current_price, unrealized_pnl)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, symbol) DO UPDATE SET
			volume = excluded.volume,
			avg_cost = excluded.avg_cost,
			current_price = excluded.current_price,
			unrealized_pnl = excluded.unrealized_pnl`,
		p.AccountID, p.Symbol, p.Volume, p.AvgCost, p.CurrentPrice, p.UnrealizedPnL,
	)
	return err
}

func (j *SQLite) RecordOrder(o OrderRecord) error {
	var filled interface{}
	if !o.FilledTime.IsZero() {
		filled = o.FilledTime
	}
	_, err := j.db.Exec(`
		INSERT INTO orders
		(order_id, account_id, symbol, side, type, price, volume, filled_volume, status, reject_reason, submit_time, filled_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET
			filled_volume = excluded.filled_volume,
			status = excluded.status,
			reject_reason = excluded.reject_reason,
			filled_time = excluded.filled_time`,
		o.OrderID, o.AccountID, o.Symbol, o.Side, o.Type, o.Price,
		o.Volume, o.FilledVolume, o.Status, o.RejectReason, o.SubmitTime, filled,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, order_id, account_id, symbol, side, price, volume, commission, realized_pnl, trade_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.OrderID, t.AccountID, t.Symbol, t.Side,
		t.Price, t.Volume, t.Commission, t.RealizedPnL, t.TradeTime,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity_curve
		(account_id, timestamp, total_assets, cash, market_value, drawdown, position_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, timestamp) DO UPDATE SET
			total_assets = excluded.total_assets,
			cash = excluded.cash,
			market_value = excluded.market_value,
			drawdown = excluded.drawdown,
			position_count = excluded.position_count`,
		e.AccountID, e.Time, e.TotalAssets, e.Cash, e.MarketValue,
		e.Drawdown, e.PositionCount,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
