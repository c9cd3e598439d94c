package journal

import (
	"database/sql"
	"fmt"
)

// Account returns the stored account row.
func (j *SQLite) Account(accountID string) (AccountRecord, error) {
	var rec AccountRecord
	row := j.db.QueryRow(`
		SELECT account_id, initial_capital, available_cash, frozen_cash, total_assets, created_at, updated_at, status
		FROM accounts
		WHERE account_id = ?`, accountID)

	err := row.Scan(
		&rec.AccountID,
		&rec.InitialCapital,
		&rec.AvailableCash,
		&rec.FrozenCash,
		&rec.TotalAssets,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return AccountRecord{}, fmt.Errorf("account %q not found", accountID)
		}
		return AccountRecord{}, err
	}
	return rec, nil
}

// EquityCurve returns the account's equity snapshots in time order.
func (j *SQLite) EquityCurve(accountID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT account_id, timestamp, total_assets, cash, market_value, drawdown, position_count
		FROM equity_curve
		WHERE account_id = ?
		ORDER BY timestamp ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(
			&rec.AccountID,
			&rec.Time,
			&rec.TotalAssets,
			&rec.Cash,
			&rec.MarketValue,
			&rec.Drawdown,
			&rec.PositionCount,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Trades returns the account's fills in time order.
func (j *SQLite) Trades(accountID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, order_id, account_id, symbol, side, price, volume, commission, realized_pnl, trade_time
		FROM trades
		WHERE account_id = ?
		ORDER BY trade_time ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.OrderID,
			&rec.AccountID,
			&rec.Symbol,
			&rec.Side,
			&rec.Price,
			&rec.Volume,
			&rec.Commission,
			&rec.RealizedPnL,
			&rec.TradeTime,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Orders returns the account's orders in submit order.
func (j *SQLite) Orders(accountID string) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, account_id, symbol, side, type, price, volume, filled_volume, status, COALESCE(reject_reason, ''), submit_time, filled_time
		FROM orders
		WHERE account_id = ?
		ORDER BY submit_time ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var (
			rec    OrderRecord
			filled sql.NullTime
		)
		if err := rows.Scan(
			&rec.OrderID,
			&rec.AccountID,
			&rec.Symbol,
			&rec.Side,
			&rec.Type,
			&rec.Price,
			&rec.Volume,
			&rec.FilledVolume,
			&rec.Status,
			&rec.RejectReason,
			&rec.SubmitTime,
			&filled,
		); err != nil {
			return nil, err
		}
		if filled.Valid {
			rec.FilledTime = filled.Time
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
