package journal

// Schema is stable across versions; downstream analysis tooling reads these
// tables directly.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id TEXT PRIMARY KEY,
	initial_capital REAL NOT NULL,
	available_cash REAL NOT NULL,
	frozen_cash REAL NOT NULL DEFAULT 0.0,
	total_assets REAL NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'paused', 'closed'))
);

CREATE TABLE IF NOT EXISTS positions (
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	volume INTEGER NOT NULL,
	avg_cost REAL NOT NULL,
	current_price REAL NOT NULL,
	unrealized_pnl REAL NOT NULL,
	UNIQUE(account_id, symbol),
	FOREIGN KEY (account_id) REFERENCES accounts(account_id)
);

CREATE TABLE IF NOT EXISTS orders (
	order_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL CHECK(side IN ('BUY', 'SELL')),
	type TEXT NOT NULL CHECK(type IN ('MARKET', 'LIMIT')),
	price REAL,
	volume INTEGER NOT NULL,
	filled_volume INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('PENDING', 'PARTIAL', 'FILLED', 'CANCELLED', 'REJECTED')),
	reject_reason TEXT,
	submit_time DATETIME NOT NULL,
	filled_time DATETIME,
	FOREIGN KEY (account_id) REFERENCES accounts(account_id)
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL CHECK(side IN ('BUY', 'SELL')),
	price REAL NOT NULL,
	volume INTEGER NOT NULL,
	commission REAL NOT NULL,
	realized_pnl REAL NOT NULL DEFAULT 0.0,
	trade_time DATETIME NOT NULL,
	FOREIGN KEY (order_id) REFERENCES orders(order_id),
	FOREIGN KEY (account_id) REFERENCES accounts(account_id)
);

CREATE TABLE IF NOT EXISTS equity_curve (
	account_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	total_assets REAL NOT NULL,
	cash REAL NOT NULL,
	market_value REAL NOT NULL,
	drawdown REAL NOT NULL DEFAULT 0.0,
	position_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(account_id, timestamp),
	FOREIGN KEY (account_id) REFERENCES accounts(account_id)
);

CREATE INDEX IF NOT EXISTS idx_orders_account ON orders(account_id, submit_time);
CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id, trade_time);
CREATE INDEX IF NOT EXISTS idx_equity_account ON equity_curve(account_id, timestamp);
`
