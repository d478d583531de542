package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	position_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	strategy TEXT NOT NULL,
	amount REAL NOT NULL,
	leverage INTEGER NOT NULL,
	open_price REAL NOT NULL,
	close_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	profit_amount REAL NOT NULL,
	profit_percent REAL NOT NULL,
	fees REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	margin_used REAL NOT NULL,
	margin_available REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	open_positions INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
