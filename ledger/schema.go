// ledger/schema.go
package ledger

// Schema creates the five ledger tables. The partial unique index on
// positions is the single enforcement point for the one-OPEN-row-per-symbol
// invariant: concurrent OPEN calls race to it and the store rejects the loser.
const Schema = `
CREATE TABLE IF NOT EXISTS portfolio (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	cash REAL NOT NULL,
	starting_capital REAL NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	token TEXT NOT NULL DEFAULT '',
	exchange TEXT NOT NULL DEFAULT 'NSE',
	quantity INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	trade_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'CLOSED')),
	exit_price REAL,
	exit_time DATETIME,
	pnl REAL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_open
	ON positions(symbol) WHERE status = 'OPEN';
CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);

CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trade_id TEXT UNIQUE NOT NULL,
	symbol TEXT NOT NULL,
	token TEXT NOT NULL DEFAULT '',
	transaction_type TEXT NOT NULL CHECK (transaction_type IN ('BUY', 'SELL')),
	quantity INTEGER NOT NULL,
	price REAL NOT NULL,
	order_id TEXT NOT NULL DEFAULT '',
	timestamp DATETIME NOT NULL,
	technical_score REAL NOT NULL DEFAULT 0,
	sentiment_score REAL NOT NULL DEFAULT 0,
	sentiment_label TEXT NOT NULL DEFAULT '',
	confidence TEXT NOT NULL DEFAULT 'LOW' CHECK (confidence IN ('HIGH', 'MODERATE', 'LOW')),
	reasoning TEXT NOT NULL DEFAULT '',
	indicators_json TEXT NOT NULL DEFAULT '',
	stop_loss REAL NOT NULL DEFAULT 0,
	position_value REAL NOT NULL DEFAULT 0,
	risk_amount REAL NOT NULL DEFAULT 0,
	capital_at_trade REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);

CREATE TABLE IF NOT EXISTS daily_pnl (
	date TEXT PRIMARY KEY,
	realized_pnl REAL NOT NULL DEFAULT 0,
	unrealized_pnl REAL NOT NULL DEFAULT 0,
	trades_count INTEGER NOT NULL DEFAULT 0,
	wins INTEGER NOT NULL DEFAULT 0,
	losses INTEGER NOT NULL DEFAULT 0,
	circuit_breaker_hit INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS analysis_cache (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	analysis_type TEXT NOT NULL CHECK (analysis_type IN ('TECHNICAL', 'SENTIMENT', 'COMBINED')),
	score REAL NOT NULL DEFAULT 0,
	label TEXT NOT NULL DEFAULT '',
	details_json TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_symbol ON analysis_cache(symbol, analysis_type);
`
