package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	entry_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	position_size REAL NOT NULL,
	pnl_usdt REAL NOT NULL,
	pnl_percent REAL NOT NULL,
	fees_total REAL NOT NULL,
	slippage_total REAL NOT NULL,
	duration_bars INTEGER NOT NULL,
	pump_percent REAL NOT NULL,
	mfe REAL NOT NULL,
	mae REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	idx INTEGER NOT NULL,
	equity REAL NOT NULL,
	cash REAL NOT NULL,
	open_positions_value REAL NOT NULL,
	open_positions_count INTEGER NOT NULL,
	drawdown REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started DATETIME NOT NULL,
	finished DATETIME NOT NULL,
	initial_capital REAL NOT NULL,
	final_capital REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	max_drawdown REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
