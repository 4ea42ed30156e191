package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	position_id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	entry_price INTEGER NOT NULL,
	exit_price INTEGER NOT NULL,
	opened_at DATETIME NOT NULL,
	closed_at DATETIME NOT NULL,
	realized_pnl INTEGER NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	time DATETIME NOT NULL,
	portfolio_value INTEGER NOT NULL,
	cash INTEGER NOT NULL,
	position_value INTEGER NOT NULL,
	open_positions INTEGER NOT NULL,
	total_pnl INTEGER NOT NULL,
	realized_pnl INTEGER NOT NULL,
	unrealized_pnl INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades(closed_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_time ON snapshots(time);
`
