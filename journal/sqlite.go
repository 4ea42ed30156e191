package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(position_id, ticker, side, quantity, entry_price, exit_price, opened_at, closed_at, realized_pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.PositionID, t.Ticker, t.Side, t.Quantity,
		t.EntryPrice, t.ExitPrice, t.OpenedAt, t.ClosedAt,
		t.RealizedPnL, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordSnapshot(s SnapshotRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO snapshots
		(time, portfolio_value, cash, position_value, open_positions, total_pnl, realized_pnl, unrealized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Time, s.PortfolioValue, s.Cash, s.PositionValue,
		s.OpenPositions, s.TotalPnL, s.RealizedPnL, s.UnrealizedPnL,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
