package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single closed trade by position id.
func (j *SQLiteJournal) GetTrade(positionID string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT position_id, ticker, side, quantity, entry_price, exit_price, opened_at, closed_at, realized_pnl, reason
		FROM trades
		WHERE position_id = ?`, positionID)

	err := row.Scan(
		&rec.PositionID, &rec.Ticker, &rec.Side, &rec.Quantity,
		&rec.EntryPrice, &rec.ExitPrice, &rec.OpenedAt, &rec.ClosedAt,
		&rec.RealizedPnL, &rec.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", positionID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades with closed_at in [start, end),
// oldest first.
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT position_id, ticker, side, quantity, entry_price, exit_price, opened_at, closed_at, realized_pnl, reason
		FROM trades
		WHERE closed_at >= ? AND closed_at < ?
		ORDER BY closed_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.PositionID, &rec.Ticker, &rec.Side, &rec.Quantity,
			&rec.EntryPrice, &rec.ExitPrice, &rec.OpenedAt, &rec.ClosedAt,
			&rec.RealizedPnL, &rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListSnapshotsBetween returns the equity series for [start, end), in time
// order.
func (j *SQLiteJournal) ListSnapshotsBetween(start, end time.Time) ([]SnapshotRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, portfolio_value, cash, position_value, open_positions, total_pnl, realized_pnl, unrealized_pnl
		FROM snapshots
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		if err := rows.Scan(
			&rec.Time, &rec.PortfolioValue, &rec.Cash, &rec.PositionValue,
			&rec.OpenPositions, &rec.TotalPnL, &rec.RealizedPnL, &rec.UnrealizedPnL,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
