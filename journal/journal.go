// Package journal persists closed trades and portfolio snapshots for a
// simulation run. Backends: CSV files or SQLite.
package journal

import "time"

// TradeRecord is one closed position.
type TradeRecord struct {
	PositionID  string
	Ticker      string
	Side        string
	Quantity    int
	EntryPrice  int // cents
	ExitPrice   int // cents
	OpenedAt    time.Time
	ClosedAt    time.Time
	RealizedPnL int64 // cents
	Reason      string
}

// SnapshotRecord is one point of the portfolio equity series. Money in cents.
type SnapshotRecord struct {
	Time           time.Time
	PortfolioValue int64
	Cash           int64
	PositionValue  int64
	OpenPositions  int
	TotalPnL       int64
	RealizedPnL    int64
	UnrealizedPnL  int64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordSnapshot(SnapshotRecord) error
	Close() error
}

// Discard is a Journal that keeps nothing. Used when no journal is
// configured and by tests that do not care about persistence.
type Discard struct{}

func (Discard) RecordTrade(TradeRecord) error       { return nil }
func (Discard) RecordSnapshot(SnapshotRecord) error { return nil }
func (Discard) Close() error                        { return nil }
