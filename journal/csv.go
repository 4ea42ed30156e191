package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes trades and snapshots to two flat files, flushing after
// every row so a killed run keeps its history.
type CSVJournal struct {
	trades *csv.Writer
	snaps  *csv.Writer
	tf, sf *os.File
}

func NewCSV(tradesPath, snapshotsPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(snapshotsPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)

	if err := tw.Write([]string{
		"position_id", "ticker", "side", "quantity",
		"entry_price", "exit_price", "opened_at", "closed_at",
		"realized_pnl", "reason",
	}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{
		"time", "portfolio_value", "cash", "position_value",
		"open_positions", "total_pnl", "realized_pnl", "unrealized_pnl",
	}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, snaps: sw, tf: tf, sf: sf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write([]string{
		t.PositionID,
		t.Ticker,
		t.Side,
		strconv.Itoa(t.Quantity),
		strconv.Itoa(t.EntryPrice),
		strconv.Itoa(t.ExitPrice),
		t.OpenedAt.Format(time.RFC3339),
		t.ClosedAt.Format(time.RFC3339),
		strconv.FormatInt(t.RealizedPnL, 10),
		t.Reason,
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordSnapshot(s SnapshotRecord) error {
	if err := j.snaps.Write([]string{
		s.Time.Format(time.RFC3339),
		strconv.FormatInt(s.PortfolioValue, 10),
		strconv.FormatInt(s.Cash, 10),
		strconv.FormatInt(s.PositionValue, 10),
		strconv.Itoa(s.OpenPositions),
		strconv.FormatInt(s.TotalPnL, 10),
		strconv.FormatInt(s.RealizedPnL, 10),
		strconv.FormatInt(s.UnrealizedPnL, 10),
	}); err != nil {
		return err
	}
	j.snaps.Flush()
	return j.snaps.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.snaps.Flush()
	err := j.tf.Close()
	if cerr := j.sf.Close(); err == nil {
		err = cerr
	}
	return err
}
