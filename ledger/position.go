package ledger

import (
	"time"

	"github.com/rustyeddy/predictsim/analyzer"
	"github.com/rustyeddy/predictsim/market"
)

// Status is the position lifecycle state.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// CloseReason records why a position left the book.
type CloseReason string

const (
	CloseStopLoss   CloseReason = "stop_loss"
	CloseTakeProfit CloseReason = "take_profit"
	CloseManual     CloseReason = "manual"
	CloseEndOfRun   CloseReason = "end_of_run"
)

// Position is a holding in one side of a binary market. All money fields are
// integer cents; stop and target thresholds keep fractional precision so a
// percent of an odd entry price does not truncate.
//
// Positions are owned exclusively by the Ledger: opened by Open, mutated by
// the reprice/stop pass, immutable once closed.
type Position struct {
	ID     string
	Ticker string
	Side   market.Side

	EntryPrice int   // cents per contract
	Quantity   int   // contracts
	Size       int64 // invested cents, EntryPrice * Quantity

	StopPrice   float64 // close when the held side's price falls to or below
	TargetPrice float64 // close when it rises to or above

	CurrentPrice int
	Status       Status

	OpenedAt time.Time
	ClosedAt time.Time
	Reason   CloseReason

	RealizedPnL   int64 // set once, at close
	UnrealizedPnL int64 // recomputed on every reprice while open

	// Provenance from the opportunity that opened it.
	Kind       string
	Confidence analyzer.Confidence
	Strength   analyzer.Strength
	Reasoning  string
}

// CostBasis is the cash spent to open the position.
func (p *Position) CostBasis() int64 {
	return int64(p.EntryPrice) * int64(p.Quantity)
}

// CurrentValue marks the position at its held side's latest price.
func (p *Position) CurrentValue() int64 {
	return int64(p.CurrentPrice) * int64(p.Quantity)
}
