// Package ledger owns the simulated book: cash, open and closed positions,
// admission filtering, position sizing and stop/target exits. It is mutated
// only from the single scheduling goroutine and so carries no locking.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/predictsim/analyzer"
	"github.com/rustyeddy/predictsim/internal/id"
	"github.com/rustyeddy/predictsim/journal"
	"github.com/rustyeddy/predictsim/market"
)

var (
	// ErrZeroQuantity fires when the entry price is outside 1..99 or the
	// computed size buys less than one contract.
	ErrZeroQuantity = errors.New("price invalid or zero quantity")

	// ErrNoEntryPrice fires when the opportunity carries no usable price
	// for its suggested side.
	ErrNoEntryPrice = errors.New("no entry price for suggested side")
)

// Ledger is the authoritative portfolio state for one run.
type Ledger struct {
	cfg  Config
	cash int64

	open  map[string]*Position
	order []string // open ids in open order; map iteration is not deterministic

	closed   []*Position // append-only, immutable once appended
	realized int64
	trades   int // opens plus closes

	journal journal.Journal
}

// New builds a ledger with the full starting capital in cash. The journal
// receives a TradeRecord for every close; pass journal.Discard to skip.
func New(cfg Config, j journal.Journal) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledger config: %w", err)
	}
	if j == nil {
		j = journal.Discard{}
	}
	return &Ledger{
		cfg:     cfg,
		cash:    cfg.Capital,
		open:    make(map[string]*Position),
		journal: j,
	}, nil
}

// Open executes an admitted opportunity: resolves the entry price for the
// suggested side, sizes the position, deducts cash and books an OPEN
// position with stop and target thresholds. Nothing is mutated on failure.
func (l *Ledger) Open(opp analyzer.Opportunity, now time.Time) (*Position, error) {
	side, err := opp.SuggestedSide()
	if err != nil {
		return nil, err
	}
	if len(opp.Tickers) == 0 {
		return nil, fmt.Errorf("opportunity %s has no market ticker", opp.Kind)
	}
	ticker := opp.Tickers[0]

	entry, ok := entryPrice(opp, ticker, side)
	if !ok {
		return nil, fmt.Errorf("open %s %s: %w", ticker, side, ErrNoEntryPrice)
	}
	if entry < 1 || entry > 99 {
		return nil, fmt.Errorf("open %s %s: entry %d¢: %w", ticker, side, entry, ErrZeroQuantity)
	}

	size := l.positionSize(opp)
	if size > l.cash {
		size = l.cash
	}

	quantity := int(size / int64(entry))
	if quantity < 1 {
		return nil, fmt.Errorf("open %s %s: size %d¢ at %d¢: %w", ticker, side, size, entry, ErrZeroQuantity)
	}
	cost := int64(quantity) * int64(entry)

	// The held side's own price falling is always the adverse direction:
	// a no contract is priced in no cents, which already move inversely
	// to the yes price.
	stop := float64(entry) * (1 - l.cfg.StopLossPercent/100)
	target := float64(entry) * (1 + l.cfg.TakeProfitPercent/100)

	pos := &Position{
		ID:           id.New(),
		Ticker:       ticker,
		Side:         side,
		EntryPrice:   entry,
		Quantity:     quantity,
		Size:         cost,
		StopPrice:    stop,
		TargetPrice:  target,
		CurrentPrice: entry,
		Status:       StatusOpen,
		OpenedAt:     now,
		Kind:         opp.Kind,
		Confidence:   opp.Confidence,
		Strength:     opp.Strength,
		Reasoning:    opp.Reasoning,
	}

	l.cash -= cost
	l.open[pos.ID] = pos
	l.order = append(l.order, pos.ID)
	l.trades++

	return pos, nil
}

// entryPrice resolves the buy price for the chosen side from the
// opportunity's price labels. Analyzers publish either "<ticker>_<side>_bid"
// labels or a bare yes price under the ticker itself.
func entryPrice(opp analyzer.Opportunity, ticker string, side market.Side) (int, bool) {
	if p, ok := opp.Prices[fmt.Sprintf("%s_%s_bid", ticker, side)]; ok {
		return p, true
	}
	if p, ok := opp.Prices[ticker]; ok {
		if side == market.No {
			return 100 - p, true
		}
		return p, true
	}
	return 0, false
}

// Close settles one open position at the given price. The position moves to
// the closed list, cash is credited with the proceeds and the journal gets a
// trade record.
func (l *Ledger) Close(positionID string, exitPrice int, reason CloseReason, now time.Time) (*Position, error) {
	pos, ok := l.open[positionID]
	if !ok {
		return nil, fmt.Errorf("close: position %q not open", positionID)
	}

	proceeds := int64(exitPrice) * int64(pos.Quantity)
	pnl := proceeds - pos.CostBasis()

	pos.Status = StatusClosed
	pos.CurrentPrice = exitPrice
	pos.ClosedAt = now
	pos.Reason = reason
	pos.RealizedPnL = pnl
	pos.UnrealizedPnL = 0

	l.cash += proceeds
	l.realized += pnl
	l.trades++

	delete(l.open, positionID)
	for i, oid := range l.order {
		if oid == positionID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.closed = append(l.closed, pos)

	if err := l.journal.RecordTrade(journal.TradeRecord{
		PositionID:  pos.ID,
		Ticker:      pos.Ticker,
		Side:        string(pos.Side),
		Quantity:    pos.Quantity,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		OpenedAt:    pos.OpenedAt,
		ClosedAt:    now,
		RealizedPnL: pnl,
		Reason:      string(reason),
	}); err != nil {
		return pos, fmt.Errorf("journal trade %s: %w", pos.ID, err)
	}
	return pos, nil
}

// MarkPrices refreshes every open position's current price and unrealized
// P&L from the table. Tickers absent from the table keep their last mark.
func (l *Ledger) MarkPrices(pt market.PriceTable) {
	for _, oid := range l.order {
		pos := l.open[oid]
		price, ok := pt.Price(pos.Ticker, pos.Side)
		if !ok {
			continue
		}
		pos.CurrentPrice = price
		pos.UnrealizedPnL = int64(price-pos.EntryPrice) * int64(pos.Quantity)
	}
}

// CheckStops reprices every open position and closes the ones whose held
// side crossed a threshold. Stop-loss is evaluated before take-profit, so
// when one cycle's move crosses both, the conservative exit wins. Calling
// this twice with unchanged prices closes nothing the second time.
func (l *Ledger) CheckStops(pt market.PriceTable, now time.Time) []string {
	var closed []string

	// Closing mutates l.order, so walk a copy.
	ids := make([]string, len(l.order))
	copy(ids, l.order)

	for _, oid := range ids {
		pos := l.open[oid]
		price, ok := pt.Price(pos.Ticker, pos.Side)
		if !ok {
			continue
		}
		pos.CurrentPrice = price
		pos.UnrealizedPnL = int64(price-pos.EntryPrice) * int64(pos.Quantity)

		switch {
		case float64(price) <= pos.StopPrice:
			if _, err := l.Close(oid, price, CloseStopLoss, now); err == nil {
				closed = append(closed, oid)
			}
		case float64(price) >= pos.TargetPrice:
			if _, err := l.Close(oid, price, CloseTakeProfit, now); err == nil {
				closed = append(closed, oid)
			}
		}
	}
	return closed
}

// CloseAll settles every open position at its current mark. Used for the
// end-of-run flush.
func (l *Ledger) CloseAll(reason CloseReason, now time.Time) []string {
	ids := make([]string, len(l.order))
	copy(ids, l.order)

	var closed []string
	for _, oid := range ids {
		pos := l.open[oid]
		if _, err := l.Close(oid, pos.CurrentPrice, reason, now); err == nil {
			closed = append(closed, oid)
		}
	}
	return closed
}

// ---- portfolio arithmetic ----

func (l *Ledger) Cash() int64 { return l.cash }

// PositionValue marks all open positions at their current prices.
func (l *Ledger) PositionValue() int64 {
	var v int64
	for _, pos := range l.open {
		v += pos.CurrentValue()
	}
	return v
}

func (l *Ledger) UnrealizedPnL() int64 {
	var v int64
	for _, pos := range l.open {
		v += pos.UnrealizedPnL
	}
	return v
}

func (l *Ledger) RealizedPnL() int64 { return l.realized }

func (l *Ledger) TotalPnL() int64 { return l.realized + l.UnrealizedPnL() }

func (l *Ledger) PortfolioValue() int64 { return l.cash + l.PositionValue() }

func (l *Ledger) NumOpen() int { return len(l.open) }

// OpenPositions returns the open book in open order.
func (l *Ledger) OpenPositions() []*Position {
	out := make([]*Position, 0, len(l.order))
	for _, oid := range l.order {
		out = append(out, l.open[oid])
	}
	return out
}

// ClosedPositions returns the closed list in close order.
func (l *Ledger) ClosedPositions() []*Position {
	out := make([]*Position, len(l.closed))
	copy(out, l.closed)
	return out
}

// Snapshot captures the portfolio state at a point in time.
func (l *Ledger) Snapshot(now time.Time) journal.SnapshotRecord {
	return journal.SnapshotRecord{
		Time:           now,
		PortfolioValue: l.PortfolioValue(),
		Cash:           l.cash,
		PositionValue:  l.PositionValue(),
		OpenPositions:  len(l.open),
		TotalPnL:       l.TotalPnL(),
		RealizedPnL:    l.realized,
		UnrealizedPnL:  l.UnrealizedPnL(),
	}
}

// Summary is the reporting view of the portfolio. Percentages are percents,
// money is cents; AvgWin/AvgLoss keep fractional cents.
type Summary struct {
	InitialCapital  int64
	PortfolioValue  int64
	Cash            int64
	PositionValue   int64
	TotalPnL        int64
	RealizedPnL     int64
	UnrealizedPnL   int64
	ReturnPercent   float64
	Trades          int
	OpenPositions   int
	ClosedPositions int
	WinRate         float64
	AvgWin          float64
	AvgLoss         float64
	ProfitFactor    float64
}

func (l *Ledger) Summary() Summary {
	s := Summary{
		InitialCapital:  l.cfg.Capital,
		PortfolioValue:  l.PortfolioValue(),
		Cash:            l.cash,
		PositionValue:   l.PositionValue(),
		TotalPnL:        l.TotalPnL(),
		RealizedPnL:     l.realized,
		UnrealizedPnL:   l.UnrealizedPnL(),
		Trades:          l.trades,
		OpenPositions:   len(l.open),
		ClosedPositions: len(l.closed),
	}
	if l.cfg.Capital > 0 {
		s.ReturnPercent = float64(s.PortfolioValue-l.cfg.Capital) / float64(l.cfg.Capital) * 100
	}
	s.WinRate, s.AvgWin, s.AvgLoss, s.ProfitFactor = closedStats(l.closed)
	return s
}

// closedStats derives win rate (percent), average win and loss (cents) and
// profit factor from the closed list. No losers with at least one winner
// yields an infinite profit factor; an empty list yields zeros.
func closedStats(closed []*Position) (winRate, avgWin, avgLoss, profitFactor float64) {
	if len(closed) == 0 {
		return 0, 0, 0, 0
	}

	var wins, losses int
	var winSum, lossSum int64
	for _, pos := range closed {
		switch {
		case pos.RealizedPnL > 0:
			wins++
			winSum += pos.RealizedPnL
		case pos.RealizedPnL < 0:
			losses++
			lossSum += pos.RealizedPnL
		}
	}

	winRate = float64(wins) / float64(len(closed)) * 100
	if wins > 0 {
		avgWin = float64(winSum) / float64(wins)
	}
	if losses > 0 {
		avgLoss = float64(lossSum) / float64(losses)
	}

	switch {
	case losses == 0 && wins > 0:
		profitFactor = math.Inf(1)
	case losses == 0:
		profitFactor = 0
	default:
		profitFactor = math.Abs(avgWin / avgLoss)
	}
	return winRate, avgWin, avgLoss, profitFactor
}
