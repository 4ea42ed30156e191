package ledger

import (
	"fmt"

	"github.com/rustyeddy/predictsim/analyzer"
)

// Reason is a machine-countable rejection code. Codes feed the scheduler's
// rejection tally, so they must stay stable.
type Reason string

const (
	ReasonLowConfidence         Reason = "low_confidence"
	ReasonWeakStrength          Reason = "weak_strength"
	ReasonInsufficientEdgeCents Reason = "insufficient_edge_cents"
	ReasonInsufficientEdgePct   Reason = "insufficient_edge_percent"
	ReasonMaxPositionsReached   Reason = "max_positions_reached"
	ReasonDuplicatePosition     Reason = "duplicate_position"
	ReasonInsufficientCash      Reason = "insufficient_cash"
	ReasonZeroQuantity          Reason = "price_invalid_or_zero_quantity"
)

// Decision is the outcome of admission filtering. Size carries the cents the
// sizer would commit, for logs and rejection diagnostics.
type Decision struct {
	Admitted bool
	Reason   Reason
	Size     int64
}

func admit(size int64) Decision {
	return Decision{Admitted: true, Size: size}
}

func reject(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Evaluate applies the admission rules to an opportunity against current
// portfolio state. Pure: no mutation, no randomness; the first failing check
// fixes the reason. Checks run in a deliberate order so that tightening any
// threshold can only shrink the admitted set.
func (l *Ledger) Evaluate(opp analyzer.Opportunity) Decision {
	if opp.Confidence < l.cfg.MinConfidence {
		return reject(ReasonLowConfidence)
	}
	if opp.Strength < l.cfg.MinStrength {
		return reject(ReasonWeakStrength)
	}
	if opp.EdgeCents < l.cfg.MinEdgeCents {
		return reject(ReasonInsufficientEdgeCents)
	}
	if opp.EdgePercent < l.cfg.MinEdgePercent {
		return reject(ReasonInsufficientEdgePct)
	}
	if len(l.open) >= l.cfg.MaxPositions {
		return reject(ReasonMaxPositionsReached)
	}
	if len(opp.Tickers) > 0 {
		ticker := opp.Tickers[0]
		for _, id := range l.order {
			if l.open[id].Ticker == ticker {
				return reject(ReasonDuplicatePosition)
			}
		}
	}
	size := l.positionSize(opp)
	if size > l.cash {
		return reject(ReasonInsufficientCash)
	}
	return admit(size)
}

// String renders a decision for logs.
func (d Decision) String() string {
	if d.Admitted {
		return fmt.Sprintf("admit (size %d¢)", d.Size)
	}
	return "reject: " + string(d.Reason)
}
