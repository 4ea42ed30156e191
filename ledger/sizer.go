package ledger

import "github.com/rustyeddy/predictsim/analyzer"

// Confidence scaling for confidence_scaled sizing. Linear by policy:
// low commits half the cap, high commits all of it.
func confidenceScale(c analyzer.Confidence) float64 {
	switch c {
	case analyzer.High:
		return 1.0
	case analyzer.Medium:
		return 0.75
	default:
		return 0.5
	}
}

// kellyCap bounds the kelly fraction so a single fat edge estimate cannot
// bet more than a quarter of the book.
const kellyCap = 0.25

// positionSize computes the cents the configured method would commit to the
// opportunity, capped at MaxPositionSize. Cash sufficiency is the admission
// filter's check, not the sizer's.
func (l *Ledger) positionSize(opp analyzer.Opportunity) int64 {
	var size int64

	switch l.cfg.SizingMethod {
	case SizingConfidenceScaled:
		size = int64(float64(l.cfg.MaxPositionSize) * confidenceScale(opp.Confidence))

	case SizingKelly:
		fraction := opp.EdgePercent / 100
		if fraction > kellyCap {
			fraction = kellyCap
		}
		if fraction < 0 {
			fraction = 0
		}
		size = int64(float64(l.PortfolioValue()) * fraction)

	default: // SizingFixed
		size = l.cfg.MaxPositionSize
	}

	if size > l.cfg.MaxPositionSize {
		size = l.cfg.MaxPositionSize
	}
	return size
}
