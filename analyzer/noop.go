package analyzer

import "github.com/rustyeddy/predictsim/market"

// Noop produces no opportunities. Useful for dry runs of the scheduler.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Analyze(markets []market.Market) ([]Opportunity, error) {
	_ = markets
	return nil, nil
}
