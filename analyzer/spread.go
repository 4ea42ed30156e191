package analyzer

import (
	"fmt"
	"time"

	"github.com/rustyeddy/predictsim/market"
)

// SpreadConfig holds the thresholds for the spread analyzer. The hard tier
// demands wider spreads than the soft tier.
type SpreadConfig struct {
	HardMinSpread      int
	HardWideSpread     int
	HardVeryWideSpread int

	SoftMinSpread      int
	SoftWideSpread     int
	SoftVeryWideSpread int

	MinVolume int
}

func DefaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		HardMinSpread:      10,
		HardWideSpread:     20,
		HardVeryWideSpread: 30,
		SoftMinSpread:      5,
		SoftWideSpread:     10,
		SoftVeryWideSpread: 15,
		MinVolume:          0,
	}
}

// Spread flags markets whose combined bid prices leave a wide gap to 100¢,
// a liquidity-provision opportunity.
type Spread struct {
	cfg SpreadConfig
}

func NewSpread(cfg SpreadConfig) *Spread {
	return &Spread{cfg: cfg}
}

func (a *Spread) Name() string { return "spread" }

func (a *Spread) Analyze(markets []market.Market) ([]Opportunity, error) {
	var opps []Opportunity
	for _, m := range markets {
		if opp, ok := a.analyzeMarket(m); ok {
			opps = append(opps, opp)
		}
	}
	return opps, nil
}

func (a *Spread) analyzeMarket(m market.Market) (Opportunity, bool) {
	yes, okYes := m.OrderBook.BestBid(market.Yes)
	no, okNo := m.OrderBook.BestBid(market.No)
	if !okYes || !okNo {
		return Opportunity{}, false
	}
	if m.Volume < a.cfg.MinVolume {
		return Opportunity{}, false
	}

	// Both bids sum below 100¢ leaves the spread on the table.
	spread := 100 - yes.Price - no.Price
	if spread < a.cfg.SoftMinSpread {
		return Opportunity{}, false
	}

	var strength Strength
	var confidence Confidence
	if spread >= a.cfg.HardMinSpread {
		strength = Hard
		switch {
		case spread >= a.cfg.HardVeryWideSpread:
			confidence = High
		case spread >= a.cfg.HardWideSpread:
			confidence = Medium
		default:
			confidence = Low
		}
	} else {
		strength = Soft
		switch {
		case spread >= a.cfg.SoftVeryWideSpread:
			confidence = High
		case spread >= a.cfg.SoftWideSpread:
			confidence = Medium
		default:
			confidence = Low
		}
	}

	// Providing liquidity captures roughly half the spread.
	edgeCents := float64(spread) / 2
	mid := float64(yes.Price+no.Price)/2 + float64(spread)/2
	edgePercent := 0.0
	if mid > 0 {
		edgePercent = edgeCents / mid * 100
	}

	// Buy the cheaper side.
	side := market.Yes
	if no.Price < yes.Price {
		side = market.No
	}

	return Opportunity{
		Kind:       "wide_spread",
		Confidence: confidence,
		Strength:   strength,
		Timestamp:  time.Now(),
		Tickers:    []string{m.Ticker},
		Titles:     []string{m.Title},
		URLs:       []string{marketURL(m.Ticker)},
		Prices: map[string]int{
			m.Ticker + "_yes_bid": yes.Price,
			m.Ticker + "_no_bid":  no.Price,
		},
		EdgeCents:   edgeCents,
		EdgePercent: edgePercent,
		Reasoning: fmt.Sprintf("Wide spread of %d¢ (yes %d¢ x %d, no %d¢ x %d)",
			spread, yes.Price, yes.Quantity, no.Price, no.Quantity),
		Data: map[string]any{
			SuggestedSideKey: string(side),
			"spread_cents":   spread,
			"volume":         m.Volume,
		},
	}, true
}

func marketURL(ticker string) string {
	return "https://kalshi.com/markets/" + ticker
}
