package analyzer

import (
	"fmt"
	"time"

	"github.com/rustyeddy/predictsim/market"
)

// MispricingConfig bounds what counts as an extreme price. Hard extremes
// need more volume behind them than soft ones.
type MispricingConfig struct {
	HardExtremeLow  int
	HardExtremeHigh int
	HardMinVolume   int

	SoftExtremeLow  int
	SoftExtremeHigh int
	SoftMinVolume   int
}

func DefaultMispricingConfig() MispricingConfig {
	return MispricingConfig{
		HardExtremeLow:  5,
		HardExtremeHigh: 95,
		HardMinVolume:   1000,
		SoftExtremeLow:  10,
		SoftExtremeHigh: 90,
		SoftMinVolume:   100,
	}
}

// Mispricing flags markets priced at extremes, where crowd overconfidence
// tends to leave a few cents of reversion on the table. A very low yes price
// suggests buying yes; a very high one suggests buying no.
type Mispricing struct {
	cfg MispricingConfig
}

func NewMispricing(cfg MispricingConfig) *Mispricing {
	return &Mispricing{cfg: cfg}
}

func (a *Mispricing) Name() string { return "mispricing" }

func (a *Mispricing) Analyze(markets []market.Market) ([]Opportunity, error) {
	var opps []Opportunity
	for _, m := range markets {
		if opp, ok := a.analyzeMarket(m); ok {
			opps = append(opps, opp)
		}
	}
	return opps, nil
}

func (a *Mispricing) analyzeMarket(m market.Market) (Opportunity, bool) {
	price := m.LastPrice
	if price == 0 {
		if bid, ok := m.OrderBook.BestBid(market.Yes); ok {
			price = bid.Price
		}
	}
	if price < 1 || price > 99 {
		return Opportunity{}, false
	}

	var strength Strength
	var confidence Confidence
	var edgeCents float64
	extremeLow := false

	switch {
	case (price <= a.cfg.HardExtremeLow || price >= a.cfg.HardExtremeHigh) && m.Volume >= a.cfg.HardMinVolume:
		strength = Hard
		extremeLow = price <= a.cfg.HardExtremeLow
		if extremeLow {
			edgeCents = min(10, float64(a.cfg.HardExtremeLow-price+5))
			confidence = Low
			if price <= 2 {
				confidence = Medium
			}
		} else {
			edgeCents = min(10, float64(price-a.cfg.HardExtremeHigh+5))
			confidence = Low
			if price >= 98 {
				confidence = Medium
			}
		}
	case (price <= a.cfg.SoftExtremeLow || price >= a.cfg.SoftExtremeHigh) && m.Volume >= a.cfg.SoftMinVolume:
		strength = Soft
		confidence = Low
		extremeLow = price <= a.cfg.SoftExtremeLow
		if extremeLow {
			edgeCents = min(8, float64(a.cfg.SoftExtremeLow-price+3))
		} else {
			edgeCents = min(8, float64(price-a.cfg.SoftExtremeHigh+3))
		}
	default:
		return Opportunity{}, false
	}

	edgePercent := edgeCents / float64(price) * 100

	side := market.No
	direction := "downside reversion"
	if extremeLow {
		side = market.Yes
		direction = "upside reversion"
	}

	return Opportunity{
		Kind:       "mispricing",
		Confidence: confidence,
		Strength:   strength,
		Timestamp:  time.Now(),
		Tickers:    []string{m.Ticker},
		Titles:     []string{m.Title},
		URLs:       []string{marketURL(m.Ticker)},
		Prices:     map[string]int{m.Ticker: price},
		EdgeCents:  edgeCents,
		EdgePercent: edgePercent,
		Reasoning: fmt.Sprintf("Extreme price of %d¢ suggests potential %s (volume %d)",
			price, direction, m.Volume),
		Data: map[string]any{
			SuggestedSideKey: string(side),
			"last_price":     price,
			"volume":         m.Volume,
		},
	}, true
}
