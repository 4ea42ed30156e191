package analyzer

import (
	"fmt"
	"time"

	"github.com/rustyeddy/predictsim/market"
)

// VolumeSurgeConfig sets how much traded volume relative to open interest
// counts as a surge.
type VolumeSurgeConfig struct {
	HardSurgeRatio float64
	SoftSurgeRatio float64
	MinVolume      int
}

func DefaultVolumeSurgeConfig() VolumeSurgeConfig {
	return VolumeSurgeConfig{
		HardSurgeRatio: 3.0,
		SoftSurgeRatio: 1.5,
		MinVolume:      500,
	}
}

// VolumeSurge flags markets trading heavily relative to their open
// interest, reading the surge as momentum behind the current price side.
type VolumeSurge struct {
	cfg VolumeSurgeConfig
}

func NewVolumeSurge(cfg VolumeSurgeConfig) *VolumeSurge {
	return &VolumeSurge{cfg: cfg}
}

func (a *VolumeSurge) Name() string { return "volume_surge" }

func (a *VolumeSurge) Analyze(markets []market.Market) ([]Opportunity, error) {
	var opps []Opportunity
	for _, m := range markets {
		if opp, ok := a.analyzeMarket(m); ok {
			opps = append(opps, opp)
		}
	}
	return opps, nil
}

func (a *VolumeSurge) analyzeMarket(m market.Market) (Opportunity, bool) {
	if m.Volume < a.cfg.MinVolume || m.OpenInterest <= 0 {
		return Opportunity{}, false
	}
	if m.LastPrice < 1 || m.LastPrice > 99 {
		return Opportunity{}, false
	}

	ratio := float64(m.Volume) / float64(m.OpenInterest)
	if ratio < a.cfg.SoftSurgeRatio {
		return Opportunity{}, false
	}

	strength := Soft
	confidence := Low
	if ratio >= a.cfg.HardSurgeRatio {
		strength = Hard
		confidence = Medium
		if ratio >= 2*a.cfg.HardSurgeRatio {
			confidence = High
		}
	}

	// Momentum rides the side the price already leans toward.
	side := market.Yes
	if m.LastPrice < 50 {
		side = market.No
	}

	edgeCents := min(8, 2*ratio)
	entry := m.LastPrice
	if side == market.No {
		entry = 100 - m.LastPrice
	}
	edgePercent := edgeCents / float64(entry) * 100

	return Opportunity{
		Kind:       "volume_surge",
		Confidence: confidence,
		Strength:   strength,
		Timestamp:  time.Now(),
		Tickers:    []string{m.Ticker},
		Titles:     []string{m.Title},
		URLs:       []string{marketURL(m.Ticker)},
		Prices:     map[string]int{m.Ticker: m.LastPrice},
		EdgeCents:  edgeCents,
		EdgePercent: edgePercent,
		Reasoning: fmt.Sprintf("Volume %d is %.1fx open interest %d",
			m.Volume, ratio, m.OpenInterest),
		Data: map[string]any{
			SuggestedSideKey: string(side),
			"surge_ratio":    ratio,
		},
	}, true
}
