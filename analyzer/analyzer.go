package analyzer

import (
	"fmt"
	"time"

	"github.com/rustyeddy/predictsim/market"
)

// Confidence is an ordinal estimate of trade quality.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	}
	return "unknown"
}

func ParseConfidence(s string) (Confidence, error) {
	switch s {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	}
	return 0, fmt.Errorf("invalid confidence %q", s)
}

// Strength reflects how strict the triggering condition was: HARD
// opportunities passed the strict thresholds, SOFT only the relaxed ones.
type Strength int

const (
	Soft Strength = iota
	Hard
)

func (s Strength) String() string {
	switch s {
	case Soft:
		return "soft"
	case Hard:
		return "hard"
	}
	return "unknown"
}

func ParseStrength(s string) (Strength, error) {
	switch s {
	case "soft":
		return Soft, nil
	case "hard":
		return Hard, nil
	}
	return 0, fmt.Errorf("invalid strength %q", s)
}

// SuggestedSideKey must be present in Opportunity.Data so the ledger knows
// which side of the market to buy.
const SuggestedSideKey = "suggested_side"

// Opportunity is a proposed trade produced by an analyzer. It is immutable
// once produced; the ledger decides whether to act on it.
type Opportunity struct {
	Kind       string
	Confidence Confidence
	Strength   Strength
	Timestamp  time.Time

	Tickers []string
	Titles  []string
	URLs    []string

	// Prices maps price labels (e.g. "<ticker>_yes_bid") to cents.
	Prices map[string]int

	EdgeCents   float64
	EdgePercent float64

	Reasoning string
	Data      map[string]any
}

// SuggestedSide extracts the side the analyzer wants bought.
func (o Opportunity) SuggestedSide() (market.Side, error) {
	v, ok := o.Data[SuggestedSideKey]
	if !ok {
		return "", fmt.Errorf("opportunity %s: missing %s", o.Kind, SuggestedSideKey)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("opportunity %s: %s is not a string", o.Kind, SuggestedSideKey)
	}
	return market.ParseSide(s)
}

func (o Opportunity) String() string {
	ticker := ""
	if len(o.Tickers) > 0 {
		ticker = o.Tickers[0]
	}
	return fmt.Sprintf("[%s] [%s] (%s) %s - edge %.1f¢ (%.1f%%) - %s",
		o.Kind, o.Strength, o.Confidence, ticker, o.EdgeCents, o.EdgePercent, o.Reasoning)
}

// Analyzer scans a market batch and proposes trades.
type Analyzer interface {
	Name() string
	Analyze(markets []market.Market) ([]Opportunity, error)
}

// New constructs an analyzer by config name with its default thresholds.
// The set is closed on purpose: analyzers are built once at startup, there
// is no process-wide registry to mutate.
func New(name string) (Analyzer, error) {
	switch name {
	case "spread":
		return NewSpread(DefaultSpreadConfig()), nil
	case "mispricing":
		return NewMispricing(DefaultMispricingConfig()), nil
	case "volume_surge":
		return NewVolumeSurge(DefaultVolumeSurgeConfig()), nil
	case "noop":
		return Noop{}, nil
	}
	return nil, fmt.Errorf("unknown analyzer %q (supported: spread, mispricing, volume_surge, noop)", name)
}
