package ledger

import (
	"fmt"

	"github.com/rustyeddy/predictsim/analyzer"
)

// Sizing methods.
const (
	SizingFixed            = "fixed"
	SizingConfidenceScaled = "confidence_scaled"
	SizingKelly            = "kelly"
)

// Config is the trading policy: capital, admission thresholds, sizing and
// exit rules. Built once at startup and passed by value; nothing mutates it
// after Validate.
type Config struct {
	Capital         int64 `json:"capital" yaml:"capital"`                     // starting cash, cents
	MaxPositionSize int64 `json:"max_position_size" yaml:"max_position_size"` // per-position cap, cents

	MinConfidence  analyzer.Confidence `json:"min_confidence" yaml:"min_confidence"`
	MinStrength    analyzer.Strength   `json:"min_strength" yaml:"min_strength"`
	MinEdgeCents   float64             `json:"min_edge_cents" yaml:"min_edge_cents"`
	MinEdgePercent float64             `json:"min_edge_percent" yaml:"min_edge_percent"`

	MaxPositions int    `json:"max_positions" yaml:"max_positions"`
	SizingMethod string `json:"sizing_method" yaml:"sizing_method"`

	StopLossPercent   float64 `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent float64 `json:"take_profit_percent" yaml:"take_profit_percent"`
}

// Default mirrors the simulator's stock paper-trading policy: $100 of play
// money, $10 positions, loose admission.
func Default() Config {
	return Config{
		Capital:           10000,
		MaxPositionSize:   1000,
		MinConfidence:     analyzer.Low,
		MinStrength:       analyzer.Soft,
		MinEdgeCents:      5,
		MinEdgePercent:    2,
		MaxPositions:      10,
		SizingMethod:      SizingFixed,
		StopLossPercent:   20,
		TakeProfitPercent: 50,
	}
}

// Validate rejects configurations the run must not start with.
func (c Config) Validate() error {
	if c.Capital <= 0 {
		return fmt.Errorf("capital must be positive, got %d", c.Capital)
	}
	if c.MaxPositionSize <= 0 {
		return fmt.Errorf("max_position_size must be positive, got %d", c.MaxPositionSize)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be positive, got %d", c.MaxPositions)
	}
	switch c.SizingMethod {
	case SizingFixed, SizingConfidenceScaled, SizingKelly:
	default:
		return fmt.Errorf("sizing_method must be one of fixed, confidence_scaled, kelly; got %q", c.SizingMethod)
	}
	if c.StopLossPercent <= 0 || c.StopLossPercent >= 100 {
		return fmt.Errorf("stop_loss_percent must be in (0, 100), got %g", c.StopLossPercent)
	}
	if c.TakeProfitPercent <= 0 {
		return fmt.Errorf("take_profit_percent must be positive, got %g", c.TakeProfitPercent)
	}
	if c.MinEdgeCents < 0 || c.MinEdgePercent < 0 {
		return fmt.Errorf("minimum edge thresholds must not be negative")
	}
	return nil
}
