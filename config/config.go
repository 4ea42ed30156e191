// Package config loads and validates the simulation configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/predictsim/analyzer"
	"github.com/rustyeddy/predictsim/ledger"
	"gopkg.in/yaml.v3"
)

// Config is the complete simulation configuration. It is built once (from
// file and/or flags), validated, and passed by value after that.
type Config struct {
	Trading   ledger.Config `json:"trading" yaml:"trading"`
	Analyzers []string      `json:"analyzers" yaml:"analyzers"`
	Data      DataConfig    `json:"data" yaml:"data"`
	Sim       SimConfig     `json:"sim" yaml:"sim"`
	Journal   JournalConfig `json:"journal" yaml:"journal"`
}

// DataConfig controls the market data source.
type DataConfig struct {
	BaseURL      string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MaxMarkets   int      `json:"max_markets" yaml:"max_markets"`
	Status       string   `json:"status" yaml:"status"`
	MinVolume    int      `json:"min_volume" yaml:"min_volume"`
	FetchTimeout Duration `json:"fetch_timeout" yaml:"fetch_timeout"`
	CacheTTL     Duration `json:"cache_ttl" yaml:"cache_ttl"`
	RateLimit    float64  `json:"rate_limit" yaml:"rate_limit"` // requests per second
}

// SimConfig controls scheduling cadence.
type SimConfig struct {
	CycleInterval    Duration `json:"cycle_interval" yaml:"cycle_interval"`
	SnapshotInterval Duration `json:"snapshot_interval" yaml:"snapshot_interval"`
}

// JournalConfig selects the persistence backend.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile reads a YAML or JSON config and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// YAML first, JSON fallback.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config, YAML or JSON by extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate rejects configurations the run must not start with. These are the
// only fatal errors in the system; everything past this point is recoverable.
func (c *Config) Validate() error {
	if err := c.Trading.Validate(); err != nil {
		return err
	}
	if len(c.Analyzers) == 0 {
		return fmt.Errorf("at least one analyzer must be enabled")
	}
	for _, name := range c.Analyzers {
		if _, err := analyzer.New(name); err != nil {
			return err
		}
	}
	if c.Data.MaxMarkets <= 0 {
		return fmt.Errorf("data.max_markets must be positive, got %d", c.Data.MaxMarkets)
	}
	if c.Data.FetchTimeout <= 0 {
		return fmt.Errorf("data.fetch_timeout must be positive, got %s", c.Data.FetchTimeout)
	}
	if c.Sim.CycleInterval <= 0 {
		return fmt.Errorf("sim.cycle_interval must be positive, got %s", c.Sim.CycleInterval)
	}
	if c.Sim.SnapshotInterval <= 0 {
		return fmt.Errorf("sim.snapshot_interval must be positive, got %s", c.Sim.SnapshotInterval)
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file and snapshots_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be none, csv or sqlite; got %q", c.Journal.Type)
	}
	return nil
}

// Default returns a runnable paper-trading configuration.
func Default() *Config {
	return &Config{
		Trading:   ledger.Default(),
		Analyzers: []string{"spread", "mispricing"},
		Data: DataConfig{
			MaxMarkets:   100,
			Status:       "open",
			MinVolume:    10,
			FetchTimeout: Duration(30 * time.Second),
			CacheTTL:     Duration(30 * time.Second),
			RateLimit:    20,
		},
		Sim: SimConfig{
			CycleInterval:    Duration(time.Minute),
			SnapshotInterval: Duration(5 * time.Minute),
		},
		Journal: JournalConfig{
			Type:          "csv",
			TradesFile:    "./trades.csv",
			SnapshotsFile: "./snapshots.csv",
		},
	}
}
