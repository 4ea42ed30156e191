package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/predictsim/analyzer"
	"github.com/rustyeddy/predictsim/config"
	"github.com/rustyeddy/predictsim/journal"
	"github.com/rustyeddy/predictsim/kalshi"
	"github.com/rustyeddy/predictsim/ledger"
	"github.com/rustyeddy/predictsim/sim"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a paper-trading simulation",
	Long: `Run a paper-trading simulation against live Kalshi market data.

The config file specifies capital, admission thresholds, analyzers and
journaling. Exactly one termination mode is required: --cycles, --duration
or --continuous. Ctrl+C stops a continuous run gracefully: the cycle in
progress finishes, then the final snapshot and report are produced.

Examples:
  predictsim run --config simulation.yaml --cycles 10
  predictsim run --config simulation.yaml --duration 2h
  predictsim run --continuous --capital 50000 --analyzers spread,mispricing`,
	RunE: runRun,
}

var (
	runConfigPath string
	runCycles     int
	runDuration   time.Duration
	runContinuous bool
	runCapital    int64
	runAnalyzers  []string
	runInterval   time.Duration
	runCloseAtEnd bool
	runVerbose    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().IntVar(&runCycles, "cycles", 0, "stop after N cycles")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "stop after wall-clock time (e.g. 2h30m)")
	runCmd.Flags().BoolVar(&runContinuous, "continuous", false, "run until interrupted")
	runCmd.Flags().Int64Var(&runCapital, "capital", 0, "override starting capital in cents")
	runCmd.Flags().StringSliceVar(&runAnalyzers, "analyzers", nil, "override enabled analyzers")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "override cycle interval")
	runCmd.Flags().BoolVar(&runCloseAtEnd, "close-at-end", false, "close all open positions when the run ends")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug logging")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// Flag overrides.
	if runCapital > 0 {
		cfg.Trading.Capital = runCapital
	}
	if len(runAnalyzers) > 0 {
		cfg.Analyzers = runAnalyzers
	}
	if runInterval > 0 {
		cfg.Sim.CycleInterval = config.Duration(runInterval)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := slog.LevelInfo
	if runVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	analyzers := make([]analyzer.Analyzer, 0, len(cfg.Analyzers))
	for _, name := range cfg.Analyzers {
		a, err := analyzer.New(name)
		if err != nil {
			return fmt.Errorf("create analyzer: %w", err)
		}
		analyzers = append(analyzers, a)
	}

	book, err := ledger.New(cfg.Trading, j)
	if err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}

	client := kalshi.NewClient(cfg.Data)
	simulator := sim.New(cfg, client, analyzers, book, j, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := simulator.Run(ctx, sim.RunSpec{
		Cycles:     runCycles,
		Duration:   runDuration,
		Continuous: runContinuous,
	})
	if err != nil {
		return err
	}

	if runCloseAtEnd {
		for _, id := range book.CloseAll(ledger.CloseEndOfRun, time.Now()) {
			log.Info("closed at end of run", "position", id)
		}
	}

	fmt.Println()
	report.PrintSummary(os.Stdout)
	return nil
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.TradesFile, cfg.SnapshotsFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Discard{}, nil
	}
}
