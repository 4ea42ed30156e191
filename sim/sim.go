// Package sim drives the paper-trading loop: fetch a market batch, reprice
// and stop-check open positions, run the analyzers, admit opportunities into
// the ledger, snapshot on an interval, sleep. One goroutine owns the ledger;
// cancellation is honored at cycle boundaries and during the inter-cycle
// sleep, never mid-cycle.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/predictsim/analyzer"
	"github.com/rustyeddy/predictsim/config"
	"github.com/rustyeddy/predictsim/journal"
	"github.com/rustyeddy/predictsim/ledger"
	"github.com/rustyeddy/predictsim/market"
)

// RunSpec selects exactly one termination mode.
type RunSpec struct {
	Cycles     int           // stop after N cycles
	Duration   time.Duration // stop after wall-clock time
	Continuous bool          // run until the context is cancelled
}

func (r RunSpec) Validate() error {
	modes := 0
	if r.Cycles > 0 {
		modes++
	}
	if r.Duration > 0 {
		modes++
	}
	if r.Continuous {
		modes++
	}
	if modes != 1 {
		return fmt.Errorf("run spec: exactly one of cycles, duration or continuous required, got %d", modes)
	}
	return nil
}

// Simulator owns one run. Not safe for concurrent use; Run is the only
// goroutine that touches the ledger.
type Simulator struct {
	source    market.DataSource
	analyzers []analyzer.Analyzer
	ledger    *ledger.Ledger
	journal   journal.Journal
	log       *slog.Logger

	data config.DataConfig
	sim  config.SimConfig

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(cfg *config.Config, source market.DataSource, analyzers []analyzer.Analyzer, l *ledger.Ledger, j journal.Journal, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	if j == nil {
		j = journal.Discard{}
	}
	return &Simulator{
		source:    source,
		analyzers: analyzers,
		ledger:    l,
		journal:   j,
		log:       log,
		data:      cfg.Data,
		sim:       cfg.Sim,
		sleep:     interruptibleSleep,
	}
}

// interruptibleSleep waits for d or until ctx is cancelled. Returns false on
// cancellation.
func interruptibleSleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Run executes the loop until the selected termination condition fires or
// ctx is cancelled. A final snapshot and report are produced on every exit
// path. Only an invalid RunSpec returns an error.
func (s *Simulator) Run(ctx context.Context, spec RunSpec) (*Report, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var deadline time.Time
	if spec.Duration > 0 {
		deadline = start.Add(spec.Duration)
	}

	tally := &runTally{
		rejections: make(map[ledger.Reason]int),
		lastSnap:   start,
	}
	tally.snapshots = append(tally.snapshots, s.ledger.Snapshot(start))

	s.log.Info("simulation starting",
		"capital", s.ledger.Cash(),
		"analyzers", len(s.analyzers),
		"cycle_interval", s.sim.CycleInterval.Duration())

	for {
		if ctx.Err() != nil {
			s.log.Info("cancelled, stopping", "cycles", tally.cycles)
			break
		}
		if spec.Cycles > 0 && tally.cycles >= spec.Cycles {
			break
		}
		if spec.Duration > 0 && !time.Now().Before(deadline) {
			break
		}

		tally.cycles++
		s.runCycle(ctx, tally)

		now := time.Now()
		if now.Sub(tally.lastSnap) >= s.sim.SnapshotInterval.Duration() {
			s.snapshot(now, tally)
		}

		if spec.Cycles > 0 && tally.cycles >= spec.Cycles {
			break
		}
		if spec.Duration > 0 && !time.Now().Before(deadline) {
			break
		}
		if !s.sleep(ctx, s.sim.CycleInterval.Duration()) {
			s.log.Info("cancelled during sleep, stopping", "cycles", tally.cycles)
			break
		}
	}

	end := time.Now()
	s.snapshot(end, tally)
	report := s.buildReport(start, end, tally)
	s.log.Info("simulation finished",
		"cycles", tally.cycles,
		"opened", tally.opened,
		"portfolio_value", report.FinalValue)
	return report, nil
}

// runTally is the per-run accounting the report is built from.
type runTally struct {
	cycles         int
	snapshots      []journal.SnapshotRecord
	lastSnap       time.Time
	rejections     map[ledger.Reason]int
	found          int
	opened         int
	fetchFailures  int
	analyzerErrors int
}

func (s *Simulator) snapshot(now time.Time, tally *runTally) {
	rec := s.ledger.Snapshot(now)
	tally.snapshots = append(tally.snapshots, rec)
	tally.lastSnap = now
	if err := s.journal.RecordSnapshot(rec); err != nil {
		s.log.Error("record snapshot", "err", err)
	}
}

// runCycle is one pass of fetch, stop-check, analyze, admit. Every failure
// inside a cycle is contained: a fetch error skips the cycle, an analyzer
// error skips that analyzer, a rejected opportunity bumps a counter.
func (s *Simulator) runCycle(ctx context.Context, tally *runTally) {
	fctx, cancel := context.WithTimeout(ctx, s.data.FetchTimeout.Duration())
	defer cancel()

	markets, err := s.source.FetchOpenMarkets(fctx, s.data.MaxMarkets, s.data.Status, s.data.MinVolume)
	if err != nil {
		tally.fetchFailures++
		s.log.Warn("market fetch failed, skipping cycle", "cycle", tally.cycles, "err", err)
		return
	}

	batch := s.enrich(fctx, markets)
	now := time.Now()

	prices := market.ExtractPrices(batch)
	for _, id := range s.ledger.CheckStops(prices, now) {
		s.log.Info("position closed by stop pass", "position", id)
	}

	var opps []analyzer.Opportunity
	for _, a := range s.analyzers {
		found, err := a.Analyze(batch)
		if err != nil {
			tally.analyzerErrors++
			s.log.Error("analyzer failed", "analyzer", a.Name(), "err", err)
			continue
		}
		opps = append(opps, found...)
	}
	tally.found += len(opps)

	for _, opp := range opps {
		decision := s.ledger.Evaluate(opp)
		if !decision.Admitted {
			tally.rejections[decision.Reason]++
			continue
		}
		pos, err := s.ledger.Open(opp, now)
		if err != nil {
			tally.rejections[ledger.ReasonZeroQuantity]++
			s.log.Warn("admitted opportunity failed to open", "err", err)
			continue
		}
		tally.opened++
		s.log.Info("position opened",
			"position", pos.ID,
			"ticker", pos.Ticker,
			"side", pos.Side,
			"entry", pos.EntryPrice,
			"quantity", pos.Quantity,
			"kind", pos.Kind)
	}
}

// enrich fills in missing order books, preferring a live book, falling back
// to a synthetic one, and dropping markets that support neither.
func (s *Simulator) enrich(ctx context.Context, markets []market.Market) []market.Market {
	out := make([]market.Market, 0, len(markets))
	for _, m := range markets {
		if !m.OrderBook.Empty() {
			out = append(out, m)
			continue
		}
		if book, err := s.source.FetchOrderBook(ctx, m.Ticker); err == nil && !book.Empty() {
			m.OrderBook = book
			out = append(out, m)
			continue
		}
		book, ok := market.Synthesize(m.LastPrice, m.Volume)
		if !ok {
			s.log.Debug("dropping market, no usable order book", "ticker", m.Ticker)
			continue
		}
		m.OrderBook = book
		out = append(out, m)
	}
	return out
}
