package sim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/predictsim/analyzer"
	"github.com/rustyeddy/predictsim/config"
	"github.com/rustyeddy/predictsim/journal"
	"github.com/rustyeddy/predictsim/ledger"
	"github.com/rustyeddy/predictsim/market"
)

// stubSource serves one market whose yes price follows a per-call schedule.
type stubSource struct {
	calls  int
	price  func(call int) int
	block  bool
	err    error
	noBook bool
}

func (s *stubSource) FetchOpenMarkets(ctx context.Context, maxMarkets int, status string, minVolume int) ([]market.Market, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}

	yes := 40
	if s.price != nil {
		yes = s.price(s.calls)
	}
	m := market.Market{
		Ticker:    "STUB-MKT",
		Title:     "Stub market",
		LastPrice: yes,
		Volume:    5000,
	}
	if !s.noBook {
		m.OrderBook = market.OrderBook{
			Yes: []market.Level{{Price: yes, Quantity: 100}},
			No:  []market.Level{{Price: 100 - yes - 4, Quantity: 100}},
		}
	}
	return []market.Market{m}, nil
}

func (s *stubSource) FetchOrderBook(ctx context.Context, ticker string) (market.OrderBook, error) {
	return market.OrderBook{}, errors.New("no book")
}

// stubAnalyzer emits one high/hard yes opportunity per market.
type stubAnalyzer struct {
	name string
	err  error
}

func (a stubAnalyzer) Name() string { return a.name }

func (a stubAnalyzer) Analyze(markets []market.Market) ([]analyzer.Opportunity, error) {
	if a.err != nil {
		return nil, a.err
	}
	var opps []analyzer.Opportunity
	for _, m := range markets {
		yes, ok := m.OrderBook.BestBid(market.Yes)
		if !ok {
			continue
		}
		opps = append(opps, analyzer.Opportunity{
			Kind:        "stub",
			Confidence:  analyzer.High,
			Strength:    analyzer.Hard,
			Timestamp:   time.Now(),
			Tickers:     []string{m.Ticker},
			Prices:      map[string]int{m.Ticker: yes.Price},
			EdgeCents:   10,
			EdgePercent: 10,
			Data:        map[string]any{analyzer.SuggestedSideKey: "yes"},
		})
	}
	return opps, nil
}

func testSimConfig() *config.Config {
	cfg := config.Default()
	cfg.Trading.Capital = 10000
	cfg.Trading.MaxPositionSize = 1000
	cfg.Trading.MinConfidence = analyzer.Low
	cfg.Trading.MinStrength = analyzer.Soft
	cfg.Trading.MinEdgeCents = 1
	cfg.Trading.MinEdgePercent = 1
	cfg.Trading.StopLossPercent = 20
	cfg.Trading.TakeProfitPercent = 50
	cfg.Data.FetchTimeout = config.Duration(100 * time.Millisecond)
	cfg.Sim.CycleInterval = config.Duration(time.Millisecond)
	cfg.Sim.SnapshotInterval = config.Duration(time.Hour)
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSimulator(t *testing.T, cfg *config.Config, src market.DataSource, analyzers []analyzer.Analyzer) (*Simulator, *ledger.Ledger) {
	t.Helper()
	l, err := ledger.New(cfg.Trading, journal.Discard{})
	require.NoError(t, err)
	return New(cfg, src, analyzers, l, journal.Discard{}, quietLogger()), l
}

func TestRunSpecValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec RunSpec
		ok   bool
	}{
		{"cycles", RunSpec{Cycles: 5}, true},
		{"duration", RunSpec{Duration: time.Minute}, true},
		{"continuous", RunSpec{Continuous: true}, true},
		{"none", RunSpec{}, false},
		{"two_modes", RunSpec{Cycles: 5, Continuous: true}, false},
		{"all_modes", RunSpec{Cycles: 1, Duration: time.Second, Continuous: true}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.spec.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRunRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s, _ := newSimulator(t, testSimConfig(), &stubSource{}, nil)
	_, err := s.Run(context.Background(), RunSpec{})
	assert.Error(t, err)
}

func TestFixedCycleCount(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	s, l := newSimulator(t, testSimConfig(), src, []analyzer.Analyzer{stubAnalyzer{name: "stub"}})

	report, err := s.Run(context.Background(), RunSpec{Cycles: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Cycles)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 3, report.OpportunitiesFound)

	// First cycle opens; the duplicate check blocks the next two.
	assert.Equal(t, 1, report.PositionsOpened)
	assert.Equal(t, 2, report.Rejections[ledger.ReasonDuplicatePosition])
	assert.Equal(t, 1, l.NumOpen())

	// Initial and final snapshots bracket the run.
	assert.Equal(t, 2, report.Snapshots)
	assert.Equal(t, l.PortfolioValue(), report.FinalValue)
}

func TestDurationMode(t *testing.T) {
	t.Parallel()

	s, _ := newSimulator(t, testSimConfig(), &stubSource{}, nil)

	start := time.Now()
	report, err := s.Run(context.Background(), RunSpec{Duration: 30 * time.Millisecond})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.GreaterOrEqual(t, report.Cycles, 1)
}

func TestContinuousCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	s, _ := newSimulator(t, testSimConfig(), &stubSource{}, []analyzer.Analyzer{stubAnalyzer{name: "stub"}})

	report, err := s.Run(ctx, RunSpec{Continuous: true})
	require.NoError(t, err)

	// Cancellation still yields the final snapshot and a full report.
	assert.GreaterOrEqual(t, report.Cycles, 1)
	assert.GreaterOrEqual(t, report.Snapshots, 2)
	assert.False(t, report.End.IsZero())
}

func TestFetchTimeoutSkipsCycle(t *testing.T) {
	t.Parallel()

	cfg := testSimConfig()
	cfg.Data.FetchTimeout = config.Duration(5 * time.Millisecond)

	src := &stubSource{block: true}
	s, l := newSimulator(t, cfg, src, []analyzer.Analyzer{stubAnalyzer{name: "stub"}})

	report, err := s.Run(context.Background(), RunSpec{Cycles: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Cycles)
	assert.Equal(t, 2, report.FetchFailures)
	assert.Equal(t, 0, report.OpportunitiesFound)
	assert.Equal(t, 0, report.PositionsOpened)
	assert.Equal(t, int64(10000), l.PortfolioValue())
}

func TestFetchErrorSkipsCycle(t *testing.T) {
	t.Parallel()

	src := &stubSource{err: errors.New("exchange down")}
	s, _ := newSimulator(t, testSimConfig(), src, []analyzer.Analyzer{stubAnalyzer{name: "stub"}})

	report, err := s.Run(context.Background(), RunSpec{Cycles: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, report.FetchFailures)
}

func TestAnalyzerFailureIsContained(t *testing.T) {
	t.Parallel()

	analyzers := []analyzer.Analyzer{
		stubAnalyzer{name: "broken", err: errors.New("boom")},
		stubAnalyzer{name: "stub"},
	}
	s, _ := newSimulator(t, testSimConfig(), &stubSource{}, analyzers)

	report, err := s.Run(context.Background(), RunSpec{Cycles: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.AnalyzerErrors)
	assert.Equal(t, 1, report.PositionsOpened, "healthy analyzer still trades")
}

func TestStopLossAcrossCycles(t *testing.T) {
	t.Parallel()

	// Cycle 1 opens at 40; cycle 2 reprices to 30, below the 20% stop at 32.
	src := &stubSource{price: func(call int) int {
		if call == 1 {
			return 40
		}
		return 30
	}}
	s, l := newSimulator(t, testSimConfig(), src, []analyzer.Analyzer{stubAnalyzer{name: "stub"}})

	report, err := s.Run(context.Background(), RunSpec{Cycles: 2})
	require.NoError(t, err)

	closed := l.ClosedPositions()
	require.Len(t, closed, 1)
	assert.Equal(t, ledger.CloseStopLoss, closed[0].Reason)
	assert.Equal(t, int64(-250), closed[0].RealizedPnL) // (30-40) x 25

	// The ticker is free again after the stop, so cycle 2 reopens at 30.
	assert.Equal(t, 2, report.PositionsOpened)
	assert.Equal(t, 1, report.PositionsClosed)
	assert.Equal(t, int64(-250), report.RealizedPnL)
}

func TestEnrichSyntheticFallback(t *testing.T) {
	t.Parallel()

	s, _ := newSimulator(t, testSimConfig(), &stubSource{}, nil)

	markets := []market.Market{
		{Ticker: "HAS-BOOK", LastPrice: 50, Volume: 100,
			OrderBook: market.OrderBook{
				Yes: []market.Level{{Price: 48, Quantity: 10}},
				No:  []market.Level{{Price: 50, Quantity: 10}},
			}},
		{Ticker: "NEEDS-SYNTH", LastPrice: 40, Volume: 20000},
		{Ticker: "NO-PRICE", LastPrice: 0, Volume: 500},
	}

	out := s.enrich(context.Background(), markets)
	require.Len(t, out, 2)

	assert.Equal(t, "HAS-BOOK", out[0].Ticker)
	assert.Equal(t, 48, out[0].OrderBook.Yes[0].Price, "live book preserved")

	assert.Equal(t, "NEEDS-SYNTH", out[1].Ticker)
	best, ok := out[1].OrderBook.BestBid(market.Yes)
	require.True(t, ok)
	assert.Equal(t, 39, best.Price, "2 cent spread at this volume")
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	series := func(values ...int64) []journal.SnapshotRecord {
		out := make([]journal.SnapshotRecord, len(values))
		for i, v := range values {
			out[i] = journal.SnapshotRecord{PortfolioValue: v}
		}
		return out
	}

	tests := []struct {
		name   string
		series []journal.SnapshotRecord
		want   float64
	}{
		{"empty", nil, 0},
		{"monotonic_up", series(100, 110, 120), 0},
		{"single_dip", series(100, 120, 90, 130), 25},
		{"later_peak_smaller_dip", series(100, 120, 90, 200, 170), 25},
		{"trough_after_last_peak", series(100, 200, 150, 160), 25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, maxDrawdown(tt.series), 1e-9)
		})
	}
}

func TestReportPrintSummary(t *testing.T) {
	t.Parallel()

	r := &Report{
		Start:              time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		End:                time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
		Duration:           time.Hour,
		Cycles:             60,
		Snapshots:          13,
		InitialValue:       10000,
		FinalValue:         10625,
		TotalPnL:           625,
		RealizedPnL:        625,
		ReturnPercent:      6.25,
		OpportunitiesFound: 40,
		PositionsOpened:    4,
		PositionsClosed:    2,
		WinRate:            100,
		AvgWin:             312.5,
		ProfitFactor:       math.Inf(1),
		Rejections: map[ledger.Reason]int{
			ledger.ReasonDuplicatePosition: 30,
			ledger.ReasonLowConfidence:     6,
		},
	}

	var buf bytes.Buffer
	r.PrintSummary(&buf)
	out := buf.String()

	assert.Contains(t, out, "Simulation Report")
	assert.Contains(t, out, "$106.25")
	assert.Contains(t, out, "6.25%")
	assert.Contains(t, out, "Profit factor:    inf")
	assert.Contains(t, out, "duplicate_position")
	assert.Contains(t, out, "40 found, 4 traded (10.0%)")
}

func TestConversionZeroWhenNothingFound(t *testing.T) {
	t.Parallel()

	r := &Report{}
	assert.Zero(t, r.Conversion())
}
