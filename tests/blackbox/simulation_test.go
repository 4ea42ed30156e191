// End-to-end run: a fake Kalshi API served over httptest, the real client,
// analyzers, ledger and scheduler, with trades journaled to SQLite.
package blackbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/predictsim/analyzer"
	"github.com/rustyeddy/predictsim/config"
	"github.com/rustyeddy/predictsim/journal"
	"github.com/rustyeddy/predictsim/kalshi"
	"github.com/rustyeddy/predictsim/ledger"
	"github.com/rustyeddy/predictsim/sim"
)

// fakeExchange serves /markets and per-market order books. The yes bid for
// the spread market collapses after the first cycle to trip the stop-loss.
type fakeExchange struct {
	cycles atomic.Int32
}

func (f *fakeExchange) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/markets", func(w http.ResponseWriter, r *http.Request) {
		f.cycles.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"markets": []map[string]any{
				{
					"ticker":     "KXDEMO-SPREAD",
					"title":      "Wide spread market",
					"last_price": 32,
					"volume":     5000,
				},
				{
					"ticker":     "KXDEMO-QUIET",
					"title":      "Tight market, nothing to do",
					"last_price": 50,
					"volume":     200,
				},
			},
			"cursor": "",
		})
	})

	mux.HandleFunc("/markets/KXDEMO-SPREAD/orderbook", func(w http.ResponseWriter, r *http.Request) {
		yesBid := 30
		if f.cycles.Load() > 1 {
			yesBid = 20 // below the 20% stop at 24
		}
		json.NewEncoder(w).Encode(map[string]any{
			"orderbook": map[string]any{
				"yes": [][2]int{{yesBid, 500}},
				"no":  [][2]int{{50, 500}},
			},
		})
	})

	mux.HandleFunc("/markets/KXDEMO-QUIET/orderbook", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"orderbook": map[string]any{
				"yes": [][2]int{{49, 100}},
				"no":  [][2]int{{49, 100}},
			},
		})
	})

	return mux
}

func testConfig(baseURL, dbPath string) *config.Config {
	cfg := config.Default()
	cfg.Trading.Capital = 10000
	cfg.Trading.MaxPositionSize = 900
	cfg.Trading.MinConfidence = analyzer.Low
	cfg.Trading.MinStrength = analyzer.Soft
	cfg.Trading.MinEdgeCents = 2
	cfg.Trading.MinEdgePercent = 1
	cfg.Trading.StopLossPercent = 20
	cfg.Trading.TakeProfitPercent = 50
	cfg.Data.BaseURL = baseURL
	cfg.Data.CacheTTL = 0 // every cycle must see fresh books
	cfg.Data.FetchTimeout = config.Duration(2 * time.Second)
	cfg.Sim.CycleInterval = config.Duration(time.Millisecond)
	cfg.Sim.SnapshotInterval = config.Duration(time.Hour)
	cfg.Journal.Type = "sqlite"
	cfg.Journal.DBPath = dbPath
	return cfg
}

func TestSimulationEndToEnd(t *testing.T) {
	exchange := &fakeExchange{}
	server := httptest.NewServer(exchange.handler())
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "run.db")
	cfg := testConfig(server.URL, dbPath)
	require.NoError(t, cfg.Validate())

	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	defer j.Close()

	book, err := ledger.New(cfg.Trading, j)
	require.NoError(t, err)

	spread := analyzer.NewSpread(analyzer.DefaultSpreadConfig())
	client := kalshi.NewClient(cfg.Data)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	simulator := sim.New(cfg, client, []analyzer.Analyzer{spread}, book, j, log)

	report, err := simulator.Run(context.Background(), sim.RunSpec{Cycles: 2})
	require.NoError(t, err)

	// Cycle 1 opens the spread market at yes 30 (stop 24); cycle 2 reprices
	// to 20 and the stop pass closes it.
	assert.Equal(t, 2, report.Cycles)
	require.GreaterOrEqual(t, report.PositionsOpened, 1)

	closed := book.ClosedPositions()
	require.NotEmpty(t, closed)
	first := closed[0]
	assert.Equal(t, "KXDEMO-SPREAD", first.Ticker)
	assert.Equal(t, ledger.CloseStopLoss, first.Reason)
	assert.Equal(t, 30, first.EntryPrice)
	assert.Equal(t, int64(-300), first.RealizedPnL) // (20-30) x 30 contracts

	// The stop-loss close landed in the SQLite journal.
	rec, err := j.GetTrade(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "stop_loss", rec.Reason)
	assert.Equal(t, int64(-300), rec.RealizedPnL)

	// The quiet market never produced an opportunity.
	for _, pos := range closed {
		assert.NotEqual(t, "KXDEMO-QUIET", pos.Ticker)
	}

	// Portfolio identity at rest.
	assert.Equal(t, book.Cash()+book.PositionValue(), book.PortfolioValue())
}

func TestSimulationSurvivesExchangeOutage(t *testing.T) {
	exchange := &fakeExchange{}
	inner := exchange.handler()

	// The first market fetch hits an outage; the exchange recovers after.
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/markets" && requests.Add(1) == 1 {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer server.Close()

	cfg := testConfig(server.URL, filepath.Join(t.TempDir(), "run.db"))
	cfg.Journal.Type = "none"
	cfg.Journal.DBPath = ""

	book, err := ledger.New(cfg.Trading, journal.Discard{})
	require.NoError(t, err)

	spread := analyzer.NewSpread(analyzer.DefaultSpreadConfig())
	client := kalshi.NewClient(cfg.Data)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	simulator := sim.New(cfg, client, []analyzer.Analyzer{spread}, book, journal.Discard{}, log)

	report, err := simulator.Run(context.Background(), sim.RunSpec{Cycles: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Cycles)
	assert.Equal(t, 1, report.FetchFailures)
	assert.GreaterOrEqual(t, report.PositionsOpened, 1, "trading resumes after the outage")
}
