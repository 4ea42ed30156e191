package sim

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/predictsim/journal"
	"github.com/rustyeddy/predictsim/ledger"
)

// Report is the end-of-run summary: timing, portfolio metrics over the
// snapshot series, closed-trade statistics and the admission rejection tally.
type Report struct {
	Start     time.Time
	End       time.Time
	Duration  time.Duration
	Cycles    int
	Snapshots int

	InitialValue  int64 // cents
	FinalValue    int64
	TotalPnL      int64
	RealizedPnL   int64
	UnrealizedPnL int64
	ReturnPercent float64
	MaxDrawdown   float64 // percent, peak to trough over the snapshot series

	OpportunitiesFound int
	PositionsOpened    int
	PositionsClosed    int
	OpenAtEnd          int
	WinRate            float64 // percent of closed positions
	AvgWin             float64 // cents
	AvgLoss            float64 // cents
	ProfitFactor       float64 // +Inf with winners and no losers

	Rejections     map[ledger.Reason]int
	FetchFailures  int
	AnalyzerErrors int
}

func (s *Simulator) buildReport(start, end time.Time, tally *runTally) *Report {
	sum := s.ledger.Summary()

	r := &Report{
		Start:     start,
		End:       end,
		Duration:  end.Sub(start),
		Cycles:    tally.cycles,
		Snapshots: len(tally.snapshots),

		InitialValue:  sum.InitialCapital,
		FinalValue:    sum.PortfolioValue,
		TotalPnL:      sum.TotalPnL,
		RealizedPnL:   sum.RealizedPnL,
		UnrealizedPnL: sum.UnrealizedPnL,
		ReturnPercent: sum.ReturnPercent,
		MaxDrawdown:   maxDrawdown(tally.snapshots),

		OpportunitiesFound: tally.found,
		PositionsOpened:    tally.opened,
		PositionsClosed:    sum.ClosedPositions,
		OpenAtEnd:          sum.OpenPositions,
		WinRate:            sum.WinRate,
		AvgWin:             sum.AvgWin,
		AvgLoss:            sum.AvgLoss,
		ProfitFactor:       sum.ProfitFactor,

		Rejections:     tally.rejections,
		FetchFailures:  tally.fetchFailures,
		AnalyzerErrors: tally.analyzerErrors,
	}
	return r
}

// maxDrawdown is the largest peak-to-trough decline of portfolio value over
// the snapshot series, as a percent of the peak.
func maxDrawdown(series []journal.SnapshotRecord) float64 {
	var peak int64
	var worst float64
	for _, snap := range series {
		if snap.PortfolioValue > peak {
			peak = snap.PortfolioValue
		}
		if peak <= 0 {
			continue
		}
		dd := float64(peak-snap.PortfolioValue) / float64(peak) * 100
		if dd > worst {
			worst = dd
		}
	}
	return worst
}

// Conversion is opened / found as a percent, 0 when nothing was found.
func (r *Report) Conversion() float64 {
	if r.OpportunitiesFound == 0 {
		return 0
	}
	return float64(r.PositionsOpened) / float64(r.OpportunitiesFound) * 100
}

// PrintSummary renders the report for the console.
func (r *Report) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Report ===")
	fmt.Fprintf(w, "Start:            %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:              %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:         %s\n", r.Duration.Round(time.Second))
	fmt.Fprintf(w, "Cycles:           %d\n", r.Cycles)
	fmt.Fprintf(w, "Snapshots:        %d\n", r.Snapshots)

	fmt.Fprintln(w, "\n--- Portfolio ---")
	fmt.Fprintf(w, "Initial value:    %s\n", cents(r.InitialValue))
	fmt.Fprintf(w, "Final value:      %s\n", cents(r.FinalValue))
	fmt.Fprintf(w, "Total P&L:        %s (realized %s, unrealized %s)\n",
		cents(r.TotalPnL), cents(r.RealizedPnL), cents(r.UnrealizedPnL))
	fmt.Fprintf(w, "Return:           %.2f%%\n", r.ReturnPercent)
	fmt.Fprintf(w, "Max drawdown:     %.2f%%\n", r.MaxDrawdown)

	fmt.Fprintln(w, "\n--- Trading ---")
	fmt.Fprintf(w, "Opportunities:    %d found, %d traded (%.1f%%)\n",
		r.OpportunitiesFound, r.PositionsOpened, r.Conversion())
	fmt.Fprintf(w, "Closed positions: %d (win rate %.1f%%)\n", r.PositionsClosed, r.WinRate)
	fmt.Fprintf(w, "Open at end:      %d\n", r.OpenAtEnd)
	fmt.Fprintf(w, "Avg win / loss:   %s / %s\n", centsF(r.AvgWin), centsF(r.AvgLoss))
	if math.IsInf(r.ProfitFactor, 1) {
		fmt.Fprintf(w, "Profit factor:    inf\n")
	} else {
		fmt.Fprintf(w, "Profit factor:    %.2f\n", r.ProfitFactor)
	}

	if len(r.Rejections) > 0 {
		fmt.Fprintln(w, "\n--- Rejections ---")
		reasons := make([]string, 0, len(r.Rejections))
		for reason := range r.Rejections {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "%-32s %d\n", reason, r.Rejections[ledger.Reason(reason)])
		}
	}

	if r.FetchFailures > 0 || r.AnalyzerErrors > 0 {
		fmt.Fprintln(w, "\n--- Errors ---")
		fmt.Fprintf(w, "Skipped cycles (fetch):  %d\n", r.FetchFailures)
		fmt.Fprintf(w, "Analyzer failures:       %d\n", r.AnalyzerErrors)
	}
}

func cents(v int64) string {
	return fmt.Sprintf("$%.2f", float64(v)/100)
}

func centsF(v float64) string {
	return fmt.Sprintf("$%.2f", v/100)
}
