package backtest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quantfold/tradesim/journal"
)

// Summary renders a human-readable report of the run.
func (r Result) Summary() string {
	m := r.Metrics

	var b strings.Builder
	fmt.Fprintf(&b, "Backtest %s -> %s (%.1f days)\n",
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), m.TradingDays)
	fmt.Fprintf(&b, "  Final balance:   %.2f\n", r.FinalBalance)
	fmt.Fprintf(&b, "  Final equity:    %.2f\n", r.FinalEquity)
	fmt.Fprintf(&b, "  Net PnL:         %.2f (%.2f%%)\n", m.TotalPnL, m.TotalPnLPercent)
	fmt.Fprintf(&b, "  Fees paid:       %.2f\n", m.TotalFees)
	fmt.Fprintf(&b, "  Trades:          %d (%d wins / %d losses, %.1f%% win rate)\n",
		m.TotalTrades, m.Wins, m.Losses, m.WinRate*100)
	fmt.Fprintf(&b, "  Profit factor:   %s\n", formatRatio(m.ProfitFactor))
	fmt.Fprintf(&b, "  Sharpe ratio:    %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "  Max drawdown:    %.2f (%.2f%%)\n", m.MaxDrawdown, m.MaxDrawdownPct)
	fmt.Fprintf(&b, "  Calmar ratio:    %.2f\n", m.CalmarRatio)
	fmt.Fprintf(&b, "  Annualized:      %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Fprintf(&b, "  Streaks:         %d wins / %d losses\n", m.MaxWinStreak, m.MaxLossStreak)
	return b.String()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

// RunRecord converts the result into a runs-table row for persistence.
func (r Result) RunRecord(runID, symbol, timeframe, dataset, strategy string, params []byte, initialBalance float64) journal.Run {
	return journal.Run{
		RunID:          runID,
		Created:        time.Now().UTC(),
		Symbol:         symbol,
		Timeframe:      timeframe,
		Dataset:        dataset,
		Strategy:       strategy,
		Params:         params,
		Start:          r.Start,
		End:            r.End,
		InitialBalance: initialBalance,
		FinalEquity:    r.FinalEquity,
		Trades:         r.Metrics.TotalTrades,
		Wins:           r.Metrics.Wins,
		Losses:         r.Metrics.Losses,
		NetPnL:         r.Metrics.TotalPnL,
		ReturnPct:      r.Metrics.TotalPnLPercent,
		WinRate:        r.Metrics.WinRate,
		ProfitFactor:   r.Metrics.ProfitFactor,
		SharpeRatio:    r.Metrics.SharpeRatio,
		MaxDrawdownPct: r.Metrics.MaxDrawdownPct,
	}
}
