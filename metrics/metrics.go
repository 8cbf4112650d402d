// Package metrics derives aggregate performance statistics from a completed
// trade history and equity curve. Compute is a pure function of its inputs;
// nothing here mutates simulator state.
package metrics

import (
	"math"
	"time"

	"github.com/quantfold/tradesim/sim"
)

// Metrics summarizes a simulation run. All ratios resolve to 0 on empty
// input; the only defined infinity is ProfitFactor with zero gross loss.
type Metrics struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // 0..1

	GrossProfit  float64
	GrossLoss    float64 // absolute value
	ProfitFactor float64 // +Inf when GrossLoss == 0 and GrossProfit > 0

	TotalPnL        float64
	TotalPnLPercent float64
	TotalFees       float64

	AvgWin      float64
	AvgLoss     float64
	LargestWin  float64
	LargestLoss float64

	SharpeRatio      float64
	MaxDrawdown      float64
	MaxDrawdownPct   float64
	CalmarRatio      float64
	AnnualizedReturn float64

	MaxWinStreak  int
	MaxLossStreak int

	TradingDays float64
}

// Compute derives metrics from the trade history and equity curve. The
// start time anchors the trading-day count for annualization.
func Compute(trades []sim.Trade, curve []sim.EquityPoint, start time.Time) Metrics {
	var m Metrics
	m.TotalTrades = len(trades)

	winStreak, lossStreak := 0, 0
	for _, t := range trades {
		m.TotalPnL += t.NetPnL
		m.TotalFees += t.Fees

		if t.NetPnL > 0 {
			m.Wins++
			m.GrossProfit += t.NetPnL
			if t.NetPnL > m.LargestWin {
				m.LargestWin = t.NetPnL
			}
			winStreak++
			lossStreak = 0
		} else {
			m.Losses++
			m.GrossLoss += -t.NetPnL
			if t.NetPnL < m.LargestLoss {
				m.LargestLoss = t.NetPnL
			}
			lossStreak++
			winStreak = 0
		}
		if winStreak > m.MaxWinStreak {
			m.MaxWinStreak = winStreak
		}
		if lossStreak > m.MaxLossStreak {
			m.MaxLossStreak = lossStreak
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.Wins) / float64(m.TotalTrades)
	}
	if m.Wins > 0 {
		m.AvgWin = m.GrossProfit / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = -m.GrossLoss / float64(m.Losses)
	}

	switch {
	case m.GrossLoss > 0:
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	case m.GrossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	default:
		m.ProfitFactor = 0
	}

	if len(curve) > 0 && curve[0].Equity > 0 {
		m.TotalPnLPercent = (curve[len(curve)-1].Equity - curve[0].Equity) / curve[0].Equity * 100
	}

	m.SharpeRatio = sharpe(curve)
	m.MaxDrawdown, m.MaxDrawdownPct = maxDrawdown(curve)

	if m.MaxDrawdownPct > 0 {
		m.CalmarRatio = m.TotalPnLPercent / m.MaxDrawdownPct
	}

	m.TradingDays = tradingDays(curve, trades, start)
	if m.TradingDays > 0 {
		m.AnnualizedReturn = math.Pow(1+m.TotalPnLPercent/100, 365/m.TradingDays) - 1
	}

	return m
}

// sharpe computes the annualized Sharpe ratio over the per-sample return
// series of the equity curve, skipping zero-length steps. Returns 0 when
// the return series is degenerate.
func sharpe(curve []sim.EquityPoint) float64 {
	var returns []float64
	for i := 1; i < len(curve); i++ {
		if !curve[i].Time.After(curve[i-1].Time) {
			continue // zero-length step
		}
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	stdev := math.Sqrt(variance / float64(len(returns)))
	if stdev == 0 {
		return 0
	}
	return mean / stdev * math.Sqrt(252)
}

// maxDrawdown scans the equity curve for the largest peak-to-trough
// decline, in currency and as a percent of the peak.
func maxDrawdown(curve []sim.EquityPoint) (dd, ddPct float64) {
	peak := 0.0
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak <= 0 {
			continue
		}
		d := peak - pt.Equity
		if d > dd {
			dd = d
		}
		if pct := d / peak * 100; pct > ddPct {
			ddPct = pct
		}
	}
	return dd, ddPct
}

// tradingDays measures the span from start to the last observed sample.
func tradingDays(curve []sim.EquityPoint, trades []sim.Trade, start time.Time) float64 {
	if start.IsZero() {
		return 0
	}
	var last time.Time
	if len(curve) > 0 {
		last = curve[len(curve)-1].Time
	}
	if len(trades) > 0 && trades[len(trades)-1].CloseTime.After(last) {
		last = trades[len(trades)-1].CloseTime
	}
	if !last.After(start) {
		return 0
	}
	return last.Sub(start).Hours() / 24
}
