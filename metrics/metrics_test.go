package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/quantfold/tradesim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradesFromPnl(start time.Time, pnls ...float64) []sim.Trade {
	out := make([]sim.Trade, len(pnls))
	for i, pnl := range pnls {
		out[i] = sim.Trade{
			NetPnL:    pnl,
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			CloseTime: start.Add(time.Duration(i+1) * time.Hour),
		}
	}
	return out
}

func curveFromEquity(start time.Time, step time.Duration, equities ...float64) []sim.EquityPoint {
	out := make([]sim.EquityPoint, len(equities))
	for i, eq := range equities {
		out[i] = sim.EquityPoint{Time: start.Add(time.Duration(i) * step), Equity: eq}
	}
	return out
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	m := Compute(nil, nil, time.Time{})

	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.ProfitFactor)
	assert.Zero(t, m.CalmarRatio)
	assert.Zero(t, m.AnnualizedReturn)
	assert.False(t, math.IsNaN(m.WinRate))
	assert.False(t, math.IsNaN(m.SharpeRatio))
}

func TestComputeStreaksAndWinRate(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := tradesFromPnl(start, 100, -50, 200, -30, -20)

	m := Compute(trades, nil, start)

	assert.Equal(t, 5, m.TotalTrades)
	assert.Equal(t, 2, m.Wins)
	assert.Equal(t, 3, m.Losses)
	assert.InDelta(t, 0.40, m.WinRate, 1e-9)
	assert.Equal(t, 1, m.MaxWinStreak)
	assert.Equal(t, 2, m.MaxLossStreak)
	assert.InDelta(t, 200.0, m.TotalPnL, 1e-9)
	assert.InDelta(t, 300.0, m.GrossProfit, 1e-9)
	assert.InDelta(t, 100.0, m.GrossLoss, 1e-9)
	assert.InDelta(t, 3.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 200.0, m.LargestWin, 1e-9)
	assert.InDelta(t, -50.0, m.LargestLoss, 1e-9)
}

func TestProfitFactorEdges(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// No losses: profit factor is +Inf.
	m := Compute(tradesFromPnl(start, 100, 50), nil, start)
	assert.True(t, math.IsInf(m.ProfitFactor, 1))

	// Break-even trades count as losses with zero gross either way.
	m = Compute(tradesFromPnl(start, 0, 0), nil, start)
	assert.Zero(t, m.ProfitFactor)
	assert.Equal(t, 2, m.Losses)
}

func TestSharpe(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Constant equity: stdev 0, Sharpe 0.
	m := Compute(nil, curveFromEquity(start, time.Hour, 1000, 1000, 1000), start)
	assert.Zero(t, m.SharpeRatio)

	// Alternating returns produce a finite Sharpe.
	m = Compute(nil, curveFromEquity(start, time.Hour, 1000, 1100, 1050, 1150, 1100), start)
	assert.False(t, math.IsNaN(m.SharpeRatio))
	assert.NotZero(t, m.SharpeRatio)

	// Zero-length steps are skipped.
	curve := []sim.EquityPoint{
		{Time: start, Equity: 1000},
		{Time: start, Equity: 2000}, // same timestamp, ignored
		{Time: start.Add(time.Hour), Equity: 1000},
	}
	m = Compute(nil, curve, start)
	assert.Zero(t, m.SharpeRatio) // only one usable return remains
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// Peak 1200, trough 900: dd 300, 25%.
	curve := curveFromEquity(start, time.Hour, 1000, 1200, 900, 1100)

	m := Compute(nil, curve, start)
	assert.InDelta(t, 300.0, m.MaxDrawdown, 1e-9)
	assert.InDelta(t, 25.0, m.MaxDrawdownPct, 1e-9)

	// Total return 10% on a 25% drawdown: Calmar 0.4.
	assert.InDelta(t, 10.0, m.TotalPnLPercent, 1e-9)
	assert.InDelta(t, 0.4, m.CalmarRatio, 1e-9)
}

func TestAnnualizedReturn(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// +10% over exactly 365 days annualizes to 10%.
	curve := []sim.EquityPoint{
		{Time: start, Equity: 1000},
		{Time: start.AddDate(1, 0, 0), Equity: 1100},
	}

	m := Compute(nil, curve, start)
	require.InDelta(t, 365.0, m.TradingDays, 0.01)
	assert.InDelta(t, 0.10, m.AnnualizedReturn, 0.001)

	// Zero trading days: annualized return stays 0.
	m = Compute(nil, curve[:1], start)
	assert.Zero(t, m.AnnualizedReturn)
}
