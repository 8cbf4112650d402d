package sim

import (
	"testing"
	"time"

	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/tactics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, balance float64, mutate ...func(*Params)) *Engine {
	t.Helper()
	p := Params{
		AccountID:      "acct-1",
		InitialBalance: balance,
		MaxLeverage:    20,
	}
	for _, fn := range mutate {
		fn(&p)
	}
	e, err := NewEngine(p)
	require.NoError(t, err)
	return e
}

func openLong(t *testing.T, e *Engine, symbol string, size, price, lev float64) *Position {
	t.Helper()
	p, err := e.OpenPosition(OpenRequest{
		Symbol: symbol, Side: market.Long, Size: size, Price: price, Time: t0, Leverage: lev,
	})
	require.NoError(t, err)
	return p
}

func tick(t *testing.T, e *Engine, symbol string, price float64, at time.Time) {
	t.Helper()
	require.NoError(t, e.UpdatePrice(symbol, price, at))
}

// requireInvariant checks equity == balance + sum of open unrealized PnL.
func requireInvariant(t *testing.T, e *Engine) {
	t.Helper()
	acct := e.Account()
	require.InDelta(t, acct.Balance+acct.UsedMargin()+acct.UnrealizedPnL(), acct.Equity, 1e-6)
}

// requireSizeConservation checks entries == exits + remaining size.
func requireSizeConservation(t *testing.T, p *Position) {
	t.Helper()
	var entries, exits float64
	for _, f := range p.Entries {
		entries += f.Size
	}
	for _, f := range p.Exits {
		exits += f.Size
	}
	require.InDelta(t, entries, exits+p.Size, 1e-9)
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(Params{})
	assert.Error(t, err)

	_, err = NewEngine(Params{InitialBalance: 1000, MaxOpenPositions: -1})
	assert.Error(t, err)

	_, err = NewEngine(Params{InitialBalance: 1000, Tactics: []tactics.Set{{Name: ""}}})
	assert.Error(t, err)

	// Overweight take-profit percents produce a warning, not an error.
	e, err := NewEngine(Params{InitialBalance: 1000, Tactics: []tactics.Set{{
		Name:  "greedy",
		Entry: tactics.EntryMarket,
		Targets: []tactics.TakeProfitTarget{
			{Percent: 5, ClosePercent: 70},
			{Percent: 10, ClosePercent: 70},
		},
	}}})
	require.NoError(t, err)
	assert.Len(t, e.Warnings(), 1)
}

func TestOpenPositionMarginAndLiquidation(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)
	p := openLong(t, e, "BTCUSDT", 1, 50000, 10)

	assert.InDelta(t, 5000.0, p.Margin, 1e-9)
	assert.InDelta(t, 45000.0, p.LiquidationPrice, 1e-9)
	assert.Equal(t, PositionOpen, p.Status)
	assert.InDelta(t, 5000.0, e.Account().Balance, 1e-9) // 10000 - margin, no fee configured
	requireInvariant(t, e)
}

func TestLiquidationPriceAdverseSide(t *testing.T) {
	t.Parallel()

	for _, lev := range []float64{2, 5, 10, 20} {
		e := newTestEngine(t, 1e9, func(p *Params) { p.MaxOpenPositions = 2 })

		long, err := e.OpenPosition(OpenRequest{
			Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: lev,
		})
		require.NoError(t, err)
		assert.Less(t, long.LiquidationPrice, long.AvgEntryPrice(), "long liq below entry at %vx", lev)

		short, err := e.OpenPosition(OpenRequest{
			Symbol: "ETHUSDT", Side: market.Short, Size: 1, Price: 2000, Time: t0, Leverage: lev,
		})
		require.NoError(t, err)
		assert.Greater(t, short.LiquidationPrice, short.AvgEntryPrice(), "short liq above entry at %vx", lev)
	}
}

func TestOpenPositionInsufficientBalance(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100)
	_, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 10,
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// All-or-nothing: no partial state mutation.
	assert.InDelta(t, 100.0, e.Account().Balance, 1e-9)
	assert.Zero(t, e.Account().OpenCount())
}

func TestOpenPositionLimits(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100000, func(p *Params) { p.MaxOpenPositions = 2 })

	openLong(t, e, "BTCUSDT", 0.1, 50000, 10)

	_, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Short, Size: 0.1, Price: 50000, Time: t0, Leverage: 10,
	})
	assert.ErrorIs(t, err, ErrDuplicatePosition)

	openLong(t, e, "ETHUSDT", 1, 2000, 10)

	_, err = e.OpenPosition(OpenRequest{
		Symbol: "SOLUSDT", Side: market.Long, Size: 1, Price: 150, Time: t0, Leverage: 10,
	})
	assert.ErrorIs(t, err, ErrMaxOpenPositions)
}

func TestTakeProfitFullClose(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, func(p *Params) { p.FeePercent = 0.1 })
	_, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 10,
		Targets: []tactics.TakeProfitTarget{{Percent: 10, ClosePercent: 100}},
	})
	require.NoError(t, err)

	tick(t, e, "BTCUSDT", 55000, t0.Add(time.Minute))

	acct := e.Account()
	require.Len(t, acct.History, 1)
	trade := acct.History[0]
	assert.Equal(t, ReasonTakeProfit, trade.Reason)
	assert.InDelta(t, 5000.0, trade.PnL, 1e-6)
	assert.Greater(t, trade.Fees, 0.0)
	assert.InDelta(t, 5000.0-trade.Fees, trade.NetPnL, 1e-6)
	assert.Zero(t, acct.OpenCount())
	requireInvariant(t, e)
}

func TestLevelsFireOnExactTouch(t *testing.T) {
	t.Parallel()

	// Percent-resolved levels carry binary rounding error (50000 * 1.1 is
	// not exactly 55000). A tick at the mathematically exact level must
	// still fire the trigger, on both sides, for stops and targets alike.
	t.Run("long take profit", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, 10000)
		_, err := e.OpenPosition(OpenRequest{
			Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 10,
			Targets: []tactics.TakeProfitTarget{{Percent: 10, ClosePercent: 100}},
		})
		require.NoError(t, err)

		tick(t, e, "BTCUSDT", 55000, t0.Add(time.Minute))

		require.Len(t, e.Account().History, 1)
		assert.Equal(t, ReasonTakeProfit, e.Account().History[0].Reason)
	})

	t.Run("short take profit", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, 10000)
		_, err := e.OpenPosition(OpenRequest{
			Symbol: "ETHUSDT", Side: market.Short, Size: 1, Price: 2000, Time: t0, Leverage: 2,
			Targets: []tactics.TakeProfitTarget{{Percent: 10, ClosePercent: 100}},
		})
		require.NoError(t, err)

		tick(t, e, "ETHUSDT", 1800, t0.Add(time.Minute))

		require.Len(t, e.Account().History, 1)
		assert.Equal(t, ReasonTakeProfit, e.Account().History[0].Reason)
	})

	t.Run("long stop loss", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, 10000)
		_, err := e.OpenPosition(OpenRequest{
			Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 10,
			Tactics: &tactics.Set{
				Name:     "stops",
				Entry:    tactics.EntryMarket,
				StopLoss: &tactics.StopLossRule{Percent: 2},
			},
		})
		require.NoError(t, err)

		tick(t, e, "BTCUSDT", 49000, t0.Add(time.Minute))

		require.Len(t, e.Account().History, 1)
		assert.Equal(t, ReasonStopLoss, e.Account().History[0].Reason)
		assert.InDelta(t, 49000.0, e.Account().History[0].AvgExit, 1e-6)
	})

	t.Run("short stop loss", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, 10000)
		_, err := e.OpenPosition(OpenRequest{
			Symbol: "ETHUSDT", Side: market.Short, Size: 1, Price: 2000, Time: t0, Leverage: 2,
			Tactics: &tactics.Set{
				Name:     "stops",
				Entry:    tactics.EntryMarket,
				StopLoss: &tactics.StopLossRule{Percent: 5},
			},
		})
		require.NoError(t, err)

		tick(t, e, "ETHUSDT", 2100, t0.Add(time.Minute))

		require.Len(t, e.Account().History, 1)
		assert.Equal(t, ReasonStopLoss, e.Account().History[0].Reason)
		assert.InDelta(t, 2100.0, e.Account().History[0].AvgExit, 1e-6)
	})
}

func TestStopLossClosesAtStopPrice(t *testing.T) {
	t.Parallel()

	// Short from 2000 with a stop 5% above: stop at 2100. A tick through
	// 2150 must close at the configured stop price, not the tick price.
	e := newTestEngine(t, 10000)
	_, err := e.OpenPosition(OpenRequest{
		Symbol: "ETHUSDT", Side: market.Short, Size: 1, Price: 2000, Time: t0, Leverage: 2,
		Tactics: &tactics.Set{
			Name:     "stops",
			Entry:    tactics.EntryMarket,
			StopLoss: &tactics.StopLossRule{Percent: 5},
		},
	})
	require.NoError(t, err)

	tick(t, e, "ETHUSDT", 2150, t0.Add(time.Minute))

	acct := e.Account()
	require.Len(t, acct.History, 1)
	assert.Equal(t, ReasonStopLoss, acct.History[0].Reason)
	assert.InDelta(t, 2100.0, acct.History[0].AvgExit, 1e-9)
	requireInvariant(t, e)
}

func TestStopLossPrecedesTakeProfitSameTick(t *testing.T) {
	t.Parallel()

	// A synthetic target below the stop: a tick through 48500 satisfies
	// both the stop (price <= 49000) and the target (price >= 48000), and
	// must resolve via the stop.
	e := newTestEngine(t, 10000)
	_, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 0.1, Price: 50000, Time: t0, Leverage: 2,
		StopLoss: 49000,
		Targets:  []tactics.TakeProfitTarget{{Price: 48000, ClosePercent: 100}},
	})
	require.NoError(t, err)

	tick(t, e, "BTCUSDT", 48500, t0.Add(time.Minute))

	acct := e.Account()
	require.Len(t, acct.History, 1)
	assert.Equal(t, ReasonStopLoss, acct.History[0].Reason)
	assert.InDelta(t, 49000.0, acct.History[0].AvgExit, 1e-9)
}

func TestPartialTakeProfits(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100000)
	p, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 10,
		Targets: []tactics.TakeProfitTarget{
			{Price: 51000, ClosePercent: 50},
			{Price: 52000, ClosePercent: 25},
		},
	})
	require.NoError(t, err)

	tick(t, e, "BTCUSDT", 51000, t0.Add(time.Minute))
	assert.InDelta(t, 0.5, p.Size, 1e-9)
	assert.True(t, p.Targets[0].Filled)
	assert.False(t, p.Targets[1].Filled)
	requireSizeConservation(t, p)
	requireInvariant(t, e)

	tick(t, e, "BTCUSDT", 52000, t0.Add(2*time.Minute))
	assert.InDelta(t, 0.25, p.Size, 1e-9)
	assert.True(t, p.Targets[1].Filled)
	requireSizeConservation(t, p)
	requireInvariant(t, e)

	// Close percents summed to 75: a remainder stays open with no target left.
	assert.True(t, p.IsOpen())
	assert.Zero(t, len(e.Account().History))

	// Realized PnL so far: 0.5*1000 + 0.25*2000 = 1000.
	assert.InDelta(t, 1000.0, p.RealizedPnL, 1e-6)
}

func TestBothTargetsOnOneTickCloseFully(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100000)
	p, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 10,
		Targets: []tactics.TakeProfitTarget{
			{Price: 51000, ClosePercent: 50},
			{Price: 52000, ClosePercent: 50},
		},
	})
	require.NoError(t, err)

	tick(t, e, "BTCUSDT", 53000, t0.Add(time.Minute))

	assert.Equal(t, PositionClosed, p.Status)
	assert.Equal(t, ReasonTakeProfit, p.CloseReason)
	require.Len(t, p.Exits, 2)
	// Each slice fills at its own target price, in ascending index order.
	assert.InDelta(t, 51000.0, p.Exits[0].Price, 1e-9)
	assert.InDelta(t, 52000.0, p.Exits[1].Price, 1e-9)
	requireSizeConservation(t, p)
	requireInvariant(t, e)
}

func TestLiquidation(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)
	p := openLong(t, e, "BTCUSDT", 1, 50000, 10)

	tick(t, e, "BTCUSDT", 44000, t0.Add(time.Minute))

	assert.Equal(t, PositionLiquidated, p.Status)
	require.Len(t, e.Account().History, 1)
	trade := e.Account().History[0]
	assert.Equal(t, ReasonLiquidation, trade.Reason)
	// Force-closed at the liquidation price, not the tick price.
	assert.InDelta(t, 45000.0, trade.AvgExit, 1e-9)
	// The whole margin is consumed.
	assert.InDelta(t, -5000.0, trade.NetPnL, 1e-6)
	assert.InDelta(t, 5000.0, e.Account().Balance, 1e-6)
	requireInvariant(t, e)
}

func TestLiquidationOverridesStop(t *testing.T) {
	t.Parallel()

	// Stop placed beyond the liquidation price: a tick through both must
	// resolve via liquidation.
	e := newTestEngine(t, 10000)
	_, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 10,
		StopLoss: 44000,
	})
	require.NoError(t, err)

	tick(t, e, "BTCUSDT", 43000, t0.Add(time.Minute))

	require.Len(t, e.Account().History, 1)
	assert.Equal(t, ReasonLiquidation, e.Account().History[0].Reason)
}

func TestTrailingStopTightensOnly(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100000)
	p, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 1, Price: 50000, Time: t0, Leverage: 5,
		Tactics: &tactics.Set{
			Name:     "trail",
			Entry:    tactics.EntryMarket,
			Trailing: &tactics.TrailingStopRule{ActivationPercent: 2, TrailPercent: 1},
		},
	})
	require.NoError(t, err)

	// Below activation: no stop yet.
	tick(t, e, "BTCUSDT", 50500, t0.Add(time.Minute))
	assert.Zero(t, p.StopLoss)

	// +2% activates; stop trails 1% under the best price.
	tick(t, e, "BTCUSDT", 51000, t0.Add(2*time.Minute))
	require.InDelta(t, 51000*0.99, p.StopLoss, 1e-6)

	prevStop := p.StopLoss

	// Price retreats: the stop must not relax.
	tick(t, e, "BTCUSDT", 50800, t0.Add(3*time.Minute))
	assert.InDelta(t, prevStop, p.StopLoss, 1e-9)

	// New best price: the stop tightens.
	tick(t, e, "BTCUSDT", 52000, t0.Add(4*time.Minute))
	assert.InDelta(t, 52000*0.99, p.StopLoss, 1e-6)
	assert.Greater(t, p.StopLoss, prevStop)

	// Falling through the trailed stop closes with the trailing reason.
	tick(t, e, "BTCUSDT", 51000, t0.Add(5*time.Minute))
	require.Len(t, e.Account().History, 1)
	assert.Equal(t, ReasonTrailingStop, e.Account().History[0].Reason)
	assert.InDelta(t, 52000*0.99, e.Account().History[0].AvgExit, 1e-6)
}

func TestTrailingStopShort(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100000)
	p, err := e.OpenPosition(OpenRequest{
		Symbol: "ETHUSDT", Side: market.Short, Size: 1, Price: 2000, Time: t0, Leverage: 5,
		Tactics: &tactics.Set{
			Name:     "trail",
			Entry:    tactics.EntryMarket,
			Trailing: &tactics.TrailingStopRule{ActivationPercent: 2, TrailPercent: 1},
		},
	})
	require.NoError(t, err)

	// -2.5% move in favor of the short activates the trail.
	tick(t, e, "ETHUSDT", 1950, t0.Add(time.Minute))
	require.InDelta(t, 1950*1.01, p.StopLoss, 1e-6)

	prevStop := p.StopLoss
	tick(t, e, "ETHUSDT", 1960, t0.Add(2*time.Minute))
	// Stop never moves against the short (never increases).
	assert.LessOrEqual(t, p.StopLoss, prevStop)

	tick(t, e, "ETHUSDT", 1900, t0.Add(3*time.Minute))
	assert.Less(t, p.StopLoss, prevStop)
}

func TestEquityInvariantAcrossTicks(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100000, func(p *Params) {
		p.MaxOpenPositions = 3
		p.FeePercent = 0.05
	})

	openLong(t, e, "BTCUSDT", 0.5, 50000, 10)
	_, err := e.OpenPosition(OpenRequest{
		Symbol: "ETHUSDT", Side: market.Short, Size: 5, Price: 2000, Time: t0, Leverage: 5,
	})
	require.NoError(t, err)

	prices := []struct {
		symbol string
		price  float64
	}{
		{"BTCUSDT", 50500}, {"ETHUSDT", 1980}, {"BTCUSDT", 49800},
		{"ETHUSDT", 2050}, {"BTCUSDT", 51000}, {"ETHUSDT", 1900},
	}
	for i, pr := range prices {
		tick(t, e, pr.symbol, pr.price, t0.Add(time.Duration(i+1)*time.Minute))
		requireInvariant(t, e)
	}
}

func TestSignalDrivenEntryAndExit(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, func(p *Params) {
		p.RiskPerTradePercent = 1
		p.MaxLeverage = 10
		p.MaxOpenPositions = 2
		p.Tactics = []tactics.Set{{
			Name:     "default",
			Entry:    tactics.EntryMarket,
			StopLoss: &tactics.StopLossRule{Percent: 2},
		}}
	})
	e.Start()

	p, err := e.ExecuteEntry("BTCUSDT", market.Long, 50000, t0)
	require.NoError(t, err)
	assert.Equal(t, "default", p.TacticsName)
	// Risk 1% of 10000 = 100 over a 2% (1000) stop distance -> size 0.1.
	assert.InDelta(t, 0.1, p.Size, 1e-9)

	_, err = e.ExecuteEntry("BTCUSDT", market.Long, 50000, t0)
	assert.ErrorIs(t, err, ErrDuplicatePosition)

	require.NoError(t, e.CloseBySymbol("BTCUSDT", 50500, t0.Add(time.Minute), ReasonSignal))
	require.Len(t, e.Account().History, 1)
	assert.Equal(t, ReasonSignal, e.Account().History[0].Reason)
	requireInvariant(t, e)
}

func TestExecuteEntryStatusGates(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, func(p *Params) { p.RiskPerTradePercent = 1 })

	e.Pause()
	_, err := e.ExecuteEntry("BTCUSDT", market.Long, 50000, t0)
	assert.ErrorIs(t, err, ErrAccountPaused)

	e.Stop()
	_, err = e.ExecuteEntry("BTCUSDT", market.Long, 50000, t0)
	assert.ErrorIs(t, err, ErrAccountStopped)

	// Stopped accounts also skip price processing.
	require.NoError(t, e.UpdatePrice("BTCUSDT", 50000, t0))
	assert.Empty(t, e.Account().EquityCurve)
}

func TestTerminalPositionIsImmutable(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)
	p := openLong(t, e, "BTCUSDT", 0.1, 50000, 10)
	require.NoError(t, e.ClosePosition(p.ID, 50500, t0.Add(time.Minute), ReasonManual))

	err := e.ClosePosition(p.ID, 51000, t0.Add(2*time.Minute), ReasonManual)
	assert.ErrorIs(t, err, ErrPositionNotFound) // removed from the open set

	err = e.closeRequested(p, 51000, t0.Add(2*time.Minute), ReasonManual)
	assert.ErrorIs(t, err, ErrPositionTerminal)
}

func TestPendingLimitEntry(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)
	p, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 0.1, Price: 50000, LimitPrice: 49000,
		Time: t0, Leverage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, PositionPending, p.Status)
	assert.Zero(t, p.Size)

	// Price above the limit: still pending.
	tick(t, e, "BTCUSDT", 49500, t0.Add(time.Minute))
	assert.Equal(t, PositionPending, p.Status)

	// Touch fills at the limit price.
	tick(t, e, "BTCUSDT", 48900, t0.Add(2*time.Minute))
	assert.Equal(t, PositionOpen, p.Status)
	assert.InDelta(t, 49000.0, p.AvgEntryPrice(), 1e-9)
	assert.InDelta(t, 0.1, p.Size, 1e-9)
	requireInvariant(t, e)
}

func TestPendingCancelRefunds(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, func(p *Params) { p.FeePercent = 0.1 })
	p, err := e.OpenPosition(OpenRequest{
		Symbol: "BTCUSDT", Side: market.Long, Size: 0.1, Price: 50000, LimitPrice: 49000,
		Time: t0, Leverage: 10,
	})
	require.NoError(t, err)
	assert.Less(t, e.Account().Balance, 10000.0)

	require.NoError(t, e.ClosePosition(p.ID, 0, t0.Add(time.Minute), ReasonManual))
	assert.InDelta(t, 10000.0, e.Account().Balance, 1e-9)
	assert.Empty(t, e.Account().History) // cancels never materialize trades
}

func TestSlippageOnMarketFills(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 100000, func(p *Params) { p.SlippagePercent = 0.1 })

	p := openLong(t, e, "BTCUSDT", 1, 50000, 10)
	// Long entries fill above the mark.
	assert.InDelta(t, 50050.0, p.AvgEntryPrice(), 1e-6)

	require.NoError(t, e.ClosePosition(p.ID, 51000, t0.Add(time.Minute), ReasonSignal))
	// Long exits fill below the mark.
	assert.InDelta(t, 51000*0.999, e.Account().History[0].AvgExit, 1e-6)
}

func TestMaxDrawdownEvent(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, func(p *Params) { p.MaxDrawdownPercent = 5 })

	var breaches []DrawdownEvent
	e.Subscribe(func(ev Event) {
		if ev.Type == EventMaxDrawdown {
			breaches = append(breaches, ev.Payload.(DrawdownEvent))
		}
	})

	openLong(t, e, "BTCUSDT", 1, 50000, 10)
	tick(t, e, "BTCUSDT", 49000, t0.Add(time.Minute)) // -1000 equity, 10% dd

	require.Len(t, breaches, 1)
	assert.InDelta(t, 10.0, breaches[0].DrawdownPct, 1e-6)
	// Account keeps running; breach reporting is not enforcement.
	assert.True(t, e.Account().Positions[0].IsOpen())

	// Still breached: no duplicate event until recovery.
	tick(t, e, "BTCUSDT", 48900, t0.Add(2*time.Minute))
	assert.Len(t, breaches, 1)
}

func TestSubscriberPanicIsolated(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000)

	var got []EventType
	e.Subscribe(func(ev Event) { panic("bad subscriber") })
	e.Subscribe(func(ev Event) { got = append(got, ev.Type) })

	openLong(t, e, "BTCUSDT", 0.1, 50000, 10)
	assert.Contains(t, got, EventPositionOpened)
	assert.Contains(t, got, EventBalanceUpdate)
}

func TestEquitySampleRateLimit(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, func(p *Params) { p.SampleInterval = time.Minute })

	openLong(t, e, "BTCUSDT", 0.1, 50000, 10)
	n := len(e.Account().EquityCurve)

	// Sub-interval plain ticks do not add samples.
	tick(t, e, "BTCUSDT", 50010, t0.Add(time.Second))
	tick(t, e, "BTCUSDT", 50020, t0.Add(2*time.Second))
	assert.Len(t, e.Account().EquityCurve, n)

	// Past the interval a sample is taken.
	tick(t, e, "BTCUSDT", 50030, t0.Add(61*time.Second))
	assert.Len(t, e.Account().EquityCurve, n+1)
}
