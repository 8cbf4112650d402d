package sim

import (
	"time"

	"github.com/quantfold/tradesim/market"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

// Trade is the immutable record materialized when a position fully closes.
type Trade struct {
	ID         string
	PositionID string
	Symbol     string
	Side       market.Side
	Size       float64 // original position size
	AvgEntry   float64
	AvgExit    float64
	PnL        float64 // gross realized
	Fees       float64
	NetPnL     float64
	OpenTime   time.Time
	CloseTime  time.Time
	Duration   time.Duration
	Reason     CloseReason
	Tactics    string
}

// EquityPoint is an immutable snapshot of account state at one instant.
type EquityPoint struct {
	Time time.Time

	Balance float64
	Equity  float64

	UnrealizedPnL float64
	RealizedPnL   float64
	DailyPnL      float64
	CumulativePnL float64

	Drawdown        float64 // instantaneous, from the equity high-water mark
	DrawdownPct     float64
	MaxDrawdown     float64 // running maximum
	MaxDrawdownPct  float64

	OpenPositions int
	Trades        int
	Wins          int
	Losses        int

	Prices map[string]float64
}

// Account is a simulated trading wallet. Balance is the free balance;
// margin backing open and pending positions is escrowed out of it.
// Invariant after every price update:
// Equity == Balance + UsedMargin + sum of open-position unrealized PnL.
type Account struct {
	ID             string
	Currency       string
	Exchange       string
	InitialBalance float64
	Balance        float64
	Equity         float64
	MaxEquity      float64
	Status         Status

	// Positions holds pending and open positions in open order. Closed
	// positions are removed and survive as History entries.
	Positions []*Position

	// History is append-only; Trade records are never mutated.
	History []Trade

	EquityCurve []EquityPoint

	MaxDrawdown    float64
	MaxDrawdownPct float64

	Wins   int
	Losses int
}

// OpenPosition returns the open (or pending) position for symbol, nil if none.
func (a *Account) OpenPosition(symbol string) *Position {
	for _, p := range a.Positions {
		if p.Symbol == symbol {
			return p
		}
	}
	return nil
}

// OpenCount is the number of non-terminal positions held by the account.
// Pending limit entries count: their margin is already escrowed, so they
// consume a position slot and block a second entry on the same symbol
// until filled or cancelled.
func (a *Account) OpenCount() int {
	return len(a.Positions)
}

// UsedMargin sums margin escrowed by non-terminal positions.
func (a *Account) UsedMargin() float64 {
	var sum float64
	for _, p := range a.Positions {
		if !p.IsTerminal() {
			sum += p.Margin
		}
	}
	return sum
}

// UnrealizedPnL sums unrealized PnL across open positions.
func (a *Account) UnrealizedPnL() float64 {
	var sum float64
	for _, p := range a.Positions {
		if p.IsOpen() {
			sum += p.UnrealizedPnL
		}
	}
	return sum
}

// RealizedPnL sums net PnL across the trade history.
func (a *Account) RealizedPnL() float64 {
	var sum float64
	for _, t := range a.History {
		sum += t.NetPnL
	}
	return sum
}
