// Package journal persists trade and equity records emitted by a
// simulation run. Backends share one interface so the drivers can write
// to CSV files, SQLite or nothing at all without caring which.
package journal

import (
	"time"

	"github.com/quantfold/tradesim/sim"
)

// Journal receives the records of one run. Implementations flush eagerly;
// Close releases the backing resource.
type Journal interface {
	RecordTrade(t sim.Trade) error
	RecordEquity(e sim.EquityPoint) error
	Close() error
}

// Run summarizes one backtest or paper-trading session for the runs table.
type Run struct {
	RunID     string
	Created   time.Time
	Symbol    string
	Timeframe string
	Dataset   string
	Strategy  string
	Params    []byte // strategy parameters, JSON

	Start time.Time
	End   time.Time

	InitialBalance float64
	FinalEquity    float64

	Trades int
	Wins   int
	Losses int

	NetPnL         float64
	ReturnPct      float64
	WinRate        float64
	ProfitFactor   float64
	SharpeRatio    float64
	MaxDrawdownPct float64
}

// Nop discards everything. Used by parameter sweeps where only the
// in-memory result matters.
type Nop struct{}

func (Nop) RecordTrade(sim.Trade) error        { return nil }
func (Nop) RecordEquity(sim.EquityPoint) error { return nil }
func (Nop) Close() error                       { return nil }
