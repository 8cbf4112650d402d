// Package backtest drives the simulation engine over a historical candle
// series. The runner feeds one candle at a time through the strategy and
// the engine's price-update path, so a backtest and a paper-trading
// session produce comparable results from the same rules.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfold/tradesim/journal"
	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/metrics"
	"github.com/quantfold/tradesim/sim"
	"github.com/quantfold/tradesim/strategies"
)

// Options controls runner behavior at the edges of the dataset.
type Options struct {
	// CloseEnd closes any open position at the last candle's close, so the
	// final equity is fully realized.
	CloseEnd bool
}

// Runner executes one strategy against one symbol's candle history.
type Runner struct {
	Engine   *sim.Engine
	Strategy strategies.Strategy
	Symbol   string
	Journal  journal.Journal // optional
	Options  Options
}

// Result is the outcome of one backtest run.
type Result struct {
	Metrics     metrics.Metrics
	Trades      []sim.Trade
	EquityCurve []sim.EquityPoint

	Start time.Time
	End   time.Time

	FinalBalance float64
	FinalEquity  float64
}

// Run executes the backtest loop: per candle, evaluate exits, then
// entries, then push the close price through the engine. Strategy panics
// are contained per candle and surfaced as ERROR events; they never abort
// the run. Fills are evaluated on candle closes.
func (r *Runner) Run(ctx context.Context, candles []market.Candle) (Result, error) {
	if r.Engine == nil {
		return Result{}, fmt.Errorf("backtest: engine is required")
	}
	if r.Strategy == nil {
		return Result{}, fmt.Errorf("backtest: strategy is required")
	}
	if r.Symbol == "" {
		return Result{}, fmt.Errorf("backtest: symbol is required")
	}
	if len(candles) == 0 {
		return Result{}, fmt.Errorf("backtest: no candles")
	}

	r.Strategy.Reset()
	r.Engine.Start()

	for _, c := range candles {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		if err := r.Engine.UpdatePrice(r.Symbol, c.Close, c.Time); err != nil {
			return Result{}, fmt.Errorf("backtest %s: %w", r.Symbol, err)
		}
		r.step(c)
	}

	last := candles[len(candles)-1]
	if r.Options.CloseEnd {
		// No open position at the end is the common case, not a failure.
		err := r.Engine.CloseBySymbol(r.Symbol, last.Close, last.Time, sim.ReasonManual)
		if err != nil && !isNotFound(err) {
			return Result{}, err
		}
	}

	acct := r.Engine.Account()
	res := Result{
		Metrics:      metrics.Compute(acct.History, acct.EquityCurve, candles[0].Time),
		Trades:       acct.History,
		EquityCurve:  acct.EquityCurve,
		Start:        candles[0].Time,
		End:          last.Time,
		FinalBalance: acct.Balance,
		FinalEquity:  acct.Equity,
	}

	if r.Journal != nil {
		r.record(res)
	}
	return res, nil
}

// step runs the strategy for one candle. A panicking strategy loses this
// candle only; the engine keeps processing.
func (r *Runner) step(c market.Candle) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Engine.ReportError(c.Time, "strategy", fmt.Errorf("strategy panic: %v", rec))
		}
	}()

	r.Strategy.Update(c)
	if !r.Strategy.Ready() {
		return
	}

	// Exits before entries so a reversal signal can flip the position on
	// one candle.
	if pos := r.Engine.Account().OpenPosition(r.Symbol); pos != nil && pos.IsOpen() {
		view := strategies.PositionView{Side: pos.Side, EntryPrice: pos.AvgEntryPrice()}
		if sig := r.Strategy.Exit(view); sig != nil {
			r.Engine.ReportSignal(c.Time, sim.SignalEvent{
				Symbol: r.Symbol, Action: "exit", Side: sig.Side.String(),
				Strategy: r.Strategy.Name(), Price: c.Close,
			})
			if err := r.Engine.CloseBySymbol(r.Symbol, c.Close, c.Time, sim.ReasonSignal); err != nil {
				r.Engine.ReportError(c.Time, "close", err)
			}
		}
	}

	if sig := r.Strategy.Entry(); sig != nil {
		r.Engine.ReportSignal(c.Time, sim.SignalEvent{
			Symbol: r.Symbol, Action: "enter", Side: sig.Side.String(),
			Strategy: r.Strategy.Name(), Price: c.Close,
		})
		if _, err := r.Engine.ExecuteEntry(r.Symbol, sig.Side, c.Close, c.Time); err != nil {
			// Position limits and duplicate entries are expected traffic,
			// not faults worth an event.
			if !isLimit(err) {
				r.Engine.ReportError(c.Time, "entry", err)
			}
		}
	}
}

// record persists the run output. Journal failures are logged, never
// allowed to invalidate an otherwise complete result.
func (r *Runner) record(res Result) {
	for _, t := range res.Trades {
		if err := r.Journal.RecordTrade(t); err != nil {
			slog.Warn("journal trade write failed", "trade", t.ID, "err", err)
			return
		}
	}
	for _, e := range res.EquityCurve {
		if err := r.Journal.RecordEquity(e); err != nil {
			slog.Warn("journal equity write failed", "time", e.Time, "err", err)
			return
		}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, sim.ErrPositionNotFound)
}

func isLimit(err error) bool {
	return errors.Is(err, sim.ErrMaxOpenPositions) || errors.Is(err, sim.ErrDuplicatePosition)
}
