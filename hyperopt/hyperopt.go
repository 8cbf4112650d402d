// Package hyperopt sweeps strategy parameters over a candle series. Each
// combination gets a fresh engine and a full backtest run; trials are
// ranked by a chosen objective metric.
package hyperopt

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/quantfold/tradesim/backtest"
	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/metrics"
	"github.com/quantfold/tradesim/sim"
	"github.com/quantfold/tradesim/strategies"
)

// Space maps a strategy parameter name to its candidate values.
type Space map[string][]float64

// Objective selects the metric trials are ranked by. All objectives
// maximize; drawdown is negated so a smaller drawdown scores higher.
type Objective string

const (
	ObjectiveSharpe       Objective = "sharpe"
	ObjectivePnL          Objective = "pnl"
	ObjectiveCalmar       Objective = "calmar"
	ObjectiveProfitFactor Objective = "profit_factor"
	ObjectiveWinRate      Objective = "win_rate"
	ObjectiveDrawdown     Objective = "drawdown"
)

// Options configures one sweep.
type Options struct {
	StrategyID string
	Space      Space
	Objective  Objective
	Symbol     string

	// Engine is the parameter template; every trial runs on a fresh
	// engine built from it.
	Engine sim.Params

	// CloseEnd forces open positions closed at the last candle so every
	// trial's final equity is realized. Defaults on in Run.
	CloseEnd bool
}

// Trial is one parameter combination and its outcome.
type Trial struct {
	Params  map[string]float64
	Score   float64
	Metrics metrics.Metrics
	Result  backtest.Result
	Err     error
}

// Run executes the full grid and returns trials sorted best first. A
// trial that errors scores negative infinity and keeps its error; the
// sweep itself only fails on bad input or context cancellation.
func Run(ctx context.Context, opts Options, candles []market.Candle) ([]Trial, error) {
	if opts.StrategyID == "" {
		return nil, fmt.Errorf("hyperopt: strategy id is required")
	}
	if opts.Symbol == "" {
		return nil, fmt.Errorf("hyperopt: symbol is required")
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("hyperopt: no candles")
	}
	if opts.Objective == "" {
		opts.Objective = ObjectiveSharpe
	}
	if !validObjective(opts.Objective) {
		return nil, fmt.Errorf("hyperopt: unknown objective %q", opts.Objective)
	}

	grid := Expand(opts.Space)
	trials := make([]Trial, 0, len(grid))

	for _, params := range grid {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		trials = append(trials, runOne(ctx, opts, params, candles))
	}

	sort.SliceStable(trials, func(i, j int) bool {
		return trials[i].Score > trials[j].Score
	})
	return trials, nil
}

func runOne(ctx context.Context, opts Options, params map[string]float64, candles []market.Candle) Trial {
	trial := Trial{Params: params, Score: math.Inf(-1)}

	strat, err := strategies.New(opts.StrategyID, params)
	if err != nil {
		trial.Err = err
		return trial
	}
	engine, err := sim.NewEngine(opts.Engine)
	if err != nil {
		trial.Err = err
		return trial
	}

	runner := backtest.Runner{
		Engine:   engine,
		Strategy: strat,
		Symbol:   opts.Symbol,
		Options:  backtest.Options{CloseEnd: true},
	}
	res, err := runner.Run(ctx, candles)
	if err != nil {
		trial.Err = err
		return trial
	}

	trial.Result = res
	trial.Metrics = res.Metrics
	trial.Score = score(opts.Objective, res.Metrics)
	return trial
}

// Expand builds the cartesian product of the space in a deterministic
// order (parameter names sorted). An empty space yields one empty
// combination, so a sweep with no tunables still runs the defaults once.
func Expand(space Space) []map[string]float64 {
	names := make([]string, 0, len(space))
	for name, values := range space {
		if len(values) == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		next := make([]map[string]float64, 0, len(combos)*len(space[name]))
		for _, base := range combos {
			for _, v := range space[name] {
				combo := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					combo[k] = bv
				}
				combo[name] = v
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// score maps a metric to a maximizable value. NaN scores negative
// infinity so degenerate runs sink to the bottom of the ranking.
func score(obj Objective, m metrics.Metrics) float64 {
	var v float64
	switch obj {
	case ObjectiveSharpe:
		v = m.SharpeRatio
	case ObjectivePnL:
		v = m.TotalPnL
	case ObjectiveCalmar:
		v = m.CalmarRatio
	case ObjectiveProfitFactor:
		v = m.ProfitFactor
	case ObjectiveWinRate:
		v = m.WinRate
	case ObjectiveDrawdown:
		v = -m.MaxDrawdownPct
	}
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

func validObjective(o Objective) bool {
	switch o {
	case ObjectiveSharpe, ObjectivePnL, ObjectiveCalmar,
		ObjectiveProfitFactor, ObjectiveWinRate, ObjectiveDrawdown:
		return true
	}
	return false
}
