// Package paper runs the simulation engine against a live price source.
// The trader polls the source on a fixed interval, pushes every price
// through the same engine path a backtest uses, aggregates prices into
// candles and feeds completed candles to the strategy.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfold/tradesim/feed"
	"github.com/quantfold/tradesim/journal"
	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/sim"
	"github.com/quantfold/tradesim/strategies"
)

// Options tunes the polling loop.
type Options struct {
	Timeframe     time.Duration // candle bucket for the strategy, default 1m
	CheckInterval time.Duration // price poll interval, default 5s
	Staleness     time.Duration // skip quotes older than this, default 3x interval
	Journal       journal.Journal
}

// Trader is one live paper-trading session: one engine, one strategy, one
// symbol, one price source.
type Trader struct {
	engine   *sim.Engine
	strategy strategies.Strategy
	symbol   string
	source   feed.PriceSource
	opts     Options
	builder  *market.CandleBuilder
	log      *slog.Logger

	journaledTrades int
	journaledEquity int
}

func New(engine *sim.Engine, strategy strategies.Strategy, symbol string, source feed.PriceSource, opts Options) (*Trader, error) {
	if engine == nil {
		return nil, fmt.Errorf("paper: engine is required")
	}
	if strategy == nil {
		return nil, fmt.Errorf("paper: strategy is required")
	}
	if symbol == "" {
		return nil, fmt.Errorf("paper: symbol is required")
	}
	if source == nil {
		return nil, fmt.Errorf("paper: price source is required")
	}

	if opts.Timeframe <= 0 {
		opts.Timeframe = time.Minute
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 5 * time.Second
	}
	if opts.Staleness <= 0 {
		opts.Staleness = 3 * opts.CheckInterval
	}

	return &Trader{
		engine:   engine,
		strategy: strategy,
		symbol:   symbol,
		source:   source,
		opts:     opts,
		builder:  market.NewCandleBuilder(opts.Timeframe),
		log:      slog.With("symbol", symbol, "strategy", strategy.Name()),
	}, nil
}

// Engine exposes the underlying engine for inspection.
func (t *Trader) Engine() *sim.Engine { return t.engine }

// Run starts the price source and polls it until the context is
// cancelled. Stopping leaves open positions open.
func (t *Trader) Run(ctx context.Context) error {
	t.strategy.Reset()
	t.engine.Start()

	srcErr := make(chan error, 1)
	go func() { srcErr <- t.source.Run(ctx) }()

	t.log.Info("paper trading started",
		"source", t.source.Name(),
		"timeframe", t.opts.Timeframe,
		"interval", t.opts.CheckInterval)

	ticker := time.NewTicker(t.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.flushJournal()
			t.log.Info("paper trading stopped", "open_positions", t.engine.Account().OpenCount())
			return ctx.Err()
		case err := <-srcErr:
			t.flushJournal()
			return fmt.Errorf("paper: price source stopped: %w", err)
		case now := <-ticker.C:
			t.Tick(now)
		}
	}
}

// Tick advances one poll cycle: read the latest quote, push it through
// the engine and, when a candle completes, run the strategy. Run calls
// this on every check interval; tests may call it directly.
func (t *Trader) Tick(now time.Time) {
	price, updated, ok := t.source.Price(t.symbol)
	if !ok {
		return
	}
	if now.Sub(updated) > t.opts.Staleness {
		t.log.Debug("stale quote skipped", "age", now.Sub(updated))
		return
	}

	if err := t.engine.UpdatePrice(t.symbol, price, now); err != nil {
		t.engine.ReportError(now, "price", err)
		return
	}

	if done, completed := t.builder.Add(market.Tick{Symbol: t.symbol, Price: price, Time: now}); completed {
		t.step(done)
	}
	t.flushJournal()
}

// step runs the strategy for one completed candle. Panics are contained
// and surfaced as ERROR events, matching the backtest driver.
func (t *Trader) step(c market.Candle) {
	defer func() {
		if rec := recover(); rec != nil {
			t.engine.ReportError(c.Time, "strategy", fmt.Errorf("strategy panic: %v", rec))
		}
	}()

	t.strategy.Update(c)
	if !t.strategy.Ready() {
		return
	}

	if pos := t.engine.Account().OpenPosition(t.symbol); pos != nil && pos.IsOpen() {
		view := strategies.PositionView{Side: pos.Side, EntryPrice: pos.AvgEntryPrice()}
		if sig := t.strategy.Exit(view); sig != nil {
			t.engine.ReportSignal(c.Time, sim.SignalEvent{
				Symbol: t.symbol, Action: "exit", Side: sig.Side.String(),
				Strategy: t.strategy.Name(), Price: c.Close,
			})
			if err := t.engine.CloseBySymbol(t.symbol, c.Close, c.Time, sim.ReasonSignal); err != nil {
				t.engine.ReportError(c.Time, "close", err)
			} else {
				t.log.Info("position closed on signal", "price", c.Close, "reason", sig.Reason)
			}
		}
	}

	if sig := t.strategy.Entry(); sig != nil {
		t.engine.ReportSignal(c.Time, sim.SignalEvent{
			Symbol: t.symbol, Action: "enter", Side: sig.Side.String(),
			Strategy: t.strategy.Name(), Price: c.Close,
		})
		p, err := t.engine.ExecuteEntry(t.symbol, sig.Side, c.Close, c.Time)
		if err != nil {
			t.log.Debug("entry rejected", "err", err)
			return
		}
		t.log.Info("position opened",
			"side", p.Side.String(), "size", p.Size, "entry", p.AvgEntryPrice(), "reason", sig.Reason)
	}
}

// flushJournal writes trades and equity points added since the last call.
func (t *Trader) flushJournal() {
	if t.opts.Journal == nil {
		return
	}
	acct := t.engine.Account()

	for ; t.journaledTrades < len(acct.History); t.journaledTrades++ {
		if err := t.opts.Journal.RecordTrade(acct.History[t.journaledTrades]); err != nil {
			t.log.Warn("journal trade write failed", "err", err)
			return
		}
	}
	for ; t.journaledEquity < len(acct.EquityCurve); t.journaledEquity++ {
		if err := t.opts.Journal.RecordEquity(acct.EquityCurve[t.journaledEquity]); err != nil {
			t.log.Warn("journal equity write failed", "err", err)
			return
		}
	}
}
