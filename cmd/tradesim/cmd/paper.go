package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantfold/tradesim/config"
	"github.com/quantfold/tradesim/feed"
	"github.com/quantfold/tradesim/internal/id"
	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/paper"
	"github.com/quantfold/tradesim/sim"
	"github.com/quantfold/tradesim/strategies"
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Paper trade against live exchange prices",
	Long: `Paper connects to the Binance price stream and runs the configured
strategy against live quotes with simulated fills. No exchange account or
API key is needed. Stop with Ctrl-C; open positions stay open in the
journal.

Example:
  tradesim paper -c config.yaml --symbol BTCUSDT`,
	RunE: runPaper,
}

var paperSymbol string

func init() {
	rootCmd.AddCommand(paperCmd)

	paperCmd.Flags().StringVarP(&paperSymbol, "symbol", "s", "", "symbol to trade (default: first configured symbol)")
}

func runPaper(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	symbol := paperSymbol
	if symbol == "" {
		symbol = cfg.Trading.Symbols[0]
	}

	strat, err := strategies.New(cfg.Strategy.ID, cfg.Strategy.Params)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	engine, err := sim.NewEngine(cfg.EngineParams())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	subscribeNotifications(engine, cfg.Notifications)

	j, _, err := openJournal(cfg, id.New())
	if err != nil {
		return err
	}
	defer j.Close()

	opts := paper.Options{Journal: j}
	if cfg.Trading.Timeframe != "" {
		opts.Timeframe, err = market.TimeframeDuration(cfg.Trading.Timeframe)
		if err != nil {
			return err
		}
	}
	if opts.CheckInterval, err = cfg.CheckInterval(); err != nil {
		return err
	}

	source := feed.NewBinance(cfg.Trading.Symbols)
	trader, err := paper.New(engine, strat, symbol, source, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Paper trading %s with %s, Ctrl-C to stop\n", symbol, strat.Name())

	if err := trader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	acct := trader.Engine().Account()
	fmt.Printf("\nSession ended\n")
	fmt.Printf("  Balance: %.2f %s\n", acct.Balance, acct.Currency)
	fmt.Printf("  Equity:  %.2f %s\n", acct.Equity, acct.Currency)
	fmt.Printf("  Trades:  %d\n", len(acct.History))
	return nil
}

// subscribeNotifications logs the lifecycle events the config asks for.
func subscribeNotifications(engine *sim.Engine, n config.NotificationConfig) {
	if !n.OnPositionOpened && !n.OnPositionClosed && !n.OnDrawdown {
		return
	}
	engine.Subscribe(func(ev sim.Event) {
		switch ev.Type {
		case sim.EventPositionOpened:
			if n.OnPositionOpened {
				p := ev.Payload.(sim.PositionEvent).Position
				slog.Info("position opened",
					"symbol", p.Symbol, "side", p.Side.String(), "size", p.Size)
			}
		case sim.EventPositionClosed:
			// Cancelled pending entries carry a PositionEvent payload instead.
			if te, ok := ev.Payload.(sim.TradeEvent); ok && n.OnPositionClosed {
				slog.Info("position closed",
					"symbol", te.Trade.Symbol, "net_pnl", te.Trade.NetPnL,
					"reason", string(te.Trade.Reason))
			}
		case sim.EventMaxDrawdown:
			if n.OnDrawdown {
				d := ev.Payload.(sim.DrawdownEvent)
				slog.Warn("max drawdown reached",
					"drawdown_pct", d.DrawdownPct, "threshold", d.Threshold)
			}
		}
	})
}
