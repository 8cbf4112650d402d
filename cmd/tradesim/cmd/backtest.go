package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantfold/tradesim/backtest"
	"github.com/quantfold/tradesim/internal/id"
	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/sim"
	"github.com/quantfold/tradesim/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy against historical candle data",
	Long: `Backtest replays a candle CSV through the configured strategy and
prints a performance report.

The candle file needs the header time,open,high,low,close,volume with
RFC3339 or unix-second timestamps in chronological order.

Example:
  tradesim backtest -c config.yaml --candles data/btcusdt-1h.csv`,
	RunE: runBacktest,
}

var (
	btCandlesPath string
	btSymbol      string
	btCloseEnd    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&btCandlesPath, "candles", "", "path to candle CSV (time,open,high,low,close,volume) (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "symbol to trade (default: first configured symbol)")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "close any open position at the last candle")

	backtestCmd.MarkFlagRequired("candles")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	symbol := btSymbol
	if symbol == "" {
		symbol = cfg.Trading.Symbols[0]
	}

	candles, err := market.LoadCandlesCSV(btCandlesPath)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles in %s", btCandlesPath)
	}

	strat, err := strategies.New(cfg.Strategy.ID, cfg.Strategy.Params)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	engine, err := sim.NewEngine(cfg.EngineParams())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	runID := id.New()
	j, db, err := openJournal(cfg, runID)
	if err != nil {
		return err
	}
	defer j.Close()

	fmt.Printf("Running backtest %s\n", runID)
	fmt.Printf("  Strategy: %s\n", strat.Name())
	fmt.Printf("  Symbol:   %s\n", symbol)
	fmt.Printf("  Candles:  %s (%d)\n\n", btCandlesPath, len(candles))

	runner := backtest.Runner{
		Engine:   engine,
		Strategy: strat,
		Symbol:   symbol,
		Journal:  j,
		Options:  backtest.Options{CloseEnd: btCloseEnd},
	}
	res, err := runner.Run(context.Background(), candles)
	if err != nil {
		return err
	}

	fmt.Print(res.Summary())

	if db != nil {
		params, _ := json.Marshal(cfg.Strategy.Params)
		rec := res.RunRecord(runID, symbol, cfg.Trading.Timeframe, btCandlesPath,
			cfg.Strategy.ID, params, cfg.Account.InitialBalance)
		if err := db.RecordRun(rec); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		fmt.Printf("\nRun saved to %s as %s\n", cfg.Journal.DBPath, runID)
	}
	return nil
}
