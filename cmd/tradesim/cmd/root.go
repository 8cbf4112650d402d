package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantfold/tradesim/config"
	"github.com/quantfold/tradesim/journal"
)

var rootCmd = &cobra.Command{
	Use:   "tradesim",
	Short: "A crypto trading simulator for backtesting and paper trading",
	Long: `Tradesim runs trading strategies against historical candles or a live
price feed without touching a real exchange.

It provides tools for:
  - Backtesting strategies against historical candle data
  - Paper trading against live exchange prices
  - Sweeping strategy parameters and ranking the results
  - Journaling trades and equity curves to CSV or SQLite`,
}

var (
	cfgPath  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to YAML or JSON configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cobra.OnInitialize(setupLogging)
}

func setupLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openJournal builds the backend the config asks for. The SQLite handle is
// returned separately so callers can record run summaries.
func openJournal(cfg *config.Config, runID string) (journal.Journal, *journal.SQLiteJournal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return journal.Nop{}, nil, nil
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath, runID)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		return j, j, nil
	default:
		return nil, nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}
