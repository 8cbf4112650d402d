package cmd

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quantfold/tradesim/hyperopt"
	"github.com/quantfold/tradesim/market"
)

var hyperoptCmd = &cobra.Command{
	Use:   "hyperopt",
	Short: "Sweep strategy parameters and rank the results",
	Long: `Hyperopt backtests every combination of the given parameter values
and prints the best runs by the chosen objective.

Each --param flag adds one dimension as name=v1,v2,... Parameters not
swept keep the values from the configuration file.

Example:
  tradesim hyperopt -c config.yaml --candles data/btcusdt-1h.csv \
    --param fastPeriod=5,9,12 --param slowPeriod=21,26,50 --objective sharpe`,
	RunE: runHyperopt,
}

var (
	hoCandlesPath string
	hoSymbol      string
	hoObjective   string
	hoParams      []string
	hoTop         int
)

func init() {
	rootCmd.AddCommand(hyperoptCmd)

	hyperoptCmd.Flags().StringVar(&hoCandlesPath, "candles", "", "path to candle CSV (required)")
	hyperoptCmd.Flags().StringVarP(&hoSymbol, "symbol", "s", "", "symbol to trade (default: first configured symbol)")
	hyperoptCmd.Flags().StringVarP(&hoObjective, "objective", "o", "sharpe", "ranking objective (sharpe, pnl, calmar, profit_factor, win_rate, drawdown)")
	hyperoptCmd.Flags().StringArrayVarP(&hoParams, "param", "p", nil, "parameter values to sweep, name=v1,v2,... (repeatable)")
	hyperoptCmd.Flags().IntVar(&hoTop, "top", 10, "number of best trials to print")

	hyperoptCmd.MarkFlagRequired("candles")
}

func runHyperopt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	symbol := hoSymbol
	if symbol == "" {
		symbol = cfg.Trading.Symbols[0]
	}

	candles, err := market.LoadCandlesCSV(hoCandlesPath)
	if err != nil {
		return err
	}

	space, err := parseSpace(hoParams)
	if err != nil {
		return err
	}

	opts := hyperopt.Options{
		StrategyID: cfg.Strategy.ID,
		Space:      space,
		Objective:  hyperopt.Objective(hoObjective),
		Symbol:     symbol,
		Engine:     cfg.EngineParams(),
	}

	fmt.Printf("Sweeping %s over %d combinations (%s)\n\n",
		cfg.Strategy.ID, len(hyperopt.Expand(space)), hoObjective)

	trials, err := hyperopt.Run(context.Background(), opts, candles)
	if err != nil {
		return err
	}

	n := hoTop
	if n > len(trials) {
		n = len(trials)
	}
	for i := 0; i < n; i++ {
		t := trials[i]
		if t.Err != nil {
			fmt.Printf("%2d. %-40s FAILED: %v\n", i+1, formatParams(t.Params), t.Err)
			continue
		}
		fmt.Printf("%2d. %-40s score=%s pnl=%.2f trades=%d winrate=%.1f%% dd=%.2f%%\n",
			i+1, formatParams(t.Params), formatScore(t.Score),
			t.Metrics.TotalPnL, t.Metrics.TotalTrades,
			t.Metrics.WinRate*100, t.Metrics.MaxDrawdownPct)
	}
	return nil
}

// parseSpace turns repeated name=v1,v2 flags into a sweep space.
func parseSpace(flags []string) (hyperopt.Space, error) {
	space := hyperopt.Space{}
	for _, f := range flags {
		name, list, ok := strings.Cut(f, "=")
		if !ok || name == "" || list == "" {
			return nil, fmt.Errorf("bad --param %q, want name=v1,v2,...", f)
		}
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("bad --param %q: value %q is not a number", f, s)
			}
			space[name] = append(space[name], v)
		}
	}
	return space, nil
}

func formatParams(params map[string]float64) string {
	if len(params) == 0 {
		return "(defaults)"
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return strings.Join(parts, " ")
}

func formatScore(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return fmt.Sprintf("%.3f", v)
}
