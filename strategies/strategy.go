// Package strategies contains the candle-driven signal generators. A
// strategy consumes one closed candle at a time, keeps its own indicator
// state and reports entry and exit decisions for that candle; it never
// touches account or position state directly.
package strategies

import (
	"fmt"
	"strings"

	"github.com/quantfold/tradesim/market"
)

// Signal is one strategy decision for the candle just processed.
type Signal struct {
	Side   market.Side
	Reason string
	Price  float64 // close of the triggering candle
}

// PositionView is the read-only slice of position state a strategy may
// consult when deciding whether to exit.
type PositionView struct {
	Side       market.Side
	EntryPrice float64
}

// Strategy is the interface every signal generator implements. Update is
// called once per closed candle; Entry and Exit report the decision made
// on that candle (nil means no signal). Reset returns the strategy to its
// pre-warmup state so one instance can be reused across runs.
type Strategy interface {
	Name() string
	Warmup() int
	Reset()
	Update(c market.Candle)
	Ready() bool
	Entry() *Signal
	Exit(pos PositionView) *Signal
}

// New builds a strategy by id with the given numeric parameters. Missing
// or non-positive parameters fall back to the documented defaults. Ids
// accept both underscore and hyphen spellings.
func New(id string, params map[string]float64) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "rsi_reversal", "rsi-reversal":
		return NewRSIReversal(RSIReversalConfig{
			Period:     int(param(params, "period", 14)),
			Oversold:   param(params, "oversold", 30),
			Overbought: param(params, "overbought", 70),
		}), nil

	case "macd_cross", "macd-cross", "macd_crossover", "macd-crossover":
		return NewMACDCross(MACDCrossConfig{
			FastPeriod:   int(param(params, "fastPeriod", 12)),
			SlowPeriod:   int(param(params, "slowPeriod", 26)),
			SignalPeriod: int(param(params, "signalPeriod", 9)),
		}), nil

	case "bollinger", "bollinger_bands", "bollinger-bands":
		return NewBollingerReversion(BollingerConfig{
			Period:  int(param(params, "period", 20)),
			StdDevs: param(params, "stdDevs", 2),
		}), nil

	case "ema_cross", "ema-cross", "ema_crossover", "ema-crossover":
		return NewEMACross(EMACrossConfig{
			FastPeriod: int(param(params, "fastPeriod", 9)),
			SlowPeriod: int(param(params, "slowPeriod", 21)),
		}), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: rsi_reversal, macd_cross, bollinger, ema_cross)", id)
	}
}

func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok && v > 0 {
		return v
	}
	return def
}
