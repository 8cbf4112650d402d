package indicators

import (
	"fmt"
	"math"

	"github.com/quantfold/tradesim/market"
)

// SMA calculates the Simple Moving Average of the last `period` closes.
func SMA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average over the full series,
// seeded with the SMA of the first `period` closes.
func EMA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for i := 0; i < period; i++ {
		sma += candles[i].Close
	}
	ema := sma / float64(period)

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
	}
	return ema, nil
}

// RSI calculates Wilder's Relative Strength Index for the given period.
// Returns 100 when there are no losses in the window.
func RSI(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period+1, len(candles))
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing for the remainder of the series
	for i := period + 1; i < len(candles); i++ {
		delta := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// MACD calculates the MACD line (fastEMA - slowEMA), its signal line and
// the histogram (macd - signal).
func MACD(candles []market.Candle, fast, slow, signal int) (macd, sig, hist float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return 0, 0, 0, fmt.Errorf("periods must be positive, got %d/%d/%d", fast, slow, signal)
	}
	if fast >= slow {
		return 0, 0, 0, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	if len(candles) < slow+signal {
		return 0, 0, 0, fmt.Errorf("not enough candles: need %d, got %d", slow+signal, len(candles))
	}

	m := NewMACD(fast, slow, signal)
	for _, c := range candles {
		m.Update(c)
	}
	return m.Line(), m.Signal(), m.Value(), nil
}

// Bollinger calculates the Bollinger Bands over the last `period` closes
// with the given standard-deviation multiplier.
func Bollinger(candles []market.Candle, period int, mult float64) (upper, middle, lower float64, err error) {
	middle, err = SMA(candles, period)
	if err != nil {
		return 0, 0, 0, err
	}

	variance := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		d := candles[i].Close - middle
		variance += d * d
	}
	stdev := math.Sqrt(variance / float64(period))

	return middle + mult*stdev, middle, middle - mult*stdev, nil
}

// ATR calculates the Average True Range using Wilder's smoothing.
func ATR(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period+1, len(candles))
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, trueRange(candles[i], candles[i-1]))
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += trs[i]
	}
	atr := sum / float64(period)

	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr, nil
}

func trueRange(c, prev market.Candle) float64 {
	a := c.High - c.Low
	b := math.Abs(c.High - prev.Close)
	d := math.Abs(c.Low - prev.Close)
	return math.Max(a, math.Max(b, d))
}
