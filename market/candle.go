// Package market holds the primitive market-data types shared by the
// simulator: candles, ticks and the per-symbol tick store.
package market

import "time"

// Candle represents one OHLCV sample for a fixed time bucket.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Side is the direction of a position or signal: +1 long, -1 short.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Sign returns the side as a float multiplier for PnL math.
func (s Side) Sign() float64 {
	return float64(s)
}

// Opposite returns the other direction.
func (s Side) Opposite() Side {
	return -s
}
