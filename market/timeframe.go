package market

import (
	"fmt"
	"time"
)

// TimeframeDuration parses a timeframe label like "1m", "5m", "15m", "1h",
// "4h" or "1d" into its bucket duration.
func TimeframeDuration(tf string) (time.Duration, error) {
	switch tf {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown timeframe %q", tf)
}

// CandleBuilder aggregates ticks into fixed-duration candles. Add returns a
// completed candle when a tick rolls into a new bucket.
type CandleBuilder struct {
	bucket time.Duration

	cur   Candle
	open  bool
	start time.Time
}

func NewCandleBuilder(bucket time.Duration) *CandleBuilder {
	return &CandleBuilder{bucket: bucket}
}

// Add folds a tick into the current candle. When the tick belongs to a new
// bucket the finished candle is returned with done=true.
func (b *CandleBuilder) Add(t Tick) (done Candle, ok bool) {
	bucketStart := t.Time.Truncate(b.bucket)

	if !b.open {
		b.start = bucketStart
		b.cur = Candle{Time: bucketStart, Open: t.Price, High: t.Price, Low: t.Price, Close: t.Price}
		b.open = true
		return Candle{}, false
	}

	if bucketStart.After(b.start) {
		done = b.cur
		b.start = bucketStart
		b.cur = Candle{Time: bucketStart, Open: t.Price, High: t.Price, Low: t.Price, Close: t.Price}
		return done, true
	}

	if t.Price > b.cur.High {
		b.cur.High = t.Price
	}
	if t.Price < b.cur.Low {
		b.cur.Low = t.Price
	}
	b.cur.Close = t.Price
	return Candle{}, false
}

// Current returns the in-progress candle, if any.
func (b *CandleBuilder) Current() (Candle, bool) {
	return b.cur, b.open
}
