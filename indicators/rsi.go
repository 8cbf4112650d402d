package indicators

import (
	"fmt"

	"github.com/quantfold/tradesim/market"
)

// RelativeStrength is a streaming RSI indicator using Wilder's smoothing.
type RelativeStrength struct {
	period    int
	avgGain   float64
	avgLoss   float64
	prevClose float64
	count     int
	hasPrev   bool
}

// NewRSI creates a new Relative Strength Index indicator with the given period
func NewRSI(period int) *RelativeStrength {
	return &RelativeStrength{period: period}
}

func (r *RelativeStrength) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

func (r *RelativeStrength) Warmup() int {
	// Need period+1 candles because the first delta requires a previous close
	return r.period + 1
}

func (r *RelativeStrength) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.prevClose = 0
	r.count = 0
	r.hasPrev = false
}

func (r *RelativeStrength) Update(c market.Candle) {
	if !r.hasPrev {
		r.prevClose = c.Close
		r.hasPrev = true
		return
	}

	delta := c.Close - r.prevClose
	r.prevClose = c.Close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count < r.period {
		// During warmup, accumulate simple averages
		r.avgGain += gain
		r.avgLoss += loss
		r.count++
		if r.count == r.period {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
		}
		return
	}

	r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
	r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
}

func (r *RelativeStrength) Ready() bool {
	return r.count >= r.period
}

func (r *RelativeStrength) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
