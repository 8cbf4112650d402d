package indicators

import (
	"fmt"
	"math"

	"github.com/quantfold/tradesim/market"
)

// BollingerBands is a streaming Bollinger Bands indicator. Value() returns
// the middle band; Upper() and Lower() return the outer bands.
type BollingerBands struct {
	period int
	mult   float64
	closes []float64
}

// NewBollinger creates streaming Bollinger Bands with the given period and
// standard-deviation multiplier.
func NewBollinger(period int, mult float64) *BollingerBands {
	return &BollingerBands{
		period: period,
		mult:   mult,
		closes: make([]float64, 0, period),
	}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.period, b.mult)
}

func (b *BollingerBands) Warmup() int {
	return b.period
}

func (b *BollingerBands) Reset() {
	b.closes = b.closes[:0]
}

func (b *BollingerBands) Update(c market.Candle) {
	b.closes = append(b.closes, c.Close)
	if len(b.closes) > b.period {
		b.closes = b.closes[1:]
	}
}

func (b *BollingerBands) Ready() bool {
	return len(b.closes) >= b.period
}

func (b *BollingerBands) mean() float64 {
	sum := 0.0
	for _, v := range b.closes {
		sum += v
	}
	return sum / float64(len(b.closes))
}

func (b *BollingerBands) stdev() float64 {
	m := b.mean()
	variance := 0.0
	for _, v := range b.closes {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(b.closes)))
}

// Value returns the middle band (SMA of closes).
func (b *BollingerBands) Value() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean()
}

func (b *BollingerBands) Upper() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean() + b.mult*b.stdev()
}

func (b *BollingerBands) Lower() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean() - b.mult*b.stdev()
}
