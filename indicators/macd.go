package indicators

import (
	"fmt"

	"github.com/quantfold/tradesim/market"
)

// MovingAvgConvDiv is a streaming MACD indicator. Value() returns the
// histogram (macd line minus signal line); Line() and Signal() expose the
// component series.
type MovingAvgConvDiv struct {
	fast   *ExponentialMA
	slow   *ExponentialMA
	signal *ExponentialMA

	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a streaming MACD with the given fast/slow/signal periods.
func NewMACD(fast, slow, signal int) *MovingAvgConvDiv {
	return &MovingAvgConvDiv{
		fast:         NewEMA(fast),
		slow:         NewEMA(slow),
		signal:       NewEMA(signal),
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MovingAvgConvDiv) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fast.period, m.slowPeriod, m.signalPeriod)
}

func (m *MovingAvgConvDiv) Warmup() int {
	return m.slowPeriod + m.signalPeriod
}

func (m *MovingAvgConvDiv) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

func (m *MovingAvgConvDiv) Update(c market.Candle) {
	m.fast.Update(c)
	m.slow.Update(c)

	// The signal line smooths the macd line, so it only starts once both
	// component EMAs are warmed up.
	if m.fast.Ready() && m.slow.Ready() {
		m.signal.updateValue(m.fast.Value() - m.slow.Value())
	}
}

func (m *MovingAvgConvDiv) Ready() bool {
	return m.signal.Ready()
}

// Line returns the MACD line (fast EMA minus slow EMA).
func (m *MovingAvgConvDiv) Line() float64 {
	if !m.fast.Ready() || !m.slow.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

// Signal returns the signal line (EMA of the MACD line).
func (m *MovingAvgConvDiv) Signal() float64 {
	return m.signal.Value()
}

// Value returns the MACD histogram.
func (m *MovingAvgConvDiv) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.Line() - m.Signal()
}
