package strategies

import (
	"fmt"

	"github.com/quantfold/tradesim/indicators"
	"github.com/quantfold/tradesim/market"
)

// EMACrossConfig parameterizes the fast/slow EMA crossover.
type EMACrossConfig struct {
	FastPeriod int `json:"fastPeriod" yaml:"fastPeriod"` // default 9
	SlowPeriod int `json:"slowPeriod" yaml:"slowPeriod"` // default 21
}

// EMACross trades a fast/slow EMA crossover:
// - enters long when the fast EMA crosses above the slow
// - enters short on the opposite cross
// - exits an open position on the opposite cross
type EMACross struct {
	cfg  EMACrossConfig
	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA

	lastDiff     float64
	haveLastDiff bool

	entry *Signal
}

func NewEMACross(cfg EMACrossConfig) *EMACross {
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = 9
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		cfg.SlowPeriod = cfg.FastPeriod * 2
	}
	return &EMACross{
		cfg:  cfg,
		fast: indicators.NewEMA(cfg.FastPeriod),
		slow: indicators.NewEMA(cfg.SlowPeriod),
	}
}

func (s *EMACross) Name() string {
	return fmt.Sprintf("ema_cross(%d,%d)", s.cfg.FastPeriod, s.cfg.SlowPeriod)
}

// Warmup needs one candle past the slow EMA to detect a cross.
func (s *EMACross) Warmup() int {
	return s.cfg.SlowPeriod + 1
}

func (s *EMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
	s.entry = nil
}

func (s *EMACross) Ready() bool {
	return s.haveLastDiff
}

func (s *EMACross) Update(c market.Candle) {
	s.entry = nil

	s.fast.Update(c)
	s.slow.Update(c)
	if !s.fast.Ready() || !s.slow.Ready() {
		return
	}

	diff := s.fast.Value() - s.slow.Value()

	// Need a previous diff to detect a cross.
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return
	}

	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	switch {
	case bullCross:
		s.entry = &Signal{Side: market.Long, Reason: "bull cross", Price: c.Close}
	case bearCross:
		s.entry = &Signal{Side: market.Short, Reason: "bear cross", Price: c.Close}
	}
}

func (s *EMACross) Entry() *Signal {
	return s.entry
}

// Exit fires when the current candle produced a cross against the open
// position.
func (s *EMACross) Exit(pos PositionView) *Signal {
	if s.entry == nil || s.entry.Side == pos.Side {
		return nil
	}
	return &Signal{Side: pos.Side, Reason: "opposite cross", Price: s.entry.Price}
}
