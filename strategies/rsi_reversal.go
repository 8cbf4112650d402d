package strategies

import (
	"fmt"

	"github.com/quantfold/tradesim/indicators"
	"github.com/quantfold/tradesim/market"
)

// RSIReversalConfig parameterizes the RSI mean-reversion strategy.
type RSIReversalConfig struct {
	Period     int     `json:"period" yaml:"period"`         // default 14
	Oversold   float64 `json:"oversold" yaml:"oversold"`     // default 30
	Overbought float64 `json:"overbought" yaml:"overbought"` // default 70
}

// RSIReversal enters long when RSI crosses back up through the oversold
// threshold and short when it crosses back down through the overbought
// threshold. An open position exits when RSI reaches the opposite band.
type RSIReversal struct {
	cfg RSIReversalConfig
	rsi *indicators.RelativeStrength

	value    float64
	prev     float64
	havePrev bool

	entry *Signal
}

func NewRSIReversal(cfg RSIReversalConfig) *RSIReversal {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.Oversold <= 0 {
		cfg.Oversold = 30
	}
	if cfg.Overbought <= cfg.Oversold {
		cfg.Overbought = 100 - cfg.Oversold
	}
	return &RSIReversal{
		cfg: cfg,
		rsi: indicators.NewRSI(cfg.Period),
	}
}

func (s *RSIReversal) Name() string {
	return fmt.Sprintf("rsi_reversal(%d,%.0f,%.0f)", s.cfg.Period, s.cfg.Oversold, s.cfg.Overbought)
}

func (s *RSIReversal) Warmup() int {
	return s.rsi.Warmup() + 1
}

func (s *RSIReversal) Reset() {
	s.rsi.Reset()
	s.value = 0
	s.prev = 0
	s.havePrev = false
	s.entry = nil
}

func (s *RSIReversal) Ready() bool {
	return s.havePrev
}

func (s *RSIReversal) Update(c market.Candle) {
	s.entry = nil

	s.rsi.Update(c)
	if !s.rsi.Ready() {
		return
	}
	s.value = s.rsi.Value()

	if !s.havePrev {
		s.prev = s.value
		s.havePrev = true
		return
	}

	// Reversal, not touch: the cross back through the band is the signal.
	crossUp := s.prev <= s.cfg.Oversold && s.value > s.cfg.Oversold
	crossDown := s.prev >= s.cfg.Overbought && s.value < s.cfg.Overbought
	s.prev = s.value

	switch {
	case crossUp:
		s.entry = &Signal{Side: market.Long, Reason: "rsi reversal up", Price: c.Close}
	case crossDown:
		s.entry = &Signal{Side: market.Short, Reason: "rsi reversal down", Price: c.Close}
	}
}

func (s *RSIReversal) Entry() *Signal {
	return s.entry
}

// Exit fires when RSI reaches the band opposite the position.
func (s *RSIReversal) Exit(pos PositionView) *Signal {
	if !s.Ready() {
		return nil
	}
	if pos.Side == market.Long && s.value >= s.cfg.Overbought {
		return &Signal{Side: pos.Side, Reason: "rsi overbought", Price: 0}
	}
	if pos.Side == market.Short && s.value <= s.cfg.Oversold {
		return &Signal{Side: pos.Side, Reason: "rsi oversold", Price: 0}
	}
	return nil
}
