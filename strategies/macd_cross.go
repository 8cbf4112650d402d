package strategies

import (
	"fmt"

	"github.com/quantfold/tradesim/indicators"
	"github.com/quantfold/tradesim/market"
)

// MACDCrossConfig parameterizes the MACD histogram crossover.
type MACDCrossConfig struct {
	FastPeriod   int `json:"fastPeriod" yaml:"fastPeriod"`     // default 12
	SlowPeriod   int `json:"slowPeriod" yaml:"slowPeriod"`     // default 26
	SignalPeriod int `json:"signalPeriod" yaml:"signalPeriod"` // default 9
}

// MACDCross enters long when the MACD histogram turns positive (macd line
// crossing above the signal line) and short when it turns negative. An
// open position exits on the opposite cross.
type MACDCross struct {
	cfg  MACDCrossConfig
	macd *indicators.MovingAvgConvDiv

	lastHist     float64
	haveLastHist bool

	entry *Signal
}

func NewMACDCross(cfg MACDCrossConfig) *MACDCross {
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = 12
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		cfg.SlowPeriod = 26
	}
	if cfg.SignalPeriod <= 0 {
		cfg.SignalPeriod = 9
	}
	return &MACDCross{
		cfg:  cfg,
		macd: indicators.NewMACD(cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod),
	}
}

func (s *MACDCross) Name() string {
	return fmt.Sprintf("macd_cross(%d,%d,%d)", s.cfg.FastPeriod, s.cfg.SlowPeriod, s.cfg.SignalPeriod)
}

func (s *MACDCross) Warmup() int {
	return s.macd.Warmup() + 1
}

func (s *MACDCross) Reset() {
	s.macd.Reset()
	s.lastHist = 0
	s.haveLastHist = false
	s.entry = nil
}

func (s *MACDCross) Ready() bool {
	return s.haveLastHist
}

func (s *MACDCross) Update(c market.Candle) {
	s.entry = nil

	s.macd.Update(c)
	if !s.macd.Ready() {
		return
	}

	hist := s.macd.Value()
	if !s.haveLastHist {
		s.lastHist = hist
		s.haveLastHist = true
		return
	}

	bullCross := hist > 0 && s.lastHist <= 0
	bearCross := hist < 0 && s.lastHist >= 0
	s.lastHist = hist

	switch {
	case bullCross:
		s.entry = &Signal{Side: market.Long, Reason: "macd bull cross", Price: c.Close}
	case bearCross:
		s.entry = &Signal{Side: market.Short, Reason: "macd bear cross", Price: c.Close}
	}
}

func (s *MACDCross) Entry() *Signal {
	return s.entry
}

func (s *MACDCross) Exit(pos PositionView) *Signal {
	if s.entry == nil || s.entry.Side == pos.Side {
		return nil
	}
	return &Signal{Side: pos.Side, Reason: "opposite macd cross", Price: s.entry.Price}
}
