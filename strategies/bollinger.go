package strategies

import (
	"fmt"

	"github.com/quantfold/tradesim/indicators"
	"github.com/quantfold/tradesim/market"
)

// BollingerConfig parameterizes the Bollinger band mean-reversion strategy.
type BollingerConfig struct {
	Period  int     `json:"period" yaml:"period"`   // default 20
	StdDevs float64 `json:"stdDevs" yaml:"stdDevs"` // default 2
}

// BollingerReversion fades band breaks: it enters long when the close
// breaks below the lower band, short when it breaks above the upper band,
// and exits when the close reverts to the middle band.
type BollingerReversion struct {
	cfg BollingerConfig
	bb  *indicators.BollingerBands

	close      float64
	belowLower bool
	aboveUpper bool

	entry *Signal
}

func NewBollingerReversion(cfg BollingerConfig) *BollingerReversion {
	if cfg.Period <= 0 {
		cfg.Period = 20
	}
	if cfg.StdDevs <= 0 {
		cfg.StdDevs = 2
	}
	return &BollingerReversion{
		cfg: cfg,
		bb:  indicators.NewBollinger(cfg.Period, cfg.StdDevs),
	}
}

func (s *BollingerReversion) Name() string {
	return fmt.Sprintf("bollinger(%d,%.1f)", s.cfg.Period, s.cfg.StdDevs)
}

func (s *BollingerReversion) Warmup() int {
	return s.bb.Warmup()
}

func (s *BollingerReversion) Reset() {
	s.bb.Reset()
	s.close = 0
	s.belowLower = false
	s.aboveUpper = false
	s.entry = nil
}

func (s *BollingerReversion) Ready() bool {
	return s.bb.Ready()
}

func (s *BollingerReversion) Update(c market.Candle) {
	s.entry = nil

	s.bb.Update(c)
	if !s.bb.Ready() {
		return
	}
	s.close = c.Close

	// Signal on the break itself, not on every candle outside the band.
	belowLower := c.Close < s.bb.Lower()
	aboveUpper := c.Close > s.bb.Upper()

	switch {
	case belowLower && !s.belowLower:
		s.entry = &Signal{Side: market.Long, Reason: "lower band break", Price: c.Close}
	case aboveUpper && !s.aboveUpper:
		s.entry = &Signal{Side: market.Short, Reason: "upper band break", Price: c.Close}
	}
	s.belowLower = belowLower
	s.aboveUpper = aboveUpper
}

func (s *BollingerReversion) Entry() *Signal {
	return s.entry
}

// Exit fires when the close reverts through the middle band.
func (s *BollingerReversion) Exit(pos PositionView) *Signal {
	if !s.Ready() || s.close == 0 {
		return nil
	}
	middle := s.bb.Value()
	if pos.Side == market.Long && s.close >= middle {
		return &Signal{Side: pos.Side, Reason: "reversion to middle band", Price: s.close}
	}
	if pos.Side == market.Short && s.close <= middle {
		return &Signal{Side: pos.Side, Reason: "reversion to middle band", Price: s.close}
	}
	return nil
}
