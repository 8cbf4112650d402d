// Package tactics describes how a strategy signal becomes concrete entries
// and exits: entry style, stop-loss rule, take-profit targets and optional
// trailing stop. A Set is declarative; the resolver translates it into
// absolute price levels at position-open time.
package tactics

import (
	"fmt"

	"github.com/quantfold/tradesim/market"
)

// EntryType selects how an entry signal is filled.
type EntryType string

const (
	EntryMarket EntryType = "market"
	EntryLimit  EntryType = "limit"
)

// StopLossRule places the initial stop. Price takes precedence over
// Percent; Percent is measured from the entry price.
type StopLossRule struct {
	Price   float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Percent float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// TakeProfitTarget closes ClosePercent of the original position size when
// its level is reached. Price takes precedence over Percent.
type TakeProfitTarget struct {
	Price        float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Percent      float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
	ClosePercent float64 `json:"close_percent" yaml:"close_percent"`
}

// TrailingStopRule tightens the stop once unrealized profit reaches
// ActivationPercent. The stop trails the best price seen by TrailPercent.
type TrailingStopRule struct {
	ActivationPercent float64 `json:"activation_percent" yaml:"activation_percent"`
	TrailPercent      float64 `json:"trail_percent" yaml:"trail_percent"`
}

// Set is a named, reusable bundle of entry/exit rules. Positions snapshot
// the values they need at open time, so later edits to a named set never
// retroactively alter open positions.
type Set struct {
	Name     string             `json:"name" yaml:"name"`
	Entry    EntryType          `json:"entry" yaml:"entry"`
	StopLoss *StopLossRule      `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	Targets  []TakeProfitTarget `json:"take_profits,omitempty" yaml:"take_profits,omitempty"`
	Trailing *TrailingStopRule  `json:"trailing_stop,omitempty" yaml:"trailing_stop,omitempty"`
}

// ResolvedTarget is a take-profit level with the slice of the original
// position it closes.
type ResolvedTarget struct {
	Price        float64
	ClosePercent float64
}

// Levels are the concrete price levels resolved from a Set for one entry.
type Levels struct {
	StopLoss float64 // 0 means no stop
	Targets  []ResolvedTarget
}

// Resolve translates the set into absolute stop-loss and take-profit levels
// for the given entry price and direction. Precedence per rule: explicit
// absolute price, then percent-of-entry, then none. Each target resolves
// independently.
func (s *Set) Resolve(entry float64, side market.Side) Levels {
	var lv Levels

	if s.StopLoss != nil {
		switch {
		case s.StopLoss.Price > 0:
			lv.StopLoss = s.StopLoss.Price
		case s.StopLoss.Percent > 0:
			// Stop sits on the adverse side of the entry.
			lv.StopLoss = entry * (1 - side.Sign()*s.StopLoss.Percent/100)
		}
	}

	for _, tp := range s.Targets {
		price := tp.Price
		if price <= 0 && tp.Percent > 0 {
			// Target sits on the favorable side of the entry.
			price = entry * (1 + side.Sign()*tp.Percent/100)
		}
		if price <= 0 {
			continue
		}
		lv.Targets = append(lv.Targets, ResolvedTarget{
			Price:        price,
			ClosePercent: tp.ClosePercent,
		})
	}

	return lv
}

// Validate checks the set for structural errors and returns advisory
// warnings. Take-profit close percents may sum below 100 (a remainder stays
// open), but a sum above 100 is flagged.
func (s *Set) Validate() (warnings []string, err error) {
	if s.Name == "" {
		return nil, fmt.Errorf("tactics set: name is required")
	}
	switch s.Entry {
	case EntryMarket, EntryLimit:
	case "":
		return nil, fmt.Errorf("tactics set %q: entry type is required", s.Name)
	default:
		return nil, fmt.Errorf("tactics set %q: unknown entry type %q", s.Name, s.Entry)
	}

	if s.StopLoss != nil && s.StopLoss.Price <= 0 && s.StopLoss.Percent <= 0 {
		return nil, fmt.Errorf("tactics set %q: stop loss needs a price or percent", s.Name)
	}

	totalClose := 0.0
	for i, tp := range s.Targets {
		if tp.Price <= 0 && tp.Percent <= 0 {
			return nil, fmt.Errorf("tactics set %q: target %d needs a price or percent", s.Name, i)
		}
		if tp.ClosePercent <= 0 {
			return nil, fmt.Errorf("tactics set %q: target %d needs a positive close percent", s.Name, i)
		}
		totalClose += tp.ClosePercent
	}
	if totalClose > 100 {
		warnings = append(warnings,
			fmt.Sprintf("tactics set %q: take-profit close percents sum to %.1f%%, above 100%%", s.Name, totalClose))
	}

	if s.Trailing != nil {
		if s.Trailing.TrailPercent <= 0 {
			return nil, fmt.Errorf("tactics set %q: trailing stop needs a positive trail percent", s.Name)
		}
		if s.Trailing.ActivationPercent < 0 {
			return nil, fmt.Errorf("tactics set %q: trailing activation percent cannot be negative", s.Name)
		}
	}

	return warnings, nil
}
