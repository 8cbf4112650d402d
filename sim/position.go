package sim

import (
	"time"

	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/tactics"
)

// PositionStatus is the lifecycle state of a position. Transitions are
// monotonic: PENDING -> OPEN -> CLOSING -> CLOSED | LIQUIDATED. CLOSED and
// LIQUIDATED are terminal.
type PositionStatus string

const (
	PositionPending    PositionStatus = "pending"
	PositionOpen       PositionStatus = "open"
	PositionClosing    PositionStatus = "closing"
	PositionClosed     PositionStatus = "closed"
	PositionLiquidated PositionStatus = "liquidated"
)

// CloseReason tags why a position (or a slice of it) was closed.
type CloseReason string

const (
	ReasonTakeProfit   CloseReason = "TP"
	ReasonStopLoss     CloseReason = "SL"
	ReasonSignal       CloseReason = "SIGNAL"
	ReasonManual       CloseReason = "MANUAL"
	ReasonLiquidation  CloseReason = "LIQUIDATION"
	ReasonMaxDrawdown  CloseReason = "MAX_DRAWDOWN"
	ReasonTrailingStop CloseReason = "TRAILING_STOP"
)

// Fill is one entry execution: price, size and the fee charged.
type Fill struct {
	Price float64
	Size  float64
	Fee   float64
	Time  time.Time
}

// ExitFill is one exit execution with its realized PnL slice.
type ExitFill struct {
	Price  float64
	Size   float64
	Fee    float64
	PnL    float64
	Time   time.Time
	Reason CloseReason
}

// Target is a take-profit level with the share of the original position it
// closes when hit.
type Target struct {
	Price        float64
	ClosePercent float64
	Filled       bool
	FilledAt     time.Time
}

// Position is one simulated market exposure. Callers must treat returned
// positions as read-only; all mutation goes through the engine.
type Position struct {
	ID     string
	Symbol string
	Side   market.Side
	Status PositionStatus

	Entries []Fill
	Exits   []ExitFill

	MarkPrice        float64
	StopLoss         float64 // 0 means no stop
	Targets          []Target
	LimitPrice       float64 // pending entries only
	Leverage         float64
	Margin           float64
	LiquidationPrice float64
	Fees             float64

	// Size is the remaining open size; OriginalSize the sum of entry fills.
	Size         float64
	OriginalSize float64

	UnrealizedPnL float64
	RealizedPnL   float64

	OpenTime    time.Time
	CloseTime   time.Time
	CloseReason CloseReason
	TacticsName string

	// pendingSize is the requested size of a not-yet-filled limit entry.
	pendingSize float64

	// Trailing-stop state, snapshotted from the tactics set at open time.
	trailing    *tactics.TrailingStopRule
	trailActive bool
	trailBest   float64
	trailSet    bool // the current stop was placed by trailing logic
}

func (p *Position) IsOpen() bool {
	return p.Status == PositionOpen || p.Status == PositionClosing
}

func (p *Position) IsPending() bool {
	return p.Status == PositionPending
}

// IsTerminal reports whether the position reached CLOSED or LIQUIDATED.
func (p *Position) IsTerminal() bool {
	return p.Status == PositionClosed || p.Status == PositionLiquidated
}

// AvgEntryPrice is the size-weighted average over all entry fills.
func (p *Position) AvgEntryPrice() float64 {
	var notional, size float64
	for _, f := range p.Entries {
		notional += f.Price * f.Size
		size += f.Size
	}
	if size == 0 {
		return 0
	}
	return notional / size
}

// AvgExitPrice is the size-weighted average over all exit fills.
func (p *Position) AvgExitPrice() float64 {
	var notional, size float64
	for _, f := range p.Exits {
		notional += f.Price * f.Size
		size += f.Size
	}
	if size == 0 {
		return 0
	}
	return notional / size
}

// unrealized returns PnL on the remaining size at the given mark price.
func (p *Position) unrealized(price float64) float64 {
	return p.Side.Sign() * (price - p.AvgEntryPrice()) * p.Size
}

// pnlPercent is the unrealized price move from entry, as a percent of the
// entry price (leverage-independent).
func (p *Position) pnlPercent(price float64) float64 {
	entry := p.AvgEntryPrice()
	if entry == 0 {
		return 0
	}
	return p.Side.Sign() * (price - entry) / entry * 100
}

// levelTolerance absorbs the rounding error percent-resolved levels carry
// (entry * (1 + pct/100) is not exact in binary floating point), so a tick
// at the mathematically exact level still fires the trigger.
const levelTolerance = 1e-9

// atOrAbove and atOrBelow compare a mark price against a trigger level
// with a relative tolerance. Levels are always positive.
func atOrAbove(price, level float64) bool { return price >= level*(1-levelTolerance) }
func atOrBelow(price, level float64) bool { return price <= level*(1+levelTolerance) }

// stopHit reports whether the mark price reached the stop level.
func (p *Position) stopHit(price float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	if p.Side == market.Long {
		return atOrBelow(price, p.StopLoss)
	}
	return atOrAbove(price, p.StopLoss)
}

// liquidated reports whether the mark price crossed the liquidation price.
func (p *Position) liquidated(price float64) bool {
	if p.LiquidationPrice <= 0 {
		return false
	}
	if p.Side == market.Long {
		return atOrBelow(price, p.LiquidationPrice)
	}
	return atOrAbove(price, p.LiquidationPrice)
}

// targetHit reports whether the mark price reached the take-profit level.
func targetHit(side market.Side, price, target float64) bool {
	if side == market.Long {
		return atOrAbove(price, target)
	}
	return atOrBelow(price, target)
}

// updateTrailing advances the trailing-stop state for the new mark price.
// The stop only ever tightens toward the current price, never relaxes.
func (p *Position) updateTrailing(price float64) {
	if p.trailing == nil {
		return
	}

	if !p.trailActive {
		if p.pnlPercent(price) < p.trailing.ActivationPercent {
			return
		}
		p.trailActive = true
		p.trailBest = price
	}

	if p.Side == market.Long {
		if price > p.trailBest {
			p.trailBest = price
		}
		candidate := p.trailBest * (1 - p.trailing.TrailPercent/100)
		if candidate > p.StopLoss {
			p.StopLoss = candidate
			p.trailSet = true
		}
		return
	}

	if price < p.trailBest {
		p.trailBest = price
	}
	candidate := p.trailBest * (1 + p.trailing.TrailPercent/100)
	if p.StopLoss == 0 || candidate < p.StopLoss {
		p.StopLoss = candidate
		p.trailSet = true
	}
}
