package sim

import "time"

// EventType tags lifecycle events emitted by the engine.
type EventType string

const (
	EventPositionOpened  EventType = "POSITION_OPENED"
	EventPositionClosed  EventType = "POSITION_CLOSED"
	EventPositionUpdated EventType = "POSITION_UPDATED"
	EventSignalGenerated EventType = "SIGNAL_GENERATED"
	EventError           EventType = "ERROR"
	EventMaxDrawdown     EventType = "MAX_DRAWDOWN_REACHED"
	EventBalanceUpdate   EventType = "BALANCE_UPDATE"
)

// Event is one lifecycle notification. Delivery is synchronous and
// best-effort; a panicking subscriber is isolated and never aborts engine
// processing.
type Event struct {
	Type      EventType
	Time      time.Time
	AccountID string
	Payload   any
}

// Subscriber receives engine events.
type Subscriber func(Event)

// PositionEvent is the payload for POSITION_OPENED and POSITION_UPDATED.
type PositionEvent struct {
	Position *Position
}

// TradeEvent is the payload for POSITION_CLOSED.
type TradeEvent struct {
	Position *Position
	Trade    Trade
}

// BalanceEvent is the payload for BALANCE_UPDATE.
type BalanceEvent struct {
	Balance float64
	Equity  float64
}

// DrawdownEvent is the payload for MAX_DRAWDOWN_REACHED.
type DrawdownEvent struct {
	Drawdown    float64
	DrawdownPct float64
	Threshold   float64
}

// ErrorEvent is the payload for ERROR.
type ErrorEvent struct {
	Context string
	Err     string
}

// SignalEvent is the payload for SIGNAL_GENERATED.
type SignalEvent struct {
	Symbol   string
	Action   string
	Side     string
	Strategy string
	Price    float64
}

// publish delivers an event to every subscriber. Each subscriber runs
// inside its own recover so one failing consumer cannot break the rest.
func (e *Engine) publish(ev Event) {
	ev.AccountID = e.acct.ID
	for _, fn := range e.subs {
		func() {
			defer func() { _ = recover() }()
			fn(ev)
		}()
	}
}
