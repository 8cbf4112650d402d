package sim

import "errors"

var (
	// ErrInsufficientBalance is returned when margin plus entry fee exceeds
	// the available account balance. The open request mutates nothing.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrMaxOpenPositions is returned when the account already holds its
	// configured maximum number of open positions.
	ErrMaxOpenPositions = errors.New("max open positions reached")

	// ErrDuplicatePosition is returned when a position already exists for
	// the requested symbol. At most one concurrent position per symbol.
	ErrDuplicatePosition = errors.New("position already open for symbol")

	// ErrPositionNotFound is returned when a position id or symbol does not
	// match any open position.
	ErrPositionNotFound = errors.New("position not found")

	// ErrPositionTerminal is returned on any attempt to mutate a closed or
	// liquidated position. This is a programmer error, not a market event.
	ErrPositionTerminal = errors.New("position is in a terminal state")

	// ErrAccountStopped is returned when signal execution or price
	// processing is requested on a stopped account.
	ErrAccountStopped = errors.New("account is stopped")

	// ErrAccountPaused is returned when signal execution is requested on a
	// paused account. Price processing continues while paused.
	ErrAccountPaused = errors.New("account is paused")
)
