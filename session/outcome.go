package session

import (
	"errors"
	"fmt"
)

// Action is what a session call did.
type Action int

const (
	// Skipped means no order was sent. Reason says why.
	Skipped Action = iota
	Opened
	Held
	Closed
	Reversed
)

func (a Action) String() string {
	switch a {
	case Skipped:
		return "skipped"
	case Opened:
		return "opened"
	case Held:
		return "held"
	case Closed:
		return "closed"
	case Reversed:
		return "reversed"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Outcome describes the effect of OpenPosition, ClosePosition or
// StopAndGain.
type Outcome struct {
	Action Action
	Reason string

	// Ticket and Price of the last order sent; Profit of the last close.
	Ticket string
	Price  float64
	Profit float64
}

// Reasons reported with Skipped.
const (
	ReasonOutsideWindow = "outside trading window"
	ReasonAmbiguous     = "ambiguous signal"
	ReasonNoSignal      = "no signal"
	ReasonFlat          = "no open position"
	ReasonTradeMode     = "blocked by trade mode"
	ReasonWithinRange   = "within stop and take"
)

var (
	ErrNotPrepared = errors.New("symbol not prepared")

	// ErrInconsistent means the terminal still reports a position the
	// session just closed.
	ErrInconsistent = errors.New("position still open after close")
)

// TradeError is a terminal failure during a session operation. The
// terminal error stays in the chain, so errors.Is still matches
// terminal.ErrUnavailable or terminal.ErrOrderRejected.
type TradeError struct {
	Op  string
	Err error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *TradeError) Unwrap() error { return e.Err }

func tradeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TradeError{Op: op, Err: err}
}
