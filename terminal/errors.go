package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrSymbolUnavailable means the broker does not offer the instrument
	// or it cannot be selected. Fatal for a session.
	ErrSymbolUnavailable = errors.New("symbol unavailable")

	// ErrUnavailable means the terminal connection is down. Transient.
	ErrUnavailable = errors.New("terminal unavailable")

	// ErrOrderRejected means the terminal refused an order. Transient.
	ErrOrderRejected = errors.New("order rejected")
)

// RejectCode classifies an order rejection.
type RejectCode int

const (
	RejectUnknown RejectCode = iota
	RejectRequote
	RejectPriceChanged
	RejectInvalidStops
	RejectInvalidVolume
	RejectMarketClosed
	RejectTradeDisabled
	RejectNoMoney
)

func (c RejectCode) String() string {
	switch c {
	case RejectRequote:
		return "requote"
	case RejectPriceChanged:
		return "price changed"
	case RejectInvalidStops:
		return "invalid stops"
	case RejectInvalidVolume:
		return "invalid volume"
	case RejectMarketClosed:
		return "market closed"
	case RejectTradeDisabled:
		return "trade disabled"
	case RejectNoMoney:
		return "not enough money"
	}
	return "unknown"
}

// RejectError carries the reason an order was refused. It matches
// ErrOrderRejected with errors.Is.
type RejectError struct {
	Code   RejectCode
	Reason string
}

func Reject(code RejectCode, format string, args ...any) *RejectError {
	return &RejectError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

func (e *RejectError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("order rejected: %s", e.Code)
	}
	return fmt.Sprintf("order rejected: %s: %s", e.Code, e.Reason)
}

func (e *RejectError) Is(target error) bool {
	return target == ErrOrderRejected
}

// RejectCodeOf returns the rejection code in err's chain, if any.
func RejectCodeOf(err error) (RejectCode, bool) {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return RejectUnknown, false
}

// IsTransient reports whether err is worth another attempt on a later
// tick: the connection dropped or the order was refused.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrOrderRejected)
}
