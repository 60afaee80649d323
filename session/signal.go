package session

import "github.com/rustyeddy/advisor/risk"

// Signal is the output of a strategy for one tick. Buy and Sell are meant
// to be exclusive; when both are set the signal is ambiguous and ignored.
type Signal struct {
	Buy  bool
	Sell bool
}

func Buy() Signal  { return Signal{Buy: true} }
func Sell() Signal { return Signal{Sell: true} }

func (s Signal) Ambiguous() bool { return s.Buy && s.Sell }
func (s Signal) None() bool      { return !s.Buy && !s.Sell }

// Direction returns the side the signal asks for. It is false for no
// signal and for an ambiguous one.
func (s Signal) Direction() (risk.Direction, bool) {
	switch {
	case s.Buy && !s.Sell:
		return risk.Long, true
	case s.Sell && !s.Buy:
		return risk.Short, true
	}
	return 0, false
}

// Profile picks the stop-loss/take-profit distances for an entry.
type Profile int

const (
	Regular Profile = iota
	Emergency
)

func (p Profile) String() string {
	if p == Emergency {
		return "emergency"
	}
	return "regular"
}
