// Package window classifies wall-clock time against a trading day's
// session boundaries.
package window

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// TimeOfDay is an offset from midnight with second resolution. It carries
// no date; midnight rollover is the caller's concern.
type TimeOfDay time.Duration

// At builds a TimeOfDay from hour, minute and second.
func At(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// Of returns the time of day of t in t's own location.
func Of(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return At(h, m, s)
}

// Parse reads "H:MM" or "H:MM:SS".
func Parse(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("time of day %q: want H:MM or H:MM:SS", s)
	}

	limits := []int{23, 59, 59}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("time of day %q: %w", s, err)
		}
		if v < 0 || v > limits[i] {
			return 0, fmt.Errorf("time of day %q: field %d out of range", s, i+1)
		}
		vals[i] = v
	}
	return At(vals[0], vals[1], vals[2]), nil
}

// MustParse is Parse for constants; it panics on error.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(time.Duration(t) / time.Hour) }
func (t TimeOfDay) Minute() int { return int(time.Duration(t) % time.Hour / time.Minute) }
func (t TimeOfDay) Second() int { return int(time.Duration(t) % time.Minute / time.Second) }

func (t TimeOfDay) String() string {
	if t.Second() != 0 {
		return fmt.Sprintf("%d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	}
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// State is where a moment falls within the trading day.
type State int

const (
	BeforeStart State = iota
	Trading
	Finishing
	EndOfDay
)

func (s State) String() string {
	switch s {
	case BeforeStart:
		return "BeforeStart"
	case Trading:
		return "Trading"
	case Finishing:
		return "FinishingNoNewEntries"
	case EndOfDay:
		return "EndOfDay"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// AllowsEntries reports whether new positions may be opened.
func (s State) AllowsEntries() bool { return s == Trading }

// AllowsClose reports whether open positions may be managed or closed by
// the strategy. EndOfDay forces closure rather than merely allowing it.
func (s State) AllowsClose() bool { return s == Trading || s == Finishing || s == EndOfDay }

// Window holds the three session boundaries of a trading day:
// entries are allowed in [Start, Finishing), open positions may still be
// managed in [Finishing, Ending) and everything is closed from Ending on.
type Window struct {
	Start     TimeOfDay `json:"start" yaml:"start"`
	Finishing TimeOfDay `json:"finishing" yaml:"finishing"`
	Ending    TimeOfDay `json:"ending" yaml:"ending"`
}

var ErrInvalidWindow = errors.New("invalid trading window")

// Default is the window used by the example advisors: 9:15, 17:30, 17:50.
func Default() Window {
	return Window{
		Start:     At(9, 15, 0),
		Finishing: At(17, 30, 0),
		Ending:    At(17, 50, 0),
	}
}

func (w Window) Validate() error {
	switch {
	case w.Start < 0 || time.Duration(w.Ending) >= day:
		return fmt.Errorf("%w: boundaries must fall within one day", ErrInvalidWindow)
	case w.Start > w.Finishing:
		return fmt.Errorf("%w: start %s after finishing %s", ErrInvalidWindow, w.Start, w.Finishing)
	case w.Finishing > w.Ending:
		return fmt.Errorf("%w: finishing %s after ending %s", ErrInvalidWindow, w.Finishing, w.Ending)
	}
	return nil
}

// Classify places now within the window. Each boundary instant belongs to
// the later state.
func (w Window) Classify(now TimeOfDay) State {
	switch {
	case now < w.Start:
		return BeforeStart
	case now < w.Finishing:
		return Trading
	case now < w.Ending:
		return Finishing
	default:
		return EndOfDay
	}
}

// ClassifyTime classifies t in loc. A nil loc uses t's own location.
func (w Window) ClassifyTime(t time.Time, loc *time.Location) State {
	if loc != nil {
		t = t.In(loc)
	}
	return w.Classify(Of(t))
}
