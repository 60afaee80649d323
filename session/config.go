package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/window"
)

// Config is fixed for the lifetime of a Session.
type Config struct {
	ExpertName string
	Version    string

	Symbol    string
	Magic     int64
	Lot       float64
	Regular   risk.Distances
	Emergency risk.Distances
	Window    window.Window
	Fee       float64
	Deviation int

	// Location is the time zone the window boundaries are expressed in.
	// Nil means UTC.
	Location *time.Location
}

var ErrInvalidConfig = errors.New("invalid session config")

func (c Config) Validate() error {
	switch {
	case c.Symbol == "":
		return fmt.Errorf("%w: symbol is required", ErrInvalidConfig)
	case c.Lot <= 0:
		return fmt.Errorf("%w: lot must be positive", ErrInvalidConfig)
	case c.Regular.StopLoss < 0 || c.Regular.TakeProfit < 0:
		return fmt.Errorf("%w: stop loss and take profit must not be negative", ErrInvalidConfig)
	case c.Emergency.StopLoss < 0 || c.Emergency.TakeProfit < 0:
		return fmt.Errorf("%w: emergency distances must not be negative", ErrInvalidConfig)
	case c.Fee < 0:
		return fmt.Errorf("%w: fee must not be negative", ErrInvalidConfig)
	case c.Deviation < 0:
		return fmt.Errorf("%w: deviation must not be negative", ErrInvalidConfig)
	}
	if err := c.Window.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Distances returns the configured distances for a profile.
func (c Config) Distances(p Profile) risk.Distances {
	if p == Emergency {
		return c.Emergency
	}
	return c.Regular
}
