package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidVolume = errors.New("invalid volume")

// CheckVolume verifies that lot lies within [min, max] and is a whole
// multiple of step. Zero bounds are not checked.
func CheckVolume(lot, min, max, step float64) error {
	if lot <= 0 {
		return fmt.Errorf("%w: lot %v must be positive", ErrInvalidVolume, lot)
	}
	if min > 0 && lot < min {
		return fmt.Errorf("%w: lot %v below minimum %v", ErrInvalidVolume, lot, min)
	}
	if max > 0 && lot > max {
		return fmt.Errorf("%w: lot %v above maximum %v", ErrInvalidVolume, lot, max)
	}
	if step > 0 {
		rem := decimal.NewFromFloat(lot).Mod(decimal.NewFromFloat(step))
		if !rem.IsZero() {
			return fmt.Errorf("%w: lot %v is not a multiple of step %v", ErrInvalidVolume, lot, step)
		}
	}
	return nil
}

// StopDistanceOK reports whether a level is at least minPoints away from
// price. A zero level or zero minimum always passes.
func StopDistanceOK(price, level, point float64, minPoints int) bool {
	if level == 0 || minPoints <= 0 {
		return true
	}
	return abs(Points(price-level, point)) >= float64(minPoints)
}
