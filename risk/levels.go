package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction is the side of a position.
type Direction int

const (
	Long Direction = iota + 1
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "Buy"
	case Short:
		return "Sell"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// sign is +1 for long and -1 for short.
func (d Direction) sign() int64 {
	if d == Short {
		return -1
	}
	return 1
}

// Distances are stop-loss and take-profit offsets in points.
type Distances struct {
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64 `json:"take_profit" yaml:"take_profit"`
}

// Levels are absolute stop-loss and take-profit prices. A zero field means
// the level is not set.
type Levels struct {
	StopLoss   float64
	TakeProfit float64
}

// Offset returns the price distance points*point away from open in the
// direction of profit for dir. Negative points move against the position.
func Offset(dir Direction, open, point, points float64) float64 {
	o := decimal.NewFromFloat(open)
	move := decimal.NewFromFloat(points).Mul(decimal.NewFromFloat(point)).Mul(decimal.NewFromInt(dir.sign()))
	f, _ := o.Add(move).Float64()
	return f
}

// Compute returns the stop-loss and take-profit prices for a position
// opened at open. Distances are in points and scaled by the symbol's point
// size. A zero distance yields a zero level.
func Compute(dir Direction, open, point float64, d Distances) Levels {
	var l Levels
	if d.StopLoss != 0 {
		l.StopLoss = Offset(dir, open, point, -d.StopLoss)
	}
	if d.TakeProfit != 0 {
		l.TakeProfit = Offset(dir, open, point, d.TakeProfit)
	}
	return l
}

// Normalize snaps price to the nearest multiple of tickSize and rounds the
// result to digits decimals. A zero price stays zero.
func Normalize(price, tickSize float64, digits int) float64 {
	if price == 0 {
		return 0
	}
	p := decimal.NewFromFloat(price)
	if tickSize > 0 {
		ts := decimal.NewFromFloat(tickSize)
		p = p.Div(ts).Round(0).Mul(ts)
	}
	f, _ := p.Round(int32(digits)).Float64()
	return f
}

// Points converts a price difference to points, rounded to six decimals so
// float noise in diff does not leak into threshold comparisons.
func Points(diff, point float64) float64 {
	if point == 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(diff).Div(decimal.NewFromFloat(point)).Round(6).Float64()
	return f
}
