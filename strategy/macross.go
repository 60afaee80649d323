package strategy

import (
	"fmt"
	"strings"

	"github.com/markcheno/go-talib"

	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/session"
)

const defaultADXPeriod = 14

// MACross compares a short and a long moving average of bar closes. It
// buys while the short average is above the long one and the last close is
// above the short average, and sells in the mirror case.
type MACross struct {
	short, long int
	ma          string
	minADX      float64
	adxPeriod   int
	name        string
}

func NewMACross(p Params) (*MACross, error) {
	if p.Short <= 0 || p.Long <= 0 {
		return nil, fmt.Errorf("macross periods must be > 0, got %d/%d", p.Short, p.Long)
	}
	if p.Short >= p.Long {
		return nil, fmt.Errorf("macross requires short < long, got %d/%d", p.Short, p.Long)
	}
	ma := strings.ToLower(p.MA)
	switch ma {
	case "":
		ma = "sma"
	case "sma", "ema":
	default:
		return nil, fmt.Errorf("macross: unknown average %q", p.MA)
	}
	if p.MinADX < 0 {
		return nil, fmt.Errorf("macross: min adx must not be negative")
	}
	period := p.ADXPeriod
	if period <= 0 {
		period = defaultADXPeriod
	}

	name := fmt.Sprintf("%s_CROSS(%d,%d)", strings.ToUpper(ma), p.Short, p.Long)
	if p.MinADX > 0 {
		name += fmt.Sprintf("+ADX(%d)>=%g", period, p.MinADX)
	}
	return &MACross{short: p.Short, long: p.Long, ma: ma, minADX: p.MinADX, adxPeriod: period, name: name}, nil
}

func (x *MACross) Name() string { return x.name }

// Bars is the number of bars Evaluate needs before it can signal.
func (x *MACross) Bars() int {
	n := x.long
	if x.minADX > 0 && 2*x.adxPeriod > n {
		n = 2 * x.adxPeriod
	}
	return n
}

func (x *MACross) average(closes []float64, period int) []float64 {
	if x.ma == "ema" {
		return talib.Ema(closes, period)
	}
	return talib.Sma(closes, period)
}

func (x *MACross) Evaluate(snap market.Snapshot) Decision {
	closes := snap.Closes()
	if len(closes) < x.Bars() {
		return Decision{Reason: fmt.Sprintf("warming up: %d of %d bars", len(closes), x.Bars())}
	}

	last := len(closes) - 1
	d := Decision{
		Short: x.average(closes, x.short)[last],
		Long:  x.average(closes, x.long)[last],
		Close: closes[last],
	}

	if x.minADX > 0 {
		bars := snap.Bars()
		highs := make([]float64, len(bars))
		lows := make([]float64, len(bars))
		for i, b := range bars {
			highs[i] = b.High
			lows[i] = b.Low
		}
		if adx := talib.Adx(highs, lows, closes, x.adxPeriod)[last]; adx < x.minADX {
			d.Reason = fmt.Sprintf("ADX %.1f below %g", adx, x.minADX)
			return d
		}
	}

	switch {
	case d.Short > d.Long && d.Close > d.Short:
		d.Signal = session.Buy()
		d.Reason = "short above long, close above short"
	case d.Short < d.Long && d.Close < d.Short:
		d.Signal = session.Sell()
		d.Reason = "short below long, close below short"
	default:
		d.Reason = "no trend"
	}
	return d
}
