package market

import "time"

// Bar is one OHLC bar of a given timeframe, keyed by its open time.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Add folds a price into the bar.
func (b *Bar) Add(price, volume float64) {
	if b.Open == 0 {
		b.Open, b.High, b.Low = price, price, price
	}
	if price > b.High {
		b.High = price
	}
	if price < b.Low {
		b.Low = price
	}
	b.Close = price
	b.Volume += volume
}
