package paper

import "github.com/rustyeddy/advisor/market"

// aggregate folds bid quotes into bars of tf and returns the last count of
// them, oldest first.
func aggregate(ticks []market.Tick, tf market.Timeframe, count int) []market.Bar {
	if len(ticks) == 0 || count <= 0 {
		return nil
	}

	var bars []market.Bar
	for _, tk := range ticks {
		open := tf.Truncate(tk.Time)
		if n := len(bars); n == 0 || !bars[n-1].Time.Equal(open) {
			bars = append(bars, market.Bar{Time: open})
		}
		bars[len(bars)-1].Add(tk.Bid, tk.Volume)
	}

	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars
}
