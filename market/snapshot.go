package market

import (
	"context"
	"fmt"
)

// Feed is the part of a terminal that serves quotes and history.
type Feed interface {
	TickSource
	HistoricalBars(ctx context.Context, symbol string, count int, tf Timeframe) ([]Bar, error)
}

// Snapshot is a read-only view of the current tick and the most recent bars
// for one symbol, oldest bar first.
type Snapshot struct {
	Symbol    string
	Tick      Tick
	Timeframe Timeframe
	bars      []Bar
}

// TakeSnapshot reads the current tick and count bars of tf from feed. A count
// of zero skips the history request.
func TakeSnapshot(ctx context.Context, feed Feed, symbol string, count int, tf Timeframe) (Snapshot, error) {
	tick, err := feed.CurrentTick(ctx, symbol)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: tick: %w", symbol, err)
	}

	var bars []Bar
	if count > 0 {
		bars, err = feed.HistoricalBars(ctx, symbol, count, tf)
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot %s: bars: %w", symbol, err)
		}
	}

	s := Snapshot{
		Symbol:    symbol,
		Tick:      tick,
		Timeframe: tf,
		bars:      make([]Bar, len(bars)),
	}
	copy(s.bars, bars)
	return s, nil
}

// Bars returns a copy of the bars.
func (s Snapshot) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

func (s Snapshot) Len() int { return len(s.bars) }

// Closes returns the close price of every bar, oldest first.
func (s Snapshot) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}
