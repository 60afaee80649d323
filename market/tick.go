package market

import (
	"context"
	"errors"
	"sync"
	"time"
)

// TickSource returns the latest quote for a symbol.
type TickSource interface {
	CurrentTick(ctx context.Context, symbol string) (Tick, error)
}

// Tick is a single quote update as reported by the terminal.
type Tick struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
	Last   float64
	Volume float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// IsZero reports whether the tick carries no quote at all.
func (t Tick) IsZero() bool {
	return t.Bid == 0 && t.Ask == 0 && t.Time.IsZero()
}

var ErrNoTick = errors.New("tick not found")

// TickStore keeps the most recent tick per symbol.
type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (ts *TickStore) Set(t Tick) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.ticks[t.Symbol] = t
}

func (ts *TickStore) Get(symbol string) (Tick, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.ticks[symbol]
	if !ok {
		return Tick{}, ErrNoTick
	}
	return t, nil
}
