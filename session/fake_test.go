package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/advisor/journal"
	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/terminal"
	"github.com/rustyeddy/advisor/window"
	"github.com/stretchr/testify/require"
)

// fakeTerminal is a scriptable terminal. Each error field, when set, is
// returned by the matching call.
type fakeTerminal struct {
	info      market.SymbolInfo
	tick      market.Tick
	positions []terminal.Position

	selectErr    error
	tickErr      error
	positionsErr error
	placeErr     error
	closeErr     error
	closeProfit  float64

	selects int
	placed  []terminal.OrderRequest
	closed  []terminal.Position
	seq     int
}

var _ terminal.Terminal = (*fakeTerminal)(nil)

func newFake() *fakeTerminal {
	return &fakeTerminal{
		info: market.Symbols["EURUSD"],
		tick: market.Tick{Symbol: "EURUSD", Time: day(10, 0), Bid: 1.10000, Ask: 1.10010},
	}
}

func (f *fakeTerminal) SelectSymbol(ctx context.Context, name string) (market.SymbolInfo, error) {
	f.selects++
	if f.selectErr != nil {
		return market.SymbolInfo{}, f.selectErr
	}
	if name != f.info.Name {
		return market.SymbolInfo{}, fmt.Errorf("select %q: %w", name, terminal.ErrSymbolUnavailable)
	}
	return f.info, nil
}

func (f *fakeTerminal) CurrentTick(ctx context.Context, symbol string) (market.Tick, error) {
	if f.tickErr != nil {
		return market.Tick{}, f.tickErr
	}
	return f.tick, nil
}

func (f *fakeTerminal) HistoricalBars(ctx context.Context, symbol string, count int, tf market.Timeframe) ([]market.Bar, error) {
	return nil, nil
}

func (f *fakeTerminal) OpenPositions(ctx context.Context, symbol string, magic int64) ([]terminal.Position, error) {
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}
	return append([]terminal.Position(nil), f.positions...), nil
}

func (f *fakeTerminal) PlaceOrder(ctx context.Context, req terminal.OrderRequest) (terminal.OrderResult, error) {
	if f.placeErr != nil {
		return terminal.OrderResult{}, f.placeErr
	}
	f.placed = append(f.placed, req)
	f.seq++
	price := f.tick.Ask
	if req.Side == risk.Short {
		price = f.tick.Bid
	}
	p := terminal.Position{
		Ticket:     fmt.Sprintf("T%d", f.seq),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Magic:      req.Magic,
		Volume:     req.Volume,
		OpenPrice:  price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		OpenTime:   f.tick.Time,
		Comment:    req.Comment,
	}
	f.positions = append(f.positions, p)
	return terminal.OrderResult{Ticket: p.Ticket, Symbol: p.Symbol, Side: p.Side, Volume: p.Volume, Price: price, Time: p.OpenTime}, nil
}

func (f *fakeTerminal) ClosePosition(ctx context.Context, pos terminal.Position, comment string) (terminal.OrderResult, error) {
	if f.closeErr != nil {
		return terminal.OrderResult{}, f.closeErr
	}
	for i, p := range f.positions {
		if p.Ticket == pos.Ticket {
			f.positions = append(f.positions[:i], f.positions[i+1:]...)
			f.closed = append(f.closed, p)
			return terminal.OrderResult{Ticket: p.Ticket, Symbol: p.Symbol, Side: p.Side.Opposite(), Volume: p.Volume, Price: f.tick.Bid, Profit: f.closeProfit, Time: f.tick.Time}, nil
		}
	}
	return terminal.OrderResult{}, terminal.Reject(terminal.RejectUnknown, "position %s not found", pos.Ticket)
}

// hold puts an open position on the fake's books.
func (f *fakeTerminal) hold(side risk.Direction, open float64) {
	f.seq++
	f.positions = append(f.positions, terminal.Position{
		Ticket:    fmt.Sprintf("T%d", f.seq),
		Symbol:    "EURUSD",
		Side:      side,
		Magic:     testMagic,
		Volume:    0.1,
		OpenPrice: open,
		OpenTime:  day(9, 30),
	})
}

// memJournal keeps records in memory.
type memJournal struct {
	mu      sync.Mutex
	records []journal.DealRecord
	err     error
}

func (j *memJournal) RecordDeal(r journal.DealRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, r)
	return nil
}

func (j *memJournal) Close() error { return nil }

const testMagic = 4242

func day(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func testConfig() Config {
	return Config{
		ExpertName: "test",
		Symbol:     "EURUSD",
		Magic:      testMagic,
		Lot:        0.1,
		Regular:    risk.Distances{StopLoss: 100, TakeProfit: 200},
		Emergency:  risk.Distances{StopLoss: 300, TakeProfit: 600},
		Window:     window.Default(),
		Fee:        0.5,
	}
}

// prepared returns a prepared session over f with its clock at 10:00.
func prepared(t *testing.T, f terminal.Terminal, opts ...Option) (*Session, *clock) {
	t.Helper()
	c := &clock{t: day(10, 0)}
	s, err := New(testConfig(), f, append([]Option{WithClock(c.now)}, opts...)...)
	require.NoError(t, err)
	_, err = s.PrepareSymbol(context.Background())
	require.NoError(t, err)
	return s, c
}
