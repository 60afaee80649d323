// Package paper is an in-memory terminal. It fills market orders at the
// current quote, enforces the symbol's trade mode, volume limits and stops
// level, and closes positions whose stop-loss or take-profit is touched by
// a later tick. It backs dry runs and the test suites.
package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/pkg/id"
	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/terminal"
)

const defaultHistory = 100_000

// Deal is a closed position.
type Deal struct {
	terminal.Position
	ClosePrice float64
	CloseTime  time.Time
	Profit     float64
	Reason     string
}

// CloseListener is notified after the terminal closes a position on its
// own (stop-loss or take-profit).
type CloseListener func(d Deal)

type Terminal struct {
	mu       sync.Mutex
	symbols  map[string]market.SymbolInfo
	selected map[string]bool
	ticks    *market.TickStore
	history  map[string][]market.Tick
	maxHist  int

	positions []*terminal.Position
	deals     []Deal
	balance   float64
	offline   bool
	listener  CloseListener
}

var _ terminal.Terminal = (*Terminal)(nil)

// New returns a terminal offering symbols with the given starting balance.
func New(balance float64, symbols ...market.SymbolInfo) *Terminal {
	t := &Terminal{
		symbols:  make(map[string]market.SymbolInfo),
		selected: make(map[string]bool),
		ticks:    market.NewTickStore(),
		history:  make(map[string][]market.Tick),
		maxHist:  defaultHistory,
		balance:  balance,
	}
	for _, s := range symbols {
		t.symbols[s.Name] = s
	}
	return t
}

// AddSymbol offers another instrument.
func (t *Terminal) AddSymbol(s market.SymbolInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols[s.Name] = s
}

// SetOffline simulates a dropped connection: every call fails with
// terminal.ErrUnavailable until it is switched back.
func (t *Terminal) SetOffline(off bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.offline = off
}

func (t *Terminal) SetCloseListener(l CloseListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = l
}

func (t *Terminal) Balance() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// Deals returns closed positions, oldest first.
func (t *Terminal) Deals() []Deal {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Deal, len(t.deals))
	copy(out, t.deals)
	return out
}

// Now returns the time of the most recent tick on any symbol, or the zero
// time before the first tick. Replays use it as the session clock.
func (t *Terminal) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	var latest time.Time
	for _, h := range t.history {
		if n := len(h); n > 0 && h[n-1].Time.After(latest) {
			latest = h[n-1].Time
		}
	}
	return latest
}

func (t *Terminal) SelectSymbol(ctx context.Context, name string) (market.SymbolInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.offline {
		return market.SymbolInfo{}, terminal.ErrUnavailable
	}
	s, ok := t.symbols[name]
	if !ok {
		return market.SymbolInfo{}, fmt.Errorf("select %q: %w", name, terminal.ErrSymbolUnavailable)
	}
	t.selected[name] = true
	s.Visible = true
	return s, nil
}

func (t *Terminal) CurrentTick(ctx context.Context, symbol string) (market.Tick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.offline {
		return market.Tick{}, terminal.ErrUnavailable
	}
	if _, ok := t.symbols[symbol]; !ok {
		return market.Tick{}, fmt.Errorf("tick %q: %w", symbol, terminal.ErrSymbolUnavailable)
	}
	return t.ticks.Get(symbol)
}

func (t *Terminal) HistoricalBars(ctx context.Context, symbol string, count int, tf market.Timeframe) ([]market.Bar, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.offline {
		return nil, terminal.ErrUnavailable
	}
	if _, ok := t.symbols[symbol]; !ok {
		return nil, fmt.Errorf("bars %q: %w", symbol, terminal.ErrSymbolUnavailable)
	}
	return aggregate(t.history[symbol], tf, count), nil
}

func (t *Terminal) OpenPositions(ctx context.Context, symbol string, magic int64) ([]terminal.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.offline {
		return nil, terminal.ErrUnavailable
	}
	var out []terminal.Position
	for _, p := range t.positions {
		if p.Symbol == symbol && p.Magic == magic {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (t *Terminal) PlaceOrder(ctx context.Context, req terminal.OrderRequest) (terminal.OrderResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.offline {
		return terminal.OrderResult{}, terminal.ErrUnavailable
	}
	s, ok := t.symbols[req.Symbol]
	if !ok || !t.selected[req.Symbol] {
		return terminal.OrderResult{}, fmt.Errorf("order %q: %w", req.Symbol, terminal.ErrSymbolUnavailable)
	}
	if err := checkMode(s.TradeMode, req.Side); err != nil {
		return terminal.OrderResult{}, err
	}
	if err := risk.CheckVolume(req.Volume, s.MinLot, s.MaxLot, s.LotStep); err != nil {
		return terminal.OrderResult{}, terminal.Reject(terminal.RejectInvalidVolume, "%v", err)
	}

	tick, err := t.ticks.Get(req.Symbol)
	if err != nil {
		return terminal.OrderResult{}, terminal.Reject(terminal.RejectMarketClosed, "no quote for %s", req.Symbol)
	}

	fill := tick.Ask
	mark := tick.Bid
	if req.Side == risk.Short {
		fill, mark = tick.Bid, tick.Ask
	}

	if req.Price != 0 && req.Deviation > 0 {
		if moved := risk.Points(fill-req.Price, s.Point); moved > float64(req.Deviation) || -moved > float64(req.Deviation) {
			return terminal.OrderResult{}, terminal.Reject(terminal.RejectRequote, "price moved %.0f points", moved)
		}
	}
	if err := checkStops(s, req.Side, mark, req.StopLoss, req.TakeProfit); err != nil {
		return terminal.OrderResult{}, err
	}

	opened := tick.Time
	if opened.IsZero() {
		opened = time.Now()
	}
	pos := &terminal.Position{
		Ticket:     id.At(opened),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Magic:      req.Magic,
		Volume:     req.Volume,
		OpenPrice:  fill,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		OpenTime:   opened,
		Comment:    req.Comment,
	}
	t.positions = append(t.positions, pos)

	return terminal.OrderResult{
		Ticket: pos.Ticket,
		Symbol: pos.Symbol,
		Side:   pos.Side,
		Volume: pos.Volume,
		Price:  fill,
		Time:   opened,
	}, nil
}

func (t *Terminal) ClosePosition(ctx context.Context, pos terminal.Position, comment string) (terminal.OrderResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.offline {
		return terminal.OrderResult{}, terminal.ErrUnavailable
	}
	idx := t.indexLocked(pos.Ticket)
	if idx < 0 {
		return terminal.OrderResult{}, terminal.Reject(terminal.RejectUnknown, "position %s not found", pos.Ticket)
	}
	open := t.positions[idx]
	if t.symbols[open.Symbol].TradeMode == market.TradeDisabled {
		return terminal.OrderResult{}, terminal.Reject(terminal.RejectTradeDisabled, "%s", open.Symbol)
	}

	tick, err := t.ticks.Get(open.Symbol)
	if err != nil {
		return terminal.OrderResult{}, terminal.Reject(terminal.RejectMarketClosed, "no quote for %s", open.Symbol)
	}

	if comment == "" {
		comment = "ManualClose"
	}
	d := t.closeLocked(idx, closePrice(open.Side, tick), tick.Time, comment)

	return terminal.OrderResult{
		Ticket: d.Ticket,
		Symbol: d.Symbol,
		Side:   d.Side.Opposite(),
		Volume: d.Volume,
		Price:  d.ClosePrice,
		Profit: d.Profit,
		Time:   d.CloseTime,
	}, nil
}

// UpdateTick publishes a new quote and closes positions whose stop-loss or
// take-profit it touches.
func (t *Terminal) UpdateTick(tick market.Tick) error {
	t.mu.Lock()

	if _, ok := t.symbols[tick.Symbol]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("update tick %q: %w", tick.Symbol, terminal.ErrSymbolUnavailable)
	}
	t.ticks.Set(tick)
	h := append(t.history[tick.Symbol], tick)
	if len(h) > t.maxHist {
		h = h[len(h)-t.maxHist:]
	}
	t.history[tick.Symbol] = h

	var closed []Deal
	for i := 0; i < len(t.positions); {
		p := t.positions[i]
		if p.Symbol != tick.Symbol {
			i++
			continue
		}
		mark := closePrice(p.Side, tick)
		reason := ""
		switch {
		case hitStopLoss(p, mark):
			reason = "StopLoss"
		case hitTakeProfit(p, mark):
			reason = "TakeProfit"
		}
		if reason == "" {
			i++
			continue
		}
		closed = append(closed, t.closeLocked(i, mark, tick.Time, reason))
	}

	listener := t.listener
	t.mu.Unlock()

	if listener != nil {
		for _, d := range closed {
			listener(d)
		}
	}
	return nil
}

func (t *Terminal) indexLocked(ticket string) int {
	for i, p := range t.positions {
		if p.Ticket == ticket {
			return i
		}
	}
	return -1
}

func (t *Terminal) closeLocked(idx int, price float64, at time.Time, reason string) Deal {
	p := t.positions[idx]
	d := Deal{
		Position:   *p,
		ClosePrice: price,
		CloseTime:  at,
		Profit:     profit(t.symbols[p.Symbol], p, price),
		Reason:     reason,
	}
	t.balance += d.Profit
	t.deals = append(t.deals, d)
	t.positions = append(t.positions[:idx], t.positions[idx+1:]...)
	return d
}

// closePrice is the side of the book a position closes against: longs
// sell at the bid, shorts buy at the ask.
func closePrice(side risk.Direction, tick market.Tick) float64 {
	if side == risk.Short {
		return tick.Ask
	}
	return tick.Bid
}

// profit follows the terminal convention: price change in ticks times tick
// value times lots. Symbols without a tick value fall back to contract size.
func profit(s market.SymbolInfo, p *terminal.Position, closeAt float64) float64 {
	diff := closeAt - p.OpenPrice
	if p.Side == risk.Short {
		diff = -diff
	}
	if s.TickSize > 0 && s.TickValue > 0 {
		return diff / s.TickSize * s.TickValue * p.Volume
	}
	cs := s.ContractSize
	if cs == 0 {
		cs = 1
	}
	return diff * cs * p.Volume
}

func checkMode(mode market.TradeMode, side risk.Direction) error {
	switch mode {
	case market.TradeDisabled:
		return terminal.Reject(terminal.RejectTradeDisabled, "trading disabled")
	case market.TradeCloseOnly:
		return terminal.Reject(terminal.RejectTradeDisabled, "close only")
	case market.TradeLongOnly:
		if side == risk.Short {
			return terminal.Reject(terminal.RejectTradeDisabled, "long only")
		}
	case market.TradeShortOnly:
		if side == risk.Long {
			return terminal.Reject(terminal.RejectTradeDisabled, "short only")
		}
	}
	return nil
}

func checkStops(s market.SymbolInfo, side risk.Direction, mark, sl, tp float64) error {
	wrongSide := false
	if side == risk.Long {
		wrongSide = (sl != 0 && sl >= mark) || (tp != 0 && tp <= mark)
	} else {
		wrongSide = (sl != 0 && sl <= mark) || (tp != 0 && tp >= mark)
	}
	if wrongSide {
		return terminal.Reject(terminal.RejectInvalidStops, "sl %v tp %v on wrong side of %v", sl, tp, mark)
	}
	if !risk.StopDistanceOK(mark, sl, s.Point, s.StopsLevel) || !risk.StopDistanceOK(mark, tp, s.Point, s.StopsLevel) {
		return terminal.Reject(terminal.RejectInvalidStops, "sl %v tp %v closer than %d points", sl, tp, s.StopsLevel)
	}
	return nil
}

// Positions returns every open position, ordered by ticket.
func (t *Terminal) Positions() []terminal.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]terminal.Position, 0, len(t.positions))
	for _, p := range t.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticket < out[j].Ticket })
	return out
}
