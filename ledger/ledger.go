// Package ledger reads the position a strategy holds on one symbol.
//
// The terminal owns positions. The ledger keeps no copy between calls; every
// Current call is a fresh round trip, and a failed round trip is reported
// rather than papered over with a stale view.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/terminal"
)

// ErrAmbiguousPosition means the terminal reports more than one position
// for the same symbol and magic number.
var ErrAmbiguousPosition = errors.New("more than one open position")

// Source is the part of the terminal the ledger reads from.
type Source interface {
	OpenPositions(ctx context.Context, symbol string, magic int64) ([]terminal.Position, error)
}

// Kind tags an Exposure.
type Kind int

const (
	Flat Kind = iota
	Long
	Short
)

func (k Kind) String() string {
	switch k {
	case Long:
		return "LongOpen"
	case Short:
		return "ShortOpen"
	}
	return "Flat"
}

// Exposure is what the strategy holds right now: nothing, or exactly one
// long or short position.
type Exposure struct {
	Kind     Kind
	Position terminal.Position
}

func (e Exposure) IsFlat() bool { return e.Kind == Flat }

// Direction returns the side held and false when flat.
func (e Exposure) Direction() (risk.Direction, bool) {
	switch e.Kind {
	case Long:
		return risk.Long, true
	case Short:
		return risk.Short, true
	}
	return 0, false
}

func (e Exposure) String() string {
	if e.IsFlat() {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s %s %.2f@%v", e.Kind, e.Position.Symbol, e.Position.Volume, e.Position.OpenPrice)
}

// Ledger is bound to one symbol and magic number.
type Ledger struct {
	src    Source
	symbol string
	magic  int64
}

func New(src Source, symbol string, magic int64) *Ledger {
	return &Ledger{src: src, symbol: symbol, magic: magic}
}

func (l *Ledger) Symbol() string { return l.symbol }
func (l *Ledger) Magic() int64   { return l.magic }

// Current queries the terminal and returns the single matching position.
// Connection failures come back wrapping terminal.ErrUnavailable.
func (l *Ledger) Current(ctx context.Context) (Exposure, error) {
	positions, err := l.src.OpenPositions(ctx, l.symbol, l.magic)
	if err != nil {
		if !errors.Is(err, terminal.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", terminal.ErrUnavailable, err)
		}
		return Exposure{}, fmt.Errorf("positions %s/%d: %w", l.symbol, l.magic, err)
	}

	// Terminals filter by symbol and magic already; check again so a
	// loose implementation cannot leak another strategy's position.
	var mine []terminal.Position
	for _, p := range positions {
		if p.Symbol == l.symbol && p.Magic == l.magic {
			mine = append(mine, p)
		}
	}

	switch len(mine) {
	case 0:
		return Exposure{Kind: Flat}, nil
	case 1:
		p := mine[0]
		switch p.Side {
		case risk.Long:
			return Exposure{Kind: Long, Position: p}, nil
		case risk.Short:
			return Exposure{Kind: Short, Position: p}, nil
		}
		return Exposure{}, fmt.Errorf("position %s: unknown side %v", p.Ticket, p.Side)
	default:
		return Exposure{}, fmt.Errorf("%s/%d: %w (%d)", l.symbol, l.magic, ErrAmbiguousPosition, len(mine))
	}
}
