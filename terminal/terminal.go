// Package terminal describes the capabilities the advisor needs from a
// trading terminal. Implementations wrap a real broker connection or, for
// tests and dry runs, the paper terminal in terminal/paper.
package terminal

import (
	"context"
	"time"

	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/risk"
)

// Terminal is the narrow interface the session consumes. Every call is a
// potentially blocking round trip that may fail; implementations never
// retry on their own.
type Terminal interface {
	market.Feed

	// SelectSymbol makes name visible in the market watch and returns its
	// metadata. It fails with ErrSymbolUnavailable if the broker does not
	// offer the instrument.
	SelectSymbol(ctx context.Context, name string) (market.SymbolInfo, error)

	// OpenPositions lists open positions for symbol tagged with magic.
	OpenPositions(ctx context.Context, symbol string, magic int64) ([]Position, error)

	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	ClosePosition(ctx context.Context, pos Position, comment string) (OrderResult, error)
}

// Position is an open position as reported by the terminal.
type Position struct {
	Ticket     string
	Symbol     string
	Side       risk.Direction
	Magic      int64
	Volume     float64
	OpenPrice  float64
	StopLoss   float64
	TakeProfit float64
	OpenTime   time.Time
	Comment    string
}

// OrderRequest is a market order. Price is informational; the terminal
// fills at the current quote within Deviation points.
type OrderRequest struct {
	Symbol     string
	Side       risk.Direction
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Deviation  int
	Magic      int64
	Comment    string
}

// OrderResult is a completed deal. Profit is set on closing deals, in
// account currency.
type OrderResult struct {
	Ticket string
	Symbol string
	Side   risk.Direction
	Volume float64
	Price  float64
	Profit float64
	Time   time.Time
}
