// market/instruments.go
package market

import "fmt"

// TradeMode is the broker-side restriction on what may be traded for a symbol.
type TradeMode int

const (
	TradeDisabled TradeMode = iota
	TradeLongOnly
	TradeShortOnly
	TradeFull
	TradeCloseOnly
)

func (m TradeMode) String() string {
	switch m {
	case TradeDisabled:
		return "Disabled (trading disabled for the symbol)"
	case TradeLongOnly:
		return "Long only (only buy positions allowed)"
	case TradeShortOnly:
		return "Short only (only sell positions allowed)"
	case TradeFull:
		return "Long and Short (both buy and sell positions allowed)"
	case TradeCloseOnly:
		return "Close only (only position closing is allowed)"
	}
	return fmt.Sprintf("Unknown trade mode: %d", int(m))
}

// SymbolInfo is the broker-reported metadata for an instrument.
//
// Point is the unit for stop-loss/take-profit distances. TickSize is the
// smallest price change the broker accepts; it is often equal to Point but
// not always (index futures trade in multiples of 5 points, for example).
type SymbolInfo struct {
	Name         string    `json:"name" yaml:"name"`
	Point        float64   `json:"point" yaml:"point"`
	TickSize     float64   `json:"tick_size" yaml:"tick_size"`
	TickValue    float64   `json:"tick_value" yaml:"tick_value"`
	Digits       int       `json:"digits" yaml:"digits"`
	MinLot       float64   `json:"min_lot" yaml:"min_lot"`
	MaxLot       float64   `json:"max_lot" yaml:"max_lot"`
	LotStep      float64   `json:"lot_step" yaml:"lot_step"`
	ContractSize float64   `json:"contract_size" yaml:"contract_size"`
	StopsLevel   int       `json:"stops_level" yaml:"stops_level"`
	Visible      bool      `json:"visible" yaml:"visible"`
	TradeMode    TradeMode `json:"trade_mode" yaml:"trade_mode"`
}

// Steps is the number of points per tick, i.e. the granularity of valid
// stop-loss and take-profit distances.
func (s SymbolInfo) Steps() float64 {
	if s.Point == 0 {
		return 0
	}
	return s.TickSize / s.Point
}

// Symbols is a small catalog of common instruments used by the paper terminal
// and the default configuration.
var Symbols = map[string]SymbolInfo{
	"EURUSD": {
		Name:         "EURUSD",
		Point:        0.00001,
		TickSize:     0.00001,
		TickValue:    1,
		Digits:       5,
		MinLot:       0.01,
		MaxLot:       100,
		LotStep:      0.01,
		ContractSize: 100_000,
		StopsLevel:   10,
		TradeMode:    TradeFull,
	},
	"USDJPY": {
		Name:         "USDJPY",
		Point:        0.001,
		TickSize:     0.001,
		TickValue:    0.67,
		Digits:       3,
		MinLot:       0.01,
		MaxLot:       100,
		LotStep:      0.01,
		ContractSize: 100_000,
		StopsLevel:   10,
		TradeMode:    TradeFull,
	},
	"WIN": {
		Name:         "WIN",
		Point:        1,
		TickSize:     5,
		TickValue:    1,
		Digits:       0,
		MinLot:       1,
		MaxLot:       1000,
		LotStep:      1,
		ContractSize: 0.2,
		StopsLevel:   0,
		TradeMode:    TradeFull,
	},
}
