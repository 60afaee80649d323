// Package journal keeps a write-only audit trail of closed deals. The
// session never reads it back; position state always comes from the
// terminal.
package journal

import "time"

// DealRecord is one closed position.
type DealRecord struct {
	DealID     string
	RunID      string
	Ticket     string
	Symbol     string
	Magic      int64
	Side       string
	Volume     float64
	OpenPrice  float64
	ClosePrice float64
	OpenTime   time.Time
	CloseTime  time.Time
	Profit     float64
	Fee        float64
	Reason     string
}

// Net is the profit after the per-deal fee.
func (d DealRecord) Net() float64 { return d.Profit - d.Fee }

type Journal interface {
	RecordDeal(DealRecord) error
	Close() error
}

// Discard is a Journal that drops every record.
type Discard struct{}

func (Discard) RecordDeal(DealRecord) error { return nil }
func (Discard) Close() error                { return nil }

// Summary aggregates a set of deals.
type Summary struct {
	Deals       int
	Wins        int
	Losses      int
	GrossProfit float64
	GrossLoss   float64
	Fees        float64
}

func (s Summary) Net() float64 { return s.GrossProfit - s.GrossLoss - s.Fees }

// Accuracy is the share of winning deals in percent; zero without deals.
func (s Summary) Accuracy() float64 {
	if s.Deals == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Deals) * 100
}

// ProfitFactor is gross profit over gross loss; zero without losses.
func (s Summary) ProfitFactor() float64 {
	if s.GrossLoss == 0 {
		return 0
	}
	return s.GrossProfit / s.GrossLoss
}

// Summarize folds deals into a Summary.
func Summarize(deals []DealRecord) Summary {
	var s Summary
	for _, d := range deals {
		s.Deals++
		s.Fees += d.Fee
		switch {
		case d.Profit > 0:
			s.Wins++
			s.GrossProfit += d.Profit
		case d.Profit < 0:
			s.Losses++
			s.GrossLoss += -d.Profit
		}
	}
	return s
}
