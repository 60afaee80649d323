package session

// Stats are running totals for the session's closed deals.
type Stats struct {
	TotalDeals  int
	ProfitDeals int
	LossDeals   int
	Balance     float64
	Fees        float64
}

// Net is the balance after fees.
func (s Stats) Net() float64 { return s.Balance - s.Fees }

// Accuracy is the share of profitable deals in percent, zero before the
// first deal.
func (s Stats) Accuracy() float64 {
	if s.TotalDeals == 0 {
		return 0
	}
	return float64(s.ProfitDeals) / float64(s.TotalDeals) * 100
}

func (s *Stats) record(profit, fee float64) {
	s.TotalDeals++
	s.Fees += fee
	s.Balance += profit
	switch {
	case profit > 0:
		s.ProfitDeals++
	case profit < 0:
		s.LossDeals++
	}
}
