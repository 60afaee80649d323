package paper

import (
	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/terminal"
)

func hitStopLoss(p *terminal.Position, price float64) bool {
	if p.StopLoss == 0 {
		return false
	}
	if p.Side == risk.Long {
		return price <= p.StopLoss
	}
	return price >= p.StopLoss
}

func hitTakeProfit(p *terminal.Position, price float64) bool {
	if p.TakeProfit == 0 {
		return false
	}
	if p.Side == risk.Long {
		return price >= p.TakeProfit
	}
	return price <= p.TakeProfit
}
