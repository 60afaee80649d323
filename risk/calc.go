package risk

import "math"

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// PlannedRisk computes the absolute loss in account currency if the stop is
// hit: volume lots of contractSize units moving from entry to stop.
func PlannedRisk(volume, entry, stop, contractSize float64) float64 {
	if stop == 0 {
		return 0
	}
	return volume * contractSize * abs(entry-stop)
}

// RR is the reward-to-risk ratio of a trade.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RiskPct expresses a planned risk as a fraction of equity.
func RiskPct(plannedRisk, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / equity
}
