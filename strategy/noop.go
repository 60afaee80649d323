package strategy

import "github.com/rustyeddy/advisor/market"

// Noop never signals. Useful to replay a feed and watch the window.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Evaluate(market.Snapshot) Decision {
	return Decision{Reason: "noop"}
}
