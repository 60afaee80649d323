// Package strategy turns market snapshots into session signals.
package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/session"
	"github.com/sirupsen/logrus"
)

// Strategy evaluates one snapshot at a time. Implementations are pure
// functions of the snapshot: all history comes from its bars.
type Strategy interface {
	Name() string
	Evaluate(snap market.Snapshot) Decision
}

// Decision is a signal and the values that produced it.
type Decision struct {
	Signal session.Signal
	Reason string

	Short float64
	Long  float64
	Close float64
}

// Params configures the built-in strategies.
type Params struct {
	Short int    `json:"short" yaml:"short"`
	Long  int    `json:"long" yaml:"long"`
	MA    string `json:"ma" yaml:"ma"`

	// MinADX gates signals on trend strength. Zero disables the gate.
	MinADX    float64 `json:"min_adx" yaml:"min_adx"`
	ADXPeriod int     `json:"adx_period" yaml:"adx_period"`
}

type Factory func(Params) (Strategy, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// New builds the strategy registered under name.
func New(name string, p Params) (Strategy, error) {
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", name, Names())
	}
	return f(p)
}

func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SignalFunc adapts s for session.Runner and logs every non-empty
// decision.
func SignalFunc(s Strategy, log logrus.FieldLogger) session.SignalFunc {
	return func(snap market.Snapshot) session.Signal {
		d := s.Evaluate(snap)
		if !d.Signal.None() {
			log.WithFields(logrus.Fields{
				"strategy": s.Name(),
				"buy":      d.Signal.Buy,
				"sell":     d.Signal.Sell,
				"short":    d.Short,
				"long":     d.Long,
				"close":    d.Close,
			}).Debug(d.Reason)
		}
		return d.Signal
	}
}

func init() {
	Register("macross", func(p Params) (Strategy, error) { return NewMACross(p) })
	Register("noop", func(Params) (Strategy, error) { return Noop{}, nil })
}
