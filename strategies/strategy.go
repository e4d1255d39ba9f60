// Package strategies holds the decision strategies of the trading core.
// Every strategy consumes a market view and the current parameter set
// and emits a Signal; the consensus aggregator blends all of them.
package strategies

import (
	"sort"

	"github.com/rustyeddy/papertrader/market"
)

// Action is a strategy's recommended move.
type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Signal is the output of one strategy for one symbol in one tick.
// It lives for the tick and is optionally journaled, never persisted.
type Signal struct {
	Symbol     string
	Action     Action
	Confidence float64 // 0..1
	Strategy   string
	Reason     string
	Meta       map[string]float64 // diagnostic values: rsi, z_score, ...
}

// Strategy is the uniform contract across all variants. Analyze must
// not mutate the view; stateful variants (grid) own their own state.
type Strategy interface {
	Name() string
	Analyze(v market.View, p *Params) Signal
}

// Resettable is implemented by strategies that carry per-symbol state
// which must be discarded on a portfolio reset.
type Resettable interface {
	Reset()
}

// Factory builds a fresh strategy instance.
type Factory func() Strategy

var registry = make(map[string]Factory)

// Register adds a strategy factory under name. Called from init funcs.
func Register(name string, f Factory) {
	registry[name] = f
}

// New returns a fresh instance of the named strategy, or nil if the
// name is unknown.
func New(name string) Strategy {
	f, ok := registry[name]
	if !ok {
		return nil
	}
	return f()
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewAll instantiates every registered strategy, ordered by name.
func NewAll() []Strategy {
	names := Names()
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		out = append(out, New(name))
	}
	return out
}

// hold is the shared "nothing to do" signal constructor.
func hold(symbol, strategy, reason string, confidence float64) Signal {
	return Signal{
		Symbol:     symbol,
		Action:     Hold,
		Confidence: confidence,
		Strategy:   strategy,
		Reason:     reason,
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
