package strategies

import "github.com/rustyeddy/papertrader/market"

// Consensus runs a set of strategies and majority-votes their actions.
// Ties resolve to hold. Confidence is the mean of every member's
// confidence, not just the winning side's, so a divided panel reads as
// a weak signal.
type Consensus struct {
	members []Strategy
}

// NewConsensus aggregates the given strategies; with none given it
// aggregates one instance of every registered strategy.
func NewConsensus(members ...Strategy) *Consensus {
	if len(members) == 0 {
		members = NewAll()
	}
	return &Consensus{members: members}
}

func (*Consensus) Name() string { return "consensus" }

// Members exposes the aggregated set, mostly for wiring and tests.
func (c *Consensus) Members() []Strategy { return c.members }

// Reset forwards to every member that carries per-symbol state.
func (c *Consensus) Reset() {
	for _, m := range c.members {
		if r, ok := m.(Resettable); ok {
			r.Reset()
		}
	}
}

func (c *Consensus) Analyze(v market.View, p *Params) Signal {
	if len(c.members) == 0 {
		return hold(v.Symbol, c.Name(), "no strategies", 0)
	}

	var buys, sells, holds int
	var total float64
	for _, m := range c.members {
		s := m.Analyze(v, p)
		total += s.Confidence
		switch s.Action {
		case Buy:
			buys++
		case Sell:
			sells++
		default:
			holds++
		}
	}

	action := Hold
	if buys > sells {
		action = Buy
	} else if sells > buys {
		action = Sell
	}

	return Signal{
		Symbol:     v.Symbol,
		Action:     action,
		Confidence: total / float64(len(c.members)),
		Strategy:   c.Name(),
		Reason:     "majority vote",
		Meta: map[string]float64{
			"buy_votes":  float64(buys),
			"sell_votes": float64(sells),
			"hold_votes": float64(holds),
		},
	}
}
