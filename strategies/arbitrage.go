package strategies

import "github.com/rustyeddy/papertrader/market"

func init() {
	Register("arbitrage", func() Strategy { return &Arbitrage{} })
}

// Arbitrage looks at per-venue quotes for the same symbol and signals
// a buy ("capture the spread") when the spread between the cheapest
// and dearest venue clears the minimum profitable threshold.
type Arbitrage struct{}

func (Arbitrage) Name() string { return "arbitrage" }

func (s Arbitrage) Analyze(v market.View, p *Params) Signal {
	if len(v.Quotes) < 2 {
		return hold(v.Symbol, s.Name(), "insufficient venues", 0)
	}

	min, max := 0.0, 0.0
	for _, q := range v.Quotes {
		if min == 0 || q < min {
			min = q
		}
		if q > max {
			max = q
		}
	}
	if min <= 0 {
		return hold(v.Symbol, s.Name(), "bad venue quote", 0)
	}
	spreadPct := (max - min) / min * 100

	sig := Signal{
		Symbol:   v.Symbol,
		Action:   Hold,
		Strategy: s.Name(),
		Reason:   "spread below minimum",
		Meta:     map[string]float64{"min_price": min, "max_price": max, "spread_pct": spreadPct},
	}

	if spreadPct > p.MinSpreadPct {
		sig.Action = Buy
		sig.Reason = "profitable spread"
		switch {
		case spreadPct > 1.0:
			sig.Confidence = 0.9
		case spreadPct > 0.5:
			sig.Confidence = 0.7
		default:
			sig.Confidence = 0.5
		}
	}
	return sig
}
