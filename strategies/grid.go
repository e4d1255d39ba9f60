package strategies

import "github.com/rustyeddy/papertrader/market"

func init() {
	Register("grid_trading", func() Strategy { return NewGrid() })
}

// gridTolerance is how close (as a fraction of price) the price must
// sit to a ladder level before the level fires.
const gridTolerance = 0.02

// Grid lays a symmetric price ladder around the first price it sees
// for a symbol and trades the oscillation: buy just above a lower
// rung, sell just below an upper one. If both rungs are in range in
// the same tick the signals cancel to hold.
type Grid struct {
	ladders map[string][]float64
}

func NewGrid() *Grid {
	return &Grid{ladders: make(map[string][]float64)}
}

func (*Grid) Name() string { return "grid_trading" }

// Reset discards all ladders; they are rebuilt at the next analyze.
func (g *Grid) Reset() {
	g.ladders = make(map[string][]float64)
}

// Ladder returns the levels anchored for symbol, if any.
func (g *Grid) Ladder(symbol string) []float64 {
	return g.ladders[symbol]
}

func (g *Grid) setup(symbol string, price float64, p *Params) []float64 {
	n := p.GridLevels
	if n < 2 {
		n = 2
	}
	levels := make([]float64, 0, n+1)
	for i := -n / 2; i <= n/2; i++ {
		levels = append(levels, price*(1+float64(i)*p.GridSpacingPct/100))
	}
	g.ladders[symbol] = levels
	return levels
}

func (g *Grid) Analyze(v market.View, p *Params) Signal {
	h := v.History
	if h == nil {
		return hold(v.Symbol, g.Name(), "insufficient history", 0)
	}
	last, ok := h.Last()
	if !ok {
		return hold(v.Symbol, g.Name(), "insufficient history", 0)
	}
	price := last.Price

	ladder := g.ladders[v.Symbol]
	if ladder == nil {
		ladder = g.setup(v.Symbol, price, p)
	}

	// Nearest rung below and above the current price.
	var below, above float64
	for _, level := range ladder {
		if level < price && level > below {
			below = level
		}
		if level > price && (above == 0 || level < above) {
			above = level
		}
	}

	sig := Signal{
		Symbol:     v.Symbol,
		Action:     Hold,
		Confidence: 0.5,
		Strategy:   g.Name(),
		Reason:     "between levels",
		Meta:       map[string]float64{"nearest_below": below, "nearest_above": above},
	}

	buying := below > 0 && (price-below)/price < gridTolerance
	selling := above > 0 && (above-price)/price < gridTolerance

	switch {
	case buying && selling:
		sig.Reason = "conflicting levels"
	case buying:
		sig.Action = Buy
		sig.Confidence = 0.7
		sig.Reason = "near buy level"
	case selling:
		sig.Action = Sell
		sig.Confidence = 0.7
		sig.Reason = "near sell level"
	}
	return sig
}
