package strategies

import "github.com/rustyeddy/papertrader/market"

func init() {
	Register("mean_reversion", func() Strategy { return &MeanReversion{} })
}

// MeanReversion buys when price sits far below its rolling mean and
// sells far above it, on the assumption that extremes revert. A softer
// half-sigma band yields a fixed low-confidence lean.
type MeanReversion struct{}

func (MeanReversion) Name() string { return "mean_reversion" }

func (s MeanReversion) Analyze(v market.View, p *Params) Signal {
	h := v.History
	if h == nil || h.Len() < p.MeanRevWindow {
		return hold(v.Symbol, s.Name(), "insufficient history", 0)
	}

	window := h.Tail(p.MeanRevWindow)
	mean := market.Mean(window)
	std := market.Std(window)
	if std == 0 {
		return hold(v.Symbol, s.Name(), "flat window", 0)
	}

	current := window[len(window)-1]
	z := (current - mean) / std

	sig := Signal{
		Symbol:   v.Symbol,
		Action:   Hold,
		Strategy: s.Name(),
		Meta:     map[string]float64{"mean": mean, "std": std, "z_score": z},
	}

	switch {
	case z <= -p.StdThreshold:
		sig.Action = Buy
		sig.Confidence = clamp01(abs(z) / 3)
		sig.Reason = "far below mean"
	case z >= p.StdThreshold:
		sig.Action = Sell
		sig.Confidence = clamp01(z / 3)
		sig.Reason = "far above mean"
	case z < -0.5:
		sig.Action = Buy
		sig.Confidence = 0.3
		sig.Reason = "moderately below mean"
	case z > 0.5:
		sig.Action = Sell
		sig.Confidence = 0.3
		sig.Reason = "moderately above mean"
	default:
		sig.Reason = "near mean"
	}
	return sig
}
