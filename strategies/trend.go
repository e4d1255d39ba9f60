package strategies

import "github.com/rustyeddy/papertrader/market"

func init() {
	Register("trend_following", func() Strategy { return &TrendFollowing{} })
}

// TrendFollowing compares a fast moving average against a slow one and
// rides the prevailing direction: buy continuation above the fast MA
// in an uptrend, sell continuation below it in a downtrend.
type TrendFollowing struct{}

func (TrendFollowing) Name() string { return "trend_following" }

func (s TrendFollowing) Analyze(v market.View, p *Params) Signal {
	h := v.History
	if h == nil || h.Len() < p.SlowMA {
		return hold(v.Symbol, s.Name(), "insufficient history", 0)
	}

	fast := market.Mean(h.Tail(p.FastMA))
	slow := market.Mean(h.Tail(p.SlowMA))
	price, _ := h.PriceAgo(0)
	strength := (fast - slow) / slow

	sig := Signal{
		Symbol:   v.Symbol,
		Action:   Hold,
		Strategy: s.Name(),
		Meta:     map[string]float64{"fast_ma": fast, "slow_ma": slow, "trend_strength": strength},
	}

	switch {
	case fast > slow && price > fast:
		sig.Action = Buy
		sig.Confidence = clamp01(abs(strength) * 10)
		sig.Reason = "uptrend continuation"
	case fast < slow && price < fast:
		sig.Action = Sell
		sig.Confidence = clamp01(abs(strength) * 10)
		sig.Reason = "downtrend continuation"
	default:
		sig.Confidence = 0.3
		sig.Reason = "no continuation"
	}
	return sig
}
