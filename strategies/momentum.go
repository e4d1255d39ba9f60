package strategies

import "github.com/rustyeddy/papertrader/market"

func init() {
	Register("momentum", func() Strategy { return &Momentum{} })
}

// Momentum trades RSI extremes and short-window price momentum. Buys
// oversold dips and strong upward moves, sells the mirror conditions.
type Momentum struct{}

func (Momentum) Name() string { return "momentum" }

func (m Momentum) Analyze(v market.View, p *Params) Signal {
	h := v.History
	if h == nil || h.Len() < p.RSIPeriod+1 {
		return hold(v.Symbol, m.Name(), "insufficient history", 0)
	}

	rsi := RSI(h.Prices(), p.RSIPeriod)
	momentum := 0.0
	if first, ok := h.PriceAgo(p.MomentumLookback - 1); ok {
		last, _ := h.PriceAgo(0)
		momentum = last/first - 1
	}

	sig := Signal{
		Symbol:   v.Symbol,
		Action:   Hold,
		Strategy: m.Name(),
		Meta:     map[string]float64{"rsi": rsi, "momentum": momentum},
	}

	switch {
	case rsi < p.Oversold:
		sig.Action = Buy
		sig.Confidence = clamp01((p.Oversold - rsi) / p.Oversold)
		sig.Reason = "rsi oversold"
	case rsi > p.Overbought:
		sig.Action = Sell
		sig.Confidence = clamp01((rsi - p.Overbought) / (100 - p.Overbought))
		sig.Reason = "rsi overbought"
	case momentum > p.MinTrendStrength:
		sig.Action = Buy
		sig.Confidence = clamp01(momentum * 5)
		sig.Reason = "strong uptrend"
	case momentum < -p.MinTrendStrength:
		sig.Action = Sell
		sig.Confidence = clamp01(abs(momentum) * 5)
		sig.Reason = "strong downtrend"
	default:
		sig.Reason = "no edge"
	}
	return sig
}

// RSI computes the relative strength index over the trailing period:
// the ratio of average gain to average loss across the last period
// steps, mapped onto 0..100. Returns the neutral 50 when the series is
// too short, and 100 when there are no losses in the window.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50.0
	}

	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
