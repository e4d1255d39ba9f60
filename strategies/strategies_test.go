package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/market"
)

func view(t *testing.T, symbol string, prices ...float64) market.View {
	t.Helper()
	h := market.NewHistory(market.DefaultCapacity)
	for _, p := range prices {
		require.NoError(t, h.Push(p))
	}
	return market.View{Symbol: symbol, History: h, Regime: market.RegimeUnknown}
}

func series(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"arbitrage", "grid_trading", "mean_reversion", "momentum", "trend_following"},
		Names())

	assert.NotNil(t, New("momentum"))
	assert.Nil(t, New("astrology"))
	assert.Len(t, NewAll(), 5)
}

func TestMomentum(t *testing.T) {
	t.Parallel()

	p := DefaultParams()

	t.Run("insufficient_history", func(t *testing.T) {
		t.Parallel()
		sig := Momentum{}.Analyze(view(t, "MATIC", 0.5, 0.51), &p)
		assert.Equal(t, Hold, sig.Action)
		assert.Zero(t, sig.Confidence)
		assert.Equal(t, "insufficient history", sig.Reason)
	})

	t.Run("oversold_buys", func(t *testing.T) {
		t.Parallel()
		// Strictly falling: no gains in the window, RSI bottoms at 0.
		sig := Momentum{}.Analyze(view(t, "MATIC", series(100, -1, 16)...), &p)
		assert.Equal(t, Buy, sig.Action)
		assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
		assert.Equal(t, "rsi oversold", sig.Reason)
		assert.InDelta(t, 0.0, sig.Meta["rsi"], 1e-9)
	})

	t.Run("overbought_sells", func(t *testing.T) {
		t.Parallel()
		sig := Momentum{}.Analyze(view(t, "MATIC", series(100, 1, 16)...), &p)
		assert.Equal(t, Sell, sig.Action)
		assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
		assert.InDelta(t, 100.0, sig.Meta["rsi"], 1e-9)
	})

	t.Run("momentum_buys_without_rsi_extreme", func(t *testing.T) {
		t.Parallel()
		// Two up, one down keeps RSI inside the bands while the price drifts up.
		prices := []float64{100}
		for len(prices) < 20 {
			last := prices[len(prices)-1]
			prices = append(prices, last+2, last+4, last+3)
		}
		sig := Momentum{}.Analyze(view(t, "MATIC", prices...), &p)
		assert.Equal(t, Buy, sig.Action)
		assert.Equal(t, "strong uptrend", sig.Reason)
		assert.Greater(t, sig.Confidence, 0.0)
	})
}

func TestRSI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"too_short", []float64{1, 2}, 14, 50.0},
		{"all_gains", series(10, 1, 15), 14, 100.0},
		{"all_losses", series(30, -1, 15), 14, 0.0},
		// Alternating +2/-1 over the window: avg gain twice avg loss.
		{"two_to_one", []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17, 16, 18, 17}, 14, 66.666666},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, RSI(tt.prices, tt.period), 1e-4)
		})
	}
}

func TestMeanReversion(t *testing.T) {
	t.Parallel()

	p := DefaultParams()

	t.Run("deep_dip_buys", func(t *testing.T) {
		t.Parallel()
		prices := series(1.00, 0, 23)
		prices = append(prices, 0.90)
		sig := MeanReversion{}.Analyze(view(t, "MATIC", prices...), &p)
		assert.Equal(t, Buy, sig.Action)
		assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
		assert.Less(t, sig.Meta["z_score"], -p.StdThreshold)
	})

	t.Run("soft_band_sells_low_confidence", func(t *testing.T) {
		t.Parallel()
		prices := make([]float64, 0, 24)
		for i := 0; i < 12; i++ {
			prices = append(prices, 1.00, 1.02)
		}
		sig := MeanReversion{}.Analyze(view(t, "MATIC", prices...), &p)
		assert.Equal(t, Sell, sig.Action)
		assert.Equal(t, 0.3, sig.Confidence)
		assert.Equal(t, "moderately above mean", sig.Reason)
	})

	t.Run("flat_window_holds", func(t *testing.T) {
		t.Parallel()
		sig := MeanReversion{}.Analyze(view(t, "MATIC", series(1.0, 0, 24)...), &p)
		assert.Equal(t, Hold, sig.Action)
		assert.Zero(t, sig.Confidence)
	})

	t.Run("insufficient_history", func(t *testing.T) {
		t.Parallel()
		sig := MeanReversion{}.Analyze(view(t, "MATIC", 1.0, 1.1), &p)
		assert.Equal(t, Hold, sig.Action)
	})
}

func TestGrid(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.GridSpacingPct = 5.0 // rungs at 90, 95, 100, 105, 110 around 100

	t.Run("anchor_then_buy_near_lower_rung", func(t *testing.T) {
		t.Parallel()
		g := NewGrid()

		// First sight anchors the ladder; price dead-center fires
		// neither side decisively.
		sig := g.Analyze(view(t, "MATIC", 100), &p)
		assert.Equal(t, Hold, sig.Action)
		assert.Len(t, g.Ladder("MATIC"), 6)

		sig = g.Analyze(view(t, "MATIC", 100, 100.95), &p)
		assert.Equal(t, Buy, sig.Action)
		assert.Equal(t, 0.7, sig.Confidence)
		assert.Equal(t, 100.0, sig.Meta["nearest_below"])
	})

	t.Run("sell_near_upper_rung", func(t *testing.T) {
		t.Parallel()
		g := NewGrid()
		g.Analyze(view(t, "MATIC", 100), &p)

		sig := g.Analyze(view(t, "MATIC", 100, 104.5), &p)
		assert.Equal(t, Sell, sig.Action)
		assert.Equal(t, 0.7, sig.Confidence)
	})

	t.Run("conflicting_rungs_cancel", func(t *testing.T) {
		t.Parallel()
		tight := DefaultParams() // 1% spacing, both rungs inside tolerance
		g := NewGrid()
		g.Analyze(view(t, "MATIC", 100), &tight)

		sig := g.Analyze(view(t, "MATIC", 100, 100.5), &tight)
		assert.Equal(t, Hold, sig.Action)
		assert.Equal(t, "conflicting levels", sig.Reason)
	})

	t.Run("reset_drops_ladders", func(t *testing.T) {
		t.Parallel()
		g := NewGrid()
		g.Analyze(view(t, "MATIC", 100), &p)
		require.NotNil(t, g.Ladder("MATIC"))

		g.Reset()
		assert.Nil(t, g.Ladder("MATIC"))
	})
}

func TestTrendFollowing(t *testing.T) {
	t.Parallel()

	p := DefaultParams()

	t.Run("uptrend_continuation", func(t *testing.T) {
		t.Parallel()
		sig := TrendFollowing{}.Analyze(view(t, "MATIC", series(1, 1, 30)...), &p)
		assert.Equal(t, Buy, sig.Action)
		assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
		assert.Greater(t, sig.Meta["fast_ma"], sig.Meta["slow_ma"])
	})

	t.Run("downtrend_continuation", func(t *testing.T) {
		t.Parallel()
		sig := TrendFollowing{}.Analyze(view(t, "MATIC", series(30, -1, 30)...), &p)
		assert.Equal(t, Sell, sig.Action)
	})

	t.Run("insufficient_history", func(t *testing.T) {
		t.Parallel()
		sig := TrendFollowing{}.Analyze(view(t, "MATIC", series(1, 1, 10)...), &p)
		assert.Equal(t, Hold, sig.Action)
		assert.Zero(t, sig.Confidence)
	})
}

func TestArbitrage(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	mk := func(quotes map[string]float64) market.View {
		v := view(t, "MATIC", 100)
		v.Quotes = quotes
		return v
	}

	tests := []struct {
		name   string
		quotes map[string]float64
		action Action
		conf   float64
	}{
		{"one_venue", map[string]float64{"uniswap": 100}, Hold, 0},
		{"thin_spread", map[string]float64{"uniswap": 100, "sushiswap": 100.3}, Hold, 0},
		{"medium_spread", map[string]float64{"uniswap": 100, "sushiswap": 100.7}, Buy, 0.7},
		{"wide_spread", map[string]float64{"uniswap": 100, "sushiswap": 101.2}, Buy, 0.9},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sig := Arbitrage{}.Analyze(mk(tt.quotes), &p)
			assert.Equal(t, tt.action, sig.Action)
			assert.InDelta(t, tt.conf, sig.Confidence, 1e-9)
		})
	}
}

// fixedStrategy always answers with the same signal.
type fixedStrategy struct {
	action Action
	conf   float64
}

func (fixedStrategy) Name() string { return "fixed" }

func (f fixedStrategy) Analyze(v market.View, p *Params) Signal {
	return Signal{Symbol: v.Symbol, Action: f.action, Confidence: f.conf, Strategy: "fixed"}
}

func TestConsensus(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	v := market.View{Symbol: "MATIC"}

	t.Run("majority_buy", func(t *testing.T) {
		t.Parallel()
		c := NewConsensus(
			fixedStrategy{Buy, 0.8},
			fixedStrategy{Buy, 0.6},
			fixedStrategy{Sell, 1.0},
		)
		sig := c.Analyze(v, &p)
		assert.Equal(t, Buy, sig.Action)
		assert.InDelta(t, 0.8, sig.Confidence, 1e-9, "mean of all confidences, losers included")
		assert.Equal(t, 2.0, sig.Meta["buy_votes"])
	})

	t.Run("tie_holds", func(t *testing.T) {
		t.Parallel()
		c := NewConsensus(fixedStrategy{Buy, 1.0}, fixedStrategy{Sell, 1.0})
		sig := c.Analyze(v, &p)
		assert.Equal(t, Hold, sig.Action)
	})

	t.Run("buy_beats_sell_despite_holds", func(t *testing.T) {
		t.Parallel()
		c := NewConsensus(
			fixedStrategy{Hold, 0.0},
			fixedStrategy{Hold, 0.0},
			fixedStrategy{Buy, 0.9},
		)
		sig := c.Analyze(v, &p)
		assert.Equal(t, Buy, sig.Action, "buy outnumbers sell even when holds dominate")
		assert.InDelta(t, 0.3, sig.Confidence, 1e-9)
	})
}
