package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/strategies"
)

// stubData serves fixed risk inputs for one symbol.
type stubData struct {
	vol    float64
	volume float64
	mcap   float64
}

func (s stubData) Volatility(string) float64 { return s.vol }
func (s stubData) Volume(string) float64     { return s.volume }
func (s stubData) MarketCap(string) float64  { return s.mcap }

func newManager(t *testing.T, data market.Provider) (*Manager, *strategies.Params) {
	t.Helper()
	params := strategies.DefaultParams()
	return NewManager(DefaultLimits(), &params, data, nil), &params
}

func TestAssess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      stubData
		score     float64
		level     Level
		liquidity bool
	}{
		{"blue_chip", stubData{vol: 0.3, volume: 5_000_000, mcap: 500_000_000}, 10, LevelLow, false},
		{"volatile_midcap", stubData{vol: 1.2, volume: 500_000, mcap: 5_000_000}, 50, LevelMedium, true},
		{"illiquid_microcap", stubData{vol: 2.5, volume: 5_000, mcap: 500_000}, 90, LevelHigh, true},
		{"no_data", stubData{vol: 0, volume: 5_000, mcap: 500_000}, 50, LevelMedium, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, _ := newManager(t, tt.data)
			a := m.Assess("MATIC")
			assert.Equal(t, tt.score, a.Score)
			assert.Equal(t, tt.level, a.Level)
			assert.Equal(t, tt.liquidity, a.LiquidityRisk)
		})
	}
}

func TestAssessMonotonic(t *testing.T) {
	t.Parallel()

	// Raising volatility alone must never lower the score.
	prev := -1.0
	for _, vol := range []float64{0.1, 0.6, 1.1, 2.1} {
		m, _ := newManager(t, stubData{vol: vol, volume: 1_000_000, mcap: 100_000_000})
		score := m.Assess("MATIC").Score
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestCanOpenCheckOrder(t *testing.T) {
	t.Parallel()

	healthy := PortfolioSnapshot{Value: 10_000, DailyStart: 10_000, DailyPnL: 0, OpenPositions: 0}

	t.Run("allows_clean_request", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		d := m.CanOpen("MATIC", 500, 0.9, healthy)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Violations)
		assert.Empty(t, d.Reason())
	})

	t.Run("emergency_stop_wins_over_everything", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 2.5, volume: 5_000, mcap: 500_000})
		m.ActivateEmergencyStop("manual halt")

		// The request also violates size and risk rules, but the latch
		// is checked first.
		d := m.CanOpen("MATIC", 50_000, 0.1, PortfolioSnapshot{Value: 10_000, DailyStart: 10_000, DailyPnL: -5_000, OpenPositions: 9})
		require.False(t, d.Allowed)
		require.Len(t, d.Violations, 1)
		assert.Equal(t, CodeEmergencyStop, d.Violations[0].Code)

		m.DeactivateEmergencyStop()
		d = m.CanOpen("MATIC", 500, 0.5, healthy)
		require.False(t, d.Allowed, "still refused on risk grounds after clearing the latch")
		assert.NotEqual(t, CodeEmergencyStop, d.Violations[0].Code)
	})

	t.Run("max_positions", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		snap := healthy
		snap.OpenPositions = 5
		d := m.CanOpen("MATIC", 500, 0.9, snap)
		require.False(t, d.Allowed)
		assert.Equal(t, CodeMaxPositions, d.Violations[0].Code)
	})

	t.Run("daily_loss_breaker", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		snap := PortfolioSnapshot{Value: 8_900, DailyStart: 10_000, DailyPnL: -1_100, OpenPositions: 0}
		d := m.CanOpen("MATIC", 500, 0.9, snap)
		require.False(t, d.Allowed)
		assert.Equal(t, CodeDailyLossLimit, d.Violations[0].Code)
	})

	t.Run("size_limit", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		// 20% of the portfolio against a 10% cap.
		d := m.CanOpen("MATIC", 2_000, 0.9, healthy)
		require.False(t, d.Allowed)
		assert.Equal(t, CodeSizeLimit, d.Violations[0].Code)
		assert.Contains(t, d.Reason(), "SIZE_LIMIT")
	})

	t.Run("high_risk_needs_conviction", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 2.5, volume: 5_000, mcap: 500_000})
		d := m.CanOpen("SHIB", 500, 0.5, healthy)
		require.False(t, d.Allowed)
		assert.Equal(t, CodeHighRiskLowConfidence, d.Violations[0].Code)

		d = m.CanOpen("SHIB", 500, 0.85, healthy)
		assert.True(t, d.Allowed, "high conviction clears a high-risk symbol")
	})
}

func TestSize(t *testing.T) {
	t.Parallel()

	t.Run("full_conviction_low_risk", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		assert.InDelta(t, 1_000, m.Size("MATIC", 1.0, 10_000), 1e-9)
	})

	t.Run("confidence_scales_linearly", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		assert.InDelta(t, 500, m.Size("MATIC", 0.5, 10_000), 1e-9)
	})

	t.Run("risk_and_volatility_dampen", func(t *testing.T) {
		t.Parallel()
		// Score 50 -> medium (x0.75); vol 1.2 -> dampener x0.5.
		m, _ := newManager(t, stubData{vol: 1.2, volume: 500_000, mcap: 5_000_000})
		assert.InDelta(t, 375, m.Size("MATIC", 1.0, 10_000), 1e-9)
	})

	t.Run("floored_at_minimum_ticket", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		assert.InDelta(t, 100, m.Size("MATIC", 0.05, 10_000), 1e-9)
	})
}

func TestStopLossAndTakeProfit(t *testing.T) {
	t.Parallel()

	t.Run("rejects_invalid_entry", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		_, err := m.StopLoss("MATIC", 0, 1.0)
		assert.ErrorIs(t, err, market.ErrInvalidPrice)
		_, err = m.TakeProfit("MATIC", -1, 1.0)
		assert.ErrorIs(t, err, market.ErrInvalidPrice)
	})

	t.Run("calm_market_full_conviction", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})

		stop, err := m.StopLoss("MATIC", 0.50, 1.0)
		require.NoError(t, err)
		assert.InDelta(t, 0.485, stop, 1e-9, "3% base stop, no widening")

		take, err := m.TakeProfit("MATIC", 0.50, 1.0)
		require.NoError(t, err)
		assert.InDelta(t, 0.50*1.075, take, 1e-9, "5% base target widened by conviction")
	})

	t.Run("low_confidence_widens_stop", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 0.3, volume: 1_000_000, mcap: 100_000_000})
		stop, err := m.StopLoss("MATIC", 0.50, 0.5)
		require.NoError(t, err)
		assert.InDelta(t, 0.50*(1-0.03*1.25), stop, 1e-9)
	})

	t.Run("volatility_widens_stop", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 1.2, volume: 1_000_000, mcap: 100_000_000})
		stop, err := m.StopLoss("MATIC", 0.50, 1.0)
		require.NoError(t, err)
		assert.InDelta(t, 0.50*(1-0.03*2.4), stop, 1e-9)
	})

	t.Run("stop_width_capped", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 5.0, volume: 1_000_000, mcap: 100_000_000})
		stop, err := m.StopLoss("MATIC", 0.50, 1.0)
		require.NoError(t, err)
		assert.InDelta(t, 0.50*0.80, stop, 1e-9, "20% absolute cap")
	})

	t.Run("ordering_invariant", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stubData{vol: 1.8, volume: 50_000, mcap: 2_000_000})
		for _, conf := range []float64{0.1, 0.5, 0.9, 1.0} {
			stop, err := m.StopLoss("MATIC", 0.50, conf)
			require.NoError(t, err)
			take, err := m.TakeProfit("MATIC", 0.50, conf)
			require.NoError(t, err)
			assert.Less(t, stop, 0.50)
			assert.Greater(t, take, 0.50)
		}
	})
}
