package strategies

// Params is the mutable parameter set shared by the strategy engine
// and the risk manager. It is owned by the adaptive tuner: strategies
// and risk read it each tick, only the tuner writes it (the tick
// pipeline is single-writer, so no locking here).
type Params struct {
	// momentum
	MomentumThreshold float64 `json:"momentum_threshold" yaml:"momentum_threshold"` // percent
	DipThreshold      float64 `json:"dip_threshold" yaml:"dip_threshold"`           // percent, negative
	RSIPeriod         int     `json:"rsi_period" yaml:"rsi_period"`
	Oversold          float64 `json:"oversold" yaml:"oversold"`
	Overbought        float64 `json:"overbought" yaml:"overbought"`
	MinTrendStrength  float64 `json:"min_trend_strength" yaml:"min_trend_strength"` // fraction
	MomentumLookback  int     `json:"momentum_lookback" yaml:"momentum_lookback"`

	// mean reversion
	MeanRevWindow int     `json:"mean_rev_window" yaml:"mean_rev_window"`
	StdThreshold  float64 `json:"std_threshold" yaml:"std_threshold"`

	// grid
	GridLevels     int     `json:"grid_levels" yaml:"grid_levels"`
	GridSpacingPct float64 `json:"grid_spacing_pct" yaml:"grid_spacing_pct"`

	// trend following
	FastMA int `json:"fast_ma" yaml:"fast_ma"`
	SlowMA int `json:"slow_ma" yaml:"slow_ma"`

	// arbitrage
	MinSpreadPct float64 `json:"min_spread_pct" yaml:"min_spread_pct"`

	// exits and sizing, read by the risk manager
	TakeProfitPct    float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	StopLossPct      float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	PositionFraction float64 `json:"position_fraction" yaml:"position_fraction"`
}

// DefaultParams returns the starting parameter set. The adaptive tuner
// moves individual values from here as trade outcomes accumulate.
func DefaultParams() Params {
	return Params{
		MomentumThreshold: 2.0,
		DipThreshold:      -3.0,
		RSIPeriod:         14,
		Oversold:          30,
		Overbought:        70,
		MinTrendStrength:  0.02,
		MomentumLookback:  10,

		MeanRevWindow: 24,
		StdThreshold:  2.0,

		GridLevels:     5,
		GridSpacingPct: 1.0,

		FastMA: 10,
		SlowMA: 30,

		MinSpreadPct: 0.5,

		TakeProfitPct:    5.0,
		StopLossPct:      3.0,
		PositionFraction: 0.10,
	}
}
