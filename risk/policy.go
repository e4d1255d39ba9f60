// Package risk gates strategy signals into executable orders: position
// sizing, protective exit levels, exposure limits and the emergency
// stop latch. Business-rule refusals are returned as data, never as
// errors, so callers can branch without error handling.
package risk

// Limits are the portfolio-level guard rails. Effectively immutable at
// runtime; only the emergency latch changes after construction.
type Limits struct {
	MaxOpenPositions    int     `json:"max_open_positions" yaml:"max_open_positions"`
	MaxPositionFraction float64 `json:"max_position_fraction" yaml:"max_position_fraction"`
	DailyLossFraction   float64 `json:"daily_loss_fraction" yaml:"daily_loss_fraction"`
	MaxSlippageFraction float64 `json:"max_slippage_fraction" yaml:"max_slippage_fraction"`
	MinTicketUSD        float64 `json:"min_ticket_usd" yaml:"min_ticket_usd"`
	MaxStopFraction     float64 `json:"max_stop_fraction" yaml:"max_stop_fraction"`
}

// DefaultLimits mirrors the standard paper-trading configuration:
// at most 5 concurrent positions, 10% of the portfolio per position,
// a 10% daily loss circuit breaker and a 20% cap on stop width.
func DefaultLimits() Limits {
	return Limits{
		MaxOpenPositions:    5,
		MaxPositionFraction: 0.10,
		DailyLossFraction:   0.10,
		MaxSlippageFraction: 0.01,
		MinTicketUSD:        100,
		MaxStopFraction:     0.20,
	}
}

// PortfolioSnapshot is the slice of ledger state the admission checks
// need. The ledger produces it; risk never reaches into the ledger.
type PortfolioSnapshot struct {
	Value         float64
	DailyStart    float64
	DailyPnL      float64
	OpenPositions int
}
