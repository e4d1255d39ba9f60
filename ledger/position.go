package ledger

import "time"

// Position is an open long holding with its protective levels.
// Invariant for a valid open position: StopLoss < EntryPrice < TakeProfit.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Confidence float64   `json:"confidence"`
	Strategy   string    `json:"strategy"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Value is the position's worth at the given price.
func (p Position) Value(price float64) float64 {
	return p.Quantity * price
}

// UnrealizedPnL is the profit the position would realize if closed at
// the given price.
func (p Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity
}
