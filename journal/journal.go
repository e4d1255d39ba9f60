// Package journal records what the trading core did: closed trades
// and parameter adaptations. Records are append-only and purely
// observational — nothing in the core reads them back to decide.
package journal

import (
	"time"

	"github.com/rustyeddy/papertrader/strategies"
)

// TradeRecord is the immutable snapshot written when a position
// closes. Never mutated after creation.
type TradeRecord struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	PnL        float64   `json:"pnl"`
	PnLPercent float64   `json:"pnl_percent"`
	Reason     string    `json:"reason"`
	Strategy   string    `json:"strategy"`
	OpenedAt   time.Time `json:"opened_at"`
	ClosedAt   time.Time `json:"closed_at"`
}

// Win reports whether the trade booked a profit.
func (t TradeRecord) Win() bool { return t.PnL > 0 }

// Adaptation is one entry of the tuner's audit log: what changed and
// the full parameter set after the change.
type Adaptation struct {
	ID      string            `json:"id"`
	Time    time.Time         `json:"time"`
	Changes []string          `json:"changes"`
	Params  strategies.Params `json:"params"`
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordAdaptation(Adaptation) error
	Close() error
}

// Nop discards everything. Used when journaling is disabled.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordAdaptation(Adaptation) error { return nil }
func (Nop) Close() error                      { return nil }
