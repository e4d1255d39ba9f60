// Package store persists the simulator's full state between runs so a
// restart resumes exactly where the last tick left off.
package store

import (
	"errors"
	"time"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/strategies"
)

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("store: no saved state")

// HistoryState is the persisted form of one symbol's price buffer.
type HistoryState struct {
	Capacity int             `json:"capacity"`
	Samples  []market.Sample `json:"samples"`
}

// State is everything the engine needs to resume a session. It is
// written whole and loaded whole; there is no partial merge.
type State struct {
	SavedAt     time.Time               `json:"saved_at"`
	Portfolio   ledger.Portfolio        `json:"portfolio"`
	Positions   []ledger.Position       `json:"positions"`
	Trades      []journal.TradeRecord   `json:"trades"`
	Params      strategies.Params       `json:"params"`
	Adaptations []journal.Adaptation    `json:"adaptations"`
	Histories   map[string]HistoryState `json:"histories"`
	Stopped     bool                    `json:"stopped,omitempty"`
	StopReason  string                  `json:"stop_reason,omitempty"`
}

type StateStore interface {
	// Load returns the last saved state, or ErrNoState.
	Load() (*State, error)
	Save(*State) error
}
