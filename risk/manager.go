package risk

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/strategies"
)

// Manager sizes positions, computes protective exits and enforces the
// limits in its Limits. The emergency stop is a manual latch: once set
// it refuses every new position until an operator clears it.
type Manager struct {
	limits Limits
	params *strategies.Params
	data   market.Provider
	log    *slog.Logger

	mu         sync.Mutex
	stopped    bool
	stopReason string
}

func NewManager(limits Limits, params *strategies.Params, data market.Provider, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{limits: limits, params: params, data: data, log: log}
}

// Limits returns the configured guard rails.
func (m *Manager) Limits() Limits { return m.limits }

// ActivateEmergencyStop latches the manager shut. Every subsequent
// CanOpen refuses until DeactivateEmergencyStop is called; there is no
// automatic recovery.
func (m *Manager) ActivateEmergencyStop(reason string) {
	m.mu.Lock()
	m.stopped = true
	m.stopReason = reason
	m.mu.Unlock()

	m.log.Error("emergency stop activated", "reason", reason)
}

// DeactivateEmergencyStop clears the latch.
func (m *Manager) DeactivateEmergencyStop() {
	m.mu.Lock()
	m.stopped = false
	m.stopReason = ""
	m.mu.Unlock()

	m.log.Info("emergency stop deactivated")
}

// EmergencyStopped reports the latch state and its reason.
func (m *Manager) EmergencyStopped() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped, m.stopReason
}

// Size returns the USD ticket for a new position: the configured
// portfolio fraction scaled down by confidence, by the symbol's risk
// level and by its volatility, floored at the minimum ticket.
func (m *Manager) Size(symbol string, confidence, portfolioValue float64) float64 {
	a := m.Assess(symbol)

	base := portfolioValue * m.params.PositionFraction

	levelMult := 1.0
	switch a.Level {
	case LevelHigh:
		levelMult = 0.5
	case LevelMedium:
		levelMult = 0.75
	}

	volMult := 1.0
	switch {
	case a.Volatility > 1.0:
		volMult = 0.5
	case a.Volatility > 0.5:
		volMult = 0.75
	}

	size := base * confidence * levelMult * volMult
	if size < m.limits.MinTicketUSD {
		size = m.limits.MinTicketUSD
	}
	return size
}

// StopLoss computes the protective stop for a long entry. The base
// width comes from the tunable StopLossPct, widened multiplicatively
// by volatility (capped at MaxStopFraction) and by low confidence —
// a low-conviction entry in a volatile market gets room to breathe
// instead of a hair trigger.
func (m *Manager) StopLoss(symbol string, entry, confidence float64) (float64, error) {
	if entry <= 0 {
		return 0, fmt.Errorf("stop loss for %q: %w: %v", symbol, market.ErrInvalidPrice, entry)
	}

	pct := m.params.StopLossPct / 100
	if vol := m.data.Volatility(symbol); vol > 0.5 {
		pct *= vol * 2
	}
	if pct > m.limits.MaxStopFraction {
		pct = m.limits.MaxStopFraction
	}

	confMult := 1.0 + (1-confidence)*0.5
	return entry * (1 - pct*confMult), nil
}

// TakeProfit computes the profit target for a long entry, widened by
// confidence: the more conviction behind the entry, the further the
// winner is allowed to run.
func (m *Manager) TakeProfit(symbol string, entry, confidence float64) (float64, error) {
	if entry <= 0 {
		return 0, fmt.Errorf("take profit for %q: %w: %v", symbol, market.ErrInvalidPrice, entry)
	}

	pct := m.params.TakeProfitPct / 100
	confMult := 1.0 + confidence*0.5
	return entry * (1 + pct*confMult), nil
}
