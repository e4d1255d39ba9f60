package journal

import "sync"

// Memory keeps records in process memory. Handy for tests and for
// simulation runs that do not need a durable journal.
type Memory struct {
	mu          sync.Mutex
	trades      []TradeRecord
	adaptations []Adaptation
	closed      bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) RecordAdaptation(a Adaptation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adaptations = append(m.adaptations, a)
	return nil
}

func (m *Memory) Trades() []TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TradeRecord, len(m.trades))
	copy(out, m.trades)
	return out
}

func (m *Memory) Adaptations() []Adaptation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Adaptation, len(m.adaptations))
	copy(out, m.adaptations)
	return out
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
