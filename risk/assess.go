package risk

// Level is a coarse bucketing of the additive risk score.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "high"
	case LevelMedium:
		return "medium"
	default:
		return "low"
	}
}

// Assessment is the deterministic risk score for one symbol.
type Assessment struct {
	Score         float64 // 0..100
	Level         Level
	Volatility    float64
	LiquidityRisk bool
}

// Assess scores a symbol by adding penalty points for volatility (up
// to 40), thin market cap (up to 30) and thin volume (up to 20). The
// scoring is monotonic: worse inputs can only raise the score.
func (m *Manager) Assess(symbol string) Assessment {
	vol := m.data.Volatility(symbol)
	volume := m.data.Volume(symbol)
	marketCap := m.data.MarketCap(symbol)

	score := 0.0

	if vol > 0 {
		switch {
		case vol > 2.0:
			score += 40
		case vol > 1.0:
			score += 30
		case vol > 0.5:
			score += 20
		default:
			score += 10
		}
	}

	liquidityRisk := false
	switch {
	case marketCap < 1_000_000:
		score += 30
		liquidityRisk = true
	case marketCap < 10_000_000:
		score += 20
		liquidityRisk = true
	}

	switch {
	case volume < 10_000:
		score += 20
	case volume < 100_000:
		score += 10
	}

	level := LevelLow
	switch {
	case score >= 60:
		level = LevelHigh
	case score >= 30:
		level = LevelMedium
	}

	return Assessment{
		Score:         score,
		Level:         level,
		Volatility:    vol,
		LiquidityRisk: liquidityRisk,
	}
}
