package market

// Regime is a coarse classification of recent price behavior.
type Regime int

const (
	RegimeUnknown Regime = iota
	RegimeTrendingUp
	RegimeTrendingDown
	RegimeChoppy
)

func (r Regime) String() string {
	switch r {
	case RegimeTrendingUp:
		return "trending_up"
	case RegimeTrendingDown:
		return "trending_down"
	case RegimeChoppy:
		return "choppy"
	default:
		return "unknown"
	}
}

// ClassifierConfig holds the regime decision thresholds.
type ClassifierConfig struct {
	// MinSamples is the smallest window Classify will judge. Below it
	// the regime is unknown.
	MinSamples int `json:"min_samples" yaml:"min_samples"`
	// TrendPct is the absolute percent change over the window that
	// separates a trend from chop.
	TrendPct float64 `json:"trend_pct" yaml:"trend_pct"`
	// VolPct is the mean absolute step-to-step percent move above which
	// the window counts as choppy regardless of direction.
	VolPct float64 `json:"vol_pct" yaml:"vol_pct"`
}

// DefaultClassifier returns the standard thresholds: an hour of
// 5-minute samples, 3% trend, 2% volatility.
func DefaultClassifier() ClassifierConfig {
	return ClassifierConfig{MinSamples: 12, TrendPct: 3.0, VolPct: 2.0}
}

// Classify labels the most recent MinSamples window of h. It is a pure
// function of the window: same samples in, same regime out.
func Classify(h *History, cfg ClassifierConfig) Regime {
	if cfg.MinSamples < 2 {
		cfg = DefaultClassifier()
	}
	if h == nil || h.Len() < cfg.MinSamples {
		return RegimeUnknown
	}

	window := h.Tail(cfg.MinSamples)
	change := (window[len(window)-1]/window[0] - 1) * 100
	vol := stepVolatility(window)

	switch {
	case change > cfg.TrendPct && vol < cfg.VolPct:
		return RegimeTrendingUp
	case change < -cfg.TrendPct && vol < cfg.VolPct:
		return RegimeTrendingDown
	default:
		return RegimeChoppy
	}
}
