package risk

import "fmt"

// Violation codes returned by CanOpen.
const (
	CodeEmergencyStop         = "EMERGENCY_STOP"
	CodeMaxPositions          = "MAX_POSITIONS"
	CodeDailyLossLimit        = "DAILY_LOSS_LIMIT"
	CodeSizeLimit             = "SIZE_LIMIT"
	CodeHighRiskLowConfidence = "HIGH_RISK_LOW_CONFIDENCE"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of an admission check. A refused decision
// carries the violation that stopped it; checks run in a fixed order
// and the first failure wins.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) refuse(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason renders the refusal for logs and reports; empty when allowed.
func (d Decision) Reason() string {
	if d.Allowed || len(d.Violations) == 0 {
		return ""
	}
	v := d.Violations[0]
	return fmt.Sprintf("%s: %s", v.Code, v.Msg)
}

// CanOpen decides whether a new position of sizeUSD may be opened.
// Check order: emergency stop, open-position count, daily loss
// breaker, position size cap, token risk vs. confidence.
func (m *Manager) CanOpen(symbol string, sizeUSD, confidence float64, snap PortfolioSnapshot) Decision {
	d := Decision{Allowed: true}

	if stopped, reason := m.EmergencyStopped(); stopped {
		d.refuse(CodeEmergencyStop, fmt.Sprintf("emergency stop active: %s", reason))
		return d
	}

	if snap.OpenPositions >= m.limits.MaxOpenPositions {
		d.refuse(CodeMaxPositions,
			fmt.Sprintf("open positions %d >= max %d", snap.OpenPositions, m.limits.MaxOpenPositions))
		return d
	}

	if snap.DailyStart > 0 {
		dailyFrac := snap.DailyPnL / snap.DailyStart
		if dailyFrac < -m.limits.DailyLossFraction {
			d.refuse(CodeDailyLossLimit,
				fmt.Sprintf("daily loss %.2f%% exceeds limit %.2f%%",
					-100*dailyFrac, 100*m.limits.DailyLossFraction))
			return d
		}
	}

	if maxSize := snap.Value * m.limits.MaxPositionFraction; sizeUSD > maxSize {
		d.refuse(CodeSizeLimit,
			fmt.Sprintf("position size %.2f exceeds max %.2f (%.0f%% of portfolio)",
				sizeUSD, maxSize, 100*m.limits.MaxPositionFraction))
		return d
	}

	if a := m.Assess(symbol); a.Level == LevelHigh && confidence < 0.8 {
		d.refuse(CodeHighRiskLowConfidence,
			fmt.Sprintf("%s risk score %.0f needs confidence >= 0.8, got %.2f", symbol, a.Score, confidence))
		return d
	}

	return d
}
