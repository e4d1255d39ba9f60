// Package tuner adjusts strategy parameters from realized results.
// Adjustments are small, bounded nudges; every change is recorded in
// an append-only adaptation log that is never read back for decisions.
package tuner

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/pkg/id"
	"github.com/rustyeddy/papertrader/strategies"
)

const (
	// DefaultWindow is how many recent trades feed the win-rate
	// review.
	DefaultWindow = 20
	// DefaultMinSample is the per-strategy trade count below which
	// no adjustment is made.
	DefaultMinSample = 5

	lowWinRate  = 0.4
	highWinRate = 0.6

	thresholdStep  = 0.5
	thresholdCap   = 5.0
	thresholdEase  = 0.3
	thresholdFloor = 1.0

	lossStreakLimit = 3
	widenedStopPct  = 4.0
	trendingTakePct = 7.0
	choppyTakePct   = 3.0
)

type Tuner struct {
	window    int
	minSample int

	adaptations []journal.Adaptation
	jrnl        journal.Journal
	log         *slog.Logger
}

func New(jrnl journal.Journal, log *slog.Logger) *Tuner {
	if jrnl == nil {
		jrnl = journal.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tuner{
		window:    DefaultWindow,
		minSample: DefaultMinSample,
		jrnl:      jrnl,
		log:       log,
	}
}

// Adapt reviews recent trades, the current losing streak, and the
// market regime, and mutates params in place. It returns the change
// descriptions and whether the caller should reset its loss streak.
// A non-empty change set is appended to the adaptation log.
func (t *Tuner) Adapt(now time.Time, trades []journal.TradeRecord, consecutiveLosses int, regime market.Regime, params *strategies.Params) ([]string, bool) {
	var changes []string

	changes = append(changes, t.reviewWinRates(trades, params)...)

	// The streak resets every time it hits the limit, even when the
	// stop is already widened and nothing new is logged.
	resetLosses := consecutiveLosses >= lossStreakLimit
	if resetLosses && params.StopLossPct != widenedStopPct {
		changes = append(changes, fmt.Sprintf(
			"stop_loss_pct: %.1f -> %.1f (%d consecutive losses)",
			params.StopLossPct, widenedStopPct, consecutiveLosses))
		params.StopLossPct = widenedStopPct
	}

	var wantTake float64
	switch regime {
	case market.RegimeTrendingUp:
		wantTake = trendingTakePct
	case market.RegimeChoppy:
		wantTake = choppyTakePct
	}
	if wantTake != 0 && params.TakeProfitPct != wantTake {
		changes = append(changes, fmt.Sprintf(
			"take_profit_pct: %.1f -> %.1f (regime %s)",
			params.TakeProfitPct, wantTake, regime))
		params.TakeProfitPct = wantTake
	}

	if len(changes) == 0 {
		return nil, resetLosses
	}

	a := journal.Adaptation{
		ID:      id.New(),
		Time:    now,
		Changes: changes,
		Params:  *params,
	}
	t.adaptations = append(t.adaptations, a)
	if err := t.jrnl.RecordAdaptation(a); err != nil {
		t.log.Warn("adaptation journal write failed", "error", err)
	}

	t.log.Info("parameters adapted", "changes", len(changes))
	for _, c := range changes {
		t.log.Debug("adaptation", "change", c)
	}
	return changes, resetLosses
}

// reviewWinRates computes per-strategy win rates over the trailing
// window and nudges the momentum threshold: tighter entries for
// strategies that mostly lose, looser for strategies that mostly win.
func (t *Tuner) reviewWinRates(trades []journal.TradeRecord, params *strategies.Params) []string {
	if len(trades) > t.window {
		trades = trades[len(trades)-t.window:]
	}

	wins := map[string]int{}
	total := map[string]int{}
	for _, tr := range trades {
		total[tr.Strategy]++
		if tr.Win() {
			wins[tr.Strategy]++
		}
	}

	names := make([]string, 0, len(total))
	for name := range total {
		names = append(names, name)
	}
	sort.Strings(names)

	var changes []string
	for _, name := range names {
		n := total[name]
		if n < t.minSample {
			continue
		}
		rate := float64(wins[name]) / float64(n)

		switch {
		case rate < lowWinRate:
			next := min(params.MomentumThreshold+thresholdStep, thresholdCap)
			if next != params.MomentumThreshold {
				changes = append(changes, fmt.Sprintf(
					"momentum_threshold: %.1f -> %.1f (%s win rate %.2f)",
					params.MomentumThreshold, next, name, rate))
				params.MomentumThreshold = next
			}
		case rate > highWinRate:
			next := max(params.MomentumThreshold-thresholdEase, thresholdFloor)
			if next != params.MomentumThreshold {
				changes = append(changes, fmt.Sprintf(
					"momentum_threshold: %.1f -> %.1f (%s win rate %.2f)",
					params.MomentumThreshold, next, name, rate))
				params.MomentumThreshold = next
			}
		}
	}
	return changes
}

// Adaptations returns a copy of the adaptation log, oldest first.
func (t *Tuner) Adaptations() []journal.Adaptation {
	out := make([]journal.Adaptation, len(t.adaptations))
	copy(out, t.adaptations)
	return out
}

// Recent returns up to n of the latest adaptations, newest first.
func (t *Tuner) Recent(n int) []journal.Adaptation {
	if n <= 0 || len(t.adaptations) == 0 {
		return nil
	}
	if n > len(t.adaptations) {
		n = len(t.adaptations)
	}
	out := make([]journal.Adaptation, 0, n)
	for i := len(t.adaptations) - 1; i >= len(t.adaptations)-n; i-- {
		out = append(out, t.adaptations[i])
	}
	return out
}

// RestoreLog replaces the adaptation log with a persisted one.
func (t *Tuner) RestoreLog(log []journal.Adaptation) {
	t.adaptations = append([]journal.Adaptation(nil), log...)
}
