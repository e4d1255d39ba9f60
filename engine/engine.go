// Package engine runs the trading loop: price ingestion, regime
// classification, signal generation, risk-gated execution, exit
// management, parameter adaptation and state persistence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/store"
	"github.com/rustyeddy/papertrader/strategies"
	"github.com/rustyeddy/papertrader/tuner"
)

// Engine owns the full simulator state. A single mutex serializes
// ticks and control operations; nothing inside holds locks across
// network calls except the price fetch itself, which is bounded by
// the feed's own timeout.
type Engine struct {
	mu sync.Mutex

	cfg        *config.Config
	feed       *market.FallbackFeed
	book       *ledger.Ledger
	riskman    *risk.Manager
	tun        *tuner.Tuner
	strategy   strategies.Strategy
	params     strategies.Params
	histories  map[string]*market.History
	provider   *market.HistoryProvider
	classifier market.ClassifierConfig
	states     store.StateStore
	log        *slog.Logger

	lastPrices map[string]float64
}

// Summary is the operator-facing report of the whole simulator.
type Summary struct {
	Book        ledger.Summary
	Regimes     map[string]market.Regime
	Params      strategies.Params
	Stopped     bool
	StopReason  string
	Adaptations []journal.Adaptation
}

// New assembles an engine from configuration. A previously saved
// state, when present, is restored whole; otherwise the account
// starts fresh from cfg. The raw feed is wrapped with the configured
// fallback policy.
func New(cfg *config.Config, raw market.Feed, jrnl journal.Journal, states store.StateStore, log *slog.Logger) (*Engine, error) {
	if jrnl == nil {
		jrnl = journal.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		cfg:        cfg,
		feed:       market.NewFallbackFeed(raw, market.FallbackPolicy(cfg.Feed.Fallback), cfg.Feed.JitterSeed),
		book:       ledger.New(cfg.Account.Balance, jrnl, log),
		tun:        tuner.New(jrnl, log),
		params:     cfg.Params,
		histories:  map[string]*market.History{},
		classifier: market.DefaultClassifier(),
		states:     states,
		log:        log,
		lastPrices: map[string]float64{},
	}

	for _, sym := range cfg.Trading.Symbols {
		e.histories[sym] = market.NewHistory(market.DefaultCapacity)
	}
	e.provider = &market.HistoryProvider{
		Histories: e.histories,
		Tokens:    map[string]market.TokenInfo{},
	}
	e.riskman = risk.NewManager(cfg.Risk, &e.params, e.provider, log)

	if cfg.Trading.Strategy == "consensus" {
		e.strategy = strategies.NewConsensus()
	} else {
		e.strategy = strategies.New(cfg.Trading.Strategy)
	}
	if e.strategy == nil {
		return nil, fmt.Errorf("engine: unknown strategy %q", cfg.Trading.Strategy)
	}

	if err := e.restore(); err != nil {
		return nil, err
	}
	return e, nil
}

// restore loads persisted state, if any. A missing state is a fresh
// start, not an error.
func (e *Engine) restore() error {
	if e.states == nil {
		return nil
	}
	st, err := e.states.Load()
	if err != nil {
		if errors.Is(err, store.ErrNoState) {
			e.log.Info("no saved state, starting fresh", "balance", e.cfg.Account.Balance)
			return nil
		}
		return fmt.Errorf("engine: load state: %w", err)
	}

	e.book.Restore(st.Portfolio, st.Positions, st.Trades)
	e.params = st.Params
	e.tun.RestoreLog(st.Adaptations)
	for sym, hs := range st.Histories {
		e.histories[sym] = market.Restore(hs.Capacity, hs.Samples)
	}
	e.provider.Histories = e.histories
	if st.Stopped {
		e.riskman.ActivateEmergencyStop(st.StopReason)
	}

	e.log.Info("state restored",
		"saved_at", st.SavedAt, "positions", len(st.Positions), "trades", len(st.Trades))
	return nil
}

// SetTokens refreshes the liquidity table behind risk assessment.
func (e *Engine) SetTokens(tokens map[string]market.TokenInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for sym, info := range tokens {
		e.provider.Tokens[sym] = info
	}
}

// Run ticks the engine at the configured interval until ctx ends.
func (e *Engine) Run(ctx context.Context) error {
	interval, err := e.cfg.TickInterval()
	if err != nil {
		return fmt.Errorf("engine: bad interval: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("engine running",
		"interval", interval, "symbols", e.cfg.Trading.Symbols,
		"strategy", e.strategy.Name())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			e.Tick(ctx, now)
		}
	}
}

// Tick runs one full pipeline pass. Symbols whose price cannot be
// determined this tick are skipped; everything else proceeds.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	symbols := e.symbols()
	prices := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		price, err := e.feed.Price(ctx, sym)
		if err != nil {
			e.log.Warn("no price this tick", "symbol", sym, "error", err)
			continue
		}
		if err := e.histories[sym].Push(price); err != nil {
			e.log.Warn("history rejected price", "symbol", sym, "price", price, "error", err)
			continue
		}
		prices[sym] = price
		e.lastPrices[sym] = price
	}

	e.book.RollDay(now, prices)

	regimes := make(map[string]market.Regime, len(symbols))
	for _, sym := range symbols {
		regimes[sym] = market.Classify(e.histories[sym], e.classifier)
	}

	for _, sym := range symbols {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		sig := e.strategy.Analyze(market.View{
			Symbol:  sym,
			History: e.histories[sym],
			Regime:  regimes[sym],
			Quotes:  map[string]float64{e.cfg.Feed.Source: price},
		}, &e.params)
		e.act(sig, price, prices, now)
	}

	for _, rec := range e.book.CheckExits(prices, now) {
		e.log.Info("exit filled", "symbol", rec.Symbol, "reason", rec.Reason, "pnl", rec.PnL)
	}

	e.adapt(now, regimes)
	e.saveLocked(now)
}

// act routes one signal through the risk gate into the book.
func (e *Engine) act(sig strategies.Signal, price float64, prices map[string]float64, now time.Time) {
	switch sig.Action {
	case strategies.Buy:
		if _, open := e.book.Position(sig.Symbol); open {
			return
		}

		value, dailyStart, dailyPnL, open := e.book.RiskSnapshot(prices)
		size := e.riskman.Size(sig.Symbol, sig.Confidence, value)
		dec := e.riskman.CanOpen(sig.Symbol, size, sig.Confidence, risk.PortfolioSnapshot{
			Value:         value,
			DailyStart:    dailyStart,
			DailyPnL:      dailyPnL,
			OpenPositions: open,
		})
		if !dec.Allowed {
			e.log.Debug("buy refused", "symbol", sig.Symbol, "reason", dec.Reason())
			return
		}

		stop, err := e.riskman.StopLoss(sig.Symbol, price, sig.Confidence)
		if err != nil {
			e.log.Warn("stop computation failed", "symbol", sig.Symbol, "error", err)
			return
		}
		take, err := e.riskman.TakeProfit(sig.Symbol, price, sig.Confidence)
		if err != nil {
			e.log.Warn("take computation failed", "symbol", sig.Symbol, "error", err)
			return
		}

		if _, err := e.book.ExecuteBuy(sig.Symbol, size, price, stop, take, sig.Confidence, sig.Strategy, now); err != nil {
			e.log.Warn("buy failed", "symbol", sig.Symbol, "error", err)
		}

	case strategies.Sell:
		if _, open := e.book.Position(sig.Symbol); !open {
			return
		}
		if _, err := e.book.ExecuteSell(sig.Symbol, 1, price, ledger.ReasonSignalExit, now); err != nil {
			e.log.Warn("sell failed", "symbol", sig.Symbol, "error", err)
		}
	}
}

// adapt runs the tuner against the primary symbol's regime.
func (e *Engine) adapt(now time.Time, regimes map[string]market.Regime) {
	primary := market.RegimeUnknown
	if len(e.cfg.Trading.Symbols) > 0 {
		primary = regimes[e.cfg.Trading.Symbols[0]]
	}

	_, resetLosses := e.tun.Adapt(now, e.book.Trades(), e.book.ConsecutiveLosses(), primary, &e.params)
	if resetLosses {
		e.book.ResetLossStreak()
	}
}

// saveLocked persists the full state. A failing save is logged; the
// in-memory state stays authoritative.
func (e *Engine) saveLocked(now time.Time) {
	if e.states == nil {
		return
	}

	stopped, stopReason := e.riskman.EmergencyStopped()
	st := &store.State{
		SavedAt:     now,
		Stopped:     stopped,
		StopReason:  stopReason,
		Portfolio:   e.book.Snapshot(),
		Positions:   e.book.Positions(),
		Trades:      e.book.Trades(),
		Params:      e.params,
		Adaptations: e.tun.Adaptations(),
		Histories:   map[string]store.HistoryState{},
	}
	for sym, h := range e.histories {
		st.Histories[sym] = store.HistoryState{
			Capacity: h.Capacity(),
			Samples:  h.Samples(),
		}
	}

	if err := e.states.Save(st); err != nil {
		e.log.Error("state save failed", "error", err)
	}
}

func (e *Engine) symbols() []string {
	out := append([]string(nil), e.cfg.Trading.Symbols...)
	sort.Strings(out)
	return out
}

// Summary reports the simulator at the last known prices.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	stopped, reason := e.riskman.EmergencyStopped()
	regimes := make(map[string]market.Regime, len(e.histories))
	for sym, h := range e.histories {
		regimes[sym] = market.Classify(h, e.classifier)
	}

	return Summary{
		Book:        e.book.Summary(e.lastPrices),
		Regimes:     regimes,
		Params:      e.params,
		Stopped:     stopped,
		StopReason:  reason,
		Adaptations: e.tun.Recent(5),
	}
}

// Reset reinitializes the portfolio, positions and trade history to
// the given starting cash and seed quantities. A zero cash value falls
// back to the configured balance. Tuned parameters and the adaptation
// log survive a reset.
func (e *Engine) Reset(now time.Time, cash float64, holdings map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cash <= 0 {
		cash = e.cfg.Account.Balance
	}
	e.book.Reset(cash, holdings)
	if r, ok := e.strategy.(strategies.Resettable); ok {
		r.Reset()
	}
	e.saveLocked(now)
}

// EmergencyStop latches all new entries shut. Exits keep working. The
// latch is saved with the state so it survives a restart.
func (e *Engine) EmergencyStop(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.riskman.ActivateEmergencyStop(reason)
	e.saveLocked(time.Now().UTC())
}

// ClearEmergencyStop releases the latch.
func (e *Engine) ClearEmergencyStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.riskman.DeactivateEmergencyStop()
	e.saveLocked(time.Now().UTC())
}
