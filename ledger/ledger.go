// Package ledger is the paper-trading book: virtual cash, open
// positions, and the record of closed trades. All fills are
// frictionless at the given price; no fees, no slippage.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/pkg/id"
)

// Close reasons recorded on TradeRecord.Reason.
const (
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
	ReasonSignalExit = "signal_exit"
	ReasonManual     = "manual"
)

var (
	ErrInvalidPrice     = errors.New("ledger: price must be positive")
	ErrInvalidAmount    = errors.New("ledger: amount must be positive")
	ErrBadFraction      = errors.New("ledger: fraction must be in (0, 1]")
	ErrBadLevels        = errors.New("ledger: require stop < entry < take")
	ErrInsufficientCash = errors.New("ledger: insufficient cash")
	ErrPositionExists   = errors.New("ledger: position already open for symbol")
	ErrNoPosition       = errors.New("ledger: no open position for symbol")
)

// A fraction this small of the position is treated as dust and the
// position closes in full rather than lingering.
const dustFraction = 1e-8

// Portfolio is a snapshot of the book's account state, used for
// persistence and reporting.
type Portfolio struct {
	Cash              float64            `json:"cash"`
	Holdings          map[string]float64 `json:"holdings"`
	RealizedPnL       float64            `json:"realized_pnl"`
	DailyPnL          float64            `json:"daily_pnl"`
	DailyStartValue   float64            `json:"daily_start_value"`
	WinCount          int                `json:"win_count"`
	LossCount         int                `json:"loss_count"`
	ConsecutiveLosses int                `json:"consecutive_losses"`
	DailyAnchor       time.Time          `json:"daily_anchor"`
}

// Summary is a pure point-in-time view of the book.
type Summary struct {
	TotalValue        float64
	Cash              float64
	RealizedPnL       float64
	DailyPnL          float64
	WinCount          int
	LossCount         int
	ConsecutiveLosses int
	WinRate           float64
	TradeCount        int
	Holdings          map[string]float64
	OpenPositions     []Position
}

// Ledger tracks cash, holdings and open positions, and appends a
// TradeRecord for every full close. Methods are safe for concurrent
// use.
type Ledger struct {
	mu sync.Mutex

	cash            float64
	holdings        map[string]float64
	positions       map[string]*Position
	trades          []journal.TradeRecord
	realized        float64
	daily           float64
	dailyStartValue float64
	dailyAnchor     time.Time

	winCount          int
	lossCount         int
	consecutiveLosses int

	jrnl journal.Journal
	log  *slog.Logger
}

// New creates a ledger funded with startingCash. A nil journal
// disables trade journaling; a nil logger falls back to slog.Default.
func New(startingCash float64, jrnl journal.Journal, log *slog.Logger) *Ledger {
	if jrnl == nil {
		jrnl = journal.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		cash:            startingCash,
		holdings:        map[string]float64{},
		positions:       map[string]*Position{},
		dailyStartValue: startingCash,
		jrnl:            jrnl,
		log:             log,
	}
}

// ExecuteBuy opens a long position for usd worth of the symbol at
// price, protected by the given stop and take levels. Refusals leave
// the book untouched.
func (l *Ledger) ExecuteBuy(symbol string, usd, price, stop, take, confidence float64, strategy string, now time.Time) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked(now)

	if price <= 0 {
		return Position{}, ErrInvalidPrice
	}
	if usd <= 0 {
		return Position{}, ErrInvalidAmount
	}
	if !(stop < price && price < take) {
		return Position{}, fmt.Errorf("%w: stop=%.6f entry=%.6f take=%.6f", ErrBadLevels, stop, price, take)
	}
	if _, ok := l.positions[symbol]; ok {
		return Position{}, fmt.Errorf("%w: %s", ErrPositionExists, symbol)
	}
	if usd > l.cash {
		return Position{}, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, usd, l.cash)
	}

	qty := usd / price
	l.cash -= usd
	l.assertCashLocked()
	l.holdings[symbol] += qty

	pos := &Position{
		ID:         id.New(),
		Symbol:     symbol,
		EntryPrice: price,
		Quantity:   qty,
		StopLoss:   stop,
		TakeProfit: take,
		Confidence: confidence,
		Strategy:   strategy,
		OpenedAt:   now,
	}
	l.positions[symbol] = pos

	l.log.Info("position opened",
		"symbol", symbol, "usd", usd, "price", price, "qty", qty,
		"stop", stop, "take", take, "strategy", strategy)
	return *pos, nil
}

// ExecuteSell sells fraction (0,1] of the open position at price. A
// full close (fraction 1, or a remainder below dust) books the trade.
// The returned record is zero-valued for partial sells.
func (l *Ledger) ExecuteSell(symbol string, fraction, price float64, reason string, now time.Time) (journal.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked(now)
	return l.sellLocked(symbol, fraction, price, reason, now)
}

func (l *Ledger) sellLocked(symbol string, fraction, price float64, reason string, now time.Time) (journal.TradeRecord, error) {
	if price <= 0 {
		return journal.TradeRecord{}, ErrInvalidPrice
	}
	if fraction <= 0 || fraction > 1 {
		return journal.TradeRecord{}, fmt.Errorf("%w: %.4f", ErrBadFraction, fraction)
	}
	pos, ok := l.positions[symbol]
	if !ok {
		return journal.TradeRecord{}, fmt.Errorf("%w: %s", ErrNoPosition, symbol)
	}

	qty := pos.Quantity * fraction
	full := fraction == 1 || pos.Quantity-qty <= pos.Quantity*dustFraction
	if full {
		qty = pos.Quantity
	}

	pnl := (price - pos.EntryPrice) * qty
	l.cash += qty * price
	l.assertCashLocked()
	l.holdings[symbol] -= qty
	l.realized += pnl
	l.daily += pnl

	if !full {
		pos.Quantity -= qty
		l.log.Info("position reduced",
			"symbol", symbol, "fraction", fraction, "price", price, "pnl", pnl)
		return journal.TradeRecord{}, nil
	}

	delete(l.positions, symbol)
	// The book may hold quantity beyond the position, seeded via Reset
	// or Restore. Only drop the entry once nothing but dust remains.
	if l.holdings[symbol] <= qty*dustFraction {
		delete(l.holdings, symbol)
	}

	if pnl > 0 {
		l.winCount++
		l.consecutiveLosses = 0
	} else {
		l.lossCount++
		l.consecutiveLosses++
	}

	rec := journal.TradeRecord{
		ID:         pos.ID,
		Symbol:     symbol,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Quantity:   qty,
		PnL:        pnl,
		PnLPercent: (price - pos.EntryPrice) / pos.EntryPrice * 100,
		Reason:     reason,
		Strategy:   pos.Strategy,
		OpenedAt:   pos.OpenedAt,
		ClosedAt:   now,
	}
	l.trades = append(l.trades, rec)

	if err := l.jrnl.RecordTrade(rec); err != nil {
		l.log.Warn("journal write failed", "trade", rec.ID, "error", err)
	}

	l.log.Info("position closed",
		"symbol", symbol, "reason", reason, "entry", pos.EntryPrice,
		"exit", price, "pnl", pnl)
	return rec, nil
}

// CheckExits closes every open position whose stop or take level is
// breached by its current price. Positions closed here are removed
// from the book, so re-invoking with the same prices closes nothing.
func (l *Ledger) CheckExits(prices map[string]float64, now time.Time) []journal.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked(now)

	symbols := make([]string, 0, len(l.positions))
	for s := range l.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var closed []journal.TradeRecord
	for _, s := range symbols {
		pos, ok := l.positions[s]
		if !ok {
			continue
		}
		price, ok := prices[s]
		if !ok || price <= 0 {
			continue
		}

		var reason string
		switch {
		case price <= pos.StopLoss:
			reason = ReasonStopLoss
		case price >= pos.TakeProfit:
			reason = ReasonTakeProfit
		default:
			continue
		}

		rec, err := l.sellLocked(s, 1, price, reason, now)
		if err != nil {
			l.log.Error("exit close failed", "symbol", s, "error", err)
			continue
		}
		closed = append(closed, rec)
	}
	return closed
}

// TotalValue is cash plus every holding marked at the given prices.
// A holding without a quote is marked at its position's entry price.
func (l *Ledger) TotalValue(prices map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalValueLocked(prices)
}

func (l *Ledger) totalValueLocked(prices map[string]float64) float64 {
	total := l.cash
	for symbol, qty := range l.holdings {
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			if pos, ok := l.positions[symbol]; ok {
				price = pos.EntryPrice
			} else {
				continue
			}
		}
		total += qty * price
	}
	return total
}

// Summary reports the book at the given prices without mutating it.
func (l *Ledger) Summary(prices map[string]float64) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		TotalValue:        l.totalValueLocked(prices),
		Cash:              l.cash,
		RealizedPnL:       l.realized,
		DailyPnL:          l.daily,
		WinCount:          l.winCount,
		LossCount:         l.lossCount,
		ConsecutiveLosses: l.consecutiveLosses,
		TradeCount:        len(l.trades),
		Holdings:          maps.Clone(l.holdings),
	}
	if n := l.winCount + l.lossCount; n > 0 {
		s.WinRate = float64(l.winCount) / float64(n)
	}
	for _, pos := range l.positions {
		s.OpenPositions = append(s.OpenPositions, *pos)
	}
	sort.Slice(s.OpenPositions, func(i, j int) bool {
		return s.OpenPositions[i].Symbol < s.OpenPositions[j].Symbol
	})
	return s
}

// RollDay applies the UTC day-boundary reset using current prices for
// the fresh daily start value. It is a no-op within the same day.
func (l *Ledger) RollDay(now time.Time, prices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := now.UTC().Truncate(24 * time.Hour)
	if !day.After(l.dailyAnchor) {
		return
	}
	l.dailyAnchor = day
	l.daily = 0
	l.dailyStartValue = l.totalValueLocked(prices)
	l.log.Info("daily pnl reset", "day", day.Format("2006-01-02"))
}

// rollDayLocked is the fallback roll for operations that carry no
// price map; holdings are marked at entry prices.
func (l *Ledger) rollDayLocked(now time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	if !day.After(l.dailyAnchor) {
		return
	}
	l.dailyAnchor = day
	l.daily = 0
	l.dailyStartValue = l.totalValueLocked(nil)
}

// Reset reinitializes the book with fresh cash and optional seed
// holdings, discarding positions and trade history.
func (l *Ledger) Reset(cash float64, holdings map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cash = cash
	l.holdings = map[string]float64{}
	for s, q := range holdings {
		l.holdings[s] = q
	}
	l.positions = map[string]*Position{}
	l.trades = nil
	l.realized = 0
	l.daily = 0
	l.dailyStartValue = cash
	l.winCount = 0
	l.lossCount = 0
	l.consecutiveLosses = 0

	l.log.Info("portfolio reset", "cash", cash)
}

// Snapshot returns the account state for persistence.
func (l *Ledger) Snapshot() Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := Portfolio{
		Cash:              l.cash,
		Holdings:          map[string]float64{},
		RealizedPnL:       l.realized,
		DailyPnL:          l.daily,
		DailyStartValue:   l.dailyStartValue,
		WinCount:          l.winCount,
		LossCount:         l.lossCount,
		ConsecutiveLosses: l.consecutiveLosses,
		DailyAnchor:       l.dailyAnchor,
	}
	for s, q := range l.holdings {
		p.Holdings[s] = q
	}
	return p
}

// Restore replaces the book with a previously saved state.
func (l *Ledger) Restore(p Portfolio, positions []Position, trades []journal.TradeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cash = p.Cash
	l.holdings = map[string]float64{}
	for s, q := range p.Holdings {
		l.holdings[s] = q
	}
	l.positions = map[string]*Position{}
	for i := range positions {
		pos := positions[i]
		l.positions[pos.Symbol] = &pos
	}
	l.trades = append([]journal.TradeRecord(nil), trades...)
	l.realized = p.RealizedPnL
	l.daily = p.DailyPnL
	l.dailyStartValue = p.DailyStartValue
	l.dailyAnchor = p.DailyAnchor
	l.winCount = p.WinCount
	l.lossCount = p.LossCount
	l.consecutiveLosses = p.ConsecutiveLosses
}

// Positions returns the open positions sorted by symbol.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Position returns the open position for symbol, if any.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Trades returns the closed-trade history, oldest first.
func (l *Ledger) Trades() []journal.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]journal.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// ResetLossStreak clears the consecutive-loss counter. Called when
// the tuner has already reacted to the streak.
func (l *Ledger) ResetLossStreak() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.consecutiveLosses = 0
}

// ConsecutiveLosses reports the current losing streak.
func (l *Ledger) ConsecutiveLosses() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consecutiveLosses
}

// RiskSnapshot packages the numbers the risk manager gates on.
func (l *Ledger) RiskSnapshot(prices map[string]float64) (value, dailyStart, dailyPnL float64, open int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalValueLocked(prices), l.dailyStartValue, l.daily, len(l.positions)
}

// assertCashLocked enforces the non-negative cash invariant. Every
// debit is preceded by a balance check, so a breach is a bug.
func (l *Ledger) assertCashLocked() {
	if l.cash < -1e-9 {
		panic(fmt.Sprintf("ledger: cash went negative: %.10f", l.cash))
	}
}
