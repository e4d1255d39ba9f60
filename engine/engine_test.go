package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/store"
)

var t0 = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Trading.Symbols = []string{"token"}
	cfg.Trading.Strategy = "momentum"
	cfg.Feed.Source = "static"
	cfg.Journal.Type = "none"
	cfg.State.Path = filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, feed market.Feed, jrnl journal.Journal) *Engine {
	t.Helper()

	e, err := New(cfg, feed, jrnl, store.NewFileStore(cfg.State.Path), nil)
	require.NoError(t, err)
	return e
}

// declineThenTick walks the price down one unit per tick, far enough
// to drive RSI to zero and trigger a full-confidence buy.
func declineThenTick(t *testing.T, e *Engine, feed *market.StaticFeed) time.Time {
	t.Helper()

	now := t0
	for price := 100.0; price >= 86; price-- {
		feed.Set("token", price)
		e.Tick(context.Background(), now)
		now = now.Add(5 * time.Minute)
	}
	return now
}

func TestTickBuysOnOversold(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})
	e := newTestEngine(t, cfg, feed, nil)

	declineThenTick(t, e, feed)

	s := e.Summary()
	require.Len(t, s.Book.OpenPositions, 1)

	pos := s.Book.OpenPositions[0]
	assert.InDelta(t, 86, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 1.0, pos.Confidence, 1e-9)
	assert.Equal(t, "momentum", pos.Strategy)

	// Full confidence, low volatility: stop -3%, take +7.5%.
	assert.InDelta(t, 86*0.97, pos.StopLoss, 1e-6)
	assert.InDelta(t, 86*1.075, pos.TakeProfit, 1e-6)
	assert.True(t, pos.StopLoss < pos.EntryPrice && pos.EntryPrice < pos.TakeProfit)

	assert.Equal(t, market.RegimeTrendingDown, s.Regimes["token"])
}

func TestTickTakeProfitRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})
	jrnl := journal.NewMemory()
	e := newTestEngine(t, cfg, feed, jrnl)

	now := declineThenTick(t, e, feed)

	// A jump through the take level exits at the current price.
	feed.Set("token", 95)
	e.Tick(context.Background(), now)

	s := e.Summary()
	assert.Empty(t, s.Book.OpenPositions)
	assert.Equal(t, 1, s.Book.WinCount)
	assert.Greater(t, s.Book.RealizedPnL, 0.0)

	trades := jrnl.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.ReasonTakeProfit, trades[0].Reason)
	assert.InDelta(t, 86, trades[0].EntryPrice, 1e-9)
	assert.InDelta(t, 95, trades[0].ExitPrice, 1e-9)
}

func TestTickStopLossRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})
	jrnl := journal.NewMemory()
	e := newTestEngine(t, cfg, feed, jrnl)

	now := declineThenTick(t, e, feed)

	feed.Set("token", 80)
	e.Tick(context.Background(), now)

	s := e.Summary()
	assert.Empty(t, s.Book.OpenPositions)
	assert.Equal(t, 1, s.Book.LossCount)
	assert.Less(t, s.Book.RealizedPnL, 0.0)

	trades := jrnl.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.ReasonStopLoss, trades[0].Reason)
}

func TestEmergencyStopBlocksEntries(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})
	e := newTestEngine(t, cfg, feed, nil)

	e.EmergencyStop("operator halt")
	declineThenTick(t, e, feed)

	s := e.Summary()
	assert.True(t, s.Stopped)
	assert.Equal(t, "operator halt", s.StopReason)
	assert.Empty(t, s.Book.OpenPositions)
	assert.InDelta(t, cfg.Account.Balance, s.Book.Cash, 1e-9)

	// Clearing the latch lets the next oversold tick trade again.
	e.ClearEmergencyStop()
	feed.Set("token", 85)
	e.Tick(context.Background(), t0.Add(2*time.Hour))
	assert.Len(t, e.Summary().Book.OpenPositions, 1)
}

type failingFeed struct{}

func (failingFeed) Price(context.Context, string) (float64, error) {
	return 0, errors.New("venue unreachable")
}

func TestTickSkipsSymbolWithoutPrice(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	e := newTestEngine(t, cfg, failingFeed{}, nil)

	e.Tick(context.Background(), t0)

	s := e.Summary()
	assert.Empty(t, s.Book.OpenPositions)
	assert.InDelta(t, cfg.Account.Balance, s.Book.TotalValue, 1e-9)
	assert.Equal(t, market.RegimeUnknown, s.Regimes["token"])
}

func TestStatePersistsAcrossEngines(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})
	e := newTestEngine(t, cfg, feed, nil)

	declineThenTick(t, e, feed)
	first := e.Summary()
	require.Len(t, first.Book.OpenPositions, 1)

	// A second engine on the same state file resumes the session.
	e2 := newTestEngine(t, cfg, feed, nil)
	second := e2.Summary()

	assert.InDelta(t, first.Book.Cash, second.Book.Cash, 1e-9)
	assert.Equal(t, first.Book.OpenPositions, second.Book.OpenPositions)
	assert.Equal(t, first.Params, second.Params)
}

func TestReset(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})
	e := newTestEngine(t, cfg, feed, nil)

	declineThenTick(t, e, feed)
	require.Len(t, e.Summary().Book.OpenPositions, 1)

	e.Reset(t0.Add(3*time.Hour), 0, nil)

	s := e.Summary()
	assert.Empty(t, s.Book.OpenPositions)
	assert.InDelta(t, cfg.Account.Balance, s.Book.Cash, 1e-9)
	assert.Zero(t, s.Book.WinCount)
}

func TestResetSeedsCashAndHoldings(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})
	e := newTestEngine(t, cfg, feed, nil)

	e.Reset(t0, 5000, map[string]float64{"token": 10})

	s := e.Summary()
	assert.InDelta(t, 5000, s.Book.Cash, 1e-9)
	assert.InDelta(t, 10, s.Book.Holdings["token"], 1e-9)
}

func TestEmergencyStopSurvivesRestart(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	feed := market.NewStaticFeed(map[string]float64{"token": 100})

	e := newTestEngine(t, cfg, feed, nil)
	e.EmergencyStop("manual halt")

	e2 := newTestEngine(t, cfg, feed, nil)
	s := e2.Summary()
	assert.True(t, s.Stopped)
	assert.Equal(t, "manual halt", s.StopReason)
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Trading.Strategy = "astrology"

	_, err := New(cfg, market.NewStaticFeed(nil), nil, nil, nil)
	assert.Error(t, err)
}
