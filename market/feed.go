package market

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// Feed supplies the current price for a symbol. Implementations must
// bound their own I/O; the engine treats any error as recoverable.
type Feed interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// FallbackPolicy controls what a FallbackFeed returns when the
// underlying feed fails for a symbol that has been priced before.
type FallbackPolicy string

const (
	// FallbackHold repeats the last known price. Deterministic; the default.
	FallbackHold FallbackPolicy = "hold"
	// FallbackJitter perturbs the last known price by up to ±0.5% using
	// a seeded generator, simulating market noise during an outage.
	FallbackJitter FallbackPolicy = "jitter"
)

// FallbackFeed wraps a Feed with the outage policy from the engine's
// contract: on error it falls back to the last known price for the
// symbol, and never fabricates a price for a symbol it has not seen.
type FallbackFeed struct {
	mu     sync.Mutex
	feed   Feed
	policy FallbackPolicy
	last   map[string]float64
	rng    *rand.Rand
}

func NewFallbackFeed(feed Feed, policy FallbackPolicy, seed int64) *FallbackFeed {
	if policy != FallbackJitter {
		policy = FallbackHold
	}
	return &FallbackFeed{
		feed:   feed,
		policy: policy,
		last:   make(map[string]float64),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Price fetches from the wrapped feed, remembering successful results.
// A failure with no prior sample propagates the error so the caller
// can skip the symbol for this tick.
func (f *FallbackFeed) Price(ctx context.Context, symbol string) (float64, error) {
	p, err := f.feed.Price(ctx, symbol)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		if p <= 0 {
			return 0, fmt.Errorf("feed %q: %w: %v", symbol, ErrInvalidPrice, p)
		}
		f.last[symbol] = p
		return p, nil
	}

	prev, ok := f.last[symbol]
	if !ok {
		return 0, fmt.Errorf("feed %q: no prior sample: %w", symbol, err)
	}
	if f.policy == FallbackJitter {
		prev *= 1 + (f.rng.Float64()-0.5)*0.01
	}
	return prev, nil
}

// StaticFeed serves fixed prices from a map. Used in tests and for
// offline simulation runs.
type StaticFeed struct {
	mu     sync.Mutex
	prices map[string]float64
}

func NewStaticFeed(prices map[string]float64) *StaticFeed {
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &StaticFeed{prices: cp}
}

func (s *StaticFeed) Price(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("static feed: no price for %q", symbol)
	}
	return p, nil
}

// Set updates the served price for symbol.
func (s *StaticFeed) Set(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}
