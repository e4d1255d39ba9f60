// Package coingecko implements a live price feed on the CoinGecko
// free API. Symbols are CoinGecko coin ids ("bitcoin", "ethereum").
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// minRequestGap keeps the client inside the free tier's rate limit
// (roughly 8 requests per minute).
const minRequestGap = 7500 * time.Millisecond

// Client fetches spot prices and liquidity figures. It satisfies
// market.Feed.
type Client struct {
	client   *http.Client
	baseURL  string
	currency string
	gap      time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at an alternate endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithRequestGap overrides the spacing between requests. Used in tests.
func WithRequestGap(d time.Duration) Option {
	return func(c *Client) { c.gap = d }
}

// New creates a client quoting in the given vs-currency ("usd" when
// empty).
func New(currency string, opts ...Option) *Client {
	if currency == "" {
		currency = "usd"
	}
	c := &Client{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  defaultBaseURL,
		currency: currency,
		gap:      minRequestGap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Price returns the current spot price for one coin id.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	quotes, err := c.fetchSimple(ctx, []string{symbol}, false)
	if err != nil {
		return 0, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return 0, fmt.Errorf("coingecko: unknown coin id %q", symbol)
	}
	if q.Price <= 0 {
		return 0, fmt.Errorf("coingecko %q: %w: %v", symbol, market.ErrInvalidPrice, q.Price)
	}
	return q.Price, nil
}

// Quote is one coin's spot price with its liquidity figures.
type Quote struct {
	Price     float64
	VolumeUSD float64
	MarketCap float64
}

// Quotes fetches prices plus 24h volume and market cap for several
// coin ids in a single request.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	return c.fetchSimple(ctx, symbols, true)
}

// Tokens converts quotes into the liquidity table the risk provider
// consumes.
func (c *Client) Tokens(ctx context.Context, symbols []string) (map[string]market.TokenInfo, error) {
	quotes, err := c.fetchSimple(ctx, symbols, true)
	if err != nil {
		return nil, err
	}
	out := make(map[string]market.TokenInfo, len(quotes))
	for sym, q := range quotes {
		out[sym] = market.TokenInfo{VolumeUSD: q.VolumeUSD, MarketCapUSD: q.MarketCap}
	}
	return out, nil
}

func (c *Client) fetchSimple(ctx context.Context, symbols []string, liquidity bool) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("coingecko: no coin ids given")
	}

	q := url.Values{}
	q.Set("ids", strings.Join(symbols, ","))
	q.Set("vs_currencies", c.currency)
	if liquidity {
		q.Set("include_24hr_vol", "true")
		q.Set("include_market_cap", "true")
	}

	body, err := c.doRequest(ctx, c.baseURL+"/simple/price?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	// Response shape: {"bitcoin": {"usd": 97000, "usd_market_cap": ..., "usd_24h_vol": ...}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse prices: %w", err)
	}

	out := make(map[string]Quote, len(raw))
	for sym, fields := range raw {
		out[sym] = Quote{
			Price:     fields[c.currency],
			VolumeUSD: fields[c.currency+"_24h_vol"],
			MarketCap: fields[c.currency+"_market_cap"],
		}
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, u string) ([]byte, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// throttle spaces requests out to respect the free tier rate limit.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	wait := c.gap - time.Since(c.lastCall)
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
