package market

// View is everything a strategy may look at for one symbol in one tick.
type View struct {
	Symbol  string
	History *History
	Regime  Regime
	// Quotes carries per-venue prices for the same symbol, when more
	// than one venue is configured. Used by the arbitrage strategy.
	Quotes map[string]float64
}

// Provider supplies the per-symbol inputs the risk manager scores:
// realized volatility plus liquidity proxies.
type Provider interface {
	Volatility(symbol string) float64
	Volume(symbol string) float64
	MarketCap(symbol string) float64
}

// TokenInfo is the static liquidity data configured per symbol.
type TokenInfo struct {
	VolumeUSD    float64 `json:"volume_usd" yaml:"volume_usd"`
	MarketCapUSD float64 `json:"market_cap_usd" yaml:"market_cap_usd"`
}

// HistoryProvider derives volatility from live price histories and
// serves liquidity figures from static token info.
type HistoryProvider struct {
	Histories map[string]*History
	Tokens    map[string]TokenInfo
}

func (p *HistoryProvider) Volatility(symbol string) float64 {
	if h, ok := p.Histories[symbol]; ok {
		return RealizedVolatility(h)
	}
	return 0
}

func (p *HistoryProvider) Volume(symbol string) float64 {
	return p.Tokens[symbol].VolumeUSD
}

func (p *HistoryProvider) MarketCap(symbol string) float64 {
	return p.Tokens[symbol].MarketCapUSD
}
