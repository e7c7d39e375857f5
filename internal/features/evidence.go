// Package features turns raw token evidence (transfer history plus a market
// snapshot) into the fixed six-dimensional risk vector and the auxiliary
// signals consumed by the heuristic scorer.
//
// Every feature is normalized to [0,1] where higher always means riskier.
// Missing evidence never fails extraction; it resolves to documented defaults
// selected by DefaultsPolicy.
package features

import "strings"

// Transfer is a single token transfer observed on chain.
type Transfer struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Value     float64 `json:"value"`
	GasPrice  float64 `json:"gasPrice"`
	Timestamp int64   `json:"timestamp"`
}

// Windows holds a figure reported over the 24h, 6h and 1h windows.
type Windows struct {
	H24 float64 `json:"h24"`
	H6  float64 `json:"h6"`
	H1  float64 `json:"h1"`
}

// TxnCounts are buy/sell transaction counts for a window.
type TxnCounts struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// MarketSnapshot is the off-chain market view of a token's main pool.
// Zero values mean the source did not report the figure.
type MarketSnapshot struct {
	Name         string    `json:"name,omitempty"`
	Symbol       string    `json:"symbol,omitempty"`
	PriceUSD     float64   `json:"priceUsd"`
	Volume       Windows   `json:"volume"`
	LiquidityUSD float64   `json:"liquidityUsd"`
	PriceChange  Windows   `json:"priceChange"`
	Txns24h      TxnCounts `json:"txns24h"`
	MarketCap    float64   `json:"marketCap"`
	FDV          float64   `json:"fdv"`
}

// Evidence is everything known about a token at analysis time. A nil Market
// means no snapshot could be obtained.
type Evidence struct {
	Token     string          `json:"token"`
	Chain     string          `json:"chain"`
	Transfers []Transfer      `json:"transfers"`
	Market    *MarketSnapshot `json:"market,omitempty"`
}

// NormalizeAddress lower-cases and trims an address so that checksummed and
// plain hex forms compare equal.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
