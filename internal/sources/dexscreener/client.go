// Package dexscreener fetches market snapshots from the DexScreener API.
package dexscreener

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/sources"
)

const sourceName = "dexscreener"

type Client struct {
	base    string
	rest    *resty.Client
	limiter *rate.Limiter
	metrics sources.Metrics
}

// New builds a client against base (e.g. https://api.dexscreener.com).
// rps bounds outbound requests; a non-positive value disables limiting.
func New(base string, timeout time.Duration, rps float64, metrics sources.Metrics) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	r.SetHeader("Accept", "application/json")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		rest:    r,
		limiter: limiter,
		metrics: sources.OrNop(metrics),
	}
}

type tokenResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string           `json:"priceUsd"`
	Volume      features.Windows `json:"volume"`
	PriceChange features.Windows `json:"priceChange"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Txns struct {
		H24 features.TxnCounts `json:"h24"`
	} `json:"txns"`
	MarketCap float64 `json:"marketCap"`
	FDV       float64 `json:"fdv"`
}

// Snapshot returns the market view of token's deepest pool. It returns
// sources.ErrNoData when DexScreener lists no pairs.
func (c *Client) Snapshot(ctx context.Context, token string) (*features.MarketSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	snap, err := c.fetch(ctx, token)
	c.metrics.SourceRequestObserve(sourceName, sources.Since(start), err)
	return snap, err
}

func (c *Client) fetch(ctx context.Context, token string) (*features.MarketSnapshot, error) {
	addr := features.NormalizeAddress(token)
	result := &tokenResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetPathParam("address", addr).
		Get(c.base + "/latest/dex/tokens/{address}")
	if err != nil {
		return nil, fmt.Errorf("dexscreener: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("dexscreener: unexpected status %d", resp.StatusCode())
	}

	best, ok := deepestPair(result.Pairs, addr)
	if !ok {
		return nil, fmt.Errorf("dexscreener: token %s: %w", addr, sources.ErrNoData)
	}
	return best.snapshot(), nil
}

// deepestPair picks the pair with the highest USD liquidity, preferring pairs
// where token is the base asset.
func deepestPair(pairs []pair, token string) (pair, bool) {
	var (
		best   pair
		found  bool
		asBase bool
	)
	for _, p := range pairs {
		isBase := features.NormalizeAddress(p.BaseToken.Address) == token
		switch {
		case !found:
		case isBase && !asBase:
		case isBase == asBase && p.Liquidity.USD > best.Liquidity.USD:
		default:
			continue
		}
		best, found, asBase = p, true, isBase
	}
	return best, found
}

func (p pair) snapshot() *features.MarketSnapshot {
	price := 0.0
	if d, err := decimal.NewFromString(strings.TrimSpace(p.PriceUSD)); err == nil {
		price = d.InexactFloat64()
	}
	return &features.MarketSnapshot{
		Name:         p.BaseToken.Name,
		Symbol:       p.BaseToken.Symbol,
		PriceUSD:     price,
		Volume:       p.Volume,
		LiquidityUSD: p.Liquidity.USD,
		PriceChange:  p.PriceChange,
		Txns24h:      p.Txns.H24,
		MarketCap:    p.MarketCap,
		FDV:          p.FDV,
	}
}
