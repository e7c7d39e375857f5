// Package etherscan reads ERC-20 transfer history from Etherscan-family
// explorers (etherscan, bscscan, polygonscan share one API).
package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/sources"
)

// DefaultPageSize caps the number of transfers fetched per token.
const DefaultPageSize = 1000

type Client struct {
	chain    string
	base     string
	key      string
	pageSize int
	rest     *resty.Client
	limiter  *rate.Limiter
	metrics  sources.Metrics
}

// Config describes one explorer endpoint.
type Config struct {
	Chain    string
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
	// RPS bounds outbound requests; non-positive disables limiting.
	RPS float64
}

func New(cfg Config, metrics sources.Metrics) *Client {
	r := resty.New()
	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		chain:    cfg.Chain,
		base:     cfg.BaseURL,
		key:      cfg.APIKey,
		pageSize: pageSize,
		rest:     r,
		limiter:  limiter,
		metrics:  sources.OrNop(metrics),
	}
}

// Chain is the chain this explorer serves.
func (c *Client) Chain() string {
	return c.chain
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type tokenTx struct {
	TimeStamp    string `json:"timeStamp"`
	Hash         string `json:"hash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenDecimal string `json:"tokenDecimal"`
	GasPrice     string `json:"gasPrice"`
}

// Transfers returns the most recent transfers of token, newest first. An
// explorer reporting no transactions yields sources.ErrNoData.
func (c *Client) Transfers(ctx context.Context, token string) ([]features.Transfer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.fetch(ctx, token)
	c.metrics.SourceRequestObserve("etherscan_"+c.chain, sources.Since(start), err)
	return out, err
}

func (c *Client) fetch(ctx context.Context, token string) ([]features.Transfer, error) {
	if c.key == "" {
		return nil, fmt.Errorf("etherscan: no API key for chain %s", c.chain)
	}

	addr := features.NormalizeAddress(token)
	result := &apiResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":          "account",
			"action":          "tokentx",
			"contractaddress": addr,
			"page":            "1",
			"offset":          strconv.Itoa(c.pageSize),
			"sort":            "desc",
			"apikey":          c.key,
		}).
		SetResult(result).
		Get(c.base)
	if err != nil {
		return nil, fmt.Errorf("etherscan: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("etherscan: unexpected status %d", resp.StatusCode())
	}

	if result.Status != "1" {
		if strings.Contains(strings.ToLower(result.Message), "no transactions") {
			return nil, fmt.Errorf("etherscan: token %s: %w", addr, sources.ErrNoData)
		}
		var detail string
		_ = json.Unmarshal(result.Result, &detail)
		return nil, fmt.Errorf("etherscan: %s: %s", result.Message, detail)
	}

	var txs []tokenTx
	if err := json.Unmarshal(result.Result, &txs); err != nil {
		return nil, fmt.Errorf("etherscan: decode result: %w", err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("etherscan: token %s: %w", addr, sources.ErrNoData)
	}

	transfers := make([]features.Transfer, 0, len(txs))
	for _, tx := range txs {
		t, err := tx.transfer()
		if err != nil {
			return nil, fmt.Errorf("etherscan: tx %s: %w", tx.Hash, err)
		}
		transfers = append(transfers, t)
	}
	return transfers, nil
}

func (tx tokenTx) transfer() (features.Transfer, error) {
	ts, err := strconv.ParseInt(tx.TimeStamp, 10, 64)
	if err != nil {
		return features.Transfer{}, fmt.Errorf("timestamp %q: %w", tx.TimeStamp, err)
	}
	value, err := ScaleUnits(tx.Value, tx.TokenDecimal)
	if err != nil {
		return features.Transfer{}, fmt.Errorf("value: %w", err)
	}
	gas, err := ScaleUnits(tx.GasPrice, "9")
	if err != nil {
		return features.Transfer{}, fmt.Errorf("gas price: %w", err)
	}
	return features.Transfer{
		From:      features.NormalizeAddress(tx.From),
		To:        features.NormalizeAddress(tx.To),
		Value:     value,
		GasPrice:  gas,
		Timestamp: ts,
	}, nil
}

// ScaleUnits converts an integer base-unit amount into whole units given the
// token's decimals. Empty amounts are zero; empty decimals mean 18.
func ScaleUnits(raw, decimals string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	d := int64(18)
	if s := strings.TrimSpace(decimals); s != "" {
		if d, err = strconv.ParseInt(s, 10, 32); err != nil {
			return 0, fmt.Errorf("decimals %q: %w", decimals, err)
		}
	}
	return amount.Shift(-int32(d)).InexactFloat64(), nil
}
