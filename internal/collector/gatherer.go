// Package collector gathers raw token evidence from the configured sources,
// labels it with the heuristic scorer and stores it in the training corpus.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mollybeach/ai-rug-checker/internal/common"
	"github.com/mollybeach/ai-rug-checker/internal/features"
)

// ErrNoEvidence is returned when every source failed for a token.
var ErrNoEvidence = errors.New("no evidence available")

// TransferSource returns a token's transfer history, newest first.
type TransferSource interface {
	Transfers(ctx context.Context, token string) ([]features.Transfer, error)
}

// MarketSource returns a token's market snapshot.
type MarketSource interface {
	Snapshot(ctx context.Context, token string) (*features.MarketSnapshot, error)
}

// Gatherer fetches transfer history and the market snapshot concurrently.
// A failing source degrades to missing data; it never fails the gather.
type Gatherer struct {
	market    MarketSource
	transfers map[string]TransferSource
}

// NewGatherer wires one market source and a transfer source per chain.
// Either may be nil or empty.
func NewGatherer(market MarketSource, transfers map[string]TransferSource) *Gatherer {
	byChain := make(map[string]TransferSource, len(transfers))
	for chain, src := range transfers {
		byChain[NormalizeChain(chain)] = src
	}
	return &Gatherer{market: market, transfers: byChain}
}

// Gathered is evidence plus the source errors met while collecting it.
type Gathered struct {
	Evidence    features.Evidence
	TransferErr error
	MarketErr   error
}

// Empty reports whether neither source produced anything.
func (g Gathered) Empty() bool {
	return len(g.Evidence.Transfers) == 0 && g.Evidence.Market == nil
}

// Gather collects evidence for token on chain. It only fails when ctx ends.
func (g *Gatherer) Gather(ctx context.Context, token, chain string) (Gathered, error) {
	chain = NormalizeChain(chain)
	out := Gathered{Evidence: features.Evidence{
		Token: features.NormalizeAddress(token),
		Chain: chain,
	}}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		src, ok := g.transfers[chain]
		if !ok || src == nil {
			out.TransferErr = fmt.Errorf("no transfer source for chain %s", chain)
			return nil
		}
		transfers, err := src.Transfers(gctx, out.Evidence.Token)
		if err != nil {
			out.TransferErr = err
			return nil
		}
		out.Evidence.Transfers = transfers
		return nil
	})
	grp.Go(func() error {
		if g.market == nil {
			out.MarketErr = errors.New("no market source configured")
			return nil
		}
		snap, err := g.market.Snapshot(gctx, out.Evidence.Token)
		if err != nil {
			out.MarketErr = err
			return nil
		}
		out.Evidence.Market = snap
		return nil
	})
	_ = grp.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}

	if out.TransferErr != nil {
		log.Warn().Err(out.TransferErr).Str("token", out.Evidence.Token).Str("chain", chain).
			Msg("Transfer history unavailable, treating as missing")
	}
	if out.MarketErr != nil {
		log.Warn().Err(out.MarketErr).Str("token", out.Evidence.Token).Str("chain", chain).
			Msg("Market snapshot unavailable, treating as missing")
	}
	return out, nil
}

// NormalizeChain lower-cases chain, defaulting to ethereum.
func NormalizeChain(chain string) string {
	chain = strings.ToLower(strings.TrimSpace(chain))
	if chain == "" {
		return common.ChainEthereum
	}
	return chain
}
