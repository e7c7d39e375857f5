package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/common"
	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

var chains = []string{common.ChainEthereum, common.ChainBSC, common.ChainPolygon}

func main() {
	var (
		dataPath = flag.String("data", "data", "Data directory path")
		count    = flag.Int("n", 200, "Number of tokens to generate")
		rugShare = flag.Float64("rug-share", 0.4, "Share of tokens generated with rug-like evidence")
		seed     = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := os.MkdirAll(*dataPath, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create data dir")
	}
	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open corpus")
	}
	defer store.Close()

	extractor := features.NewExtractor(features.DefaultConfig())
	scorer, err := risk.NewScorer(risk.DefaultConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid scorer config")
	}

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()
	flagged := 0
	for i := 0; i < *count; i++ {
		ev := healthyEvidence(rng)
		if rng.Float64() < *rugShare {
			ev = rugEvidence(rng)
		}
		ev.Token = fmt.Sprintf("0x%040x", rng.Uint64())
		ev.Chain = chains[rng.Intn(len(chains))]

		fv, aux := extractor.Extract(ev)
		rug, reason := scorer.Score(fv, aux)
		if rug {
			flagged++
		}
		rec := storage.LabeledRecord{
			Token:     ev.Token,
			Chain:     ev.Chain,
			Name:      ev.Market.Name,
			Symbol:    ev.Market.Symbol,
			Features:  fv,
			Aux:       aux,
			IsRugPull: rug,
			Reason:    reason,
		}
		if err := store.Upsert(ctx, rec); err != nil {
			log.Fatal().Err(err).Str("token", rec.Token).Msg("failed to store record")
		}
	}

	n, _ := store.Count(ctx)
	log.Info().Int("generated", *count).Int("flagged", flagged).Int("corpus_size", n).Msg("Synthetic corpus written")
}

func healthyEvidence(rng *rand.Rand) features.Evidence {
	transfers := make([]features.Transfer, 60+rng.Intn(140))
	ts := int64(1700000000)
	for i := range transfers {
		ts -= int64(30 + rng.Intn(600))
		transfers[i] = features.Transfer{
			From:      fmt.Sprintf("0xholder%04d", rng.Intn(500)),
			To:        fmt.Sprintf("0xholder%04d", rng.Intn(500)),
			Value:     rng.ExpFloat64() * 1000,
			GasPrice:  20 + rng.Float64()*10,
			Timestamp: ts,
		}
	}
	volume := 100000 + rng.Float64()*900000
	buys := 300 + rng.Intn(700)
	return features.Evidence{
		Transfers: transfers,
		Market: &features.MarketSnapshot{
			Name:         "Synthetic Healthy",
			Symbol:       "HLTH",
			PriceUSD:     0.5 + rng.Float64()*5,
			Volume:       features.Windows{H24: volume, H6: volume / 4, H1: volume / 24},
			LiquidityUSD: 500000 + rng.Float64()*5000000,
			PriceChange:  features.Windows{H24: rng.NormFloat64() * 4, H6: rng.NormFloat64() * 2, H1: rng.NormFloat64()},
			Txns24h:      features.TxnCounts{Buys: buys, Sells: buys - 50 + rng.Intn(100)},
			MarketCap:    20000000 + rng.Float64()*200000000,
		},
	}
}

// rugEvidence has a few wallets moving near-identical amounts on a fixed
// cadence into a thin pool with heavy selling.
func rugEvidence(rng *rand.Rand) features.Evidence {
	transfers := make([]features.Transfer, 20+rng.Intn(40))
	ts := int64(1700000000)
	for i := range transfers {
		ts -= 60
		transfers[i] = features.Transfer{
			From:      fmt.Sprintf("0xdev%d", rng.Intn(3)),
			To:        "0xpool",
			Value:     10000 * (1 + rng.Float64()*0.01),
			GasPrice:  200 + rng.Float64()*50,
			Timestamp: ts,
		}
	}
	hourly := 5000 + rng.Float64()*20000
	sells := 200 + rng.Intn(300)
	return features.Evidence{
		Transfers: transfers,
		Market: &features.MarketSnapshot{
			Name:         "Synthetic Rug",
			Symbol:       "RUG",
			PriceUSD:     rng.Float64() * 0.001,
			Volume:       features.Windows{H24: hourly * 2, H6: hourly * 1.5, H1: hourly},
			LiquidityUSD: 500 + rng.Float64()*5000,
			PriceChange:  features.Windows{H24: -60 - rng.Float64()*35, H6: -40, H1: -25},
			Txns24h:      features.TxnCounts{Buys: sells / 5, Sells: sells},
			MarketCap:    20000 + rng.Float64()*80000,
		},
	}
}
