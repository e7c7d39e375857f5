package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/backends"
	"github.com/mollybeach/ai-rug-checker/internal/cfg"
	"github.com/mollybeach/ai-rug-checker/internal/ml"
	"github.com/mollybeach/ai-rug-checker/internal/stats"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

func main() {
	var (
		evalOnly = flag.Bool("eval", false, "Evaluate the stored model against the corpus instead of training")
		epochs   = flag.Int("epochs", 0, "Override the configured number of epochs")
		seed     = flag.Int64("seed", 0, "Shuffle seed (0 picks one from the clock)")
		chain    = flag.String("chain", "", "Only use records from this chain")
	)
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	backends.SetupLogging(c.LogLevel, c.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	corpus, err := backends.OpenCorpus(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("corpus initialization failed")
	}
	defer corpus.Close()

	modelStore, err := backends.OpenModelStore(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("model store initialization failed")
	}

	records, err := corpus.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load corpus")
	}
	records = filterChain(records, *chain)

	summary := stats.Summarize(records, time.Now().UTC())
	log.Info().
		Int("records", summary.TotalCount).
		Int("rug_pulls", summary.RugPullCount).
		Float64("rug_pull_rate", summary.RugPullRate).
		Msg("Corpus loaded")

	backend := ml.NewDeepBackend()
	if *evalOnly {
		predictor := ml.NewPredictor(backend, modelStore, c.ModelKey, nil)
		ev, err := predictor.EvaluateRecords(ctx, records, c.ProbThreshold)
		if err != nil {
			log.Fatal().Err(err).Msg("evaluation failed")
		}
		printJSON(ev)
		return
	}

	tc := c.TrainerConfig()
	if *epochs > 0 {
		tc.Epochs = *epochs
	}
	tc.Seed = *seed

	report, err := ml.NewTrainer(backend, modelStore, tc, nil).Train(ctx, records)
	if err != nil {
		if errors.Is(err, ml.ErrEmptyDataset) {
			log.Fatal().Msg("corpus is empty, collect tokens first")
		}
		log.Fatal().Err(err).Msg("training failed")
	}
	printJSON(report.Metadata)
}

func filterChain(records []storage.LabeledRecord, chain string) []storage.LabeledRecord {
	if chain == "" {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if r.Chain == chain {
			out = append(out, r)
		}
	}
	return out
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode result")
	}
	fmt.Println(string(data))
}
