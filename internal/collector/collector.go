package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

// MetricsInterface is what the collector records.
type MetricsInterface interface {
	CorpusUpsertInc()
	CorpusSizeSet(n int)
}

// Collector turns a token address into a labeled corpus record.
type Collector struct {
	gatherer    *Gatherer
	extractor   *features.Extractor
	scorer      *risk.Scorer
	corpus      storage.Corpus
	metrics     MetricsInterface
	concurrency int
}

// New returns a collector. concurrency bounds CollectBatch; values below 1
// mean 1.
func New(g *Gatherer, e *features.Extractor, s *risk.Scorer, corpus storage.Corpus, metrics MetricsInterface, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		gatherer:    g,
		extractor:   e,
		scorer:      s,
		corpus:      corpus,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Collect gathers evidence, labels it with the heuristic scorer and upserts
// the record. It returns ErrNoEvidence without writing when every source
// failed.
func (c *Collector) Collect(ctx context.Context, token, chain string) (storage.LabeledRecord, error) {
	if features.NormalizeAddress(token) == "" {
		return storage.LabeledRecord{}, fmt.Errorf("empty token address")
	}

	got, err := c.gatherer.Gather(ctx, token, chain)
	if err != nil {
		return storage.LabeledRecord{}, err
	}
	if got.Empty() {
		return storage.LabeledRecord{}, fmt.Errorf("token %s: %w", got.Evidence.Token, ErrNoEvidence)
	}

	fv, aux, gaps := c.extractor.ExtractWithGaps(got.Evidence)
	rug, reason := c.scorer.Score(fv, aux)

	rec := storage.LabeledRecord{
		Token:     got.Evidence.Token,
		Chain:     got.Evidence.Chain,
		Features:  fv,
		Aux:       aux,
		IsRugPull: rug,
		Reason:    reason,
	}
	if m := got.Evidence.Market; m != nil {
		rec.Name, rec.Symbol = m.Name, m.Symbol
	}

	if err := c.corpus.Upsert(ctx, rec); err != nil {
		return storage.LabeledRecord{}, fmt.Errorf("store record %s: %w", rec.Token, err)
	}
	if c.metrics != nil {
		c.metrics.CorpusUpsertInc()
	}

	log.Info().
		Str("token", rec.Token).
		Str("chain", rec.Chain).
		Bool("rug_pull", rug).
		Int("transfers", len(got.Evidence.Transfers)).
		Int("data_gaps", len(gaps)).
		Msg("Token collected")
	return rec, nil
}

// BatchResult summarizes a CollectBatch run.
type BatchResult struct {
	Stored   int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// CollectBatch collects tokens with bounded concurrency. Per-token failures
// are logged and counted; only context cancellation aborts the batch.
func (c *Collector) CollectBatch(ctx context.Context, tokens []string, chain string) (BatchResult, error) {
	start := time.Now()
	var stored, skipped, failed atomic.Int64

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(c.concurrency)
	for _, tok := range tokens {
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := c.Collect(gctx, tok, chain)
			switch {
			case err == nil:
				stored.Add(1)
			case errors.Is(err, ErrNoEvidence):
				skipped.Add(1)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				failed.Add(1)
				log.Error().Err(err).Str("token", tok).Str("chain", chain).Msg("Collect failed")
			}
			return nil
		})
	}
	err := grp.Wait()

	res := BatchResult{
		Stored:   int(stored.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	c.refreshSize(ctx)
	return res, err
}

func (c *Collector) refreshSize(ctx context.Context) {
	if c.metrics == nil {
		return
	}
	n, err := c.corpus.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count corpus")
		return
	}
	c.metrics.CorpusSizeSet(n)
}
