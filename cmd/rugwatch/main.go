package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/analyzer"
	"github.com/mollybeach/ai-rug-checker/internal/backends"
	"github.com/mollybeach/ai-rug-checker/internal/cfg"
	"github.com/mollybeach/ai-rug-checker/internal/chain"
	"github.com/mollybeach/ai-rug-checker/internal/collector"
	"github.com/mollybeach/ai-rug-checker/internal/common"
	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/metrics"
	"github.com/mollybeach/ai-rug-checker/internal/ml"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
	"github.com/mollybeach/ai-rug-checker/internal/server"
	"github.com/mollybeach/ai-rug-checker/internal/sources/dexscreener"
	"github.com/mollybeach/ai-rug-checker/internal/sources/etherscan"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

func main() {
	var (
		scan      = flag.Bool("scan", false, "Discover new contracts on chain and collect them into the corpus")
		scanLimit = flag.Int("scan-limit", 50, "Maximum contracts collected per chain per scan")
		retrain   = flag.Bool("retrain", false, "Retrain the classifier every ML training interval")
	)
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	backends.SetupLogging(c.LogLevel, c.LogFormat)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	corpus, err := backends.OpenCorpus(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("corpus initialization failed")
	}
	defer corpus.Close()

	modelStore, err := backends.OpenModelStore(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("model store initialization failed")
	}

	extractor := features.NewExtractorWithMetrics(c.ExtractorConfig(), mw)
	scorer, err := risk.NewScorer(c.ScorerConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid scoring configuration")
	}

	backend := ml.NewDeepBackend()
	predictor := ml.NewPredictor(backend, modelStore, c.ModelKey, mw)
	if err := predictor.Reload(ctx); err != nil {
		log.Warn().Err(err).Bool("fallback", c.FallbackToHeuristic).Msg("No classifier loaded at startup")
	}

	gatherer, scanners, closeSources := initializeSources(ctx, c, mw)
	defer closeSources()

	opts := []analyzer.Option{
		analyzer.WithEvidence(gatherer),
		analyzer.WithMetrics(mw),
		analyzer.WithFallback(ml.NewFallbackPredictor(mw)),
	}
	cache, closeCache, err := backends.OpenCache(ctx, c)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without assessment cache")
	} else if cache != nil {
		opts = append(opts, analyzer.WithCache(cache))
	}
	defer closeCache()

	az := analyzer.New(analyzer.Config{
		ProbThreshold:       c.ProbThreshold,
		FallbackToHeuristic: c.FallbackToHeuristic,
	}, extractor, scorer, predictor, opts...)

	var wg sync.WaitGroup

	startMetricsServer(ctx, c)

	srv := server.New(server.Config{Port: c.APIPort, APIKey: c.APIKey}, az, predictor, corpus, server.WithMetrics(mw))
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	if *scan {
		col := collector.New(gatherer, extractor, scorer, corpus, mw, c.CollectConcurrency)
		startScanLoop(ctx, &wg, scanners, col, c.ScanInterval, *scanLimit)
	}
	if *retrain && c.TrainInterval > 0 {
		trainer := ml.NewTrainer(backend, modelStore, c.TrainerConfig(), mw)
		startTrainLoop(ctx, &wg, trainer, predictor, corpus, c.TrainInterval)
	}

	waitForShutdown(ctx, cancel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown API server")
	}
	waitForGoroutines(&wg, 10*time.Second)
}

// initializeSources builds the market source, one transfer source per
// configured chain, and block scanners where an RPC endpoint is available.
func initializeSources(ctx context.Context, c cfg.Settings, mw *metrics.MetricsWrapper) (*collector.Gatherer, map[string]*chain.Scanner, func()) {
	market := dexscreener.New(c.DexScreenerURL, c.RESTTimeout, c.SourceRPS, mw)

	transfers := make(map[string]collector.TransferSource)
	scanners := make(map[string]*chain.Scanner)
	closeFn := func() {}

	if c.RPCURL != "" {
		eth, err := chain.Dial(ctx, c.RPCURL)
		if err != nil {
			log.Warn().Err(err).Msg("RPC dial failed, on-chain sources disabled")
		} else {
			closeFn = eth.Close
			transfers[common.ChainEthereum] = chain.NewTransferReader(eth, 0)
			scanners[common.ChainEthereum] = chain.NewScanner(eth, common.ChainEthereum, uint64(c.ScanBlocks), mw)
		}
	}

	// Explorer history is preferred over raw logs: it carries gas prices and
	// real token decimals.
	for _, ch := range c.Chains {
		key := c.ExplorerKey(ch)
		if key == "" {
			if _, ok := transfers[ch]; !ok {
				log.Warn().Str("chain", ch).Msg("No explorer key or RPC endpoint, transfer history unavailable")
			}
			continue
		}
		transfers[ch] = etherscan.New(etherscan.Config{
			Chain:   ch,
			BaseURL: common.ExplorerURLs[ch],
			APIKey:  key,
			Timeout: c.RESTTimeout,
			RPS:     c.SourceRPS,
		}, mw)
	}

	return collector.NewGatherer(market, transfers), scanners, closeFn
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startScanLoop periodically discovers new contracts and collects them.
func startScanLoop(ctx context.Context, wg *sync.WaitGroup, scanners map[string]*chain.Scanner,
	col *collector.Collector, interval time.Duration, limit int,
) {
	if len(scanners) == 0 {
		log.Warn().Msg("Scan requested but no RPC endpoint is configured")
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			for ch, sc := range scanners {
				scanOnce(ctx, ch, sc, col, limit)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func scanOnce(ctx context.Context, ch string, sc *chain.Scanner, col *collector.Collector, limit int) {
	tokens, err := sc.Discover(ctx, limit)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Str("chain", ch).Msg("Contract discovery failed")
		}
		return
	}
	if len(tokens) == 0 {
		return
	}
	res, err := col.CollectBatch(ctx, tokens, ch)
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Str("chain", ch).Msg("Collect batch failed")
	}
	log.Info().
		Str("chain", ch).
		Int("discovered", len(tokens)).
		Int("stored", res.Stored).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Dur("took", res.Duration).
		Msg("Scan complete")
}

// startTrainLoop retrains from the corpus on a fixed interval and swaps the
// new model into the predictor.
func startTrainLoop(ctx context.Context, wg *sync.WaitGroup, trainer *ml.Trainer, predictor *ml.Predictor,
	corpus storage.Corpus, interval time.Duration,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				retrain(ctx, trainer, predictor, corpus)
			}
		}
	}()
}

func retrain(ctx context.Context, trainer *ml.Trainer, predictor *ml.Predictor, corpus storage.Corpus) {
	records, err := corpus.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load corpus for training")
		return
	}
	report, err := trainer.Train(ctx, records)
	if err != nil {
		if errors.Is(err, ml.ErrEmptyDataset) {
			log.Info().Msg("Corpus is empty, skipping training")
		}
		return
	}
	if err := predictor.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to reload retrained model")
		return
	}
	log.Info().
		Str("run_id", report.Metadata.RunID).
		Int("samples", report.Metadata.Samples).
		Float64("accuracy", report.Metadata.TrainMetrics.Accuracy).
		Msg("Model retrained and reloaded")
}

// waitForShutdown blocks until a signal arrives or ctx is cancelled.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()
}

func waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(timeout):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
