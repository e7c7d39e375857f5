// Package analyzer runs the inference pipeline for one token: evidence is
// turned into features, scored by the heuristic, and given a rug-pull
// probability by the classifier (or the heuristic when no model exists).
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/collector"
	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/ml"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

// Cache stores recent assessments by token. Get returns storage.ErrNotFound
// on a miss.
type Cache interface {
	Get(ctx context.Context, token string) (risk.Assessment, error)
	Set(ctx context.Context, a risk.Assessment) error
}

// EvidenceSource gathers raw evidence for a token.
type EvidenceSource interface {
	Gather(ctx context.Context, token, chain string) (collector.Gathered, error)
}

// MetricsInterface is what the analyzer records.
type MetricsInterface interface {
	AssessmentInc(source string, rugPull bool)
	CacheHitInc()
	CacheMissInc()
}

type Config struct {
	// ProbThreshold labels a classifier result as a rug pull when the
	// probability exceeds it.
	ProbThreshold float64
	// FallbackToHeuristic answers with the heuristic aggregate when no model
	// has been trained yet instead of failing.
	FallbackToHeuristic bool
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	cfg       Config
	extractor *features.Extractor
	scorer    *risk.Scorer
	predictor ml.PredictorInterface
	fallback  ml.PredictorInterface
	evidence  EvidenceSource
	cache     Cache
	metrics   MetricsInterface
	now       func() time.Time

	subMu  sync.RWMutex
	nextID int
	subs   map[int]chan risk.Assessment
}

// Option configures optional collaborators.
type Option func(*Analyzer)

func WithCache(c Cache) Option                    { return func(a *Analyzer) { a.cache = c } }
func WithEvidence(src EvidenceSource) Option      { return func(a *Analyzer) { a.evidence = src } }
func WithMetrics(m MetricsInterface) Option       { return func(a *Analyzer) { a.metrics = m } }
func WithFallback(p ml.PredictorInterface) Option { return func(a *Analyzer) { a.fallback = p } }

// New builds an analyzer. predictor may be nil, which behaves as if no model
// had been trained.
func New(cfg Config, e *features.Extractor, s *risk.Scorer, predictor ml.PredictorInterface, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:       cfg,
		extractor: e,
		scorer:    s,
		predictor: predictor,
		now:       time.Now,
		subs:      make(map[int]chan risk.Assessment),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fallback == nil {
		a.fallback = ml.NewFallbackPredictor(nil)
	}
	return a
}

// Analyze assesses one token from already-gathered evidence.
func (a *Analyzer) Analyze(ctx context.Context, ev features.Evidence) (risk.Assessment, error) {
	fv, aux, gaps := a.extractor.ExtractWithGaps(ev)
	if len(gaps) > 0 {
		log.Warn().
			Str("token", ev.Token).
			Interface("gaps", gaps).
			Str("policy", string(a.extractor.Config().Defaults)).
			Msg("Features defaulted for missing data")
	}

	heuristicRug, reason := a.scorer.Score(fv, aux)

	prob, source, err := a.probability(ctx, fv, aux)
	if err != nil {
		return risk.Assessment{}, err
	}

	isRug := heuristicRug
	if source == risk.SourceClassifier {
		isRug = prob > a.cfg.ProbThreshold
	}

	assessment := risk.Assessment{
		Token:       features.NormalizeAddress(ev.Token),
		Chain:       ev.Chain,
		Probability: prob,
		Source:      source,
		IsRugPull:   isRug,
		Features:    fv,
		Aux:         aux,
		Reason:      reason,
		Gaps:        gaps,
		AssessedAt:  a.now().UTC(),
	}

	if a.metrics != nil {
		a.metrics.AssessmentInc(string(source), isRug)
	}
	if a.cache != nil {
		if err := a.cache.Set(ctx, assessment); err != nil {
			log.Warn().Err(err).Str("token", assessment.Token).Msg("Failed to cache assessment")
		}
	}
	a.publish(assessment)

	log.Info().
		Str("token", assessment.Token).
		Str("source", string(source)).
		Float64("probability", prob).
		Bool("rug_pull", isRug).
		Msg("Token assessed")
	return assessment, nil
}

func (a *Analyzer) probability(ctx context.Context, fv features.FeatureVector, aux features.AuxiliarySignals) (float64, risk.Source, error) {
	if a.predictor != nil {
		p, err := a.predictor.Predict(ctx, fv, aux)
		if err == nil {
			return p, risk.SourceClassifier, nil
		}
		if !errors.Is(err, ml.ErrModelNotLoaded) {
			return 0, "", fmt.Errorf("predict: %w", err)
		}
	}

	if !a.cfg.FallbackToHeuristic {
		return 0, "", ml.ErrModelNotLoaded
	}
	p, err := a.fallback.Predict(ctx, fv, aux)
	if err != nil {
		return 0, "", fmt.Errorf("heuristic fallback: %w", err)
	}
	return p, risk.SourceHeuristic, nil
}

// AnalyzeToken serves a cached assessment when one exists, otherwise gathers
// evidence and runs Analyze.
func (a *Analyzer) AnalyzeToken(ctx context.Context, token, chain string) (risk.Assessment, error) {
	token = features.NormalizeAddress(token)
	if token == "" {
		return risk.Assessment{}, fmt.Errorf("empty token address")
	}

	if cached, ok := a.Cached(ctx, token); ok {
		return cached, nil
	}
	if a.evidence == nil {
		return risk.Assessment{}, fmt.Errorf("no evidence source configured")
	}

	got, err := a.evidence.Gather(ctx, token, chain)
	if err != nil {
		return risk.Assessment{}, err
	}
	return a.Analyze(ctx, got.Evidence)
}

// Cached looks token up in the assessment cache.
func (a *Analyzer) Cached(ctx context.Context, token string) (risk.Assessment, bool) {
	if a.cache == nil {
		return risk.Assessment{}, false
	}
	cached, err := a.cache.Get(ctx, token)
	switch {
	case err == nil:
		if a.metrics != nil {
			a.metrics.CacheHitInc()
		}
		return cached, true
	case !errors.Is(err, storage.ErrNotFound):
		log.Warn().Err(err).Str("token", token).Msg("Assessment cache lookup failed")
	}
	if a.metrics != nil {
		a.metrics.CacheMissInc()
	}
	return risk.Assessment{}, false
}

// Subscribe returns a channel receiving every new assessment and a func that
// cancels the subscription. Slow subscribers miss assessments rather than
// blocking analysis.
func (a *Analyzer) Subscribe(buffer int) (<-chan risk.Assessment, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan risk.Assessment, buffer)

	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
			close(ch)
		})
	}
}

func (a *Analyzer) publish(as risk.Assessment) {
	a.subMu.RLock()
	defer a.subMu.RUnlock()
	for _, ch := range a.subs {
		select {
		case ch <- as:
		default:
		}
	}
}
