package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

// MetricsInterface defines metrics methods needed by the trainer and predictor
type MetricsInterface interface {
	MLPredictionsInc()
	MLFailuresInc()
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
	MLAccuracyObserve(float64)
	MLPredictionScoresObserve(float64)
	MLFallbackUseInc()
	MLModelLoadsInc()
	TrainingRunsInc()
	TrainingFailuresInc()
	TrainingDurationObserve(float64)
	TrainingSamplesSet(float64)
}

type loadedModel struct {
	clf  Classifier
	meta *ModelMetadata
}

// Predictor serves probabilities from the artifact stored under a model
// key. The artifact is loaded on first use and kept until Reload.
type Predictor struct {
	backend  Backend
	store    ModelStore
	models   *ModelManager
	modelKey string
	metrics  MetricsInterface

	loadMu sync.Mutex
	model  atomic.Pointer[loadedModel]
}

func NewPredictor(backend Backend, store ModelStore, modelKey string, metrics MetricsInterface) *Predictor {
	return &Predictor{
		backend:  backend,
		store:    store,
		models:   NewModelManager(store),
		modelKey: modelKey,
		metrics:  metrics,
	}
}

// Predict returns the rug-pull probability for fv. Auxiliary signals are
// accepted for interface parity with the heuristic predictor and are not
// model inputs.
func (p *Predictor) Predict(ctx context.Context, fv features.FeatureVector, _ features.AuxiliarySignals) (float64, error) {
	return p.PredictVector(ctx, fv.Slice())
}

// PredictVector scores a raw input row.
func (p *Predictor) PredictVector(ctx context.Context, x []float64) (float64, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	m, err := p.ensureLoaded(ctx)
	if err != nil {
		return 0, err
	}

	prob, err := m.clf.Predict(x)
	if err != nil {
		if p.metrics != nil {
			p.metrics.MLFailuresInc()
		}
		return 0, err
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc()
		p.metrics.MLPredictionScoresObserve(prob)
		if m.meta != nil {
			p.metrics.MLModelAgeSet(time.Since(m.meta.TrainedAt).Seconds())
		}
	}
	return prob, nil
}

// Loaded reports whether a classifier is in memory.
func (p *Predictor) Loaded() bool {
	return p.model.Load() != nil
}

// Metadata returns the metadata of the loaded model, loading it if needed.
func (p *Predictor) Metadata(ctx context.Context) (*ModelMetadata, error) {
	m, err := p.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if m.meta == nil {
		return nil, fmt.Errorf("%w: no metadata for %q", ErrModelNotLoaded, p.modelKey)
	}
	meta := *m.meta
	return &meta, nil
}

// Reload reads the artifact again and swaps it in. On failure the current
// model stays active.
func (p *Predictor) Reload(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	m, err := p.load(ctx)
	if err != nil {
		return err
	}
	p.model.Store(m)
	return nil
}

func (p *Predictor) ensureLoaded(ctx context.Context) (*loadedModel, error) {
	if m := p.model.Load(); m != nil {
		return m, nil
	}

	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if m := p.model.Load(); m != nil {
		return m, nil
	}

	m, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	p.model.Store(m)
	return m, nil
}

func (p *Predictor) load(ctx context.Context) (*loadedModel, error) {
	data, err := p.store.Load(ctx, p.modelKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: nothing stored under %q", ErrModelNotLoaded, p.modelKey)
		}
		return nil, fmt.Errorf("load model %q: %w", p.modelKey, err)
	}

	clf, err := p.backend.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if clf.InputSize() != features.Arity {
		return nil, &FeatureArityMismatchError{Expected: features.Arity, Got: clf.InputSize()}
	}

	meta, err := p.models.LoadMetadata(ctx, p.modelKey)
	if err != nil {
		log.Warn().Err(err).Str("model_key", p.modelKey).Msg("Model metadata unavailable")
	}

	if p.metrics != nil {
		p.metrics.MLModelLoadsInc()
	}
	ev := log.Info().Str("model_key", p.modelKey).Int("inputs", clf.InputSize())
	if meta != nil {
		ev = ev.Str("run_id", meta.RunID).Time("trained_at", meta.TrainedAt)
	}
	ev.Msg("Classifier loaded")

	return &loadedModel{clf: clf, meta: meta}, nil
}

// EvaluateRecords scores the current model against labeled records at
// cutoff. Records with invalid features are rejected rather than skipped.
func (p *Predictor) EvaluateRecords(ctx context.Context, records []storage.LabeledRecord, cutoff float64) (Evaluation, error) {
	if len(records) == 0 {
		return Evaluation{}, ErrEmptyDataset
	}
	m, err := p.ensureLoaded(ctx)
	if err != nil {
		return Evaluation{}, err
	}

	labels := make([]bool, len(records))
	probs := make([]float64, len(records))
	for i, r := range records {
		if err := r.Features.Validate(); err != nil {
			return Evaluation{}, fmt.Errorf("record %s: %w", r.Key(), err)
		}
		prob, err := m.clf.Predict(r.Features.Slice())
		if err != nil {
			return Evaluation{}, fmt.Errorf("record %s: %w", r.Key(), err)
		}
		labels[i] = r.IsRugPull
		probs[i] = prob
	}
	return Evaluate(labels, probs, cutoff), nil
}
