package ml

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/common"
	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

const (
	maxBatchSize       = 32
	validationFraction = 0.2
	minValidationRows  = 10
)

// TrainerConfig controls training runs.
type TrainerConfig struct {
	Epochs       int
	LearningRate float64
	ModelKey     string
	// Seed drives the row shuffle. Zero picks a time-based seed.
	Seed int64
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Epochs:       common.DefaultEpochs,
		LearningRate: common.DefaultLearningRate,
		ModelKey:     common.DefaultModelKey,
	}
}

// TrainingReport summarizes a finished run.
type TrainingReport struct {
	Metadata ModelMetadata
	Duration time.Duration
}

// Trainer fits a classifier on labeled records and persists it.
type Trainer struct {
	mu      sync.Mutex
	backend Backend
	store   ModelStore
	meta    *ModelManager
	cfg     TrainerConfig
	metrics MetricsInterface
	now     func() time.Time
}

func NewTrainer(backend Backend, store ModelStore, cfg TrainerConfig, metrics MetricsInterface) *Trainer {
	if cfg.Epochs <= 0 {
		cfg.Epochs = common.DefaultEpochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = common.DefaultLearningRate
	}
	if cfg.ModelKey == "" {
		cfg.ModelKey = common.DefaultModelKey
	}
	return &Trainer{
		backend: backend,
		store:   store,
		meta:    NewModelManager(store),
		cfg:     cfg,
		metrics: metrics,
		now:     time.Now,
	}
}

// BatchSize is floor(n/2) clamped to [1, 32].
func BatchSize(n int) int {
	b := n / 2
	if b < 1 {
		return 1
	}
	if b > maxBatchSize {
		return maxBatchSize
	}
	return b
}

// ValidationSize is the number of rows held out for n records: a fifth of
// them once there are more than ten, otherwise none.
func ValidationSize(n int) int {
	if n <= minValidationRows {
		return 0
	}
	return int(float64(n) * validationFraction)
}

// Train fits a new classifier on records and overwrites the artifact stored
// under the configured model key. Calls are serialized.
func (t *Trainer) Train(ctx context.Context, records []storage.LabeledRecord) (*TrainingReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	report, err := t.train(ctx, records)
	if err != nil {
		if t.metrics != nil {
			t.metrics.TrainingFailuresInc()
		}
		log.Error().Err(err).Int("records", len(records)).Msg("Training failed")
		return nil, err
	}
	return report, nil
}

func (t *Trainer) train(ctx context.Context, records []storage.LabeledRecord) (*TrainingReport, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	start := time.Now()

	examples := make([]Example, 0, len(records))
	for _, r := range records {
		if err := r.Features.Validate(); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.Key(), err)
		}
		label := 0.0
		if r.IsRugPull {
			label = 1.0
		}
		examples = append(examples, Example{Input: r.Features.Slice(), Label: label})
	}

	seed := t.cfg.Seed
	if seed == 0 {
		seed = t.now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(examples), func(i, j int) { examples[i], examples[j] = examples[j], examples[i] })

	n := len(examples)
	held := ValidationSize(n)
	trainSet, valSet := examples[:n-held], examples[n-held:]
	opts := FitOptions{
		Epochs:       t.cfg.Epochs,
		BatchSize:    BatchSize(n),
		LearningRate: t.cfg.LearningRate,
	}

	log.Info().
		Int("samples", n).
		Int("validation", held).
		Int("batch_size", opts.BatchSize).
		Int("epochs", opts.Epochs).
		Msg("Training classifier")

	clf, err := t.backend.Fit(ctx, trainSet, valSet, opts)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	trainEval, err := EvaluateClassifier(clf, trainSet)
	if err != nil {
		return nil, fmt.Errorf("evaluate training set: %w", err)
	}
	var valEval *Evaluation
	if len(valSet) > 0 {
		ev, err := EvaluateClassifier(clf, valSet)
		if err != nil {
			return nil, fmt.Errorf("evaluate validation set: %w", err)
		}
		valEval = &ev
	}

	data, err := clf.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal classifier: %w", err)
	}
	if err := t.store.Save(ctx, t.cfg.ModelKey, data); err != nil {
		return nil, fmt.Errorf("save classifier: %w", err)
	}

	meta := ModelMetadata{
		RunID:        uuid.NewString(),
		ModelKey:     t.cfg.ModelKey,
		TrainedAt:    t.now().UTC(),
		Samples:      n,
		TrainSize:    len(trainSet),
		Validation:   len(valSet),
		Epochs:       opts.Epochs,
		BatchSize:    opts.BatchSize,
		LearningRate: opts.LearningRate,
		FeatureNames: append([]string(nil), features.Names[:]...),
		TrainMetrics: trainEval,
		ValMetrics:   valEval,
	}
	if err := t.meta.SaveMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	elapsed := time.Since(start)
	if t.metrics != nil {
		t.metrics.TrainingRunsInc()
		t.metrics.TrainingDurationObserve(elapsed.Seconds())
		t.metrics.TrainingSamplesSet(float64(n))
		acc := trainEval.Accuracy
		if valEval != nil {
			acc = valEval.Accuracy
		}
		t.metrics.MLAccuracyObserve(acc)
	}

	log.Info().
		Str("run_id", meta.RunID).
		Str("model_key", meta.ModelKey).
		Float64("train_accuracy", trainEval.Accuracy).
		Float64("train_loss", trainEval.Loss).
		Dur("duration", elapsed).
		Msg("Classifier trained")

	return &TrainingReport{Metadata: meta, Duration: elapsed}, nil
}
