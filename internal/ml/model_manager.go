package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

const metadataSuffix = ".meta.json"

// ModelMetadata describes the artifact currently stored under a model key.
type ModelMetadata struct {
	RunID        string      `json:"runId"`
	ModelKey     string      `json:"modelKey"`
	TrainedAt    time.Time   `json:"trainedAt"`
	Samples      int         `json:"samples"`
	TrainSize    int         `json:"trainSize"`
	Validation   int         `json:"validationSize"`
	Epochs       int         `json:"epochs"`
	BatchSize    int         `json:"batchSize"`
	LearningRate float64     `json:"learningRate"`
	FeatureNames []string    `json:"featureNames"`
	TrainMetrics Evaluation  `json:"trainMetrics"`
	ValMetrics   *Evaluation `json:"validationMetrics,omitempty"`
}

// ModelManager keeps the metadata sidecar next to each artifact.
type ModelManager struct {
	store ModelStore
}

func NewModelManager(store ModelStore) *ModelManager {
	return &ModelManager{store: store}
}

func metadataKey(modelKey string) string {
	return modelKey + metadataSuffix
}

// SaveMetadata overwrites the sidecar for meta.ModelKey.
func (mm *ModelManager) SaveMetadata(ctx context.Context, meta ModelMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model metadata: %w", err)
	}
	return mm.store.Save(ctx, metadataKey(meta.ModelKey), data)
}

// LoadMetadata returns the sidecar for modelKey. The error wraps
// ErrModelNotLoaded when no model has been trained under that key.
func (mm *ModelManager) LoadMetadata(ctx context.Context, modelKey string) (*ModelMetadata, error) {
	data, err := mm.store.Load(ctx, metadataKey(modelKey))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: no metadata for %q", ErrModelNotLoaded, modelKey)
		}
		return nil, err
	}

	var meta ModelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode model metadata: %w", err)
	}
	return &meta, nil
}
