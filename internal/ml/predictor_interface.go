// Package ml trains and serves the rug-pull classifier.
//
// The numeric library sits behind Backend and Classifier so it can be
// swapped without touching the Trainer or Predictor. Artifacts are opaque
// bytes persisted through a ModelStore (local files or object storage).
package ml

import (
	"context"

	"github.com/mollybeach/ai-rug-checker/internal/features"
)

// PredictorInterface produces a rug-pull probability in [0,1] for a token.
type PredictorInterface interface {
	Predict(ctx context.Context, fv features.FeatureVector, aux features.AuxiliarySignals) (float64, error)
}

// Classifier is a trained, loaded model.
type Classifier interface {
	// Predict returns the positive-class probability for one input row.
	Predict(x []float64) (float64, error)
	// InputSize is the row width the model was trained on.
	InputSize() int
	// Marshal serializes topology and weights.
	Marshal() ([]byte, error)
}

// Example is one training row.
type Example struct {
	Input []float64
	Label float64
}

// FitOptions control a single training run.
type FitOptions struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
}

// Backend builds classifiers.
type Backend interface {
	Fit(ctx context.Context, train, validation []Example, opts FitOptions) (Classifier, error)
	Unmarshal(data []byte) (Classifier, error)
}

// ModelStore persists artifacts by key. Load returns an error wrapping
// storage.ErrNotFound when nothing is stored under key.
type ModelStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}
