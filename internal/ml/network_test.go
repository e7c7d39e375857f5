package ml

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

func TestDeepBackend_SeparatesTwoRecords(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileModelStore(t.TempDir())
	require.NoError(t, err)

	records := []storage.LabeledRecord{
		{Token: "0x00000000000000000000000000000000000000aa", Chain: "ethereum", Features: uniform(0.9), IsRugPull: true},
		{Token: "0x00000000000000000000000000000000000000bb", Chain: "ethereum", Features: uniform(0.1), IsRugPull: false},
	}

	cfg := DefaultTrainerConfig()
	cfg.Epochs = 300
	cfg.Seed = 42
	backend := NewDeepBackend()
	report, err := NewTrainer(backend, store, cfg, &MockMetrics{}).Train(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Metadata.TrainSize)
	assert.Equal(t, 0, report.Metadata.Validation)

	p := NewPredictor(backend, store, cfg.ModelKey, &MockMetrics{})
	high, err := p.Predict(ctx, uniform(0.9), features.AuxiliarySignals{})
	require.NoError(t, err)
	low, err := p.Predict(ctx, uniform(0.1), features.AuxiliarySignals{})
	require.NoError(t, err)

	assert.Greater(t, high, 0.5)
	assert.Less(t, low, 0.5)
	assert.GreaterOrEqual(t, low, 0.0)
	assert.LessOrEqual(t, high, 1.0)
}

func TestDeepBackend_PredictBeforeTraining(t *testing.T) {
	store, err := storage.NewFileModelStore(t.TempDir())
	require.NoError(t, err)

	p := NewPredictor(NewDeepBackend(), store, defaultModelKey(), nil)
	_, err = p.Predict(context.Background(), uniform(0.5), features.AuxiliarySignals{})
	assert.True(t, errors.Is(err, ErrModelNotLoaded), "got %v", err)
}

func TestDeepBackend_MarshalRoundTrip(t *testing.T) {
	backend := NewDeepBackend()
	train := []Example{
		{Input: uniform(0.8).Slice(), Label: 1},
		{Input: uniform(0.2).Slice(), Label: 0},
	}
	clf, err := backend.Fit(context.Background(), train, nil, FitOptions{Epochs: 5, BatchSize: 1, LearningRate: 0.01})
	require.NoError(t, err)

	data, err := clf.Marshal()
	require.NoError(t, err)
	restored, err := backend.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, features.Arity, restored.InputSize())

	for _, x := range [][]float64{uniform(0.8).Slice(), uniform(0.2).Slice(), uniform(0.5).Slice()} {
		want, err := clf.Predict(x)
		require.NoError(t, err)
		got, err := restored.Predict(x)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9)
	}
}

func TestDeepBackend_RejectsMixedWidths(t *testing.T) {
	train := []Example{
		{Input: []float64{0.1, 0.2, 0.3}, Label: 0},
		{Input: []float64{0.1, 0.2}, Label: 1},
	}
	_, err := NewDeepBackend().Fit(context.Background(), train, nil, FitOptions{Epochs: 1, BatchSize: 1, LearningRate: 0.01})

	var mismatch *FeatureArityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Got)
}

func TestDeepBackend_EmptyAndCancelled(t *testing.T) {
	_, err := NewDeepBackend().Fit(context.Background(), nil, nil, FitOptions{Epochs: 1})
	assert.ErrorIs(t, err, ErrEmptyDataset)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDeepBackend().Fit(ctx, []Example{{Input: []float64{1}, Label: 1}}, nil, FitOptions{Epochs: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeepBackend_UnmarshalGarbage(t *testing.T) {
	_, err := NewDeepBackend().Unmarshal([]byte("{not json"))
	assert.Error(t, err)
}

func TestDeepClassifier_ArityCheck(t *testing.T) {
	clf, err := NewDeepBackend().Fit(context.Background(), []Example{
		{Input: uniform(0.7).Slice(), Label: 1},
	}, nil, FitOptions{Epochs: 1, BatchSize: 1, LearningRate: 0.01})
	require.NoError(t, err)

	_, err = clf.Predict([]float64{0.5})
	var mismatch *FeatureArityMismatchError
	assert.ErrorAs(t, err, &mismatch)
}
