package ml

import (
	"context"
	"fmt"
	"math"
	"sync"

	deep "github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
)

// DeepBackend trains dense feed-forward networks with go-deep: tanh hidden
// layers, a single sigmoid output and binary cross-entropy loss, optimized
// with Adam over minibatches.
type DeepBackend struct {
	Hidden     []int
	Activation deep.ActivationType
	InitStdDev float64
}

// NewDeepBackend returns the 12-8-1 network used in production.
func NewDeepBackend() *DeepBackend {
	return &DeepBackend{
		Hidden:     []int{12, 8},
		Activation: deep.ActivationTanh,
		InitStdDev: 0.5,
	}
}

func (b *DeepBackend) Fit(ctx context.Context, train, validation []Example, opts FitOptions) (Classifier, error) {
	if len(train) == 0 {
		return nil, ErrEmptyDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputs := len(train[0].Input)
	for i, e := range append(append([]Example(nil), train...), validation...) {
		if len(e.Input) != inputs {
			return nil, fmt.Errorf("example %d: %w", i, &FeatureArityMismatchError{Expected: inputs, Got: len(e.Input)})
		}
	}

	layout := append(append([]int(nil), b.Hidden...), 1)
	net := deep.NewNeural(&deep.Config{
		Inputs:     inputs,
		Layout:     layout,
		Activation: b.Activation,
		Mode:       deep.ModeBinary,
		Loss:       deep.LossBinaryCrossEntropy,
		Weight:     deep.NewNormal(b.InitStdDev, 0),
		Bias:       true,
	})

	batch := opts.BatchSize
	if batch < 1 {
		batch = 1
	}
	solver := training.NewAdam(opts.LearningRate, 0.9, 0.999, 1e-8)
	trainer := training.NewBatchTrainer(solver, 0, batch, 1)
	trainer.Train(net, toDeepExamples(train), toDeepExamples(validation), opts.Epochs)

	// Train is not interruptible.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &deepClassifier{net: net}, nil
}

func (b *DeepBackend) Unmarshal(data []byte) (Classifier, error) {
	net, err := deep.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal network: %w", err)
	}
	if net.Config == nil || net.Config.Inputs <= 0 || len(net.Config.Layout) == 0 {
		return nil, fmt.Errorf("unmarshal network: missing topology")
	}
	if out := net.Config.Layout[len(net.Config.Layout)-1]; out != 1 {
		return nil, fmt.Errorf("unmarshal network: expected 1 output, got %d", out)
	}
	return &deepClassifier{net: net}, nil
}

func toDeepExamples(xs []Example) training.Examples {
	out := make(training.Examples, len(xs))
	for i, x := range xs {
		out[i] = training.Example{Input: x.Input, Response: []float64{x.Label}}
	}
	return out
}

// deepClassifier serializes forward passes: go-deep stores activations on
// the network's neurons while predicting.
type deepClassifier struct {
	mu  sync.Mutex
	net *deep.Neural
}

func (c *deepClassifier) InputSize() int {
	return c.net.Config.Inputs
}

func (c *deepClassifier) Predict(x []float64) (float64, error) {
	if len(x) != c.InputSize() {
		return 0, &FeatureArityMismatchError{Expected: c.InputSize(), Got: len(x)}
	}

	c.mu.Lock()
	out := c.net.Predict(x)
	c.mu.Unlock()

	if len(out) != 1 {
		return 0, fmt.Errorf("expected 1 output, got %d", len(out))
	}
	p := out[0]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("invalid probability: %f", p)
	}
	return p, nil
}

func (c *deepClassifier) Marshal() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Marshal()
}
