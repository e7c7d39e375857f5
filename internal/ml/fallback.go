package ml

import (
	"context"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
)

// FallbackPredictor scores tokens with the heuristic aggregate when no
// classifier is available.
type FallbackPredictor struct {
	metrics MetricsInterface
}

func NewFallbackPredictor(metrics MetricsInterface) *FallbackPredictor {
	return &FallbackPredictor{metrics: metrics}
}

// Predict returns the mean of the six features and the stealth signal.
func (p *FallbackPredictor) Predict(ctx context.Context, fv features.FeatureVector, aux features.AuxiliarySignals) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if p.metrics != nil {
		p.metrics.MLFallbackUseInc()
	}
	return features.Clamp01(risk.Aggregate(fv, aux)), nil
}
