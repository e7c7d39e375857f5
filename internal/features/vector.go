package features

import (
	"fmt"
	"math"
)

// Arity is the number of components in a FeatureVector. Training and
// inference both use exactly this many inputs.
const Arity = 6

// Names lists the feature components in vector order.
var Names = [Arity]string{
	"volumeAnomaly",
	"holderConcentration",
	"liquidityScore",
	"priceVolatility",
	"sellPressure",
	"marketCapRisk",
}

// FeatureVector is the fixed-order risk tuple. Every component is in [0,1].
type FeatureVector struct {
	VolumeAnomaly       float64 `json:"volumeAnomaly"`
	HolderConcentration float64 `json:"holderConcentration"`
	LiquidityScore      float64 `json:"liquidityScore"`
	PriceVolatility     float64 `json:"priceVolatility"`
	SellPressure        float64 `json:"sellPressure"`
	MarketCapRisk       float64 `json:"marketCapRisk"`
}

// Slice returns the components in declaration order.
func (v FeatureVector) Slice() []float64 {
	return []float64{
		v.VolumeAnomaly,
		v.HolderConcentration,
		v.LiquidityScore,
		v.PriceVolatility,
		v.SellPressure,
		v.MarketCapRisk,
	}
}

// FromSlice builds a vector from values in declaration order.
func FromSlice(xs []float64) (FeatureVector, error) {
	if len(xs) != Arity {
		return FeatureVector{}, fmt.Errorf("expected %d features, got %d", Arity, len(xs))
	}
	return FeatureVector{
		VolumeAnomaly:       xs[0],
		HolderConcentration: xs[1],
		LiquidityScore:      xs[2],
		PriceVolatility:     xs[3],
		SellPressure:        xs[4],
		MarketCapRisk:       xs[5],
	}, nil
}

// Validate reports the first component that is NaN or outside [0,1].
func (v FeatureVector) Validate() error {
	for i, x := range v.Slice() {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return fmt.Errorf("feature %s out of range: %f", Names[i], x)
		}
	}
	return nil
}

// AuxiliarySignals accompany the vector. They feed the heuristic scorer and
// explanations but are not classifier inputs.
type AuxiliarySignals struct {
	BundlerActivity     bool    `json:"bundlerActivity"`
	AccumulationRate    float64 `json:"accumulationRate"`
	StealthAccumulation float64 `json:"stealthAccumulation"`
	// SuspiciousPattern is the share of sender groups with scripted timing or
	// sizing; 0.5 when no group had enough transfers to judge.
	SuspiciousPattern float64 `json:"suspiciousPattern"`
	// PriceChange24h is the raw 24h price change in percent, 0 when unknown.
	PriceChange24h float64 `json:"priceChange24h"`
}

// Clamp01 clips v into [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}
