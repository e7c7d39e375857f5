// Package risk implements the deterministic heuristic scorer that labels a
// token from its feature vector and explains the label in plain language.
package risk

import (
	"fmt"
	"strings"

	"github.com/mollybeach/ai-rug-checker/internal/features"
)

// Policy selects how the heuristic label is derived.
type Policy string

const (
	// PolicyMean flags a token when the mean of the six features plus
	// stealth accumulation exceeds the threshold.
	PolicyMean Policy = "mean"
	// PolicyFactors flags a token when enough named risk factors hold.
	PolicyFactors Policy = "factors"
)

// NoConcerns is the reason given when no clause triggers.
const NoConcerns = "No specific concerns identified"

// clauses are emitted in vector order followed by stealth accumulation.
var clauses = [...]string{
	"Unusual trading volume detected",
	"High concentration of holders",
	"Low liquidity",
	"High price volatility",
	"High sell pressure",
	"Market cap concerns",
	"Suspicious accumulation pattern",
}

// Config tunes the scorer.
type Config struct {
	Policy          Policy
	Threshold       float64 // PolicyMean: aggregate must exceed this
	ReasonThreshold float64 // a component above this adds its clause
	MinFactors      int     // PolicyFactors: factors required
}

// DefaultConfig returns the production scoring settings.
func DefaultConfig() Config {
	return Config{
		Policy:          PolicyMean,
		Threshold:       0.6,
		ReasonThreshold: 0.7,
		MinFactors:      2,
	}
}

// Scorer applies a single policy to every token it scores. It is stateless
// and safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer validates cfg and returns a scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	switch cfg.Policy {
	case PolicyMean, PolicyFactors:
	case "":
		cfg.Policy = PolicyMean
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", cfg.Policy)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("scoring threshold must be between 0 and 1, got %f", cfg.Threshold)
	}
	if cfg.ReasonThreshold < 0 || cfg.ReasonThreshold > 1 {
		return nil, fmt.Errorf("reason threshold must be between 0 and 1, got %f", cfg.ReasonThreshold)
	}
	if cfg.MinFactors < 1 || cfg.MinFactors > 4 {
		cfg.MinFactors = 2
	}
	return &Scorer{cfg: cfg}, nil
}

// Policy returns the active policy.
func (s *Scorer) Policy() Policy {
	return s.cfg.Policy
}

// Score labels the token and explains the label.
func (s *Scorer) Score(fv features.FeatureVector, aux features.AuxiliarySignals) (bool, string) {
	var rug bool
	switch s.cfg.Policy {
	case PolicyFactors:
		rug = FactorCount(aux) >= s.cfg.MinFactors
	default:
		rug = Aggregate(fv, aux) > s.cfg.Threshold
	}
	return rug, s.Reason(fv, aux)
}

// Reason lists the clauses whose component exceeds the reason threshold.
func (s *Scorer) Reason(fv features.FeatureVector, aux features.AuxiliarySignals) string {
	values := append(fv.Slice(), aux.StealthAccumulation)

	var parts []string
	for i, v := range values {
		if v > s.cfg.ReasonThreshold {
			parts = append(parts, clauses[i])
		}
	}
	if len(parts) == 0 {
		return NoConcerns
	}
	return strings.Join(parts, ", ")
}

// Aggregate is the unweighted mean of the six features and stealth
// accumulation. It is the heuristic rug-pull probability.
func Aggregate(fv features.FeatureVector, aux features.AuxiliarySignals) float64 {
	var sum float64
	for _, v := range fv.Slice() {
		sum += v
	}
	sum += aux.StealthAccumulation
	return features.Clamp01(sum / float64(features.Arity+1))
}

// FactorCount counts the named risk factors that hold:
// heavy stealth accumulation, bundling with a high accumulation rate,
// a strongly scripted pattern, and a price collapse alongside accumulation.
func FactorCount(aux features.AuxiliarySignals) int {
	n := 0
	if aux.StealthAccumulation > 0.7 {
		n++
	}
	if aux.BundlerActivity && aux.AccumulationRate > 0.5 {
		n++
	}
	if aux.SuspiciousPattern > 0.8 {
		n++
	}
	if aux.PriceChange24h < -30 && aux.StealthAccumulation > 0.5 {
		n++
	}
	return n
}
