package risk

import (
	"time"

	"github.com/mollybeach/ai-rug-checker/internal/features"
)

// Source says where an assessment's probability came from.
type Source string

const (
	SourceClassifier Source = "classifier"
	SourceHeuristic  Source = "heuristic"
)

// Assessment is the result of analyzing one token.
type Assessment struct {
	Token       string                    `json:"token"`
	Chain       string                    `json:"chain"`
	Probability float64                   `json:"probability"`
	Source      Source                    `json:"source"`
	IsRugPull   bool                      `json:"isRugPull"`
	Features    features.FeatureVector    `json:"features"`
	Aux         features.AuxiliarySignals `json:"auxiliary"`
	Reason      string                    `json:"reason"`
	Gaps        []features.DataGap        `json:"dataGaps,omitempty"`
	AssessedAt  time.Time                 `json:"assessedAt"`
}
