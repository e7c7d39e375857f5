// Package stats computes corpus-level summaries over labeled records.
package stats

import (
	"time"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

// Summary is a point-in-time reduction of the corpus.
type Summary struct {
	TotalCount        int                    `json:"totalCount"`
	RugPullCount      int                    `json:"rugPullCount"`
	LegitimateCount   int                    `json:"legitimateCount"`
	RugPullRate       float64                `json:"rugPullRate"`
	AveragePerFeature features.FeatureVector `json:"averagePerFeature"`
	ByChain           map[string]int         `json:"byChain"`
	Timestamp         time.Time              `json:"timestamp"`
}

// Summarize counts records by label and averages each feature. An empty
// corpus yields zero averages.
func Summarize(records []storage.LabeledRecord, now time.Time) Summary {
	s := Summary{
		TotalCount: len(records),
		ByChain:    make(map[string]int),
		Timestamp:  now,
	}

	var sums [features.Arity]float64
	for _, r := range records {
		if r.IsRugPull {
			s.RugPullCount++
		} else {
			s.LegitimateCount++
		}
		if r.Chain != "" {
			s.ByChain[r.Chain]++
		}
		for i, v := range r.Features.Slice() {
			sums[i] += v
		}
	}
	if s.TotalCount == 0 {
		return s
	}

	n := float64(s.TotalCount)
	avg := make([]float64, features.Arity)
	for i := range sums {
		avg[i] = sums[i] / n
	}
	// avg always has Arity entries
	s.AveragePerFeature, _ = features.FromSlice(avg)
	s.RugPullRate = float64(s.RugPullCount) / n
	return s
}
