package stats

import (
	"math"
	"testing"
	"time"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

func TestSummarize_Empty(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Summarize(nil, now)

	if s.TotalCount != 0 || s.RugPullCount != 0 || s.LegitimateCount != 0 {
		t.Errorf("Expected zero counts, got %+v", s)
	}
	for i, v := range s.AveragePerFeature.Slice() {
		if v != 0 || math.IsNaN(v) {
			t.Errorf("Average %s = %f, want 0", features.Names[i], v)
		}
	}
	if s.RugPullRate != 0 {
		t.Errorf("Expected zero rug-pull rate, got %f", s.RugPullRate)
	}
	if !s.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, s.Timestamp)
	}
}

func TestSummarize(t *testing.T) {
	records := []storage.LabeledRecord{
		{
			Chain:     "ethereum",
			IsRugPull: true,
			Features:  features.FeatureVector{VolumeAnomaly: 1, HolderConcentration: 0.9, LiquidityScore: 0.8, PriceVolatility: 0.6, SellPressure: 0.7, MarketCapRisk: 0.5},
		},
		{
			Chain:     "ethereum",
			IsRugPull: false,
			Features:  features.FeatureVector{VolumeAnomaly: 0, HolderConcentration: 0.1, LiquidityScore: 0.2, PriceVolatility: 0.2, SellPressure: 0.3, MarketCapRisk: 0.5},
		},
		{
			Chain:     "bsc",
			IsRugPull: false,
			Features:  features.FeatureVector{VolumeAnomaly: 0.5, HolderConcentration: 0.5, LiquidityScore: 0.5, PriceVolatility: 0.4, SellPressure: 0.5, MarketCapRisk: 0.5},
		},
		{
			Chain:     "bsc",
			IsRugPull: true,
			Features:  features.FeatureVector{VolumeAnomaly: 0.5, HolderConcentration: 0.5, LiquidityScore: 0.5, PriceVolatility: 0.8, SellPressure: 0.5, MarketCapRisk: 0.5},
		},
	}

	s := Summarize(records, time.Now())

	if s.TotalCount != 4 || s.RugPullCount != 2 || s.LegitimateCount != 2 {
		t.Fatalf("Unexpected counts: %+v", s)
	}
	if s.RugPullRate != 0.5 {
		t.Errorf("Expected rate 0.5, got %f", s.RugPullRate)
	}
	if s.ByChain["ethereum"] != 2 || s.ByChain["bsc"] != 2 {
		t.Errorf("Unexpected chain counts: %v", s.ByChain)
	}

	want := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	for i, v := range s.AveragePerFeature.Slice() {
		if math.Abs(v-want[i]) > 1e-9 {
			t.Errorf("Average %s = %f, want %f", features.Names[i], v, want[i])
		}
	}
}

func TestSummarize_CountsAlwaysBalance(t *testing.T) {
	for n := 0; n < 20; n++ {
		records := make([]storage.LabeledRecord, n)
		for i := range records {
			records[i].IsRugPull = i%3 == 0
		}
		s := Summarize(records, time.Now())
		if s.RugPullCount+s.LegitimateCount != s.TotalCount {
			t.Errorf("n=%d: %d + %d != %d", n, s.RugPullCount, s.LegitimateCount, s.TotalCount)
		}
	}
}
