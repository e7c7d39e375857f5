package ml

import (
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		labels        []bool
		probs         []float64
		wantAccuracy  float64
		wantPrecision float64
		wantRecall    float64
		wantF1        float64
		wantConfusion ConfusionMatrix
	}{
		{
			name:          "perfect",
			labels:        []bool{true, false, true, false},
			probs:         []float64{0.9, 0.1, 0.8, 0.3},
			wantAccuracy:  1,
			wantPrecision: 1,
			wantRecall:    1,
			wantF1:        1,
			wantConfusion: ConfusionMatrix{TruePositives: 2, TrueNegatives: 2},
		},
		{
			name:          "mixed",
			labels:        []bool{true, true, false, false},
			probs:         []float64{0.9, 0.2, 0.7, 0.1},
			wantAccuracy:  0.5,
			wantPrecision: 0.5,
			wantRecall:    0.5,
			wantF1:        0.5,
			wantConfusion: ConfusionMatrix{TruePositives: 1, FalseNegatives: 1, FalsePositives: 1, TrueNegatives: 1},
		},
		{
			name:          "no positive predictions",
			labels:        []bool{true, false},
			probs:         []float64{0.4, 0.2},
			wantAccuracy:  0.5,
			wantConfusion: ConfusionMatrix{FalseNegatives: 1, TrueNegatives: 1},
		},
		{
			name:          "cutoff is strict",
			labels:        []bool{true},
			probs:         []float64{0.5},
			wantConfusion: ConfusionMatrix{FalseNegatives: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(tt.labels, tt.probs, 0.5)
			if ev.Samples != len(tt.labels) {
				t.Errorf("Expected %d samples, got %d", len(tt.labels), ev.Samples)
			}
			if ev.Confusion != tt.wantConfusion {
				t.Errorf("Confusion = %+v, want %+v", ev.Confusion, tt.wantConfusion)
			}
			for _, c := range []struct {
				name      string
				got, want float64
			}{
				{"accuracy", ev.Accuracy, tt.wantAccuracy},
				{"precision", ev.Precision, tt.wantPrecision},
				{"recall", ev.Recall, tt.wantRecall},
				{"f1", ev.F1, tt.wantF1},
			} {
				if math.Abs(c.got-c.want) > 1e-9 {
					t.Errorf("%s = %f, want %f", c.name, c.got, c.want)
				}
			}
			if ev.Loss < 0 || math.IsNaN(ev.Loss) {
				t.Errorf("Invalid loss %f", ev.Loss)
			}
		})
	}
}

func TestEvaluate_Empty(t *testing.T) {
	ev := Evaluate(nil, nil, 0.5)
	if ev != (Evaluation{}) {
		t.Errorf("Expected zero evaluation, got %+v", ev)
	}
}

func TestEvaluate_SaturatedProbabilitiesStayFinite(t *testing.T) {
	ev := Evaluate([]bool{true, false}, []float64{0, 1}, 0.5)
	if math.IsInf(ev.Loss, 0) || math.IsNaN(ev.Loss) {
		t.Errorf("Loss must stay finite, got %f", ev.Loss)
	}
}
