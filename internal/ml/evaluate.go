package ml

import "math"

// ConfusionMatrix counts outcomes at a probability cutoff.
type ConfusionMatrix struct {
	TruePositives  int `json:"truePositives"`
	FalsePositives int `json:"falsePositives"`
	TrueNegatives  int `json:"trueNegatives"`
	FalseNegatives int `json:"falseNegatives"`
}

// Evaluation holds classification quality for one set of examples.
// Ratios with a zero denominator are reported as 0.
type Evaluation struct {
	Samples   int             `json:"samples"`
	Loss      float64         `json:"loss"`
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Confusion ConfusionMatrix `json:"confusion"`
}

const lossEpsilon = 1e-12

// Evaluate scores probabilities against labels at cutoff. labels and probs
// must have equal length; extra entries in either are ignored.
func Evaluate(labels []bool, probs []float64, cutoff float64) Evaluation {
	n := len(labels)
	if len(probs) < n {
		n = len(probs)
	}

	var (
		ev   = Evaluation{Samples: n}
		loss float64
	)
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(probs[i], lossEpsilon), 1-lossEpsilon)
		predicted := probs[i] > cutoff
		switch {
		case labels[i] && predicted:
			ev.Confusion.TruePositives++
		case labels[i]:
			ev.Confusion.FalseNegatives++
		case predicted:
			ev.Confusion.FalsePositives++
		default:
			ev.Confusion.TrueNegatives++
		}
		if labels[i] {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	if n == 0 {
		return ev
	}

	cm := ev.Confusion
	ev.Loss = loss / float64(n)
	ev.Accuracy = float64(cm.TruePositives+cm.TrueNegatives) / float64(n)
	ev.Precision = ratio(cm.TruePositives, cm.TruePositives+cm.FalsePositives)
	ev.Recall = ratio(cm.TruePositives, cm.TruePositives+cm.FalseNegatives)
	if ev.Precision+ev.Recall > 0 {
		ev.F1 = 2 * ev.Precision * ev.Recall / (ev.Precision + ev.Recall)
	}
	return ev
}

// EvaluateClassifier runs c over examples and scores the result at 0.5.
func EvaluateClassifier(c Classifier, examples []Example) (Evaluation, error) {
	labels := make([]bool, len(examples))
	probs := make([]float64, len(examples))
	for i, e := range examples {
		p, err := c.Predict(e.Input)
		if err != nil {
			return Evaluation{}, err
		}
		labels[i] = e.Label >= 0.5
		probs[i] = p
	}
	return Evaluate(labels, probs, 0.5), nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
