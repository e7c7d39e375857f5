package features

import "sort"

// BundlerReport summarizes per-sender scripted-behavior checks.
type BundlerReport struct {
	Eligible int // sender groups with enough transfers to judge
	Flagged  int // eligible groups with near-constant timing or sizing
}

// Active reports whether a strict majority of eligible groups were flagged.
func (r BundlerReport) Active() bool {
	return r.Eligible > 0 && r.Flagged*2 > r.Eligible
}

// Pattern is the flagged share of eligible groups, or 0.5 when no group was
// eligible.
func (r BundlerReport) Pattern() float64 {
	if r.Eligible == 0 {
		return 0.5
	}
	return float64(r.Flagged) / float64(r.Eligible)
}

// DetectBundler groups transfers by sender, orders each group by timestamp
// and flags groups whose inter-transfer gaps or transfer values have a
// normalized variance below threshold. Groups smaller than minGroup are
// ignored. Input order does not affect the result.
func DetectBundler(transfers []Transfer, threshold float64, minGroup int) BundlerReport {
	if minGroup < 2 {
		minGroup = 2
	}

	groups := make(map[string][]Transfer)
	for _, t := range transfers {
		from := NormalizeAddress(t.From)
		if from == "" {
			continue
		}
		groups[from] = append(groups[from], t)
	}

	var r BundlerReport
	for _, g := range groups {
		if len(g) < minGroup {
			continue
		}
		r.Eligible++

		sort.SliceStable(g, func(i, j int) bool {
			if g[i].Timestamp != g[j].Timestamp {
				return g[i].Timestamp < g[j].Timestamp
			}
			return g[i].Value < g[j].Value
		})

		gaps := make([]float64, 0, len(g)-1)
		values := make([]float64, 0, len(g))
		for i, t := range g {
			values = append(values, nonNegative(t.Value))
			if i > 0 {
				gaps = append(gaps, float64(t.Timestamp-g[i-1].Timestamp))
			}
		}

		if NormalizedVariance(gaps) < threshold || NormalizedVariance(values) < threshold {
			r.Flagged++
		}
	}
	return r
}

// NormalizedVariance is the population variance divided by the squared mean,
// which makes it independent of units. With a zero mean the plain variance
// is returned. Empty input yields 0.
func NormalizedVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	variance := ss / float64(len(xs))
	if mean == 0 {
		return variance
	}
	return variance / (mean * mean)
}
