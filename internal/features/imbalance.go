package features

import "math"

// SellPressure is the sell share of 24h trading, sells/(buys+sells).
// ok is false when there was no trading to judge.
func SellPressure(buys, sells int) (v float64, ok bool) {
	if buys < 0 || sells < 0 || buys+sells == 0 {
		return 0, false
	}
	return float64(sells) / float64(buys+sells), true
}

// HolderConcentration compares the number of distinct counterpart addresses
// to the number of transfers on a log scale: 1 - ln(unique)/ln(transfers).
// Few addresses moving a lot of transfers scores close to 1.
// ok is false with fewer than two transfers.
func HolderConcentration(transfers []Transfer) (v float64, ok bool) {
	n := len(transfers)
	if n < 2 {
		return 0, false
	}

	seen := make(map[string]struct{}, 2*n)
	for _, t := range transfers {
		if a := NormalizeAddress(t.From); a != "" {
			seen[a] = struct{}{}
		}
		if a := NormalizeAddress(t.To); a != "" {
			seen[a] = struct{}{}
		}
	}

	unique := len(seen)
	if unique <= 1 {
		return 1, true
	}
	return Clamp01(1 - math.Log(float64(unique))/math.Log(float64(n))), true
}

// AccumulationRate is distinct receivers per transfer. Zero transfers yields 0.
func AccumulationRate(transfers []Transfer) float64 {
	if len(transfers) == 0 {
		return 0
	}
	receivers := make(map[string]struct{}, len(transfers))
	for _, t := range transfers {
		if a := NormalizeAddress(t.To); a != "" {
			receivers[a] = struct{}{}
		}
	}
	return Clamp01(float64(len(receivers)) / float64(len(transfers)))
}
