package features

import "math"

const (
	// volumeDeviationCap is the mean window deviation that maps to full risk.
	volumeDeviationCap = 1.25
	// healthyMarketCapLog10 anchors marketCapRisk at a ~$1M valuation.
	healthyMarketCapLog10 = 6.0
	marketCapLogSpan      = 6.0
)

// VolumeAnomaly measures how far short-window volume departs from an even
// spread of the longer window. The 6h volume is compared with a quarter of
// the 24h figure and the 1h volume with a sixth of the 6h figure; the mean
// absolute deviation from 1 is scaled by volumeDeviationCap and clipped.
// ok is false without a 24h figure.
func VolumeAnomaly(v Windows) (float64, bool) {
	if !positive(v.H24) {
		return 0, false
	}

	h6 := nonNegative(v.H6)
	devs := []float64{math.Abs(h6/(v.H24/4) - 1)}
	if h6 > 0 {
		devs = append(devs, math.Abs(nonNegative(v.H1)/(h6/6)-1))
	}

	var sum float64
	for _, d := range devs {
		sum += d
	}
	return Clamp01(sum / float64(len(devs)) / volumeDeviationCap), true
}

// LiquidityRisk is 1 - 2*(liquidity/marketCap), clipped. A pool holding half
// the market cap or more is treated as fully liquid.
func LiquidityRisk(liquidity, marketCap float64) (float64, bool) {
	if !positive(liquidity) || !positive(marketCap) {
		return 0, false
	}
	return Clamp01(1 - 2*liquidity/marketCap), true
}

// PriceVolatility is the largest absolute percent move across the windows,
// divided by 100 and clipped.
func PriceVolatility(change Windows) float64 {
	m := 0.0
	for _, c := range []float64{change.H24, change.H6, change.H1} {
		if finite(c) && math.Abs(c) > m {
			m = math.Abs(c)
		}
	}
	return Clamp01(m / 100)
}

// MarketCapRisk penalizes distance of log10(marketCap) from the healthy anchor.
func MarketCapRisk(marketCap float64) (float64, bool) {
	if !positive(marketCap) {
		return 0, false
	}
	return Clamp01(math.Abs(math.Log10(marketCap)-healthyMarketCapLog10) / marketCapLogSpan), true
}

func nonNegative(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}
