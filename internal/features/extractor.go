package features

// DefaultsPolicy selects the value used when evidence for a safety-relevant
// feature is missing.
type DefaultsPolicy string

const (
	// DefaultsConservative scores missing safety data as maximum risk.
	DefaultsConservative DefaultsPolicy = "conservative"
	// DefaultsNeutral scores missing safety data as 0.5.
	DefaultsNeutral DefaultsPolicy = "neutral"
)

// neutralScore is used for uninformative signals under either policy.
const neutralScore = 0.5

// DataGap names a feature that fell back to its default.
type DataGap string

const (
	GapVolume         DataGap = "volume_24h"
	GapTransfers      DataGap = "transfer_history"
	GapLiquidity      DataGap = "liquidity"
	GapPriceChange    DataGap = "price_change"
	GapTradeCounts    DataGap = "trade_counts"
	GapMarketCap      DataGap = "market_cap"
	GapMarketSnapshot DataGap = "market_snapshot"
)

// MetricsTracker receives a count for every defaulted feature.
type MetricsTracker interface {
	FeatureGapsInc(gap string)
}

// Config tunes extraction.
type Config struct {
	Defaults                 DefaultsPolicy
	BundlerVarianceThreshold float64
	BundlerMinGroupSize      int
	StealthTxThreshold       int
}

// DefaultConfig returns the production extraction settings.
func DefaultConfig() Config {
	return Config{
		Defaults:                 DefaultsConservative,
		BundlerVarianceThreshold: 0.1,
		BundlerMinGroupSize:      3,
		StealthTxThreshold:       100,
	}
}

// Extractor derives feature vectors from evidence. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	cfg     Config
	metrics MetricsTracker
}

func NewExtractor(cfg Config) *Extractor {
	return NewExtractorWithMetrics(cfg, nil)
}

func NewExtractorWithMetrics(cfg Config, metrics MetricsTracker) *Extractor {
	if cfg.Defaults == "" {
		cfg.Defaults = DefaultsConservative
	}
	if cfg.BundlerMinGroupSize <= 0 {
		cfg.BundlerMinGroupSize = 3
	}
	if cfg.StealthTxThreshold <= 0 {
		cfg.StealthTxThreshold = 100
	}
	return &Extractor{cfg: cfg, metrics: metrics}
}

// Config returns the settings the extractor was built with.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract computes the feature vector and auxiliary signals for ev.
func (e *Extractor) Extract(ev Evidence) (FeatureVector, AuxiliarySignals) {
	fv, aux, _ := e.ExtractWithGaps(ev)
	return fv, aux
}

// ExtractWithGaps is Extract plus the list of features that fell back to
// defaults, in vector order.
func (e *Extractor) ExtractWithGaps(ev Evidence) (FeatureVector, AuxiliarySignals, []DataGap) {
	var (
		fv   FeatureVector
		gaps []DataGap
	)
	missing := e.missingScore()
	gap := func(g DataGap) {
		gaps = append(gaps, g)
		if e.metrics != nil {
			e.metrics.FeatureGapsInc(string(g))
		}
	}

	m := ev.Market
	if m == nil {
		gap(GapMarketSnapshot)
		m = &MarketSnapshot{}
	}

	if v, ok := VolumeAnomaly(m.Volume); ok {
		fv.VolumeAnomaly = v
	} else {
		fv.VolumeAnomaly = neutralScore
		gap(GapVolume)
	}

	if v, ok := HolderConcentration(ev.Transfers); ok {
		fv.HolderConcentration = v
	} else {
		fv.HolderConcentration = missing
		gap(GapTransfers)
	}

	if v, ok := LiquidityRisk(m.LiquidityUSD, m.MarketCap); ok {
		fv.LiquidityScore = v
	} else {
		fv.LiquidityScore = missing
		gap(GapLiquidity)
	}

	if ev.Market != nil {
		fv.PriceVolatility = PriceVolatility(m.PriceChange)
	} else {
		fv.PriceVolatility = neutralScore
		gap(GapPriceChange)
	}

	if v, ok := SellPressure(m.Txns24h.Buys, m.Txns24h.Sells); ok {
		fv.SellPressure = v
	} else {
		fv.SellPressure = missing
		gap(GapTradeCounts)
	}

	if v, ok := MarketCapRisk(m.MarketCap); ok {
		fv.MarketCapRisk = v
	} else {
		fv.MarketCapRisk = missing
		gap(GapMarketCap)
	}

	return fv, e.auxiliary(ev, m), gaps
}

func (e *Extractor) auxiliary(ev Evidence, m *MarketSnapshot) AuxiliarySignals {
	report := DetectBundler(ev.Transfers, e.cfg.BundlerVarianceThreshold, e.cfg.BundlerMinGroupSize)

	stealth := 0.2
	if len(ev.Transfers) > e.cfg.StealthTxThreshold {
		stealth = 0.8
	}

	change := 0.0
	if finite(m.PriceChange.H24) {
		change = m.PriceChange.H24
	}

	return AuxiliarySignals{
		BundlerActivity:     report.Active(),
		AccumulationRate:    AccumulationRate(ev.Transfers),
		StealthAccumulation: stealth,
		SuspiciousPattern:   report.Pattern(),
		PriceChange24h:      change,
	}
}

func (e *Extractor) missingScore() float64 {
	if e.cfg.Defaults == DefaultsNeutral {
		return neutralScore
	}
	return 1
}
