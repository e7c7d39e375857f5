package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Interfaces for metrics to avoid circular imports
type MetricsCounter interface {
	Inc()
}

type MetricsGauge interface {
	Set(float64)
	Add(float64)
}

type MetricsHistogram interface {
	Observe(float64)
}

// MetricsWrapper adapts Metrics to the narrow interfaces consumed by the
// features, ml, analyzer, collector, sources and server packages.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) ErrorsTotal() MetricsCounter {
	return &CounterWrapper{w.m.ErrorsTotal}
}

func (w *MetricsWrapper) CorpusSize() MetricsGauge {
	return &GaugeWrapper{w.m.CorpusSize}
}

func (w *MetricsWrapper) TrainingDuration() MetricsHistogram {
	return &HistogramWrapper{w.m.TrainingDuration}
}

// Feature extraction

func (w *MetricsWrapper) FeatureGapsInc(gap string) {
	w.m.FeatureGaps.WithLabelValues(gap).Inc()
}

// Classifier

func (w *MetricsWrapper) MLPredictionsInc()                   { w.m.MLPredictions.Inc() }
func (w *MetricsWrapper) MLFailuresInc()                      { w.m.MLFailures.Inc() }
func (w *MetricsWrapper) MLLatencyObserve(v float64)          { w.m.MLLatency.Observe(v) }
func (w *MetricsWrapper) MLModelAgeSet(v float64)             { w.m.MLModelAge.Set(v) }
func (w *MetricsWrapper) MLAccuracyObserve(v float64)         { w.m.MLAccuracy.Observe(v) }
func (w *MetricsWrapper) MLPredictionScoresObserve(v float64) { w.m.MLPredictionScores.Observe(v) }
func (w *MetricsWrapper) MLFallbackUseInc()                   { w.m.MLFallbackUse.Inc() }
func (w *MetricsWrapper) MLModelLoadsInc()                    { w.m.MLModelLoads.Inc() }

func (w *MetricsWrapper) TrainingRunsInc()                  { w.m.TrainingRuns.Inc() }
func (w *MetricsWrapper) TrainingFailuresInc()              { w.m.TrainingFailures.Inc() }
func (w *MetricsWrapper) TrainingDurationObserve(v float64) { w.m.TrainingDuration.Observe(v) }
func (w *MetricsWrapper) TrainingSamplesSet(v float64)      { w.m.TrainingSamples.Set(v) }

// Assessments

func (w *MetricsWrapper) AssessmentInc(source string, rugPull bool) {
	w.m.Assessments.WithLabelValues(source).Inc()
	if rugPull {
		w.m.RugPullsFlagged.Inc()
	}
}

func (w *MetricsWrapper) CacheHitInc()  { w.m.CacheHits.Inc() }
func (w *MetricsWrapper) CacheMissInc() { w.m.CacheMisses.Inc() }

// Collection

func (w *MetricsWrapper) CorpusUpsertInc() { w.m.CorpusUpserts.Inc() }

func (w *MetricsWrapper) CorpusSizeSet(n int) { w.m.CorpusSize.Set(float64(n)) }

func (w *MetricsWrapper) ContractsDiscoveredAdd(n int) {
	if n > 0 {
		w.m.ContractsDiscovered.Add(float64(n))
	}
}

// SourceRequestObserve records one upstream call and whether it failed.
func (w *MetricsWrapper) SourceRequestObserve(source string, seconds float64, err error) {
	w.m.SourceRequests.WithLabelValues(source).Inc()
	w.m.SourceLatency.WithLabelValues(source).Observe(seconds)
	if err != nil {
		w.m.SourceErrors.WithLabelValues(source).Inc()
	}
}

// API

func (w *MetricsWrapper) HTTPRequestObserve(route string, code int, seconds float64) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

func (w *MetricsWrapper) WSClientsSet(n int) {
	w.m.WSClients.Set(float64(n))
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}

func (gw *GaugeWrapper) Add(v float64) {
	gw.g.Add(v)
}

type HistogramWrapper struct {
	h prometheus.Histogram
}

func (hw *HistogramWrapper) Observe(v float64) {
	hw.h.Observe(v)
}
