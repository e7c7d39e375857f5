package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/ml"
)

var (
	_ ml.MetricsInterface     = (*MetricsWrapper)(nil)
	_ features.MetricsTracker = (*MetricsWrapper)(nil)
)

func newTestWrapper() (*Metrics, *MetricsWrapper) {
	m := NewWithRegistry(prometheus.NewRegistry())
	return m, NewWrapper(m)
}

func TestNewWrapper(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	// Two registries must not collide on metric names.
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.MLPredictions.Inc()
	if testutil.ToFloat64(b.MLPredictions) != 0 {
		t.Error("Metrics leaked across registries")
	}
}

func TestMetricsWrapper_CounterOperations(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	errorsCounter := wrapper.ErrorsTotal()
	if errorsCounter == nil {
		t.Fatal("ErrorsTotal returned nil counter")
	}
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 0 {
		t.Errorf("Expected initial counter value 0, got %f", v)
	}

	errorsCounter.Inc()
	errorsCounter.Inc()
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 2 {
		t.Errorf("Expected counter value 2, got %f", v)
	}
}

func TestMetricsWrapper_GaugeOperations(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	size := wrapper.CorpusSize()
	size.Set(120)
	size.Add(5)
	size.Add(-25)
	if v := testutil.ToFloat64(metrics.CorpusSize); v != 100 {
		t.Errorf("Expected gauge value 100, got %f", v)
	}
}

func TestMetricsWrapper_HistogramOperations(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	hist := wrapper.TrainingDuration()
	testValues := []float64{0.5, 1.2, 3.4}
	for _, v := range testValues {
		hist.Observe(v)
	}

	if count := testutil.CollectAndCount(metrics.TrainingDuration); count != 1 {
		t.Errorf("Expected 1 histogram series, got %d", count)
	}
}

func TestMetricsWrapper_FeatureGaps(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.FeatureGapsInc(string(features.GapMarketSnapshot))
	wrapper.FeatureGapsInc(string(features.GapMarketSnapshot))
	wrapper.FeatureGapsInc(string(features.GapTransfers))

	if v := testutil.ToFloat64(metrics.FeatureGaps.WithLabelValues(string(features.GapMarketSnapshot))); v != 2 {
		t.Errorf("Expected 2 market snapshot gaps, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.FeatureGaps.WithLabelValues(string(features.GapTransfers))); v != 1 {
		t.Errorf("Expected 1 transfer history gap, got %f", v)
	}
}

func TestMetricsWrapper_Classifier(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.MLPredictionsInc()
	wrapper.MLPredictionScoresObserve(0.73)
	wrapper.MLFailuresInc()
	wrapper.MLFallbackUseInc()
	wrapper.MLModelLoadsInc()
	wrapper.MLModelAgeSet(3600)
	wrapper.TrainingRunsInc()
	wrapper.TrainingSamplesSet(42)

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"predictions", metrics.MLPredictions, 1},
		{"failures", metrics.MLFailures, 1},
		{"fallback", metrics.MLFallbackUse, 1},
		{"loads", metrics.MLModelLoads, 1},
		{"model age", metrics.MLModelAge, 3600},
		{"training runs", metrics.TrainingRuns, 1},
		{"training samples", metrics.TrainingSamples, 42},
	}
	for _, c := range checks {
		if v := testutil.ToFloat64(c.c); v != c.want {
			t.Errorf("%s = %f, want %f", c.name, v, c.want)
		}
	}
}

func TestMetricsWrapper_Assessments(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.AssessmentInc("classifier", true)
	wrapper.AssessmentInc("classifier", false)
	wrapper.AssessmentInc("heuristic", true)

	if v := testutil.ToFloat64(metrics.Assessments.WithLabelValues("classifier")); v != 2 {
		t.Errorf("Expected 2 classifier assessments, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.RugPullsFlagged); v != 2 {
		t.Errorf("Expected 2 flagged, got %f", v)
	}
}

func TestMetricsWrapper_Sources(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.SourceRequestObserve("dexscreener", 0.12, nil)
	wrapper.SourceRequestObserve("dexscreener", 0.30, errors.New("timeout"))

	if v := testutil.ToFloat64(metrics.SourceRequests.WithLabelValues("dexscreener")); v != 2 {
		t.Errorf("Expected 2 requests, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.SourceErrors.WithLabelValues("dexscreener")); v != 1 {
		t.Errorf("Expected 1 error, got %f", v)
	}
}

func TestMetricsWrapper_HTTP(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.HTTPRequestObserve("/tokens/analyze", 200, 0.05)
	wrapper.HTTPRequestObserve("/tokens/analyze", 400, 0.01)
	wrapper.WSClientsSet(3)
	wrapper.ContractsDiscoveredAdd(4)
	wrapper.ContractsDiscoveredAdd(0)

	if v := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/tokens/analyze", "400")); v != 1 {
		t.Errorf("Expected 1 bad request, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.WSClients); v != 3 {
		t.Errorf("Expected 3 ws clients, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ContractsDiscovered); v != 4 {
		t.Errorf("Expected 4 contracts, got %f", v)
	}
}
