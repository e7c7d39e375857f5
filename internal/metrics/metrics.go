// Package metrics provides Prometheus metrics for the rug-pull risk service.
// It covers feature extraction, classifier training and inference, corpus
// collection, upstream data sources and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	// Classifier inference
	MLPredictions      prometheus.Counter   // Classifier predictions served
	MLFailures         prometheus.Counter   // Classifier prediction failures
	MLModelAge         prometheus.Gauge     // Seconds since the loaded model was trained
	MLLatency          prometheus.Histogram // Prediction latency in seconds
	MLAccuracy         prometheus.Histogram // Accuracy reported by training runs
	MLPredictionScores prometheus.Histogram // Distribution of predicted probabilities
	MLFallbackUse      prometheus.Counter   // Heuristic fallback predictions
	MLModelLoads       prometheus.Counter   // Artifact loads from the model store

	// Training
	TrainingRuns     prometheus.Counter
	TrainingFailures prometheus.Counter
	TrainingDuration prometheus.Histogram
	TrainingSamples  prometheus.Gauge

	// Features and assessments
	FeatureGaps     *prometheus.CounterVec // Missing evidence by gap kind
	Assessments     *prometheus.CounterVec // Assessments by probability source
	RugPullsFlagged prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter

	// Corpus and collection
	CorpusUpserts       prometheus.Counter
	CorpusSize          prometheus.Gauge
	ContractsDiscovered prometheus.Counter

	// Upstream sources
	SourceRequests *prometheus.CounterVec
	SourceErrors   *prometheus.CounterVec
	SourceLatency  *prometheus.HistogramVec

	// API
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	WSClients    prometheus.Gauge

	ErrorsTotal prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of classifier predictions made",
		}),
		MLFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of classifier prediction failures",
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ml_model_age_seconds",
			Help: "Age of the loaded classifier in seconds",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Classifier prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		MLAccuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_accuracy",
			Help:    "Classifier accuracy reported at the end of each training run",
			Buckets: []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
		}),
		MLPredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_prediction_scores",
			Help:    "Distribution of predicted rug-pull probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		MLFallbackUse: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_fallback_use_total",
			Help: "Total number of times the heuristic fallback was used",
		}),
		MLModelLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_model_loads_total",
			Help: "Total number of classifier artifact loads",
		}),
		TrainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of successful training runs",
		}),
		TrainingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_failures_total",
			Help: "Total number of failed training runs",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}),
		TrainingSamples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "training_samples",
			Help: "Number of labeled records used by the last training run",
		}),
		FeatureGaps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feature_gaps_total",
			Help: "Feature components computed from defaults due to missing evidence",
		}, []string{"gap"}),
		Assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assessments_total",
			Help: "Total number of risk assessments by probability source",
		}, []string{"source"}),
		RugPullsFlagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "rug_pulls_flagged_total",
			Help: "Total number of assessments flagged as rug pulls",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_cache_hits_total",
			Help: "Assessment cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_cache_misses_total",
			Help: "Assessment cache misses",
		}),
		CorpusUpserts: factory.NewCounter(prometheus.CounterOpts{
			Name: "corpus_upserts_total",
			Help: "Total number of labeled records written to the corpus",
		}),
		CorpusSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "corpus_records",
			Help: "Number of labeled records in the corpus",
		}),
		ContractsDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Name: "contracts_discovered_total",
			Help: "New token contracts found by the chain scanner",
		}),
		SourceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "source_requests_total",
			Help: "Requests made to upstream data sources",
		}, []string{"source"}),
		SourceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "source_errors_total",
			Help: "Failed requests to upstream data sources",
		}, []string{"source"}),
		SourceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "source_latency_seconds",
			Help:    "Upstream data source latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "API requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Connected assessment feed clients",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
