package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      int
	failures         int
	latencySum       float64
	accuracy         []float64
	fallbackUse      int
	modelAge         float64
	modelLoads       int
	predictionScores []float64
	trainingRuns     int
	trainingFailures int
	trainingSeconds  float64
	trainingSamples  float64
}

func (m *MockMetrics) MLPredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) MLAccuracyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accuracy = append(m.accuracy, v)
}

func (m *MockMetrics) MLPredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionScores = append(m.predictionScores, v)
}

func (m *MockMetrics) MLFallbackUseInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbackUse++
}

func (m *MockMetrics) MLModelLoadsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelLoads++
}

func (m *MockMetrics) TrainingRunsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingRuns++
}

func (m *MockMetrics) TrainingFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingFailures++
}

func (m *MockMetrics) TrainingDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingSeconds += v
}

func (m *MockMetrics) TrainingSamplesSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingSamples = v
}

func (m *MockMetrics) Snapshot() (predictions, failures, fallbacks, loads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions, m.failures, m.fallbackUse, m.modelLoads
}
