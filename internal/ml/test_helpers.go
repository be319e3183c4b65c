package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	failures    int
	fallbackUse int
	latencySum  float64
	confidences []float64
	modelAge    map[string]float64
}

func (m *MockMetrics) MLPredictionsInc(model, method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.predictions == nil {
		m.predictions = make(map[string]int)
	}
	m.predictions[model+"/"+method]++
}

func (m *MockMetrics) MLFailuresInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLFallbackUseInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbackUse++
}

func (m *MockMetrics) MLLatencyObserve(model string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) MLConfidenceObserve(model string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confidences = append(m.confidences, v)
}

func (m *MockMetrics) MLModelAgeSet(model string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modelAge == nil {
		m.modelAge = make(map[string]float64)
	}
	m.modelAge[model] = v
}

func (m *MockMetrics) count(model, method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[model+"/"+method]
}
