package metrics

// The methods below let *Metrics satisfy the narrow recorder interfaces of
// the ml and analytics packages without those packages importing Prometheus.

func (m *Metrics) MLPredictionsInc(model, method string) {
	m.MLPredictions.WithLabelValues(model, method).Inc()
}

func (m *Metrics) MLFailuresInc(model string) {
	m.MLFailures.WithLabelValues(model).Inc()
	m.ErrorsTotal.Inc()
}

func (m *Metrics) MLFallbackUseInc(model string) {
	m.MLFallbackUse.WithLabelValues(model).Inc()
}

func (m *Metrics) MLLatencyObserve(model string, seconds float64) {
	m.MLLatency.WithLabelValues(model).Observe(seconds)
}

func (m *Metrics) MLConfidenceObserve(model string, v float64) {
	m.MLConfidence.WithLabelValues(model).Observe(v)
}

func (m *Metrics) MLModelAgeSet(model string, seconds float64) {
	m.MLModelAge.WithLabelValues(model).Set(seconds)
}

func (m *Metrics) TrendRequestsInc(kind string) {
	m.TrendRequests.WithLabelValues(kind).Inc()
}

func (m *Metrics) InsufficientDataInc(operation string) {
	m.InsufficientData.WithLabelValues(operation).Inc()
}

func (m *Metrics) CacheHitInc() {
	m.CacheHits.Inc()
}

func (m *Metrics) CacheMissInc() {
	m.CacheMisses.Inc()
}

func (m *Metrics) ErrorsInc() {
	m.ErrorsTotal.Inc()
}
