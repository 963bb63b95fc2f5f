package handler

import "net/http"

// DepthReporter is the subset of the dispatcher the metrics handler needs.
type DepthReporter interface {
	Depth() int
}

// MetricsHandler serves a human-readable JSON dispatch-queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	dispatcher DepthReporter
}

func NewMetricsHandler(dispatcher DepthReporter) *MetricsHandler {
	return &MetricsHandler{dispatcher: dispatcher}
}

// GetMetrics handles GET /api/v1/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"dispatch_queue_depth": h.dispatcher.Depth(),
	})
}
