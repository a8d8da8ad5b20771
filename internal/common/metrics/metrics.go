package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EditsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_edits_total",
			Help: "Total number of workspace edits by kind and result",
		},
		[]string{"kind", "result"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_llm_calls_total",
			Help: "Total number of calls to the analysis model",
		},
		[]string{"operation", "outcome"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitor_llm_call_duration_seconds",
			Help:    "Duration of analysis model calls in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"operation"},
	)

	AnalysisCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_analysis_cache_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "monitor_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route", "status"},
	)

	WorkspacesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_workspaces_loaded",
			Help: "Number of workspaces held in memory",
		},
	)
)

// ObserveLLM фиксирует вызов модели.
func ObserveLLM(operation string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	LLMCalls.WithLabelValues(operation, outcome).Inc()
	LLMDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveEdit фиксирует правку.
func ObserveEdit(kind string, err error) {
	result := "applied"
	if err != nil {
		result = "rejected"
	}
	EditsApplied.WithLabelValues(kind, result).Inc()
}
