package generation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess       = "success"
	statusBackendError  = "error_backend"
	statusInvalidSchema = "error_schema"
	statusTimeout       = "error_timeout"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sasselerator_generation_requests_total",
			Help: "Total number of plan generation requests by backend, model and outcome.",
		},
		[]string{"backend", "model", "status"},
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sasselerator_generation_duration_seconds",
			Help:    "Histogram of plan generation latency.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"backend", "model"},
	)
	generationPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sasselerator_generation_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 12),
		},
		[]string{"backend", "model"},
	)
	generationCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sasselerator_generation_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(500, 500, 12),
		},
		[]string{"backend", "model"},
	)
)
