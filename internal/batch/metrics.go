package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the batch counters on a private registry so several runs in
// one process never collide
type Metrics struct {
	Registry *prometheus.Registry

	Accepted prometheus.Counter
	Rejected *prometheus.CounterVec
	Failed   prometheus.Counter
	Skipped  prometheus.Counter
	// Retries counts assembly attempts beyond the first
	Retries prometheus.Counter
	// LLMRetries counts transport retries reported by the llm retry decorator
	LLMRetries prometheus.Counter
	Duration   prometheus.Histogram
}

// NewMetrics registers the batch counters on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Accepted: f.NewCounter(prometheus.CounterOpts{
			Name: "cvsynth_documents_accepted_total",
			Help: "Total number of documents that passed the quality gate",
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cvsynth_documents_rejected_total",
			Help: "Total number of personas rejected after all attempts, by final stage",
		}, []string{"stage"}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "cvsynth_documents_failed_total",
			Help: "Total number of personas that ended in a generation or storage error",
		}),
		Skipped: f.NewCounter(prometheus.CounterOpts{
			Name: "cvsynth_documents_skipped_total",
			Help: "Total number of personas skipped because a checkpoint exists",
		}),
		Retries: f.NewCounter(prometheus.CounterOpts{
			Name: "cvsynth_assembly_retries_total",
			Help: "Total number of assembly attempts beyond the first",
		}),
		LLMRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "cvsynth_llm_retries_total",
			Help: "Total number of retried text generation calls",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cvsynth_assembly_duration_seconds",
			Help:    "Duration of assembling one persona in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
	}
}

// RetryHook plugs into llm.WithRetryHook
func (m *Metrics) RetryHook() func(attempt int, err error) {
	return func(int, error) {
		m.LLMRetries.Inc()
	}
}
