// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Detection metrics
	CandidatesDetected *prometheus.CounterVec
	CandidatesDropped  *prometheus.CounterVec
	SeenSetSize        prometheus.Gauge

	// Pipeline metrics
	FilterRejections *prometheus.CounterVec
	SafetyRejections *prometheus.CounterVec
	SnipesExecuted   *prometheus.CounterVec
	SnipesFailed     *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec

	// External call metrics
	QuoteLatency      prometheus.Histogram
	MarketDataLatency prometheus.Histogram

	// Health metrics
	LastCandidateTimestamp prometheus.Gauge
	LastSnipeTimestamp     prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered against reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pool_sniper"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CandidatesDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "candidates_detected_total",
			Help:      "Total number of pool candidates detected by method",
		}, []string{"method"}),
		CandidatesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "candidates_dropped_total",
			Help:      "Total number of candidates dropped by reason",
		}, []string{"reason"}),
		SeenSetSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "seen_set_size",
			Help:      "Current number of keys in the dedupe set",
		}),

		FilterRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "filter_rejections_total",
			Help:      "Total number of filter rejections by criterion",
		}, []string{"criterion"}),
		SafetyRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "safety_rejections_total",
			Help:      "Total number of safety check failures by check",
		}, []string{"check"}),
		SnipesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "snipes_executed_total",
			Help:      "Total number of executed snipes by mode",
		}, []string{"mode"}),
		SnipesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "snipes_failed_total",
			Help:      "Total number of failed snipe attempts by stage",
		}, []string{"stage"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),

		QuoteLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "quote_latency_seconds",
			Help:      "Swap quote API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		MarketDataLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "market_data_latency_seconds",
			Help:      "Market data API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		LastCandidateTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_candidate_timestamp",
			Help:      "Unix timestamp of the last detected candidate",
		}),
		LastSnipeTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_snipe_timestamp",
			Help:      "Unix timestamp of the last executed snipe",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
