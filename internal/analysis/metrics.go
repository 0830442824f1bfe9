package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	coalesced *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// newMetrics builds the store collectors. A nil reg leaves them
// unregistered, so every Store can carry its own set.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "novellens_artifact_cache_hits_total",
			Help: "Fetches served from the artifact cache, by kind",
		}, []string{"kind"}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "novellens_artifact_cache_misses_total",
			Help: "Fetches that went to the gateway (including forced refreshes), by kind",
		}, []string{"kind"}),
		coalesced: f.NewCounterVec(prometheus.CounterOpts{
			Name: "novellens_artifact_fetches_coalesced_total",
			Help: "Callers that shared another caller's in-flight fetch, by kind",
		}, []string{"kind"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "novellens_artifact_fetch_errors_total",
			Help: "Failed fetches, by kind and error class",
		}, []string{"kind", "class"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "novellens_artifact_fetch_duration_seconds",
			Help:    "Gateway round trip plus normalization time, by kind",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
	}
}
