package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/typecache-go/core/cache"
	"github.com/codewandler/typecache-go/core/metrics"
)

// cacheMetrics implements cache.Metrics using Prometheus.
type cacheMetrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec

	populateDuration *prometheus.HistogramVec
	populateFailures *prometheus.CounterVec

	evictions *prometheus.CounterVec
	collected *prometheus.CounterVec
}

// NewCacheMetrics creates a new Prometheus implementation of cache.Metrics.
func NewCacheMetrics(reg prometheus.Registerer) cache.Metrics {
	m := &cacheMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typecache_hits_total",
			Help: "Total number of cache hits",
		}, []string{"store"}),

		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typecache_misses_total",
			Help: "Total number of cache misses",
		}, []string{"store"}),

		populateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typecache_populate_duration_seconds",
			Help:    "Population function latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"store"}),

		populateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typecache_populate_failures_total",
			Help: "Total number of population calls that returned an error",
		}, []string{"store"}),

		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typecache_evictions_total",
			Help: "Total number of entries evicted, by reason",
		}, []string{"store", "reason"}),

		collected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typecache_collected_total",
			Help: "Total number of stale entries removed by sweeps",
		}, []string{"store"}),
	}

	reg.MustRegister(
		m.hits,
		m.misses,
		m.populateDuration,
		m.populateFailures,
		m.evictions,
		m.collected,
	)

	return m
}

func (m *cacheMetrics) Hit(store string) {
	m.hits.WithLabelValues(store).Inc()
}

func (m *cacheMetrics) Miss(store string) {
	m.misses.WithLabelValues(store).Inc()
}

func (m *cacheMetrics) PopulateDuration(store string) metrics.Timer {
	return newTimer(m.populateDuration.WithLabelValues(store))
}

func (m *cacheMetrics) PopulateFailed(store string) {
	m.populateFailures.WithLabelValues(store).Inc()
}

func (m *cacheMetrics) Evicted(store string, reason cache.EvictReason) {
	m.evictions.WithLabelValues(store, string(reason)).Inc()
}

func (m *cacheMetrics) Collected(store string, n int) {
	m.collected.WithLabelValues(store).Add(float64(n))
}

var _ cache.Metrics = (*cacheMetrics)(nil)

