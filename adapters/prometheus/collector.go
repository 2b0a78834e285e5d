package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/typecache-go/core/cache"
)

// Reporter is the part of *cache.Registry the collector reads from.
type Reporter interface {
	ReportAll() []cache.Report
}

// registryCollector exports the size and configuration of every store at
// scrape time.
type registryCollector struct {
	src Reporter

	entries  *prometheus.Desc
	capacity *prometheus.Desc
	expiry   *prometheus.Desc
}

// NewRegistryCollector creates a collector for src. Register it with a
// prometheus.Registerer; stores created later are picked up automatically.
func NewRegistryCollector(src Reporter) prometheus.Collector {
	return &registryCollector{
		src: src,
		entries: prometheus.NewDesc(
			"typecache_entries",
			"Number of entries currently held, including stale ones not yet swept",
			[]string{"store"}, nil,
		),
		capacity: prometheus.NewDesc(
			"typecache_capacity",
			"Configured maximum number of entries",
			[]string{"store"}, nil,
		),
		expiry: prometheus.NewDesc(
			"typecache_expiry_seconds",
			"Configured entry lifetime in seconds",
			[]string{"store"}, nil,
		),
	}
}

func (c *registryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.capacity
	ch <- c.expiry
}

// Collect emits one sample per store name. Stores sharing a name across
// different key or value types are summed; expiry reports the longest.
func (c *registryCollector) Collect(ch chan<- prometheus.Metric) {
	var (
		order  []string
		byName = make(map[string]*cache.Report)
	)
	for _, r := range c.src.ReportAll() {
		agg, ok := byName[r.Name]
		if !ok {
			byName[r.Name] = &r
			order = append(order, r.Name)
			continue
		}
		agg.Count += r.Count
		agg.Options.Capacity += r.Options.Capacity
		agg.Options.ExpiryTime = max(agg.Options.ExpiryTime, r.Options.ExpiryTime)
	}

	for _, name := range order {
		r := byName[name]
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(r.Count), name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(r.Options.Capacity), name)
		ch <- prometheus.MustNewConstMetric(c.expiry, prometheus.GaugeValue, r.Options.ExpiryTime.Seconds(), name)
	}
}

var _ Reporter = (*cache.Registry)(nil)
