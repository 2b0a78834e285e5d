package cache

import "github.com/codewandler/typecache-go/core/metrics"

// EvictReason labels why an entry left a store outside of Remove and Clear.
type EvictReason string

const (
	EvictExpired   EvictReason = "expired"
	EvictReclaimed EvictReason = "reclaimed"
	EvictCapacity  EvictReason = "capacity"
)

// Metrics defines the instrumentation interface for stores.
// All methods must be safe for concurrent use.
type Metrics interface {
	Hit(store string)
	Miss(store string)

	// PopulateDuration times a single population call.
	PopulateDuration(store string) metrics.Timer
	PopulateFailed(store string)

	// Evicted is reported for entries dropped on read or over capacity.
	Evicted(store string, reason EvictReason)
	// Collected is reported once per sweep that removed n > 0 entries.
	Collected(store string, n int)
}

type nopMetrics struct{}

func (nopMetrics) Hit(string)  {}
func (nopMetrics) Miss(string) {}

func (nopMetrics) PopulateDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) PopulateFailed(string)                 {}

func (nopMetrics) Evicted(string, EvictReason) {}
func (nopMetrics) Collected(string, int)       {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
