package cache

import "log/slog"

type storeConfig struct {
	clock        Clock
	log          *slog.Logger
	metrics      Metrics
	isEmpty      any
	singleflight bool
}

// StoreOption configures a Store at construction.
type StoreOption func(*storeConfig)

// WithClock sets the time source used for expiry (default: SystemClock).
func WithClock(c Clock) StoreOption {
	return func(o *storeConfig) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger; the store adds its name as an attribute.
func WithLogger(log *slog.Logger) StoreOption {
	return func(o *storeConfig) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics sets the instrumentation backend (default: NopMetrics).
func WithMetrics(m Metrics) StoreOption {
	return func(o *storeConfig) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithEmpty sets the predicate deciding which values are never cached.
// V must match the value type of the store it is applied to.
func WithEmpty[V any](isEmpty func(V) bool) StoreOption {
	return func(o *storeConfig) {
		if isEmpty != nil {
			o.isEmpty = isEmpty
		}
	}
}

// WithSingleflight coalesces concurrent misses for the same key into one
// population call. All waiting callers share the first caller's result, and
// the first caller's context.
func WithSingleflight() StoreOption {
	return func(o *storeConfig) { o.singleflight = true }
}

func newStoreConfig(opts []StoreOption) storeConfig {
	cfg := storeConfig{
		clock:   SystemClock(),
		log:     slog.Default(),
		metrics: NopMetrics(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
