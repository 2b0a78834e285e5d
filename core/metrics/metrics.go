// Package metrics provides the small instrumentation port shared by the cache
// packages, so that core code never imports a concrete metrics backend.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time:
//
//	defer m.PopulateDuration("pages").ObserveDuration()
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}
