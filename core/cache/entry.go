package cache

import (
	"time"
	"weak"
)

// ref holds a cached value. load reports false once the value is gone.
type ref[V any] interface {
	load() (V, bool)
}

type strongRef[V any] struct{ v V }

func (r strongRef[V]) load() (V, bool) { return r.v, true }

type weakRef[T any] struct{ p weak.Pointer[T] }

func (r weakRef[T]) load() (*T, bool) {
	v := r.p.Value()
	return v, v != nil
}

func holdStrong[V any](v V) ref[V] { return strongRef[V]{v: v} }

func holdWeak[T any](v *T) ref[*T] { return weakRef[T]{p: weak.Make(v)} }

// entry is mutated in place on refresh; all access goes through the owning
// shard's lock.
type entry[V any] struct {
	ref     ref[V]
	expires time.Time
}

func (e *entry[V]) expired(now time.Time) bool { return !e.expires.After(now) }

func (e *entry[V]) reclaimed() bool {
	_, ok := e.ref.load()
	return !ok
}

func (e *entry[V]) stale(now time.Time) bool { return e.expired(now) || e.reclaimed() }
