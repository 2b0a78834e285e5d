package cache

import (
	"context"
	"hash/maphash"
	"log/slog"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/codewandler/typecache-go/core/sf"
	"github.com/codewandler/typecache-go/internal/reflector"
)

// numShards must be a power of two.
const numShards = 16

// Handle is the type-independent view of a Store, used by the Registry and
// by administrative tooling.
type Handle interface {
	Name() string
	Count() int
	Options() Options
	Clear()
	Collect() int
	Report() Report
}

type shard[K comparable, V any] struct {
	sync.RWMutex
	items map[K]*entry[V]
}

// Store is a concurrency-safe TTL cache from K to V.
type Store[K comparable, V any] struct {
	name    string
	opts    Options
	seed    maphash.Seed
	shards  [numShards]*shard[K, V]
	hold    func(V) ref[V]
	isEmpty func(V) bool
	clock   Clock
	log     *slog.Logger
	metrics Metrics
	flight  *sf.Group[K, V]
}

// NewStore creates a store holding its values strongly. An empty name is
// replaced by one derived from K and V.
func NewStore[K comparable, V any](name string, opts Options, storeOpts ...StoreOption) (*Store[K, V], error) {
	return newStore[K, V](name, opts, holdStrong[V], defaultEmpty[V](), storeOpts)
}

// NewWeakStore creates a store whose values may be reclaimed by the garbage
// collector once nothing outside the store references them. Nil pointers
// are treated as empty unless WithEmpty says otherwise.
func NewWeakStore[K comparable, T any](name string, opts Options, storeOpts ...StoreOption) (*Store[K, *T], error) {
	return newStore[K, *T](name, opts, holdWeak[T], nilPointer[T], storeOpts)
}

func newStore[K comparable, V any](
	name string,
	opts Options,
	hold func(V) ref[V],
	isEmpty func(V) bool,
	storeOpts []StoreOption,
) (*Store[K, V], error) {
	if name == "" {
		name = reflector.PairName[K, V]()
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.WithContext(err, "store", name)
	}

	cfg := newStoreConfig(storeOpts)
	if cfg.isEmpty != nil {
		f, ok := cfg.isEmpty.(func(V) bool)
		if !ok {
			err := errors.Wrapf(ErrEmptyPredicate, errors.CodeInvalidConfig,
				"want func(%s) bool, got %T", reflector.TypeInfoFor[V]().Name, cfg.isEmpty)
			return nil, errors.WithContext(err, "store", name)
		}
		isEmpty = f
	}

	s := &Store[K, V]{
		name:    name,
		opts:    opts,
		seed:    maphash.MakeSeed(),
		hold:    hold,
		isEmpty: isEmpty,
		clock:   cfg.clock,
		log:     cfg.log.With(slog.String("store", name)),
		metrics: cfg.metrics,
	}
	for i := range s.shards {
		s.shards[i] = &shard[K, V]{items: make(map[K]*entry[V])}
	}
	if cfg.singleflight {
		s.flight = sf.New[K, V]()
	}
	return s, nil
}

func (s *Store[K, V]) Name() string     { return s.name }
func (s *Store[K, V]) Options() Options { return s.opts }

func (s *Store[K, V]) Report() Report {
	return Report{Name: s.name, Count: s.Count(), Options: s.opts}
}

// Count returns the number of entries, including expired ones not yet swept.
func (s *Store[K, V]) Count() int {
	n := 0
	for _, sh := range s.shards {
		sh.RLock()
		n += len(sh.items)
		sh.RUnlock()
	}
	return n
}

func (s *Store[K, V]) shardFor(key K) *shard[K, V] {
	return s.shards[maphash.Comparable(s.seed, key)&(numShards-1)]
}

// Get returns the cached value for key. Expired or reclaimed entries are
// removed and reported as a miss.
func (s *Store[K, V]) Get(key K) (v V, ok bool) {
	var (
		sh      = s.shardFor(key)
		now     = s.clock.Now()
		expired bool
	)

	sh.RLock()
	e, found := sh.items[key]
	if found {
		if expired = e.expired(now); !expired {
			v, ok = e.ref.load()
		}
	}
	sh.RUnlock()

	if ok {
		s.metrics.Hit(s.name)
		return v, true
	}
	if found {
		reason := EvictReclaimed
		if expired {
			reason = EvictExpired
		}
		s.dropStale(sh, key, e, now, reason)
	}
	s.metrics.Miss(s.name)
	return v, false
}

// dropStale removes e if it is still the entry for key and still stale;
// it may have been refreshed in place since it was read.
func (s *Store[K, V]) dropStale(sh *shard[K, V], key K, e *entry[V], now time.Time, reason EvictReason) {
	sh.Lock()
	cur, ok := sh.items[key]
	removed := ok && cur == e && e.stale(now)
	if removed {
		delete(sh.items, key)
	}
	sh.Unlock()

	if removed {
		s.metrics.Evicted(s.name, reason)
	}
}

// GetOrPopulate returns the cached value for key, or calls populate, caches
// its result and returns it. Errors from populate are returned unchanged and
// nothing is cached.
func (s *Store[K, V]) GetOrPopulate(key K, populate func(K) (V, error)) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	return s.populate(key, func() (V, error) { return populate(key) })
}

// GetOrPopulateContext is GetOrPopulate for population functions that block
// on I/O. ctx is handed to populate; the store itself enforces no deadline.
func (s *Store[K, V]) GetOrPopulateContext(ctx context.Context, key K, populate func(context.Context, K) (V, error)) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	return s.populate(key, func() (V, error) { return populate(ctx, key) })
}

func (s *Store[K, V]) populate(key K, fn func() (V, error)) (v V, err error) {
	timer := s.metrics.PopulateDuration(s.name)
	if s.flight != nil {
		v, err, _ = s.flight.Do(key, fn)
	} else {
		v, err = fn()
	}
	timer.ObserveDuration()

	if err != nil {
		s.metrics.PopulateFailed(s.name)
		var zero V
		return zero, err
	}

	s.add(key, v)
	return v, nil
}

func (s *Store[K, V]) add(key K, value V) {
	s.Collect()

	if s.isEmpty(value) {
		s.delete(key)
		return
	}

	var (
		sh      = s.shardFor(key)
		expires = s.clock.Now().Add(s.opts.ExpiryTime)
	)

	sh.Lock()
	if e, ok := sh.items[key]; ok {
		e.ref = s.hold(value)
		e.expires = expires
	} else {
		sh.items[key] = &entry[V]{ref: s.hold(value), expires: expires}
	}
	sh.Unlock()

	if s.Count() > s.opts.Capacity {
		s.evictOne()
	}
}

// evictOne removes the entry with the earliest expiry. The scan is a
// snapshot across shards; ties are broken by map iteration order. If the
// chosen victim vanished before it could be removed, for instance taken by a
// concurrent eviction, the scan is retried while the store is still over capacity.
func (s *Store[K, V]) evictOne() {
	for attempt := 0; attempt < maxEvictAttempts; attempt++ {
		if s.tryEvict() || s.Count() <= s.opts.Capacity {
			return
		}
	}
}

const maxEvictAttempts = 3

func (s *Store[K, V]) tryEvict() bool {
	var (
		found         bool
		victimKey     K
		victim        *entry[V]
		victimExpires time.Time
		victimShard   *shard[K, V]
	)

	for _, sh := range s.shards {
		sh.RLock()
		for k, e := range sh.items {
			if !found || e.expires.Before(victimExpires) {
				found = true
				victimKey, victim, victimExpires, victimShard = k, e, e.expires, sh
			}
		}
		sh.RUnlock()
	}
	if !found {
		return false
	}

	victimShard.Lock()
	cur, ok := victimShard.items[victimKey]
	removed := ok && cur == victim
	if removed {
		delete(victimShard.items, victimKey)
	}
	victimShard.Unlock()

	if removed {
		s.metrics.Evicted(s.name, EvictCapacity)
		s.log.Debug("evicted entry over capacity",
			slog.Any("key", victimKey),
			slog.Time("expires", victimExpires),
			slog.Int("capacity", s.opts.Capacity),
		)
	}
	return removed
}

// Expire sets the expiry of key to now + ttl without touching its value.
// It is a no-op if key is not cached.
func (s *Store[K, V]) Expire(key K, ttl time.Duration) {
	sh := s.shardFor(key)
	expires := s.clock.Now().Add(ttl)

	sh.Lock()
	if e, ok := sh.items[key]; ok {
		e.expires = expires
	}
	sh.Unlock()
}

// Remove deletes key. Callers invoke it after changing the record behind key.
// A population for key already in flight is no longer shared with later
// callers, who load the record afresh.
func (s *Store[K, V]) Remove(key K) {
	s.delete(key)
	if s.flight != nil {
		s.flight.Forget(key)
	}
}

func (s *Store[K, V]) delete(key K) {
	sh := s.shardFor(key)
	sh.Lock()
	delete(sh.items, key)
	sh.Unlock()
}

// Clear deletes every entry.
func (s *Store[K, V]) Clear() {
	for _, sh := range s.shards {
		sh.Lock()
		clear(sh.items)
		sh.Unlock()
	}
}

// Collect removes every expired or reclaimed entry and returns how many
// were removed. Shards without stale entries are never write-locked.
func (s *Store[K, V]) Collect() int {
	var (
		now     = s.clock.Now()
		removed int
	)

	for _, sh := range s.shards {
		if !sh.hasStale(now) {
			continue
		}
		sh.Lock()
		for k, e := range sh.items {
			if e.stale(now) {
				delete(sh.items, k)
				removed++
			}
		}
		sh.Unlock()
	}

	if removed > 0 {
		s.metrics.Collected(s.name, removed)
	}
	return removed
}

func (sh *shard[K, V]) hasStale(now time.Time) bool {
	sh.RLock()
	defer sh.RUnlock()
	for _, e := range sh.items {
		if e.stale(now) {
			return true
		}
	}
	return false
}

var _ Handle = (*Store[string, any])(nil)
