package cache

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/typecache-go/internal/reflector"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// ID labels the registry in logs (default: random).
	ID  string
	Log *slog.Logger
	// Resolver supplies store Options (default: DefaultOptions for every store).
	Resolver OptionsResolver
	// StoreOptions are applied to every store before per-call options.
	StoreOptions []StoreOption
}

// Registry owns one store per (key type, value type, name). Stores are
// created on first request and live as long as the registry.
type Registry struct {
	id        string
	log       *slog.Logger
	resolver  OptionsResolver
	storeOpts []StoreOption

	mu     sync.RWMutex
	stores map[StoreKey]Handle
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.ID == "" {
		opts.ID = fmt.Sprintf("registry-%s", gonanoid.Must(6))
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Resolver == nil {
		opts.Resolver = Static(DefaultOptions, nil)
	}
	return &Registry{
		id:        opts.ID,
		log:       opts.Log.With(slog.String("registry", opts.ID)),
		resolver:  opts.Resolver,
		storeOpts: opts.StoreOptions,
		stores:    make(map[StoreKey]Handle),
	}
}

func (r *Registry) ID() string { return r.id }

// GetStore returns the store for (K, V, name), creating it on first use.
// An empty name is derived from K and V. Options are passed only when the
// store is created; later calls return the existing store unchanged.
func GetStore[K comparable, V any](ctx context.Context, r *Registry, name string, opts ...StoreOption) (*Store[K, V], error) {
	key := storeKeyFor[K, V](name)
	return getOrCreate(ctx, r, key, opts, func(o Options, so []StoreOption) (*Store[K, V], error) {
		return NewStore[K, V](key.Name, o, so...)
	})
}

// GetWeakStore is GetStore for a store created with NewWeakStore. It shares
// its identity with GetStore[K, *T]: whichever call creates the store first
// decides how values are retained.
func GetWeakStore[K comparable, T any](ctx context.Context, r *Registry, name string, opts ...StoreOption) (*Store[K, *T], error) {
	key := storeKeyFor[K, *T](name)
	return getOrCreate(ctx, r, key, opts, func(o Options, so []StoreOption) (*Store[K, *T], error) {
		return NewWeakStore[K, T](key.Name, o, so...)
	})
}

// MustGetStore is like GetStore but panics on error.
func MustGetStore[K comparable, V any](ctx context.Context, r *Registry, name string, opts ...StoreOption) *Store[K, V] {
	s, err := GetStore[K, V](ctx, r, name, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func storeKeyFor[K comparable, V any](name string) StoreKey {
	if name == "" {
		name = reflector.PairName[K, V]()
	}
	return StoreKey{
		KeyType:   reflect.TypeFor[K](),
		ValueType: reflect.TypeFor[V](),
		Name:      name,
	}
}

func getOrCreate[K comparable, V any](
	ctx context.Context,
	r *Registry,
	key StoreKey,
	extra []StoreOption,
	build func(Options, []StoreOption) (*Store[K, V], error),
) (*Store[K, V], error) {
	r.mu.RLock()
	h, ok := r.stores[key]
	r.mu.RUnlock()
	if ok {
		// key carries K and V, so the handle is always a *Store[K, V]
		return h.(*Store[K, V]), nil
	}

	o, err := r.resolver.ResolveOptions(ctx, key)
	if err != nil {
		r.log.Error("failed to resolve cache options", slog.String("store", key.Name), slog.Any("error", err))
		code := errors.GetCode(err)
		if code == errors.CodeUnknown {
			code = errors.CodeInvalidConfig
		}
		return nil, errors.WithContext(errors.Wrap(err, code, "cache: resolve options"), "store", key.Name)
	}

	storeOpts := make([]StoreOption, 0, len(r.storeOpts)+len(extra)+1)
	storeOpts = append(storeOpts, WithLogger(r.log))
	storeOpts = append(storeOpts, r.storeOpts...)
	storeOpts = append(storeOpts, extra...)

	created, err := build(o, storeOpts)
	if err != nil {
		return nil, err
	}

	// first writer wins; a store built by a losing racer is dropped
	r.mu.Lock()
	if h, ok := r.stores[key]; ok {
		r.mu.Unlock()
		return h.(*Store[K, V]), nil
	}
	r.stores[key] = created
	r.mu.Unlock()

	r.log.Info("cache store created",
		slog.String("store", key.Name),
		slog.Duration("expiry", o.ExpiryTime),
		slog.Int("capacity", o.Capacity),
	)
	return created, nil
}

// Len returns the number of registered stores.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// Stores returns a snapshot of all registered stores, sorted by name.
func (r *Registry) Stores() []Handle {
	r.mu.RLock()
	out := make([]Handle, 0, len(r.stores))
	for _, h := range r.stores {
		out = append(out, h)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Handle) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// ReportAll returns one report per store. Counts are read store by store and
// are not a consistent snapshot across stores.
func (r *Registry) ReportAll() []Report {
	stores := r.Stores()
	out := make([]Report, 0, len(stores))
	for _, h := range stores {
		out = append(out, h.Report())
	}
	return out
}

// ClearAll clears every store.
func (r *Registry) ClearAll() {
	stores := r.Stores()
	for _, h := range stores {
		h.Clear()
	}
	r.log.Info("cleared all cache stores", slog.Int("stores", len(stores)))
}

// ClearByName clears every store named name and returns how many matched.
func (r *Registry) ClearByName(name string) int {
	n := 0
	for _, h := range r.Stores() {
		if h.Name() == name {
			h.Clear()
			n++
		}
	}
	if n > 0 {
		r.log.Info("cleared cache store", slog.String("store", name))
	}
	return n
}

// CollectAll sweeps expired entries from every store and returns the total
// number removed.
func (r *Registry) CollectAll() int {
	removed := 0
	for _, h := range r.Stores() {
		removed += h.Collect()
	}
	return removed
}

// RunCollector calls CollectAll every interval until ctx is done.
// A non-positive interval returns immediately.
func (r *Registry) RunCollector(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.CollectAll(); n > 0 {
				r.log.Debug("collected stale cache entries", slog.Int("removed", n))
			}
		}
	}
}
