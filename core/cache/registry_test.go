package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	perrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   string
	Name string
}

func newTestRegistry(t *testing.T, resolver OptionsResolver, opts ...StoreOption) *Registry {
	t.Helper()
	return NewRegistry(RegistryOptions{
		ID:           "test",
		Resolver:     resolver,
		StoreOptions: opts,
	})
}

func TestRegistry_GetStore(t *testing.T) {
	r := newTestRegistry(t, nil)
	require.Equal(t, "test", r.ID())

	s1, err := GetStore[string, *user](t.Context(), r, "users")
	require.NoError(t, err)
	s2, err := GetStore[string, *user](t.Context(), r, "users")
	require.NoError(t, err)

	require.Same(t, s1, s2)
	require.Equal(t, "users", s1.Name())
	require.Equal(t, DefaultOptions, s1.Options())
	require.Equal(t, 1, r.Len())
}

func TestRegistry_DistinctIdentities(t *testing.T) {
	r := newTestRegistry(t, nil)

	byName, err := GetStore[string, *user](t.Context(), r, "users")
	require.NoError(t, err)
	byOtherName, err := GetStore[string, *user](t.Context(), r, "admins")
	require.NoError(t, err)
	byValue, err := GetStore[string, user](t.Context(), r, "users")
	require.NoError(t, err)
	derived, err := GetStore[int, string](t.Context(), r, "")
	require.NoError(t, err)

	require.NotSame(t, byName, byOtherName)
	require.Equal(t, "int:string", derived.Name())
	require.Equal(t, 4, r.Len())
	_ = byValue
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	var resolves atomic.Int32
	resolver := ResolverFunc(func(context.Context, StoreKey) (Options, error) {
		resolves.Add(1)
		time.Sleep(time.Millisecond)
		return Options{ExpiryTime: time.Minute, Capacity: 10}, nil
	})
	r := newTestRegistry(t, resolver)

	const n = 64
	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		stores = make([]*Store[string, int], n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			s, err := GetStore[string, int](context.Background(), r, "shared")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, stores[0], stores[i])
	}
	require.Equal(t, 1, r.Len())
	require.GreaterOrEqual(t, resolves.Load(), int32(1))
}

func TestRegistry_ResolveFailure(t *testing.T) {
	strict := &StaticResolver{Strict: true}
	r := newTestRegistry(t, strict)

	_, err := GetStore[string, int](t.Context(), r, "unknown")
	require.ErrorIs(t, err, ErrNoOptions)
	require.Equal(t, perrors.CodeNotFound, perrors.GetCode(err))
	require.Equal(t, 0, r.Len(), "failed stores must not be registered")

	boom := errors.New("kv timeout")
	r = newTestRegistry(t, ResolverFunc(func(context.Context, StoreKey) (Options, error) {
		return Options{}, boom
	}))
	_, err = GetStore[string, int](t.Context(), r, "x")
	require.ErrorIs(t, err, boom)
	require.Equal(t, perrors.CodeInvalidConfig, perrors.GetCode(err))

	require.Panics(t, func() { MustGetStore[string, int](t.Context(), r, "x") })
}

func TestRegistry_InvalidResolvedOptions(t *testing.T) {
	r := newTestRegistry(t, Static(Options{ExpiryTime: time.Minute, Capacity: 0}, nil))
	_, err := GetStore[string, int](t.Context(), r, "x")
	require.ErrorIs(t, err, ErrInvalidOptions)
	require.Equal(t, 0, r.Len())
}

func TestRegistry_StoreOptions(t *testing.T) {
	clock := NewManualClock(t0)
	r := newTestRegistry(t, Static(Options{ExpiryTime: time.Second, Capacity: 10}, nil), WithClock(clock))

	s := MustGetStore[string, int](t.Context(), r, "clocked")
	_, _ = s.GetOrPopulate("a", func(string) (int, error) { return 1, nil })

	clock.Advance(2 * time.Second)
	require.Equal(t, 1, r.CollectAll(), "registry-wide clock must drive expiry")
}

func TestRegistry_Admin(t *testing.T) {
	clock := NewManualClock(t0)
	r := newTestRegistry(t, Static(Options{ExpiryTime: time.Minute, Capacity: 10}, map[string]Options{
		"short": {ExpiryTime: time.Second},
	}), WithClock(clock))

	users := MustGetStore[string, *user](t.Context(), r, "users")
	short := MustGetStore[int, string](t.Context(), r, "short")

	for _, id := range []string{"u1", "u2"} {
		_, _ = users.GetOrPopulate(id, func(id string) (*user, error) { return &user{ID: id}, nil })
	}
	_, _ = short.GetOrPopulate(1, func(int) (string, error) { return "one", nil })

	require.Equal(t, []Report{
		{Name: "short", Count: 1, Options: Options{ExpiryTime: time.Second, Capacity: 10}},
		{Name: "users", Count: 2, Options: Options{ExpiryTime: time.Minute, Capacity: 10}},
	}, r.ReportAll())

	clock.Advance(2 * time.Second)
	require.Equal(t, 1, r.CollectAll())
	require.Equal(t, 0, short.Count())
	require.Equal(t, 2, users.Count())

	require.Equal(t, 0, r.ClearByName("nope"))
	require.Equal(t, 1, r.ClearByName("users"))
	require.Equal(t, 0, users.Count())

	_, _ = users.GetOrPopulate("u3", func(id string) (*user, error) { return &user{ID: id}, nil })
	_, _ = short.GetOrPopulate(2, func(int) (string, error) { return "two", nil })
	r.ClearAll()
	for _, rep := range r.ReportAll() {
		require.Zero(t, rep.Count, rep.Name)
	}

	// on an empty registry every admin operation is a no-op
	empty := newTestRegistry(t, nil)
	empty.ClearAll()
	require.Zero(t, empty.CollectAll())
	require.Empty(t, empty.ReportAll())
}

func TestRegistry_GetWeakStore(t *testing.T) {
	r := newTestRegistry(t, nil)

	weak, err := GetWeakStore[string, user](t.Context(), r, "users")
	require.NoError(t, err)

	same, err := GetStore[string, *user](t.Context(), r, "users")
	require.NoError(t, err)
	require.Same(t, weak, same, "weak and strong lookups share the store identity")
}

func TestRegistry_RunCollector(t *testing.T) {
	clock := NewManualClock(t0)
	r := newTestRegistry(t, Static(Options{ExpiryTime: time.Second, Capacity: 10}, nil), WithClock(clock))
	s := MustGetStore[string, int](t.Context(), r, "swept")
	_, _ = s.GetOrPopulate("a", func(string) (int, error) { return 1, nil })
	clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.RunCollector(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return s.Count() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCollector did not stop on cancel")
	}

	// disabled interval returns immediately
	r.RunCollector(t.Context(), 0)
}
