package cache

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// page is large enough to stay out of the tiny allocator, whose blocks are
// only freed together.
type page struct {
	ID   int
	Body [256]byte
	Tags []string
}

func newWeakTestStore(t *testing.T) *Store[int, *page] {
	t.Helper()
	s, err := NewWeakStore[int, page]("pages", Options{ExpiryTime: time.Hour, Capacity: 10})
	require.NoError(t, err)
	return s
}

//go:noinline
func populateUnreferenced(t *testing.T, s *Store[int, *page], id int) {
	_, err := s.GetOrPopulate(id, func(id int) (*page, error) {
		return &page{ID: id, Tags: []string{"a"}}, nil
	})
	require.NoError(t, err)
}

func TestWeakStore_Hit(t *testing.T) {
	s := newWeakTestStore(t)
	p := &page{ID: 1}

	got, err := s.GetOrPopulate(1, func(int) (*page, error) { return p, nil })
	require.NoError(t, err)
	require.Same(t, p, got)

	runtime.GC()
	got, ok := s.Get(1)
	require.True(t, ok, "value is strongly referenced by the test")
	require.Same(t, p, got)
	runtime.KeepAlive(p)
}

func TestWeakStore_Reclaimed(t *testing.T) {
	s := newWeakTestStore(t)
	populateUnreferenced(t, s, 1)
	require.Equal(t, 1, s.Count())

	require.Eventually(t, func() bool {
		runtime.GC()
		_, ok := s.Get(1)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 0, s.Count(), "reclaimed entry is removed on read")

	populateUnreferenced(t, s, 2)
	require.Eventually(t, func() bool {
		runtime.GC()
		return s.Collect() == 1
	}, 2*time.Second, 10*time.Millisecond, "Collect sweeps reclaimed entries")
}

func TestWeakStore_NilIsEmpty(t *testing.T) {
	s := newWeakTestStore(t)
	calls := 0
	populate := func(int) (*page, error) {
		calls++
		return nil, nil
	}

	_, _ = s.GetOrPopulate(1, populate)
	_, _ = s.GetOrPopulate(1, populate)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, s.Count())
}
