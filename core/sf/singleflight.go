package sf

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Group deduplicates concurrent function calls with the same key.
// The zero value is ready to use.
//
// Keys are compared with ==, never by their formatted text, so two unequal
// keys never share a call.
type Group[K comparable, V any] struct {
	mu    sync.Mutex
	slots map[K]*slot
	seq   uint64
	group singleflight.Group
}

// slot maps a key to its singleflight token while any caller is using it.
type slot struct {
	token string
	refs  int
}

// Do executes fn for key, deduplicating concurrent calls. shared reports
// whether the result was handed to more than one caller.
func (g *Group[K, V]) Do(key K, fn func() (V, error)) (v V, err error, shared bool) {
	sl := g.acquire(key)
	defer g.release(key, sl)

	out, err, shared := g.group.Do(sl.token, func() (any, error) {
		return fn()
	})
	if err != nil {
		return v, err, shared
	}
	v, _ = out.(V)
	return v, nil, shared
}

// Forget drops any in-flight call for key so the next Do runs fn again.
// Callers already waiting on the forgotten call still receive its result.
func (g *Group[K, V]) Forget(key K) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sl, ok := g.slots[key]; ok {
		g.group.Forget(sl.token)
	}
}

func (g *Group[K, V]) acquire(key K) *slot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.slots == nil {
		g.slots = make(map[K]*slot)
	}
	sl, ok := g.slots[key]
	if !ok {
		g.seq++
		sl = &slot{token: strconv.FormatUint(g.seq, 36)}
		g.slots[key] = sl
	}
	sl.refs++
	return sl
}

func (g *Group[K, V]) release(key K, sl *slot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sl.refs--; sl.refs == 0 && g.slots[key] == sl {
		delete(g.slots, key)
	}
}

// New creates a Group for keys K and results V.
func New[K comparable, V any]() *Group[K, V] {
	return &Group[K, V]{}
}
