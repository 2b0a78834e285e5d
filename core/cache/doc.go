// Package cache provides typed, concurrency-safe TTL caches and a registry
// that owns exactly one cache per (key type, value type, name).
//
// # Stores
//
// A [Store] maps keys to values that expire after [Options.ExpiryTime]. Values
// are populated lazily: [Store.GetOrPopulate] returns the cached value or calls
// the supplied function, caches its result and returns it.
//
//	pages, err := cache.GetStore[uuid.UUID, *Page](ctx, reg, "pages")
//	if err != nil {
//	    return err
//	}
//	page, err := pages.GetOrPopulateContext(ctx, id, repo.loadPage)
//
// Callers own invalidation: after writing a record, call [Store.Remove] for
// its key (or [Store.Clear] for bulk changes).
//
// # Empty values
//
// A value considered empty by the store's predicate is never cached, and any
// existing entry for its key is dropped. By default empty strings and the nil
// UUID are empty; use [WithEmpty] to supply a predicate for other types.
//
// # Capacity and expiry
//
// Every insert first sweeps expired entries, then, when the store holds more
// than [Options.Capacity] entries, evicts the single entry that expires first.
// Capacity is a soft bound: concurrent inserts may exceed it transiently.
//
// # Reclaimable values
//
// [NewWeakStore] and [GetWeakStore] hold pointer values through weak
// pointers. The garbage collector may reclaim such a value once nothing else
// references it; the next read behaves like a miss.
//
// # Registry
//
// A [Registry] lazily creates stores on first use, resolving their [Options]
// through an [OptionsResolver], and fans administrative operations out to all
// of them: [Registry.ReportAll], [Registry.ClearAll], [Registry.CollectAll].
//
// Concurrent misses for the same key are not coalesced unless the store is
// created with [WithSingleflight].
package cache
