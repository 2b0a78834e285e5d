// Package sf provides a generic single-flight group for coalescing
// concurrent calls that share a key.
//
// If several goroutines call [Group.Do] with the same key while a call is in
// flight, only the first executes fn; the others block and receive the same
// result. The cache package uses it to optionally collapse concurrent misses
// for one key into a single population call.
//
// # Usage
//
//	var g sf.Group[int, *Page]
//
//	page, err, shared := g.Do(42, func() (*Page, error) {
//	    return db.LoadPage(ctx, 42)
//	})
//
// The type parameter gives type-safe results without casting.
package sf
