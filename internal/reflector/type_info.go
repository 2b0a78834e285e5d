// Package reflector derives stable, human readable names for Go types.
// Names are used to label caches that are keyed by their type parameters.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the name cache. The number of distinct type pairs a
// program caches is small, so this is rarely hit; when it is, the cache is reset.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo holds the derived name of a type.
type TypeInfo struct {
	Name string       // "pkg/path.TypeName", "*pkg/path.TypeName" or the builtin spelling
	Type reflect.Type // The reflected type, pointers are NOT unwrapped
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for t. Results are cached; safe for
// concurrent use.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{Name: "<nil>"}
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{Name: nameOf(t), Type: t}

	muCache.Lock()
	if existing, ok := cache[t]; ok {
		muCache.Unlock()
		return existing
	}
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	muCache.Unlock()

	return ti
}

// PairName names a (key, value) type pair, e.g. "string:*example.com/app.Page".
func PairName[K, V any]() string {
	return TypeInfoFor[K]().Name + ":" + TypeInfoFor[V]().Name
}

func nameOf(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + nameOf(t.Elem())
	}
	if t.Name() == "" || t.PkgPath() == "" {
		// builtins and unnamed composites: int, []uint8, map[string]int
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
