package cache

import (
	"context"
	"reflect"

	"github.com/jmgilman/go/errors"
)

// StoreKey identifies a store in a Registry.
type StoreKey struct {
	KeyType   reflect.Type
	ValueType reflect.Type
	Name      string
}

func (k StoreKey) String() string { return k.Name }

// OptionsResolver supplies the Options for a store about to be created.
// Implementations return an error wrapping ErrNoOptions when they have no
// configuration for the store.
type OptionsResolver interface {
	ResolveOptions(ctx context.Context, key StoreKey) (Options, error)
}

// ResolverFunc adapts a function to OptionsResolver.
type ResolverFunc func(ctx context.Context, key StoreKey) (Options, error)

func (f ResolverFunc) ResolveOptions(ctx context.Context, key StoreKey) (Options, error) {
	return f(ctx, key)
}

// StaticResolver resolves Options from an in-memory table keyed by store name.
// Zero fields of a per-store entry are filled from Defaults.
type StaticResolver struct {
	Defaults Options
	Stores   map[string]Options
	// Strict makes names missing from Stores fail instead of using Defaults.
	Strict bool
}

// Static returns a resolver that uses stores for the named stores and
// defaults for everything else.
func Static(defaults Options, stores map[string]Options) *StaticResolver {
	return &StaticResolver{Defaults: defaults, Stores: stores}
}

func (r *StaticResolver) ResolveOptions(_ context.Context, key StoreKey) (Options, error) {
	if o, ok := r.Stores[key.Name]; ok {
		return o.WithDefaults(r.Defaults), nil
	}
	if r.Strict {
		return Options{}, errors.Wrapf(ErrNoOptions, errors.CodeNotFound, "no options for store %q", key.Name)
	}
	return r.Defaults, nil
}

// Chain tries each resolver in order and returns the first Options found.
// Resolvers reporting ErrNoOptions are skipped; any other error stops the chain.
func Chain(resolvers ...OptionsResolver) OptionsResolver {
	return ResolverFunc(func(ctx context.Context, key StoreKey) (Options, error) {
		for _, r := range resolvers {
			o, err := r.ResolveOptions(ctx, key)
			if err == nil {
				return o, nil
			}
			if !errors.Is(err, ErrNoOptions) {
				return Options{}, err
			}
		}
		return Options{}, errors.Wrapf(ErrNoOptions, errors.CodeNotFound, "no resolver has options for store %q", key.Name)
	})
}

var _ OptionsResolver = (*StaticResolver)(nil)
