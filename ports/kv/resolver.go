package kv

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	perrors "github.com/jmgilman/go/errors"

	"github.com/codewandler/typecache-go/core/cache"
	"github.com/codewandler/typecache-go/internal/codec"
)

// ResolverOptions configures NewOptionsResolver.
type ResolverOptions struct {
	// Prefix is prepended to the sanitized store name (e.g. "typecache.").
	Prefix string
	// Codec decodes stored documents (default: JSON).
	Codec codec.Codec
	// Fallback is consulted when no document exists for a store. Without
	// one, missing documents fail with cache.ErrNoOptions.
	Fallback cache.OptionsResolver
	Log      *slog.Logger
}

type optionsResolver struct {
	store Store
	opts  ResolverOptions
}

// NewOptionsResolver resolves store Options from documents held in store.
// Zero fields of a stored document are filled from the fallback, when set.
func NewOptionsResolver(store Store, opts ResolverOptions) cache.OptionsResolver {
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &optionsResolver{store: store, opts: opts}
}

func (r *optionsResolver) ResolveOptions(ctx context.Context, key cache.StoreKey) (cache.Options, error) {
	k := OptionsKey(r.opts.Prefix, key.Name)

	o, err := GetWith[cache.Options](ctx, r.store, r.opts.Codec, k)
	switch {
	case errors.Is(err, ErrNotFound):
		if r.opts.Fallback == nil {
			return cache.Options{}, perrors.Wrapf(cache.ErrNoOptions, perrors.CodeNotFound, "no options at key %q", k)
		}
		return r.opts.Fallback.ResolveOptions(ctx, key)
	case err != nil:
		return cache.Options{}, err
	}

	r.opts.Log.Debug("resolved cache options from kv", slog.String("key", k), slog.String("store", key.Name))
	if r.opts.Fallback != nil {
		d, err := r.opts.Fallback.ResolveOptions(ctx, key)
		if err == nil {
			o = o.WithDefaults(d)
		}
	}
	return o, nil
}

// OptionsKey returns the key holding the Options document for a store.
// Characters outside [A-Za-z0-9_=.-] are replaced by '_' so that derived
// names such as "string:*pages.Page" are valid in restrictive backends.
func OptionsKey(prefix, name string) string {
	return prefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '=', r == '.', r == '-':
			return r
		}
		return '_'
	}, name)
}
