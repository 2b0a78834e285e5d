package cache

import "github.com/jmgilman/go/errors"

var (
	// ErrInvalidOptions is returned when a store is built from unusable Options.
	ErrInvalidOptions = errors.New(errors.CodeInvalidConfig, "invalid cache options")

	// ErrNoOptions is returned by resolvers that have no Options for a store.
	ErrNoOptions = errors.New(errors.CodeNotFound, "no cache options configured")

	// ErrEmptyPredicate is returned when WithEmpty was given a predicate for
	// a different value type than the store holds.
	ErrEmptyPredicate = errors.New(errors.CodeInvalidConfig, "empty predicate does not match value type")
)
