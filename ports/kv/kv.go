// Package kv is the key/value port cache configuration can be read from.
package kv

import (
	"context"
	"errors"
	"time"

	"github.com/codewandler/typecache-go/internal/codec"
)

var (
	ErrNotFound = errors.New("not found")
)

type Entry struct {
	Data []byte
	Meta map[string]any
}

type PutOptions struct {
	TTL time.Duration
}

type Store interface {
	Put(ctx context.Context, key string, entry Entry, opts PutOptions) error
	Get(ctx context.Context, key string) (entry Entry, err error)
	Delete(ctx context.Context, key string) error
}

// Put encodes v with the default codec and stores it under key.
func Put[T any](ctx context.Context, store Store, key string, v T, opts PutOptions) error {
	return PutWith(ctx, store, codec.Default, key, v, opts)
}

// Get loads key and decodes it with the default codec.
func Get[T any](ctx context.Context, store Store, key string) (out T, err error) {
	return GetWith[T](ctx, store, codec.Default, key)
}

func PutWith[T any](ctx context.Context, store Store, c codec.Codec, key string, v T, opts PutOptions) error {
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, Entry{Data: data}, opts)
}

func GetWith[T any](ctx context.Context, store Store, c codec.Codec, key string) (out T, err error) {
	entry, err := store.Get(ctx, key)
	if err != nil {
		return
	}
	err = c.Unmarshal(entry.Data, &out)
	return
}
