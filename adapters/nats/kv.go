package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/typecache-go/ports/kv"
)

const (
	defaultBucket  = "typecache_options"
	defaultTimeout = 5 * time.Second
)

type KvConfig struct {
	Connect Connector    // If nil, ConnectDefault() is used.
	Log     *slog.Logger // optional
	Bucket  string       // default: typecache_options
	// TTL bounds the age of every key in the bucket. JetStream KV has no
	// per-key TTL on Put, so kv.PutOptions.TTL must be zero or equal to it.
	TTL time.Duration
	// Timeout applies to operations whose context has no deadline.
	Timeout time.Duration
}

// KvStore implements kv.Store on a JetStream key/value bucket.
type KvStore struct {
	kv      jetstream.KeyValue
	log     *slog.Logger
	ttl     time.Duration
	timeout time.Duration
	close   closeFunc
}

// NewKvStore connects and creates the bucket if it does not exist.
func NewKvStore(ctx context.Context, cfg KvConfig) (*KvStore, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = defaultBucket
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	nc, closeConn, err := doConnect()
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		closeConn()
		return nil, err
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:   cfg.Bucket,
		Storage:  jetstream.FileStorage,
		TTL:      cfg.TTL,
		MaxBytes: 1024 * 1024,
	})
	if err != nil {
		closeConn()
		return nil, fmt.Errorf("nats: bucket %s: %w", cfg.Bucket, err)
	}

	cfg.Log.Debug("nats kv bucket ready", slog.String("bucket", cfg.Bucket))

	return &KvStore{
		kv:      bucket,
		log:     cfg.Log.With(slog.String("bucket", cfg.Bucket)),
		ttl:     cfg.TTL,
		timeout: cfg.Timeout,
		close:   closeConn,
	}, nil
}

func (k *KvStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, k.timeout)
}

func (k *KvStore) Put(ctx context.Context, key string, entry kv.Entry, opts kv.PutOptions) error {
	if opts.TTL != 0 && opts.TTL != k.ttl {
		return fmt.Errorf("nats: per-key ttl %s not supported, bucket ttl is %s", opts.TTL, k.ttl)
	}

	ctx, cancel := k.withTimeout(ctx)
	defer cancel()

	if _, err := k.kv.Put(ctx, key, entry.Data); err != nil {
		return fmt.Errorf("nats: put %s: %w", key, err)
	}
	return nil
}

func (k *KvStore) Get(ctx context.Context, key string) (entry kv.Entry, err error) {
	ctx, cancel := k.withTimeout(ctx)
	defer cancel()

	v, err := k.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return entry, kv.ErrNotFound
		}
		return entry, fmt.Errorf("nats: get %s: %w", key, err)
	}
	return kv.Entry{
		Data: v.Value(),
		Meta: map[string]any{"revision": v.Revision(), "created": v.Created()},
	}, nil
}

func (k *KvStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := k.withTimeout(ctx)
	defer cancel()

	if err := k.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("nats: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the connection.
func (k *KvStore) Close() {
	k.close()
	k.log.Debug("nats kv store closed")
}

var _ kv.Store = (*KvStore)(nil)
