package kv

import (
	"context"
	"maps"
	"sync"
	"time"
)

type memEntry struct {
	Entry
	expires time.Time
}

// MemStore is an in-process Store. PutOptions.TTL is honoured on read.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]memEntry
	now  func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string]memEntry{}, now: time.Now}
}

func (m *MemStore) Put(_ context.Context, key string, entry Entry, opts PutOptions) error {
	e := memEntry{Entry: Entry{Data: append([]byte(nil), entry.Data...), Meta: maps.Clone(entry.Meta)}}
	if opts.TTL > 0 {
		e.expires = m.now().Add(opts.TTL)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = e
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (entry Entry, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || (!e.expires.IsZero() && !e.expires.After(m.now())) {
		return entry, ErrNotFound
	}

	return e.Entry, nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var _ Store = (*MemStore)(nil)
