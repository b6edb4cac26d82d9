// Package memory implements storage.Storage as an in-process map. Used for
// unit tests and for non-durable "memory" backend deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/quirkdb/quirkdb/internal/storage"
)

// Storage is a thread-safe, map-backed storage.Storage implementation.
type Storage struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
}

// New returns an empty in-memory storage backend.
func New() *Storage {
	return &Storage{tables: make(map[string]map[string][]byte)}
}

func (s *Storage) table(name string) map[string][]byte {
	t, ok := s.tables[name]
	if !ok {
		t = make(map[string][]byte)
		s.tables[name] = t
	}
	return t
}

// Put implements storage.Storage.
func (s *Storage) Put(_ context.Context, table, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.table(table)[key] = cp
	return nil
}

// Delete implements storage.Storage.
func (s *Storage) Delete(_ context.Context, table, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.table(table), key)
	return nil
}

// Get implements storage.Storage.
func (s *Storage) Get(_ context.Context, table, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[table]
	if !ok {
		return nil, false, nil
	}
	v, ok := t[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

// Tables implements storage.Storage.
func (s *Storage) Tables(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for t := range s.tables {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// WriteBatch implements storage.Storage, applying ops atomically under a
// single write lock.
func (s *Storage) WriteBatch(_ context.Context, ops []storage.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if op.Value == nil {
			delete(s.table(op.Table), op.Key)
			continue
		}
		cp := make([]byte, len(op.Value))
		copy(cp, op.Value)
		s.table(op.Table)[op.Key] = cp
	}
	return nil
}

// Close implements storage.Storage; a no-op for the memory backend.
func (s *Storage) Close() error { return nil }

// Scan implements storage.Storage, returning keys in ascending order over
// a point-in-time snapshot of table.
func (s *Storage) Scan(_ context.Context, table string) (storage.Iterator, error) {
	s.mu.RLock()
	t := s.tables[table]
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = t[k]
	}
	s.mu.RUnlock()

	return &snapshotIterator{keys: keys, values: values, idx: -1}, nil
}

type snapshotIterator struct {
	keys   []string
	values [][]byte
	idx    int
}

func (it *snapshotIterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *snapshotIterator) Key() string   { return it.keys[it.idx] }
func (it *snapshotIterator) Value() []byte { return it.values[it.idx] }
func (it *snapshotIterator) Err() error     { return nil }
func (it *snapshotIterator) Close() error   { return nil }

var _ storage.Storage = (*Storage)(nil)
