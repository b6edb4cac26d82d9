// Package index maintains the in-memory secondary indexes: one ordered
// multimap per (table, indexed field) mapping value -> set of primary keys.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quirkdb/quirkdb/internal/jsonrow"
	"github.com/quirkdb/quirkdb/internal/schema"
	"github.com/quirkdb/quirkdb/internal/storage"
	"github.com/quirkdb/quirkdb/internal/types"
)

// bucket is the ordered multimap value -> keys for one (table, field).
// Order within a bucket is insertion order; ORDER BY pushdown relies on
// OrderedKeys, which walks buckets in value order, not key order within a
// bucket.
type bucket struct {
	order []string          // distinct values, insertion order of first sight
	keys  map[string][]string
}

func newBucket() *bucket {
	return &bucket{keys: make(map[string][]string)}
}

func (b *bucket) insert(value, key string) {
	if _, ok := b.keys[value]; !ok {
		b.order = append(b.order, value)
	}
	b.keys[value] = append(b.keys[value], key)
}

func (b *bucket) remove(value, key string) {
	ks, ok := b.keys[value]
	if !ok {
		return
	}
	for i, k := range ks {
		if k == key {
			b.keys[value] = append(ks[:i], ks[i+1:]...)
			break
		}
	}
	if len(b.keys[value]) == 0 {
		delete(b.keys, value)
		for i, v := range b.order {
			if v == value {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Manager is the process-wide index manager. All state is guarded by mu,
// which covers the index maps only; it is not held across the storage
// write. executor.Engine's lock fuses each (storage-write, index-update)
// pair.
type Manager struct {
	mu      sync.RWMutex
	schemas *schema.Registry
	log     *slog.Logger

	// idx[table][field] -> bucket
	idx map[string]map[string]*bucket
}

// New returns a Manager backed by schemas. If log is nil, a discard logger
// is used.
func New(schemas *schema.Registry, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		schemas: schemas,
		log:     log,
		idx:     make(map[string]map[string]*bucket),
	}
}

// HasIndex reports whether table declares field as indexed.
func (m *Manager) HasIndex(table, field string) bool {
	return m.schemas.IsIndexed(table, field)
}

// RebuildAll clears the index and rebuilds it by scanning every table
// declared in the schema registry, fanning the per-table scans out across
// goroutines since tables are disjoint keyspaces.
func (m *Manager) RebuildAll(ctx context.Context, s storage.Storage) error {
	tables := m.schemas.Tables()

	partial := make(map[string]map[string]*bucket, len(tables))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, table := range tables {
		table := table
		g.Go(func() error {
			built, err := m.rebuildTable(gctx, s, table)
			if err != nil {
				return err
			}
			mu.Lock()
			partial[table] = built
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("index: rebuild all: %w", err)
	}

	m.mu.Lock()
	m.idx = partial
	m.mu.Unlock()
	return nil
}

func (m *Manager) rebuildTable(ctx context.Context, s storage.Storage, table string) (map[string]*bucket, error) {
	ts, err := m.schemas.Get(table)
	if err != nil {
		return nil, err
	}
	fields := ts.IndexedFields
	buckets := make(map[string]*bucket, len(fields))
	for f := range fields {
		buckets[f] = newBucket()
	}

	it, err := s.Scan(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("index: scan %s: %w", table, err)
	}
	defer it.Close()

	m.log.Info("rebuilding index", "table", table)
	for it.Next() {
		row, err := jsonrow.Decode(it.Value())
		if err != nil {
			m.log.Warn("skipping invalid row during rebuild", "table", table, "key", it.Key(), "error", err)
			continue
		}
		key := it.Key()
		for field := range fields {
			v, ok := row.Get(field)
			if !ok || v == "" {
				continue
			}
			buckets[field].insert(v, key)
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("index: scan %s: %w", table, err)
	}
	m.log.Info("index rebuilt", "table", table)
	return buckets, nil
}

// OnInsert updates the index after a new row is written: insert (value,
// key) for every non-empty indexed field.
func (m *Manager) OnInsert(table, key string, newRow *types.Row) {
	m.OnUpdate(table, key, types.NewRow(), newRow)
}

// OnUpdate updates the index after key's row changes from oldRow to
// newRow: for each indexed field whose value changed, remove the stale
// (old, key) entry and insert the fresh (new, key) entry.
func (m *Manager) OnUpdate(table, key string, oldRow, newRow *types.Row) {
	ts, err := m.schemas.Get(table)
	if err != nil {
		return // unknown table: nothing to index
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for field := range ts.IndexedFields {
		oldVal := oldRow.GetOr(field)
		newVal := newRow.GetOr(field)
		if oldVal == newVal {
			continue
		}
		b := m.bucketLocked(table, field)
		if oldVal != "" {
			b.remove(oldVal, key)
		}
		if newVal != "" {
			b.insert(newVal, key)
		}
	}
}

// OnDelete updates the index after key's row (oldRow) is deleted.
func (m *Manager) OnDelete(table, key string, oldRow *types.Row) {
	ts, err := m.schemas.Get(table)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for field := range ts.IndexedFields {
		v, ok := oldRow.Get(field)
		if !ok || v == "" {
			continue
		}
		m.bucketLocked(table, field).remove(v, key)
	}
}

func (m *Manager) bucketLocked(table, field string) *bucket {
	ft, ok := m.idx[table]
	if !ok {
		ft = make(map[string]*bucket)
		m.idx[table] = ft
	}
	b, ok := ft[field]
	if !ok {
		b = newBucket()
		ft[field] = b
	}
	return b
}

// OrderedKeys returns the primary keys of table's indexed field, walked in
// ascending (or, if desc, descending) order of the field's value, for the
// ORDER BY pushdown fast path.
func (m *Manager) OrderedKeys(table, field string, desc bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b := m.idx[table][field]
	if b == nil {
		return nil
	}
	values := make([]string, len(b.order))
	copy(values, b.order)
	sortValues(values, desc)

	var out []string
	for _, v := range values {
		out = append(out, b.keys[v]...)
	}
	return out
}

// Lookup returns the keys indexed under value for (table, field).
func (m *Manager) Lookup(table, field, value string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b := m.idx[table][field]
	if b == nil {
		return nil
	}
	out := make([]string, len(b.keys[value]))
	copy(out, b.keys[value])
	return out
}

func sortValues(values []string, desc bool) {
	// insertion sort is adequate: index buckets fan out per field, not
	// per table, so this is never the dominant cost of a pushdown scan.
	for i := 1; i < len(values); i++ {
		for j := i; j > 0; j-- {
			less := values[j-1] < values[j]
			if desc {
				less = values[j-1] > values[j]
			}
			if less {
				break
			}
			values[j-1], values[j] = values[j], values[j-1]
		}
	}
}
