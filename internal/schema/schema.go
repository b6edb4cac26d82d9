// Package schema loads and serves the table schemas that declare which
// fields are indexed. Schemas are immutable once loaded.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/quirkdb/quirkdb/internal/types"
)

// Registry holds one TableSchema per declared table.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]types.TableSchema
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{schemas: make(map[string]types.TableSchema)}
}

// rawTable mirrors the on-disk schema file's per-table object: only
// indexedFields is load-bearing, everything else is ignored.
type rawTable struct {
	IndexedFields map[string]string `json:"indexedFields"`
}

// LoadFile reads and parses the schema file at path, per §6:
//
//	{ "<table>": { "indexedFields": { "<field>": "<typeLabel>" } } }
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("schema: read %s: %w", path, err)
	}
	return r.LoadBytes(data)
}

// LoadBytes parses schema JSON from data, replacing the registry's
// contents.
func (r *Registry) LoadBytes(data []byte) error {
	var raw map[string]rawTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: %w: %v", types.ErrBadSchemaJSON, err)
	}

	schemas := make(map[string]types.TableSchema, len(raw))
	for table, t := range raw {
		ts := types.TableSchema{IndexedFields: make(map[string]string, len(t.IndexedFields))}
		for field, label := range t.IndexedFields {
			ts.IndexedFields[field] = label
		}
		schemas[table] = ts
	}

	r.mu.Lock()
	r.schemas = schemas
	r.mu.Unlock()
	return nil
}

// Get returns the schema for table, or an empty no-index schema if the
// table was declared with no indexedFields, and ErrUnknownTable if the
// table has no entry at all.
func (r *Registry) Get(table string) (types.TableSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.schemas[table]
	if !ok {
		return types.TableSchema{}, fmt.Errorf("schema: %s: %w", table, types.ErrUnknownTable)
	}
	return ts, nil
}

// Tables returns all declared table names.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		out = append(out, t)
	}
	return out
}

// IsIndexed reports whether table declares field as indexed. Returns false
// for unknown tables rather than erroring, since callers probing for a
// fast path should treat "no schema" the same as "no index".
func (r *Registry) IsIndexed(table, field string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.schemas[table]
	return ok && ts.IsIndexed(field)
}
