// Package storage presents the underlying key-value engine as a map of
// per-table namespaces (a column-family analogue), each ordered by key and
// supporting atomic multi-op writes. Row-level helpers
// (Insert/Update/ScanWith) are built on top in rowstore.go.
package storage

import "context"

// Iterator produces (key, value) pairs from a table scan in ascending
// key order. It is single-pass and must be closed by the caller.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is available.
	Next() bool
	Key() string
	Value() []byte
	// Err returns any error encountered during iteration.
	Err() error
	Close() error
}

// Op is one operation in an atomic WriteBatch. A nil Value means delete.
type Op struct {
	Table string
	Key   string
	Value []byte
}

// Storage is the contract every backend (bbolt, sqlsns, memory) satisfies.
type Storage interface {
	// Put writes value under key in table, creating the table's namespace
	// on demand.
	Put(ctx context.Context, table, key string, value []byte) error
	// Delete removes key from table. Deleting a missing key is not an error.
	Delete(ctx context.Context, table, key string) error
	// Get returns the value for key in table, and false if absent.
	Get(ctx context.Context, table, key string) ([]byte, bool, error)
	// Scan returns an iterator over table's rows in ascending key order.
	Scan(ctx context.Context, table string) (Iterator, error)
	// WriteBatch atomically applies ops, which may span any tables.
	WriteBatch(ctx context.Context, ops []Op) error
	// Tables returns the names of all known namespaces.
	Tables(ctx context.Context) ([]string, error)
	// Close releases the backend's resources.
	Close() error
}
