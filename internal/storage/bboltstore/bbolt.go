// Package bboltstore implements storage.Storage over go.etcd.io/bbolt, the
// default quirkdb backend. Each table is a top-level bbolt bucket (a
// column-family analogue); bbolt's native B-tree key order gives ascending
// scans for free, and WriteBatch maps onto a single bbolt Update
// transaction for atomicity.
package bboltstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	bolt "go.etcd.io/bbolt"

	"github.com/quirkdb/quirkdb/internal/storage"
	"github.com/quirkdb/quirkdb/internal/types"
)

// Storage is a bbolt-backed storage.Storage implementation.
type Storage struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt file at path, creating a bucket for
// each of tableNames up front. Transient open failures (e.g. another
// process briefly holding the file lock) are retried with exponential
// backoff.
func Open(path string, tableNames []string) (*Storage, error) {
	var db *bolt.DB
	openOnce := func() error {
		d, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return err
		}
		db = d
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 5 * time.Second
	if err := backoff.Retry(openOnce, bo); err != nil {
		return nil, fmt.Errorf("bboltstore: open %s: %w: %v", path, types.ErrStorageOpen, err)
	}

	err := db.Update(func(tx *bolt.Tx) error {
		for _, t := range tableNames {
			if _, err := tx.CreateBucketIfNotExists([]byte(t)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bboltstore: init buckets: %w: %v", types.ErrStorageOpen, err)
	}

	return &Storage{db: db}, nil
}

// Put implements storage.Storage.
func (s *Storage) Put(_ context.Context, table, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

// Delete implements storage.Storage.
func (s *Storage) Delete(_ context.Context, table, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Get implements storage.Storage.
func (s *Storage) Get(_ context.Context, table, key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		value = append([]byte(nil), v...)
		return nil
	})
	return value, found, err
}

// Tables implements storage.Storage.
func (s *Storage) Tables(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// WriteBatch implements storage.Storage atomically via a single bbolt
// Update transaction.
func (s *Storage) WriteBatch(_ context.Context, ops []storage.Op) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, op := range ops {
			b, err := tx.CreateBucketIfNotExists([]byte(op.Table))
			if err != nil {
				return err
			}
			if op.Value == nil {
				if err := b.Delete([]byte(op.Key)); err != nil {
					return err
				}
				continue
			}
			if err := b.Put([]byte(op.Key), op.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements storage.Storage.
func (s *Storage) Close() error { return s.db.Close() }

// Scan implements storage.Storage, returning an iterator over a read-only
// bbolt cursor scoped to its own transaction, closed by Iterator.Close.
func (s *Storage) Scan(_ context.Context, table string) (storage.Iterator, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, err
	}
	b := tx.Bucket([]byte(table))
	if b == nil {
		_ = tx.Rollback()
		return &emptyIterator{}, nil
	}
	return &cursorIterator{tx: tx, cur: b.Cursor()}, nil
}

type cursorIterator struct {
	tx         *bolt.Tx
	cur        *bolt.Cursor
	key, value []byte
	started    bool
}

func (it *cursorIterator) Next() bool {
	if !it.started {
		it.started = true
		it.key, it.value = it.cur.First()
	} else {
		it.key, it.value = it.cur.Next()
	}
	return it.key != nil
}

func (it *cursorIterator) Key() string   { return string(it.key) }
func (it *cursorIterator) Value() []byte { return it.value }
func (it *cursorIterator) Err() error     { return nil }
func (it *cursorIterator) Close() error   { return it.tx.Rollback() }

type emptyIterator struct{}

func (emptyIterator) Next() bool    { return false }
func (emptyIterator) Key() string   { return "" }
func (emptyIterator) Value() []byte { return nil }
func (emptyIterator) Err() error     { return nil }
func (emptyIterator) Close() error  { return nil }

var _ storage.Storage = (*Storage)(nil)
