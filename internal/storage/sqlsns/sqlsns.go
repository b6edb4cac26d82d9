// Package sqlsns implements storage.Storage over a SQL database reached
// through database/sql, driven by github.com/go-sql-driver/mysql or
// github.com/dolthub/driver. Each table namespace becomes a SQL table
// with a (ns_key VARCHAR(255) PRIMARY KEY, ns_value LONGTEXT) shape, ordered
// scans use ORDER BY ns_key, and WriteBatch is one SQL transaction. This backend exists
// so quirkdb can sit on top of Dolt for its versioned/branchable storage.
package sqlsns

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	// Drivers registered by import side effect; callers select one via the
	// driverName argument to Open.
	_ "github.com/dolthub/driver"
	_ "github.com/go-sql-driver/mysql"

	"github.com/quirkdb/quirkdb/internal/storage"
	"github.com/quirkdb/quirkdb/internal/types"
)

// Storage is a SQL-namespace storage.Storage implementation.
type Storage struct {
	db *sql.DB
}

// Open connects to dsn using driverName ("mysql" or "dolt"), retrying the
// initial ping with exponential backoff since a freshly-started Dolt
// server commonly refuses connections for a short window, and creates a
// table for each of tableNames.
func Open(ctx context.Context, driverName, dsn string, tableNames []string) (*Storage, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlsns: open %s: %w: %v", driverName, types.ErrStorageOpen, err)
	}

	ping := func() error { return db.PingContext(ctx) }
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second
	if err := backoff.Retry(ping, bo); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlsns: ping %s: %w: %v", driverName, types.ErrStorageOpen, err)
	}

	s := &Storage{db: db}
	for _, t := range tableNames {
		if err := s.ensureTable(ctx, t); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlsns: create table %s: %w: %v", t, types.ErrStorageOpen, err)
		}
	}
	return s, nil
}

func (s *Storage) ensureTable(ctx context.Context, table string) error {
	if !validIdent(table) {
		return fmt.Errorf("sqlsns: invalid table name %q", table)
	}
	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (ns_key VARCHAR(255) PRIMARY KEY, ns_value LONGTEXT)`,
		quoteIdent(table),
	)
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// validIdent restricts table names to the same ASCII word-character set
// the SQL dialect allows for table identifiers, which also
// keeps them safe to interpolate into DDL/DML that cannot be parameterized.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func quoteIdent(s string) string { return "`" + s + "`" }

// Put implements storage.Storage.
func (s *Storage) Put(ctx context.Context, table, key string, value []byte) error {
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`REPLACE INTO %s (ns_key, ns_value) VALUES (?, ?)`, quoteIdent(table)),
		key, string(value))
	return err
}

// Delete implements storage.Storage.
func (s *Storage) Delete(ctx context.Context, table, key string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE ns_key = ?`, quoteIdent(table)), key)
	return err
}

// Get implements storage.Storage.
func (s *Storage) Get(ctx context.Context, table, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT ns_value FROM %s WHERE ns_key = ?`, quoteIdent(table)), key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Tables implements storage.Storage by listing the database's tables.
func (s *Storage) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SHOW TABLES`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, rows.Err()
}

// WriteBatch implements storage.Storage as a single SQL transaction.
func (s *Storage) WriteBatch(ctx context.Context, ops []storage.Op) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	seen := make(map[string]bool)
	for _, op := range ops {
		if seen[op.Table] {
			continue
		}
		if err := s.ensureTable(ctx, op.Table); err != nil {
			return err
		}
		seen[op.Table] = true
	}

	for _, op := range ops {
		if op.Value == nil {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE ns_key = ?`, quoteIdent(op.Table)), op.Key); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`REPLACE INTO %s (ns_key, ns_value) VALUES (?, ?)`, quoteIdent(op.Table)),
			op.Key, string(op.Value)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close implements storage.Storage.
func (s *Storage) Close() error { return s.db.Close() }

// Scan implements storage.Storage, ordering by key ascending.
func (s *Storage) Scan(ctx context.Context, table string) (storage.Iterator, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT ns_key, ns_value FROM %s ORDER BY ns_key ASC`, quoteIdent(table)))
	if err != nil {
		if strings.Contains(err.Error(), "doesn't exist") {
			return &emptyIterator{}, nil
		}
		return nil, err
	}
	return &rowsIterator{rows: rows}, nil
}

type rowsIterator struct {
	rows       *sql.Rows
	key, value string
	err        error
}

func (it *rowsIterator) Next() bool {
	if !it.rows.Next() {
		return false
	}
	if err := it.rows.Scan(&it.key, &it.value); err != nil {
		it.err = err
		return false
	}
	return true
}

func (it *rowsIterator) Key() string   { return it.key }
func (it *rowsIterator) Value() []byte { return []byte(it.value) }
func (it *rowsIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}
func (it *rowsIterator) Close() error { return it.rows.Close() }

type emptyIterator struct{}

func (emptyIterator) Next() bool    { return false }
func (emptyIterator) Key() string   { return "" }
func (emptyIterator) Value() []byte { return nil }
func (emptyIterator) Err() error     { return nil }
func (emptyIterator) Close() error  { return nil }

var _ storage.Storage = (*Storage)(nil)
