package storage

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/quirkdb/quirkdb/internal/jsonrow"
	"github.com/quirkdb/quirkdb/internal/predicate"
	"github.com/quirkdb/quirkdb/internal/types"
)

// Condition is a flat predicate (field op literal) evaluated against a
// decoded row by ScanWith.
type Condition struct {
	Field   string
	Op      string
	Literal string
}

// DeriveKey returns row's primary key: row["id"] if present, otherwise a
// decimal hash of the field=value pairs sorted by field name, so two
// embedders inserting the field-for-field-identical row land on the same
// key.
func DeriveKey(row *types.Row) string {
	if id, ok := row.Get("id"); ok && id != "" {
		return id
	}
	fields := row.Fields()
	sort.Strings(fields)

	h := fnv.New64a()
	for _, f := range fields {
		v, _ := row.Get(f)
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{'='})
		_, _ = h.Write([]byte(v))
		_, _ = h.Write([]byte{'\x00'})
	}
	return strconv.FormatUint(h.Sum64(), 10)
}

// Insert serializes row to canonical JSON and writes it to table under its
// derived key, returning the key used.
func Insert(ctx context.Context, s Storage, table string, row *types.Row) (string, error) {
	key := DeriveKey(row)
	data, err := jsonrow.Encode(row)
	if err != nil {
		return "", fmt.Errorf("storage: insert into %s: %w", table, err)
	}
	if err := s.Put(ctx, table, key, data); err != nil {
		return "", fmt.Errorf("storage: insert into %s: %w", table, err)
	}
	return key, nil
}

// Get reads and decodes the row at key in table. A missing key decodes to
// an empty row, matching the original's "missing GET is an empty row"
// behavior.
func Get(ctx context.Context, s Storage, table, key string) (*types.Row, error) {
	data, ok, err := s.Get(ctx, table, key)
	if err != nil {
		return nil, fmt.Errorf("storage: get %s/%s: %w", table, key, err)
	}
	if !ok {
		return types.NewRow(), nil
	}
	row, err := jsonrow.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("storage: get %s/%s: %w", table, key, err)
	}
	return row, nil
}

// Update reads the current row at key (empty if absent), merges patch over
// it, and writes the result back. It returns the old and new rows so
// callers can notify the index manager.
func Update(ctx context.Context, s Storage, table, key string, patch *types.Row) (old, updated *types.Row, err error) {
	old, err = Get(ctx, s, table, key)
	if err != nil {
		return nil, nil, err
	}
	updated = old.Clone()
	updated.Merge(patch)

	data, err := jsonrow.Encode(updated)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: update %s/%s: %w", table, key, err)
	}
	if err := s.Put(ctx, table, key, data); err != nil {
		return nil, nil, fmt.Errorf("storage: update %s/%s: %w", table, key, err)
	}
	return old, updated, nil
}

// ScanWith iterates all rows of table, evaluates conditions (a flat AND)
// against each decoded row, applies skip then limit, and returns the
// surviving keys in iteration order. limit < 0 means unbounded.
func ScanWith(ctx context.Context, s Storage, table string, conditions []Condition, skip, limit int) ([]string, error) {
	it, err := s.Scan(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("storage: scan %s: %w", table, err)
	}
	defer it.Close()

	var keys []string
	seen := 0
	for it.Next() {
		row, err := jsonrow.Decode(it.Value())
		if err != nil {
			continue // invalid JSON row: skip, non-fatal
		}
		ok, err := matches(row, conditions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if seen < skip {
			seen++
			continue
		}
		seen++
		keys = append(keys, it.Key())
		if limit >= 0 && len(keys) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("storage: scan %s: %w", table, err)
	}
	return keys, nil
}

func matches(row *types.Row, conditions []Condition) (bool, error) {
	for _, c := range conditions {
		v, _ := row.Get(c.Field)
		ok, err := predicate.Eval(v, c.Op, c.Literal)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
