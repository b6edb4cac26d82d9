// Package executor implements the query planner and statement executor
//: it takes a parsed query.Query and drives the storage and
// index layers to produce either a write result or a row set.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quirkdb/quirkdb/internal/index"
	"github.com/quirkdb/quirkdb/internal/query"
	"github.com/quirkdb/quirkdb/internal/schema"
	"github.com/quirkdb/quirkdb/internal/storage"
	"github.com/quirkdb/quirkdb/internal/telemetry"
	"github.com/quirkdb/quirkdb/internal/types"
)

// ExecResult is the outcome of an INSERT/UPDATE/DELETE/BATCH statement.
type ExecResult struct {
	// Keys holds the primary keys written (INSERT/BATCH) or touched
	// (UPDATE/DELETE), in the order they were processed.
	Keys []string
}

// Affected is the number of rows the statement touched.
func (r *ExecResult) Affected() int {
	if r == nil {
		return 0
	}
	return len(r.Keys)
}

// Engine binds a storage backend, index manager, and schema registry into a
// single execution surface for the SQL dialect.
//
// mu fuses each write's (storage-write, index-update) pair into one critical
// section: every INSERT/UPDATE/DELETE/BATCH holds the exclusive lock for the
// full statement, and every SELECT holds the shared lock for the full read,
// so a reader never observes a row whose index entry lags or leads its
// storage write. index.Manager's own mutex still guards its map internally,
// but only Engine's lock spans storage and index together.
type Engine struct {
	mu sync.RWMutex

	storage storage.Storage
	index   *index.Manager
	schemas *schema.Registry
	rec     *telemetry.Recorder
}

// New returns an Engine. If rec is nil, a disabled Recorder is used.
func New(s storage.Storage, idx *index.Manager, schemas *schema.Registry, rec *telemetry.Recorder) *Engine {
	if rec == nil {
		rec, _ = telemetry.New(false, telemetry.ExporterNone, "")
	}
	return &Engine{storage: s, index: idx, schemas: schemas, rec: rec}
}

// Execute parses and runs an INSERT, UPDATE, DELETE, or BATCH statement.
// Passing a SELECT is a parse-shape error: use Query instead.
func (e *Engine) Execute(ctx context.Context, sql string) (result *ExecResult, err error) {
	q, err := query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	if q.Kind == query.KindSelect {
		return nil, fmt.Errorf("executor: %w: SELECT must be run via Query", types.ErrUnsupportedShape)
	}

	start := time.Now()
	ctx, span := e.rec.StartSpan(ctx, q.Kind.String())
	defer func() {
		e.rec.RecordStatement(ctx, q.Kind.String(), time.Since(start), err)
		span.End()
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch q.Kind {
	case query.KindInsert:
		result, err = e.doInsert(ctx, q)
	case query.KindUpdate:
		result, err = e.doUpdate(ctx, q)
	case query.KindDelete:
		result, err = e.doDelete(ctx, q)
	case query.KindBatch:
		result, err = e.doBatch(ctx, q)
	default:
		err = fmt.Errorf("executor: %w", types.ErrUnsupportedShape)
	}
	return result, err
}

// Query parses and runs a SELECT statement, returning its result rows.
func (e *Engine) Query(ctx context.Context, sql string) (rows []*types.Row, err error) {
	q, err := query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	if q.Kind != query.KindSelect {
		return nil, fmt.Errorf("executor: %w: only SELECT may be run via Query", types.ErrUnsupportedShape)
	}

	start := time.Now()
	ctx, span := e.rec.StartSpan(ctx, "SELECT")
	defer func() {
		e.rec.RecordStatement(ctx, "SELECT", time.Since(start), err)
		span.End()
	}()

	e.mu.RLock()
	rows, err = e.runSelect(ctx, q)
	e.mu.RUnlock()
	return rows, err
}

func (e *Engine) doInsert(ctx context.Context, q *query.Query) (*ExecResult, error) {
	key, err := storage.Insert(ctx, e.storage, q.Table, q.RowData)
	if err != nil {
		return nil, fmt.Errorf("executor: insert: %w", err)
	}
	e.index.OnInsert(q.Table, key, q.RowData)
	return &ExecResult{Keys: []string{key}}, nil
}

func (e *Engine) doUpdate(ctx context.Context, q *query.Query) (*ExecResult, error) {
	conds := toStorageConditions(q.Conditions)
	keys, err := storage.ScanWith(ctx, e.storage, q.Table, conds, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("executor: update: %w", err)
	}
	for _, key := range keys {
		old, updated, err := storage.Update(ctx, e.storage, q.Table, key, q.RowData)
		if err != nil {
			return nil, fmt.Errorf("executor: update: %w", err)
		}
		e.index.OnUpdate(q.Table, key, old, updated)
	}
	return &ExecResult{Keys: keys}, nil
}

func (e *Engine) doDelete(ctx context.Context, q *query.Query) (*ExecResult, error) {
	keys := q.DeleteKeys
	if keys == nil {
		conds := toStorageConditions(q.Conditions)
		var err error
		keys, err = storage.ScanWith(ctx, e.storage, q.Table, conds, 0, -1)
		if err != nil {
			return nil, fmt.Errorf("executor: delete: %w", err)
		}
	}
	var deleted []string
	for _, key := range keys {
		old, err := storage.Get(ctx, e.storage, q.Table, key)
		if err != nil {
			return nil, fmt.Errorf("executor: delete: %w", err)
		}
		if len(old.Fields()) == 0 {
			continue // already absent, nothing to clean up
		}
		if err := e.storage.Delete(ctx, q.Table, key); err != nil {
			return nil, fmt.Errorf("executor: delete: %w", err)
		}
		e.index.OnDelete(q.Table, key, old)
		deleted = append(deleted, key)
	}
	return &ExecResult{Keys: deleted}, nil
}

func (e *Engine) doBatch(ctx context.Context, q *query.Query) (*ExecResult, error) {
	var keys []string
	for _, row := range q.BatchRows {
		key, err := storage.Insert(ctx, e.storage, q.Table, row)
		if err != nil {
			return nil, fmt.Errorf("executor: batch: %w", err)
		}
		e.index.OnInsert(q.Table, key, row)
		keys = append(keys, key)
	}
	return &ExecResult{Keys: keys}, nil
}

func toStorageConditions(conds []query.Condition) []storage.Condition {
	out := make([]storage.Condition, len(conds))
	for i, c := range conds {
		out[i] = storage.Condition{Field: c.Field, Op: c.Op, Literal: c.Literal}
	}
	return out
}
