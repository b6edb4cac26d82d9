// Package quirkdb is the embeddable document store's public surface: open
// an Engine once per process, then drive it with the two-function bindings
// façade, Query for SELECT and Execute for everything else.
package quirkdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quirkdb/quirkdb/internal/config"
	"github.com/quirkdb/quirkdb/internal/executor"
	"github.com/quirkdb/quirkdb/internal/index"
	"github.com/quirkdb/quirkdb/internal/schema"
	"github.com/quirkdb/quirkdb/internal/storage"
	"github.com/quirkdb/quirkdb/internal/telemetry"
	"github.com/quirkdb/quirkdb/internal/types"
)

// Core types for embedders working with rows and schemas directly.
type (
	Row         = types.Row
	TableSchema = types.TableSchema
	ExecResult  = executor.ExecResult
)

// Sentinel errors, re-exported so callers can use errors.Is without
// importing internal/types.
var (
	ErrUnsupportedShape = types.ErrUnsupportedShape
	ErrBadCondition     = types.ErrBadCondition
	ErrBadJSON          = types.ErrBadJSON
	ErrUnknownOperator  = types.ErrUnknownOperator
	ErrBadDate          = types.ErrBadDate
	ErrStorageOpen      = types.ErrStorageOpen
	ErrNotFound         = types.ErrNotFound
	ErrUnknownTable     = types.ErrUnknownTable
	ErrBadSchemaJSON    = types.ErrBadSchemaJSON
	ErrAmbiguousField   = types.ErrAmbiguousField
	ErrUnknownField     = types.ErrUnknownField
)

// Engine is one open document store: a storage backend, its secondary
// indexes, the table schema registry, and the statement executor that ties
// them together.
type Engine struct {
	storage storage.Storage
	index   *index.Manager
	schemas *schema.Registry
	exec    *executor.Engine
	rec     *telemetry.Recorder
}

// Open wires a fully functional Engine from cfg: loads the table schema (if
// configured), opens the storage backend, and rebuilds every table's
// secondary indexes from disk before returning, matching the "on startup,
// rebuild every index by scanning" lifecycle.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Engine, error) {
	schemas := schema.New()
	if cfg.Schema.Path != "" {
		if err := schemas.LoadFile(cfg.Schema.Path); err != nil {
			return nil, fmt.Errorf("quirkdb: %w", err)
		}
	}

	s, err := storage.Open(ctx, storage.OpenConfig{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
		DSN:     cfg.Storage.DSN,
		Tables:  schemas.Tables(),
	})
	if err != nil {
		return nil, fmt.Errorf("quirkdb: %w", err)
	}

	idx := index.New(schemas, log)
	if err := idx.RebuildAll(ctx, s); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("quirkdb: %w", err)
	}

	rec, err := telemetry.New(cfg.Telemetry.Enabled, cfg.Telemetry.Exporter, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("quirkdb: %w", err)
	}

	return &Engine{
		storage: s,
		index:   idx,
		schemas: schemas,
		exec:    executor.New(s, idx, schemas, rec),
		rec:     rec,
	}, nil
}

// Query runs a SELECT statement and returns its result rows.
func (e *Engine) Query(ctx context.Context, sql string) ([]*Row, error) {
	return e.exec.Query(ctx, sql)
}

// Execute runs an INSERT, UPDATE, DELETE, or BATCH statement.
func (e *Engine) Execute(ctx context.Context, sql string) (*ExecResult, error) {
	return e.exec.Execute(ctx, sql)
}

// Close flushes telemetry exporters and releases the storage backend.
func (e *Engine) Close(ctx context.Context) error {
	telErr := e.rec.Shutdown(ctx)
	storeErr := e.storage.Close()
	if telErr != nil {
		return fmt.Errorf("quirkdb: close: %w", telErr)
	}
	if storeErr != nil {
		return fmt.Errorf("quirkdb: close: %w", storeErr)
	}
	return nil
}
