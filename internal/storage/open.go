package storage

import (
	"context"
	"fmt"

	"github.com/quirkdb/quirkdb/internal/storage/bboltstore"
	"github.com/quirkdb/quirkdb/internal/storage/memory"
	"github.com/quirkdb/quirkdb/internal/storage/sqlsns"
)

// Backend names accepted by OpenConfig.Backend.
const (
	BackendBbolt  = "bbolt"
	BackendSQL    = "sql"
	BackendMemory = "memory"
)

// OpenConfig describes how to open a Storage backend.
type OpenConfig struct {
	Backend string
	// Path is the bbolt file path (BackendBbolt only).
	Path string
	// Driver is "mysql" or "dolt" (BackendSQL only).
	Driver string
	// DSN is the database/sql data source name (BackendSQL only).
	DSN string
	// Tables lists the namespaces to pre-create at open time.
	Tables []string
}

// Open opens the storage backend named by cfg.Backend.
func Open(ctx context.Context, cfg OpenConfig) (Storage, error) {
	switch cfg.Backend {
	case BackendBbolt, "":
		return bboltstore.Open(cfg.Path, cfg.Tables)
	case BackendSQL:
		driver := cfg.Driver
		if driver == "" {
			driver = "mysql"
		}
		return sqlsns.Open(ctx, driver, cfg.DSN, cfg.Tables)
	case BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
