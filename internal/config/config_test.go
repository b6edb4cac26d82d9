package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb/internal/config"
)

func TestLoadDefaultsWhenNoFilePresent(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "bbolt", cfg.Storage.Backend)
	assert.Equal(t, "./data/quirkdb.db", cfg.Storage.Path)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
	assert.Equal(t, "localhost:4318", cfg.Telemetry.OTLPEndpoint)
}

func TestLoadReadsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
backend = "memory"

[telemetry]
enabled = false
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
backend = "bbolt"
`), 0o644))

	t.Setenv("QUIRKDB_STORAGE_BACKEND", "memory")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
backend = "postgres"
`), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRequiresDSNForSQLBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
backend = "sql"
`), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRequiresEndpointForOTLPExporter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[telemetry]
exporter = "otlp"
otlpEndpoint = ""
`), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadAcceptsOTLPExporterWithEndpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[telemetry]
exporter = "otlp"
otlpEndpoint = "collector.internal:4318"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "collector.internal:4318", cfg.Telemetry.OTLPEndpoint)
}

func TestLoadAcceptsSQLBackendWithDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
backend = "sql"
dsn = "root@tcp(127.0.0.1:3306)/quirkdb"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "root@tcp(127.0.0.1:3306)/quirkdb", cfg.Storage.DSN)
}
