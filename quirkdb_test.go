package quirkdb_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb"
	"github.com/quirkdb/quirkdb/internal/config"
)

func openMemoryEngine(t *testing.T) *quirkdb.Engine {
	t.Helper()
	cfg := &config.Config{
		Storage:   config.StorageConfig{Backend: "memory"},
		Telemetry: config.TelemetryConfig{Enabled: false, Exporter: "none"},
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	eng, err := quirkdb.Open(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close(context.Background()) })
	return eng
}

func TestEngineInsertAndQueryRoundTrip(t *testing.T) {
	eng := openMemoryEngine(t)
	ctx := context.Background()

	result, err := eng.Execute(ctx, `INSERT INTO users VALUES {"id":"u1","name":"Ada"}`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Affected())

	rows, err := eng.Query(ctx, `SELECT * FROM users WHERE id='u1'`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0].GetOr("name"))
}

func TestEngineExecuteRejectsSelect(t *testing.T) {
	eng := openMemoryEngine(t)
	_, err := eng.Execute(context.Background(), `SELECT * FROM users`)
	assert.Error(t, err)
}

func TestEngineUpdateThenDelete(t *testing.T) {
	eng := openMemoryEngine(t)
	ctx := context.Background()

	_, err := eng.Execute(ctx, `INSERT INTO users VALUES {"id":"u1","age":30}`)
	require.NoError(t, err)

	result, err := eng.Execute(ctx, `UPDATE users SET {"age":31} WHERE id='u1'`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Affected())

	result, err = eng.Execute(ctx, `DELETE FROM users KEYS ["u1"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Affected())

	rows, err := eng.Query(ctx, `SELECT * FROM users WHERE id='u1'`)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{
		Storage:   config.StorageConfig{Backend: "carbonite"},
		Telemetry: config.TelemetryConfig{Enabled: false, Exporter: "none"},
	}
	_, err := quirkdb.Open(context.Background(), cfg, slog.Default())
	assert.Error(t, err)
}
