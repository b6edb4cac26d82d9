package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirkdb/quirkdb/internal/telemetry"
)

func TestDisabledRecorderIsNoopAndSafe(t *testing.T) {
	rec, err := telemetry.New(false, telemetry.ExporterStdout, "")
	require.NoError(t, err)

	ctx, span := rec.StartSpan(context.Background(), "select")
	span.End()
	rec.RecordStatement(ctx, "select", time.Millisecond, nil)
	rec.RecordStatement(ctx, "insert", time.Millisecond, errors.New("boom"))

	assert.NoError(t, rec.Shutdown(context.Background()))
}

func TestExporterNoneIsNoopEvenWhenEnabled(t *testing.T) {
	rec, err := telemetry.New(true, telemetry.ExporterNone, "")
	require.NoError(t, err)

	_, span := rec.StartSpan(context.Background(), "update")
	span.End()
	assert.NoError(t, rec.Shutdown(context.Background()))
}

// otlpmetrichttp builds its client lazily, so constructing a Recorder
// against an endpoint with nothing listening still succeeds; only an actual
// export attempt would fail.
func TestOTLPExporterConstructsWithoutDialing(t *testing.T) {
	rec, err := telemetry.New(true, telemetry.ExporterOTLP, "127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, rec.Shutdown(context.Background()))
}

func TestEnabledRecorderRecordsWithoutError(t *testing.T) {
	rec, err := telemetry.New(true, telemetry.ExporterStdout, "")
	require.NoError(t, err)

	ctx, span := rec.StartSpan(context.Background(), "insert")
	rec.RecordStatement(ctx, "insert", 2*time.Millisecond, nil)
	span.End()

	assert.NoError(t, rec.Shutdown(context.Background()))
}
