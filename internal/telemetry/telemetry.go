// Package telemetry wires the executor's statement spans and metrics to
// OpenTelemetry. With telemetry disabled, Recorder falls
// back to the SDK's no-op providers so callers never branch on whether
// instrumentation is active.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"
)

// Recorder emits one span and one (counter, histogram) pair per statement
// executed by the engine.
type Recorder struct {
	tracer   trace.Tracer
	counter  metric.Int64Counter
	duration metric.Float64Histogram
	shutdown func(context.Context) error
}

// New builds a Recorder. enabled=false or exporter=="none" yields a Recorder
// backed by the otel no-op providers, so instrumentation calls are always
// safe to make unconditionally. otlpEndpoint is only consulted for
// exporter=="otlp"; pass "" otherwise.
func New(enabled bool, exporter, otlpEndpoint string) (*Recorder, error) {
	if !enabled || exporter == ExporterNone {
		return &Recorder{
			tracer:   trace.NewNoopTracerProvider().Tracer("quirkdb"),
			counter:  noopCounter(),
			duration: noopHistogram(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	traceExp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: stdout trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp))

	metricExp, err := newMetricExporter(exporter, otlpEndpoint)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("quirkdb")
	counter, err := meter.Int64Counter("quirkdb.statements",
		metric.WithDescription("statements executed, by kind"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: counter: %w", err)
	}
	hist, err := meter.Float64Histogram("quirkdb.statement.duration",
		metric.WithDescription("statement execution latency, in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: histogram: %w", err)
	}

	return &Recorder{
		tracer:   tp.Tracer("quirkdb"),
		counter:  counter,
		duration: hist,
		shutdown: func(ctx context.Context) error {
			if err := tp.Shutdown(ctx); err != nil {
				return err
			}
			return mp.Shutdown(ctx)
		},
	}, nil
}

// newMetricExporter builds the metric push exporter for exporter: "otlp"
// ships over HTTP to endpoint via otlpmetrichttp, anything else falls back
// to the stdout exporter.
func newMetricExporter(exporter, endpoint string) (sdkmetric.Exporter, error) {
	if exporter != ExporterOTLP {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout metric exporter: %w", err)
		}
		return exp, nil
	}
	exp, err := otlpmetrichttp.New(context.Background(),
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp metric exporter: %w", err)
	}
	return exp, nil
}

// StartSpan starts a span named after the statement kind being executed.
func (r *Recorder) StartSpan(ctx context.Context, kind string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "quirkdb."+kind)
}

// RecordStatement records one statement's outcome: a counter increment
// tagged by kind/status, and a duration observation.
func (r *Recorder) RecordStatement(ctx context.Context, kind string, dur time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	)
	r.counter.Add(ctx, 1, attrs)
	r.duration.Record(ctx, float64(dur.Microseconds())/1000.0, attrs)
}

// Shutdown flushes and releases the underlying exporters.
func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.shutdown(ctx)
}

func noopCounter() metric.Int64Counter {
	c, _ := noop.NewMeterProvider().Meter("quirkdb-noop").Int64Counter("quirkdb.statements")
	return c
}

func noopHistogram() metric.Float64Histogram {
	h, _ := noop.NewMeterProvider().Meter("quirkdb-noop").Float64Histogram("quirkdb.statement.duration")
	return h
}
