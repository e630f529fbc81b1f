// Package observability provides OpenTelemetry integration and audit
// logging for sandbox runs.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides observability features for operation runs.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string) (context.Context, func())

	// RecordRun records one resolved run with its terminal status and
	// elapsed wall time in seconds. It is the single metrics entry point,
	// so one run produces exactly one duration sample.
	RecordRun(status string, seconds float64)
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string

	// EnableTracing enables distributed tracing.
	EnableTracing bool

	// EnableMetrics enables metrics collection.
	EnableMetrics bool

	// MetricsPrefix is the prefix for all metrics.
	MetricsPrefix string
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:   "runbox",
		EnableTracing: true,
		EnableMetrics: true,
		MetricsPrefix: "runbox_",
	}
}

// telemetry implements Telemetry.
type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	runCounter     metric.Int64Counter
	runDuration    metric.Float64Histogram
	timeoutCounter metric.Int64Counter
}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config: config,
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}

	var err error

	t.runCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"runs_total",
		metric.WithDescription("Total number of operation runs by terminal status"),
	)
	if err != nil {
		return nil, err
	}

	t.runDuration, err = t.meter.Float64Histogram(
		config.MetricsPrefix+"run_duration_seconds",
		metric.WithDescription("Wall time of operation runs"),
	)
	if err != nil {
		return nil, err
	}

	t.timeoutCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"timeouts_total",
		metric.WithDescription("Total number of runs terminated by the run timer"),
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// StartSpan implements Telemetry.StartSpan.
func (t *telemetry) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, func() {
		span.End()
	}
}

// RecordRun implements Telemetry.RecordRun.
func (t *telemetry) RecordRun(status string, seconds float64) {
	if !t.config.EnableMetrics {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("status", status)}
	t.runCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	t.runDuration.Record(context.Background(), seconds, metric.WithAttributes(attrs...))
	if status == "TIMEOUT" {
		t.timeoutCounter.Add(context.Background(), 1)
	}
}

// NoopTelemetry returns a no-op telemetry implementation.
func NoopTelemetry() Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) RecordRun(status string, seconds float64) {}
