package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"labpulse/internal/config"
)

const (
	// InstrumentationName names the tracer and meter used by every stage
	InstrumentationName = "labpulse.pipeline"
)

// Telemetry bundles the tracing and metrics providers of one run. Disabled
// signals fall back to no-op implementations, so callers never nil-check.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Pipeline       *PipelineMetrics

	groupsCounter metric.Int64Counter
	traceOut      io.WriteCloser
	logger        *slog.Logger
}

// InitializeTelemetry wires tracing to a JSON file via stdouttrace and bridges
// OpenTelemetry metrics into a private Prometheus registry.
func InitializeTelemetry(cfg config.TelemetryConfig, traceFile string, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing telemetry",
		slog.String("service", cfg.ServiceName),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	registry := prometheus.NewRegistry()
	t := &Telemetry{
		Tracer:   tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Meter:    metricnoop.NewMeterProvider().Meter(InstrumentationName),
		Registry: registry,
		Pipeline: NewPipelineMetrics(registry),
		logger:   logger,
	}

	if cfg.EnableTracing {
		if err := t.initializeTracing(cfg, traceFile, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := t.initializeMetrics(res); err != nil {
			t.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	counter, err := t.Meter.Int64Counter(
		"aggregate_groups",
		metric.WithDescription("Number of groups produced per aggregate"),
	)
	if err != nil {
		t.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create group counter: %w", err)
	}
	t.groupsCounter = counter

	return t, nil
}

// initializeTracing sets up a tracer provider exporting to traceFile
func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, traceFile string, res *resource.Resource) error {
	if traceFile == "" {
		return errors.New("tracing enabled without a trace file")
	}
	if err := os.MkdirAll(filepath.Dir(traceFile), 0755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}
	out, err := os.Create(traceFile)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	t.TracerProvider = tp
	t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))
	t.traceOut = out

	t.logger.Info("Tracing initialized",
		slog.String("trace_file", traceFile),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

// initializeMetrics registers the OpenTelemetry Prometheus bridge on the run registry
func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(t.Registry),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.MeterProvider = mp
	t.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion))

	t.logger.Info("Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// StartStage opens a span for one pipeline stage. The returned function ends
// the span, records the error if any, and observes the stage duration.
func (t *Telemetry) StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("stage", stage),
		attribute.String("trace_id", GetTraceID(ctx)))
	ctx, span := t.Tracer.Start(ctx, "pipeline."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		t.Pipeline.ObserveStage(stage, time.Since(start))
	}
}

// RecordGroups counts the groups produced by a named aggregate
func (t *Telemetry) RecordGroups(ctx context.Context, aggregate string, groups int) {
	if t.groupsCounter == nil {
		return
	}
	t.groupsCounter.Add(ctx, int64(groups),
		metric.WithAttributes(attribute.String("aggregate", aggregate)))
}

// WriteMetrics dumps the registry in the Prometheus text format
func (t *Telemetry) WriteMetrics(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Shutdown flushes pending spans and releases the trace file
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		t.traceOut = nil
	}
	return errors.Join(errs...)
}
