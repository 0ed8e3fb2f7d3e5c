package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"reportflow/internal/config"
	"reportflow/internal/errors"
	"reportflow/pkg/contracts"
)

// MeterName is the instrumentation scope of every reportflow span and metric
const MeterName = "reportflow"

// Telemetry owns the tracer and meter providers of one process. Traces go to
// a JSON file, metrics to a Prometheus text file written on Shutdown.
type Telemetry struct {
	Tracer  trace.Tracer
	Metrics *RunMetrics

	cfg            config.TelemetryConfig
	logger         *slog.Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *prom.Registry
	traceFile      *os.File
}

// InitializeTelemetry sets up tracing and metrics per cfg. Metrics are always
// collected into a private registry; tracing is a no-op unless enabled.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = config.DefaultServiceName
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(contracts.Version),
	)

	t := &Telemetry{cfg: cfg, logger: logger}

	if err := t.initializeTracing(res); err != nil {
		return nil, err
	}
	if err := t.initializeMetrics(res); err != nil {
		t.closeTraceFile()
		return nil, err
	}

	logger.Debug("Telemetry initialized",
		slog.Bool("tracing_enabled", cfg.Tracing),
		slog.String("trace_file", cfg.TraceFile),
		slog.String("metrics_file", cfg.MetricsFile))

	return t, nil
}

// initializeTracing exports spans as JSON lines to the trace file, or to
// stderr when no file is configured
func (t *Telemetry) initializeTracing(res *resource.Resource) error {
	if !t.cfg.Tracing {
		t.Tracer = noop.NewTracerProvider().Tracer(MeterName)
		return nil
	}

	var w io.Writer = os.Stderr
	if t.cfg.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(t.cfg.TraceFile), 0755); err != nil {
			return errors.NewStorageError("failed to create trace directory", err)
		}
		f, err := os.OpenFile(t.cfg.TraceFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return errors.NewStorageError("failed to open trace file", err).WithContext("path", t.cfg.TraceFile)
		}
		t.traceFile = f
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	t.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	t.Tracer = t.tracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(contracts.Version))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.registry = prom.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(t.registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	meter := t.meterProvider.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))
	t.Metrics, err = NewRunMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create run metrics: %w", err)
	}
	return nil
}

// Registry exposes the private prometheus registry backing the meter provider
func (t *Telemetry) Registry() *prom.Registry {
	return t.registry
}

// WriteMetrics writes the current metric values to path in the Prometheus
// text exposition format
func (t *Telemetry) WriteMetrics(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create metrics directory", err)
	}
	if err := prom.WriteToTextfile(path, t.registry); err != nil {
		return errors.NewStorageError("failed to write metrics file", err).WithContext("path", path)
	}
	return nil
}

// Shutdown writes the metrics file if configured, then flushes and closes
// both providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.cfg.MetricsFile != "" {
		if err := t.WriteMetrics(t.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}

	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}
	t.closeTraceFile()

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %v", errs)
	}
	t.logger.Debug("Telemetry shutdown complete")
	return nil
}

func (t *Telemetry) closeTraceFile() {
	if t.traceFile != nil {
		t.traceFile.Close()
		t.traceFile = nil
	}
}

// RunMetrics holds the pipeline instruments
type RunMetrics struct {
	RunsTotal     metric.Int64Counter
	StageDuration metric.Float64Histogram
	SheetsLoaded  metric.Int64Counter
	RowsLoaded    metric.Int64Counter
	LookupMisses  metric.Int64Counter
	Errors        metric.Int64Counter
}

// NewRunMetrics creates the pipeline instruments on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"reportflow_runs",
		metric.WithDescription("Total number of pipeline runs by status"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"reportflow_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sheetsLoaded, err := meter.Int64Counter(
		"reportflow_sheets_loaded",
		metric.WithDescription("Total number of sheets loaded"),
	)
	if err != nil {
		return nil, err
	}

	rowsLoaded, err := meter.Int64Counter(
		"reportflow_rows_loaded",
		metric.WithDescription("Total number of data rows loaded from sheets"),
	)
	if err != nil {
		return nil, err
	}

	lookupMisses, err := meter.Int64Counter(
		"reportflow_lookup_misses",
		metric.WithDescription("Total number of rows whose entity had no category"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"reportflow_errors",
		metric.WithDescription("Total number of pipeline errors by type"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RunsTotal:     runsTotal,
		StageDuration: stageDuration,
		SheetsLoaded:  sheetsLoaded,
		RowsLoaded:    rowsLoaded,
		LookupMisses:  lookupMisses,
		Errors:        errorsTotal,
	}, nil
}

// RecordStage records the duration of a stage and its error type, if any
func (m *RunMetrics) RecordStage(ctx context.Context, stage string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, time.Since(started).Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
	if err != nil {
		m.Errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("type", string(errors.TypeOf(err)))))
	}
}

// RecordRun counts a finished run
func (m *RunMetrics) RecordRun(ctx context.Context, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext extracts the span trace ID from context for log correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
