// Package observability provides OpenTelemetry tracing for xtsmerge.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of every xtsmerge span.
const TracerName = "github.com/agentstation/xtsmerge"

// TracingConfig configures span export.
type TracingConfig struct {
	// ServiceName is the name of the service (default: "xtsmerge")
	ServiceName string

	// ServiceVersion is the build version
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// Insecure disables TLS towards the collector
	Insecure bool

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "xtsmerge",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing installs a global tracer provider exporting over OTLP.
// It returns a no-op provider when OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes pending spans and stops the exporter.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Span names.
const (
	SpanDiscover  = "reports.discover"
	SpanParse     = "report.parse"
	SpanReconcile = "suite.reconcile"
	SpanCheck     = "bundle.check"
)

func start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartDiscoverSpan starts a span for report discovery under root.
func StartDiscoverSpan(ctx context.Context, root string) (context.Context, trace.Span) {
	return start(ctx, SpanDiscover, attribute.String("xtsmerge.root", root))
}

// RecordDiscoverResult records discovery counts on a span.
func RecordDiscoverResult(span trace.Span, dirs, reports, skipped int) {
	span.SetAttributes(
		attribute.Int("xtsmerge.suite_dirs", dirs),
		attribute.Int("xtsmerge.reports", reports),
		attribute.Int("xtsmerge.skipped", skipped),
	)
}

// StartParseSpan starts a span for parsing one report.
func StartParseSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return start(ctx, SpanParse, attribute.String("xtsmerge.source", source))
}

// StartReconcileSpan starts a span for reconciling one suite directory.
func StartReconcileSpan(ctx context.Context, dir string, runs int) (context.Context, trace.Span) {
	return start(ctx, SpanReconcile,
		attribute.String("xtsmerge.suite_dir", dir),
		attribute.Int("xtsmerge.input_runs", runs),
	)
}

// RecordReconcileResult records the outcome of a suite reconciliation.
func RecordReconcileResult(span trace.Span, identity string, runs, discarded, failed int) {
	span.SetAttributes(
		attribute.String("xtsmerge.suite", identity),
		attribute.Int("xtsmerge.runs", runs),
		attribute.Int("xtsmerge.discarded", discarded),
		attribute.Int("xtsmerge.still_failed", failed),
	)
}

// StartCheckSpan starts a span for the cross-suite checks.
func StartCheckSpan(ctx context.Context, suites int) (context.Context, trace.Span) {
	return start(ctx, SpanCheck, attribute.Int("xtsmerge.suites", suites))
}

// RecordCheckResult records how many suites were flagged.
func RecordCheckResult(span trace.Span, flagged int) {
	span.SetAttributes(attribute.Int("xtsmerge.flagged_suites", flagged))
	if flagged > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d suites flagged", flagged))
	}
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
