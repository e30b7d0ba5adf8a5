package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/milan604/httpengine/pkg/logger"
)

// ObservabilityIface defines the interface for observability operations
type ObservabilityIface interface {
	// StartSpan creates a new span for tracing
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)

	// Shutdown flushes pending spans and stops the exporter
	Shutdown(ctx context.Context) error

	// GetTracer returns the tracer instance
	GetTracer() trace.Tracer
}

// TracingOptions configures New.
type TracingOptions struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP/HTTP collector URL, e.g. http://localhost:4318.
	// Empty disables export and yields a no-op tracer.
	Endpoint string
	// SampleRatio in (0, 1]; zero or out of range samples everything.
	SampleRatio float64
}

// Observability owns the tracer provider used by the engine.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	log            logger.LogManager
}

// New sets up OTLP/HTTP trace export and installs the provider and the
// W3C propagators globally. With no endpoint it returns a no-op setup and
// leaves globals untouched.
func New(log logger.LogManager, opts TracingOptions) (*Observability, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "httpengine"
	}
	if opts.Endpoint == "" {
		return &Observability{
			tracer: noop.NewTracerProvider().Tracer(opts.ServiceName),
			log:    log,
		}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.ServiceVersionKey.String(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpointURL(opts.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if opts.SampleRatio > 0 && opts.SampleRatio < 1 {
		sampler = sdktrace.TraceIDRatioBased(opts.SampleRatio)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.DebugF("tracing initialized: service=%s, version=%s, endpoint=%s",
		opts.ServiceName, opts.ServiceVersion, opts.Endpoint)

	return &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(opts.ServiceName, trace.WithInstrumentationVersion(opts.ServiceVersion)),
		log:            log,
	}, nil
}

// Enabled reports whether spans are exported.
func (o *Observability) Enabled() bool {
	return o.tracerProvider != nil
}

// StartSpan creates a new span for tracing
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans. It is a no-op when export is disabled.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.tracerProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		o.log.ErrorF("failed to shutdown tracer provider: %v", err)
		return err
	}
	return nil
}

// GetTracer returns the tracer instance
func (o *Observability) GetTracer() trace.Tracer {
	return o.tracer
}

var _ ObservabilityIface = (*Observability)(nil)
