package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/httpengine/pkg/transport"
)

// Credentials is a username/password pair sent as HTTP basic auth.
type Credentials = transport.Credentials

// ProgressMonitor receives transfer completion fractions in [0, 1]. It is
// best-effort telemetry: it may never reach 1 and is not guaranteed to be
// monotonic.
type ProgressMonitor func(fraction float64)

// Target is the fixed request description an Engine is built from.
// Only URL is required.
type Target struct {
	URL string
	// Parameters are sent only by the operations without a body.
	Parameters  map[string]string
	Headers     map[string]string
	Credentials *Credentials
	Progress    ProgressMonitor
}

// Logger is the logging collaborator used by the engine.
// logger.LogManager satisfies it.
type Logger interface {
	DebugFCtx(ctx context.Context, format string, args ...any)
	WarnFCtx(ctx context.Context, format string, args ...any)
	ErrorFCtx(ctx context.Context, format string, args ...any)
}

// Recorder receives request metrics. status is 0 when no response was received.
type Recorder interface {
	RequestStarted(method string)
	RequestFinished(method string, status int, elapsed time.Duration, err error)
}

// DefaultRequestIDHeader is used by WithRequestID when no header is given.
const DefaultRequestIDHeader = "X-Request-ID"

// Option configures the engine.
type Option func(*Engine)

// WithExecutor sets where response handling and progress callbacks run.
// nil keeps SharedExecutor.
func WithExecutor(ex Executor) Option {
	return func(e *Engine) {
		if ex != nil {
			e.executor = ex
		}
	}
}

// WithTransport replaces the default net/http transport.
func WithTransport(t transport.Transport) Option {
	return func(e *Engine) {
		if t != nil {
			e.transport = t
		}
	}
}

// WithLogger sets the logging collaborator.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records request counts and durations on r.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithTracer wraps every request in a client span started from tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithRequestID tags every request with a fresh uuid sent in header and
// attached to the log context. An empty header uses DefaultRequestIDHeader.
func WithRequestID(header string) Option {
	return func(e *Engine) {
		if header == "" {
			header = DefaultRequestIDHeader
		}
		e.requestIDHeader = header
	}
}

type nopLogger struct{}

func (nopLogger) DebugFCtx(context.Context, string, ...any) {}
func (nopLogger) WarnFCtx(context.Context, string, ...any)  {}
func (nopLogger) ErrorFCtx(context.Context, string, ...any) {}
