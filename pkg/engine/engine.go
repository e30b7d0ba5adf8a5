package engine

import (
	"context"
	"errors"
	"maps"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/httpengine/pkg/logger"
	"github.com/milan604/httpengine/pkg/observability"
	"github.com/milan604/httpengine/pkg/transport"
)

// Engine issues requests against a single configured target.
type Engine struct {
	target      *url.URL
	rawURL      string
	parameters  map[string]string
	headers     map[string]string
	credentials *Credentials
	progress    ProgressMonitor

	executor        Executor
	transport       transport.Transport
	log             Logger
	metrics         Recorder
	tracer          trace.Tracer
	requestIDHeader string
}

// call is one operation: a method and an optional body.
type call struct {
	method  string
	body    []byte
	hasBody bool
}

// New validates t.URL and builds an engine. The maps in t are copied.
func New(t Target, opts ...Option) (*Engine, error) {
	target, err := parseTarget(t.URL)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		target:     target,
		rawURL:     target.Redacted(),
		parameters: maps.Clone(t.Parameters),
		headers:    maps.Clone(t.Headers),
		progress:   t.Progress,
		executor:   SharedExecutor(),
		log:        nopLogger{},
	}
	if t.Credentials != nil {
		creds := *t.Credentials
		e.credentials = &creds
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.transport == nil {
		e.transport = transport.NewHTTPTransport()
	}
	return e, nil
}

func parseTarget(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &InvalidURLError{URL: raw, Reason: "empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		// *url.Error repeats the raw input; keep only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &InvalidURLError{URL: raw, Reason: err.Error()}
	}
	if !u.IsAbs() {
		return nil, &InvalidURLError{URL: raw, Reason: "not absolute"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &InvalidURLError{URL: raw, Reason: "unsupported scheme " + u.Scheme}
	}
	if u.Host == "" {
		return nil, &InvalidURLError{URL: raw, Reason: "missing host"}
	}
	return u, nil
}

// URL returns the target URL with any password redacted.
func (e *Engine) URL() string {
	return e.rawURL
}

// Get performs a GET without a body.
func (e *Engine) Get(ctx context.Context) *Future {
	return e.execute(ctx, call{method: http.MethodGet})
}

// GetWithBody performs a GET uploading body.
func (e *Engine) GetWithBody(ctx context.Context, body []byte) *Future {
	return e.execute(ctx, call{method: http.MethodGet, body: body, hasBody: true})
}

// Put performs a PUT without a body.
func (e *Engine) Put(ctx context.Context) *Future {
	return e.execute(ctx, call{method: http.MethodPut})
}

// PutWithBody performs a PUT uploading body.
func (e *Engine) PutWithBody(ctx context.Context, body []byte) *Future {
	return e.execute(ctx, call{method: http.MethodPut, body: body, hasBody: true})
}

// Post performs a POST without a body.
func (e *Engine) Post(ctx context.Context) *Future {
	return e.execute(ctx, call{method: http.MethodPost})
}

// PostWithBody performs a POST uploading body.
func (e *Engine) PostWithBody(ctx context.Context, body []byte) *Future {
	return e.execute(ctx, call{method: http.MethodPost, body: body, hasBody: true})
}

// Delete performs a DELETE. It has no variant with a body.
func (e *Engine) Delete(ctx context.Context) *Future {
	return e.execute(ctx, call{method: http.MethodDelete})
}

// execute logs the dispatch and starts the exchange in the background.
// Cancellation of ctx is ignored: once issued a request runs to completion.
func (e *Engine) execute(ctx context.Context, c call) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	ctx = context.WithValue(ctx, logger.MethodKey, c.method)

	headers := e.headers
	if e.requestIDHeader != "" {
		id := uuid.NewString()
		ctx = context.WithValue(ctx, logger.RequestIDKey, id)
		headers = maps.Clone(e.headers)
		if headers == nil {
			headers = make(map[string]string, 1)
		}
		headers[e.requestIDHeader] = id
	}

	if c.hasBody {
		e.log.DebugFCtx(ctx, "%s data - %s", c.method, e.rawURL)
	} else {
		e.log.DebugFCtx(ctx, "%s - %s", c.method, e.rawURL)
	}

	f := newFuture()
	go e.run(ctx, c, headers, f)
	return f
}

// run performs the exchange and hands completion to the executor once every
// progress callback of this call has finished.
func (e *Engine) run(ctx context.Context, c call, headers map[string]string, f *Future) {
	start := time.Now()

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "HTTP "+c.method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				observability.AttrHTTPMethod.String(c.method),
				observability.AttrHTTPURL.String(e.rawURL),
			),
		)
		if id, ok := ctx.Value(logger.RequestIDKey).(string); ok {
			span.SetAttributes(observability.AttrRequestID.String(id))
		}
	}
	if e.metrics != nil {
		e.metrics.RequestStarted(c.method)
	}

	req := &transport.Request{
		Method:      c.method,
		URL:         e.target.String(),
		Headers:     headers,
		Credentials: e.credentials,
	}
	if c.hasBody {
		req.Body = c.body
		req.HasBody = true
	} else {
		req.Parameters = e.parameters
	}

	var gate progressGate
	if e.progress != nil {
		report := e.progressReporter(&gate)
		req.OnUploadProgress = report
		req.OnDownloadProgress = report
	}

	resp, err := e.transport.Do(ctx, req)
	gate.seal()

	e.executor.Submit(func() {
		out := e.process(ctx, resp, err)
		if e.metrics != nil {
			e.metrics.RequestFinished(c.method, out.StatusCode, time.Since(start), out.Err)
		}
		if span != nil {
			finishSpan(ctx, span, out)
		}
		f.resolve(out)
	})
}

// process logs the response status and maps the exchange to an Outcome.
func (e *Engine) process(ctx context.Context, resp *transport.Response, err error) Outcome {
	out := Outcome{Err: err}
	if resp != nil && resp.StatusCode > 0 {
		out.StatusCode = resp.StatusCode
		e.log.DebugFCtx(ctx, "Server responded to request made to %s with: %d - %s",
			e.rawURL, resp.StatusCode, reasonPhrase(resp.StatusCode))
	} else {
		e.log.WarnFCtx(ctx, "Unable to determine server response to request made to %s", e.rawURL)
	}

	if err != nil {
		e.log.ErrorFCtx(ctx, "Request to %s failed with %v", e.rawURL, err)
		return out
	}
	if resp != nil {
		out.Body = resp.Body
	}
	return out
}

func (e *Engine) progressReporter(gate *progressGate) transport.ProgressFunc {
	monitor := e.progress
	return func(fraction float64) {
		if !gate.enter() {
			return
		}
		fraction = clampFraction(fraction)
		e.executor.Submit(func() {
			defer gate.leave()
			monitor(fraction)
		})
	}
}

// progressGate tracks in-flight progress callbacks of one call. After seal
// returns no callback is running and later reports are dropped.
type progressGate struct {
	mu     sync.Mutex
	sealed bool
	wg     sync.WaitGroup
}

func (g *progressGate) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return false
	}
	g.wg.Add(1)
	return true
}

func (g *progressGate) leave() {
	g.wg.Done()
}

func (g *progressGate) seal() {
	g.mu.Lock()
	g.sealed = true
	g.mu.Unlock()
	g.wg.Wait()
}

func finishSpan(ctx context.Context, span trace.Span, out Outcome) {
	defer span.End()
	if out.StatusCode > 0 {
		observability.AddSpanAttributes(ctx, observability.AttrHTTPStatusCode.Int(out.StatusCode))
	}
	observability.RecordSpanError(ctx, out.Err)
}

func reasonPhrase(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown Status"
}

func clampFraction(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
