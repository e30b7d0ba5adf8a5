package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/milan604/httpengine/pkg/logger"
	"github.com/milan604/httpengine/pkg/version"
)

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	httpClient *http.Client
	logger     logger.LogManager
	userAgent  string
}

// Option configures the HTTP transport.
type Option func(*HTTPTransport)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) {
		if c != nil {
			t.httpClient = c
		}
	}
}

// WithTimeout sets the overall exchange timeout. Zero means no timeout,
// which is the default.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		c := *t.httpClient
		c.Timeout = d
		t.httpClient = &c
	}
}

// WithLogger enables debug logging of every outgoing request as a cURL command.
func WithLogger(l logger.LogManager) Option {
	return func(t *HTTPTransport) {
		t.logger = l
	}
}

// WithUserAgent overrides the default User-Agent. Request headers still win.
func WithUserAgent(ua string) Option {
	return func(t *HTTPTransport) {
		t.userAgent = ua
	}
}

// NewHTTPTransport creates a transport with the given options.
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		httpClient: &http.Client{},
		userAgent:  version.UserAgent(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do executes req once. HTTP statuses are never converted to errors.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, payload, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	t.logCurl(ctx, httpReq, payload)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
	}

	var body io.Reader = resp.Body
	if req.OnDownloadProgress != nil && resp.ContentLength > 0 {
		body = newProgressReader(resp.Body, resp.ContentLength, req.OnDownloadProgress)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return out, err
	}
	if len(data) > 0 {
		out.Body = data
	}
	return out, nil
}

// CloseIdleConnections releases pooled connections of the underlying client.
func (t *HTTPTransport) CloseIdleConnections() {
	t.httpClient.CloseIdleConnections()
}

// buildRequest constructs the *http.Request and returns the exact payload
// bytes it will upload, for logging.
func (t *HTTPTransport) buildRequest(ctx context.Context, req *Request) (*http.Request, []byte, error) {
	target := req.URL
	var payload []byte
	formEncoded := false

	switch {
	case req.HasBody:
		payload = req.Body
	case len(req.Parameters) > 0:
		encoded := encodeParameters(req.Parameters)
		if encodesInURL(req.Method) {
			target = appendQuery(target, encoded)
		} else {
			payload = []byte(encoded)
			formEncoded = true
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, nil)
	if err != nil {
		return nil, nil, err
	}

	if req.HasBody || formEncoded {
		attachBody(httpReq, payload, req.OnUploadProgress)
	}

	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if formEncoded && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	}

	if req.Credentials != nil {
		httpReq.SetBasicAuth(req.Credentials.Username, req.Credentials.Password)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	return httpReq, payload, nil
}

// attachBody sets payload as the request body. A zero-length payload uses
// http.NoBody so the client sends Content-Length: 0.
func attachBody(httpReq *http.Request, payload []byte, onProgress ProgressFunc) {
	if len(payload) == 0 {
		httpReq.Body = http.NoBody
		httpReq.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
		httpReq.ContentLength = 0
		return
	}

	var r io.Reader = bytes.NewReader(payload)
	if onProgress != nil {
		r = newProgressReader(r, int64(len(payload)), onProgress)
	}
	httpReq.Body = io.NopCloser(r)
	httpReq.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	httpReq.ContentLength = int64(len(payload))
}

// encodesInURL mirrors the usual method-dependent URL encoding: methods
// without a conventional body carry parameters in the query string.
func encodesInURL(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	default:
		return false
	}
}

func encodeParameters(params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}

func appendQuery(target, encoded string) string {
	if encoded == "" {
		return target
	}
	fragment := ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target, fragment = target[:i], target[i:]
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
		if strings.HasSuffix(target, "?") || strings.HasSuffix(target, "&") {
			sep = ""
		}
	}
	return target + sep + encoded + fragment
}
