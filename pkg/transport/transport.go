// Package transport is the networking collaborator behind the request engine.
//
// A Transport performs exactly one HTTP exchange per Do call. It never retries
// and never turns an HTTP status into an error: a 404 with a body is a
// successful exchange. Errors are the ones produced by the underlying client,
// returned as-is.
package transport

import (
	"context"
	"net/http"
)

// Transport defines the interface for issuing a single HTTP exchange.
// This interface allows for mocking and alternative implementations.
type Transport interface {
	// Do performs req and returns the raw response. A non-nil Response may
	// accompany a non-nil error when the status line was received but the
	// body could not be read.
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Credentials is a username/password pair sent as HTTP basic auth.
type Credentials struct {
	Username string
	Password string
}

// ProgressFunc receives a completion fraction in [0, 1].
type ProgressFunc func(fraction float64)

// Request describes an outbound exchange.
type Request struct {
	Method string
	URL    string
	// Parameters are URL-encoded: into the query string for GET, HEAD and
	// DELETE, into a form body otherwise. Ignored when HasBody is set.
	Parameters map[string]string
	Headers    map[string]string
	// Body is uploaded verbatim when HasBody is set.
	Body    []byte
	HasBody bool
	// Credentials, when non-nil, are attached as basic auth.
	Credentials *Credentials

	OnUploadProgress   ProgressFunc
	OnDownloadProgress ProgressFunc
}

// Response is the raw result of an exchange.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	// Body is nil when the server sent no bytes.
	Body []byte
}

// Func adapts a plain function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f Func) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
