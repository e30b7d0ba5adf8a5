package engine

import (
	"context"
	"sync"
)

// Outcome is the terminal result of one request.
type Outcome struct {
	// Body is the raw response body; nil when the server sent none.
	Body []byte
	// StatusCode is the HTTP status that was received, 0 if none was.
	StatusCode int
	// Err is the transport error, returned exactly as the transport produced it.
	Err error
}

// OK reports whether the request completed without a transport error.
// The HTTP status is not considered.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Future is a single-resolution result of an engine operation.
type Future struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve stores o and releases waiters. Only the first call has any effect;
// it reports whether this call was the one that resolved the future.
func (f *Future) resolve(o Outcome) bool {
	resolved := false
	f.once.Do(func() {
		f.outcome = o
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the future has resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future resolves or ctx is done. Giving up on ctx
// does not cancel the request; it keeps running and still resolves.
func (f *Future) Await(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
		return f.outcome.Body, f.outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Outcome returns the resolved outcome without blocking.
// The second return value is false while the request is still in flight.
func (f *Future) Outcome() (Outcome, bool) {
	select {
	case <-f.done:
		return f.outcome, true
	default:
		return Outcome{}, false
	}
}
