package transport

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures WithCircuitBreaker.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive transport failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
	// OnStateChange is called on every breaker transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerSettings returns 5 consecutive failures, 30s open, 1 trial request.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

type breakerTransport struct {
	next Transport
	cb   *gobreaker.CircuitBreaker[*Response]
}

// WithCircuitBreaker guards next with a circuit breaker. Only transport
// errors count as failures; every HTTP status, 5xx included, is a success.
// While open, Do fails fast with gobreaker.ErrOpenState.
func WithCircuitBreaker(next Transport, name string, s BreakerSettings) Transport {
	if s.MaxFailures == 0 {
		s.MaxFailures = DefaultBreakerSettings().MaxFailures
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
	maxFailures := s.MaxFailures
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: s.OnStateChange,
	}
	return &breakerTransport{next: next, cb: gobreaker.NewCircuitBreaker[*Response](st)}
}

func (b *breakerTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	return b.cb.Execute(func() (*Response, error) {
		return b.next.Do(ctx, req)
	})
}

// State reports the breaker state of a transport built by WithCircuitBreaker.
// Other transports report gobreaker.StateClosed.
func State(t Transport) gobreaker.State {
	if b, ok := t.(*breakerTransport); ok {
		return b.cb.State()
	}
	return gobreaker.StateClosed
}
