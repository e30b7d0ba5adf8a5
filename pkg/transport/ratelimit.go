package transport

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimitedTransport struct {
	next    Transport
	limiter *rate.Limiter
}

// WithRateLimit delays every exchange until limiter grants a token.
// A nil limiter returns next unchanged.
func WithRateLimit(next Transport, limiter *rate.Limiter) Transport {
	if limiter == nil {
		return next
	}
	return &rateLimitedTransport{next: next, limiter: limiter}
}

// NewLimiter builds a limiter of rps requests per second with the given burst.
// rps <= 0 disables limiting and returns nil.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (r *rateLimitedTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Do(ctx, req)
}
