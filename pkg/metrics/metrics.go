// Package metrics records engine requests as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// StatusNone labels requests that ended without an HTTP response.
const StatusNone = "none"

// Collector holds the request metrics and their registry.
type Collector struct {
	reqCount   *prometheus.CounterVec
	reqFailed  *prometheus.CounterVec
	reqDurHist *prometheus.HistogramVec
	inFlight   prometheus.Gauge
	registry   *prometheus.Registry
}

// NewCollector creates and registers the request metrics on a private registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of completed requests by method and HTTP status.",
		},
		[]string{"method", "status"},
	)
	reqFailed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_failures_total",
			Help:      "Requests that ended with a transport error.",
		},
		[]string{"method"},
	)
	reqDurHist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from dispatch to resolution.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "in_flight_requests",
		Help:      "Requests dispatched but not yet resolved.",
	})

	reg.MustRegister(reqCount, reqFailed, reqDurHist, inFlight)

	return &Collector{
		reqCount:   reqCount,
		reqFailed:  reqFailed,
		reqDurHist: reqDurHist,
		inFlight:   inFlight,
		registry:   reg,
	}
}

// RequestStarted marks a request as in flight.
func (c *Collector) RequestStarted(method string) {
	c.inFlight.Inc()
}

// RequestFinished records the terminal resolution of a request.
func (c *Collector) RequestFinished(method string, status int, elapsed time.Duration, err error) {
	c.inFlight.Dec()

	label := StatusNone
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.reqCount.WithLabelValues(method, label).Inc()
	c.reqDurHist.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		c.reqFailed.WithLabelValues(method).Inc()
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Push sends the collected metrics to a Pushgateway under job. Suited to
// short-lived processes such as the CLI.
func (c *Collector) Push(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(c.registry).PushContext(ctx)
}
