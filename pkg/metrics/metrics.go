package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace    = "gallery"
	resultOK     = "ok"
	resultError  = "error"
	unknownRoute = "unmatched"
	// Route serves the Prometheus exposition.
	Route = "/metrics"
)

// Metrics owns a private registry with HTTP and gateway collectors.
type Metrics struct {
	reg      *prometheus.Registry
	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	ops      *prometheus.CounterVec
	opTime   *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

// New creates a Metrics instance with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of inflight HTTP requests.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Histogram of HTTP request latencies.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "ops_total",
		Help:      "Total number of storage gateway operations by result.",
	}, []string{"op", "result"})
	opTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "op_duration_seconds",
		Help:      "Histogram of storage gateway operation durations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "bytes_total",
		Help:      "Total bytes sent to the storage provider.",
	}, []string{"op"})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		inflight, requests, latency, ops, opTime, bytes,
	)

	return &Metrics{
		reg:      reg,
		inflight: inflight,
		requests: requests,
		latency:  latency,
		ops:      ops,
		opTime:   opTime,
		bytes:    bytes,
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// RegisterRoute mounts the exposition handler on e.
func (m *Metrics) RegisterRoute(e *echo.Echo) {
	e.GET(Route, echo.WrapHandler(m.Handler()))
}

// Middleware tracks inflight requests, request counts and latency per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inflight.Inc()
			defer m.inflight.Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the status before it is read.
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = unknownRoute
			}
			method := c.Request().Method
			code := strconv.Itoa(c.Response().Status)

			m.requests.WithLabelValues(route, method, code).Inc()
			m.latency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// ObserveOp records one gateway operation. bytes is ignored when not positive.
func (m *Metrics) ObserveOp(op string, bytes int64, err error, dur time.Duration) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	if bytes > 0 {
		m.bytes.WithLabelValues(op).Add(float64(bytes))
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.opTime.WithLabelValues(op).Observe(dur.Seconds())
}
