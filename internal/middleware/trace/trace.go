// Package trace logs completed requests and records request metrics.
package trace

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"orca/internal/log"
)

// Middleware logs every request once it has been served. Request ids come
// from chi's RequestID middleware, which must run first.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger

	requests     *prometheus.CounterVec
	serverErrors prometheus.Counter
	duration     *prometheus.HistogramVec
}

// NewMiddleware registers the request collectors with reg.
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string, reg prometheus.Registerer) *Middleware {
	m := &Middleware{
		extractIP: extractIP,
		logger:    log.NewStructuredLogger(logger),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "code"}),
		serverErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_server_errors_total",
			Help: "Responses with a 5xx status.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.serverErrors, m.duration)
	return m
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := routePattern(r)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
		if status >= 500 {
			m.serverErrors.Inc()
		}

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		m.logger.LogHTTPEnd(r.Context(), r, status, duration.Milliseconds(), clientIP)
	})
}

// routePattern keeps label cardinality bounded: unmatched paths share one
// label instead of carrying the raw URL.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// GetRequestID returns the id chi assigned to the request, if any.
func GetRequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
