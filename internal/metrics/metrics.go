// Package metrics collects and exposes Prometheus metrics for the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP layer and services report to.
type Recorder interface {
	RecordRequest(method, route string, status int, d time.Duration)
	RecordLogin(success bool)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	logins   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "directory_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "directory_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "directory_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.requests, c.duration, c.logins)
	return c
}

func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.logins.WithLabelValues(outcome).Inc()
}

// Middleware records every request under its chi route pattern, so
// /api/users/7 and /api/users/8 share one series.
func Middleware(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.RecordRequest(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
