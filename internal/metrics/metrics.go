// Package metrics holds the Prometheus instruments ecomm exports.  All
// collectors are registered with the default registry, so mounting
// promhttp.Handler() is enough to expose them on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConfigLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomm_config_loads_total",
			Help: "Settings loads by result (ok, error).",
		}, []string{"result"})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecomm_http_requests_total",
			Help: "HTTP requests by method, route pattern, and status code.",
		}, []string{"method", "route", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecomm_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

	DBUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecomm_db_up",
			Help: "1 when the last health check reached the database.",
		})
)

func init() {
	prometheus.MustRegister(
		ConfigLoadsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		DBUp,
	)
}

// ObserveConfigLoad counts one load attempt.
func ObserveConfigLoad(err error) {
	if err != nil {
		ConfigLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	ConfigLoadsTotal.WithLabelValues("ok").Inc()
}

// Instrument records request count and latency.  Routes are labelled by chi
// pattern, not raw path, to keep cardinality bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
