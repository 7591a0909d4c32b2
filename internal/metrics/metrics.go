// Package metrics exposes the Prometheus instruments shared by the catalog
// server, along with the HTTP middleware that feeds them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Ratings
	RatingsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ratings_recorded_total",
			Help: "Rating writes, by outcome",
		},
		[]string{"outcome"}, // "created", "updated", "deleted", "conflict", "invalid", "not_found", "error"
	)

	// Recommendations
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_recommendations_served_total",
			Help: "Recommendation lists produced, by strategy",
		},
		[]string{"strategy"}, // "genre", "popularity"
	)

	AdminActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_admin_actions_total",
			Help: "Admin bulk actions executed, by action name",
		},
		[]string{"action"},
	)
)

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRating counts a rating write outcome.
func RecordRating(outcome string) {
	RatingsRecorded.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency labelled by chi route pattern.
// Unmatched requests are labelled "unmatched" to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
