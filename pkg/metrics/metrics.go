// Package metrics provides Prometheus metrics for the price feed server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes.
const (
	OutcomePrice  = "price"
	OutcomeNoData = "no_data"
	OutcomeError  = "error"
)

var (
	// PriceResolutionsTotal is a counter of price resolutions by outcome.
	PriceResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_resolutions_total",
			Help: "Total number of price resolutions by outcome",
		},
		[]string{"asset", "strategy", "outcome"},
	)

	// PriceResolutionDuration is a histogram of strategy resolution duration, fetches included.
	PriceResolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_resolution_duration_seconds",
			Help:    "Duration of price resolutions including source fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// DeviationOverridesTotal is a counter of resolutions where source disagreement exceeded the threshold.
	DeviationOverridesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deviation_overrides_total",
			Help: "Total number of resolutions where the deviation threshold was exceeded",
		},
		[]string{"asset", "strategy"},
	)

	// SourceFetchTotal is a counter of source reads by status.
	SourceFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_total",
			Help: "Total number of observation fetches by source and status",
		},
		[]string{"source", "status"},
	)

	// SourceHealth is a gauge of the health status of price sources.
	SourceHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "source_health",
			Help: "Health status of price sources (1=healthy, 0=unhealthy)",
		},
		[]string{"source", "type"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		PriceResolutionsTotal,
		PriceResolutionDuration,
		DeviationOverridesTotal,
		SourceFetchTotal,
		SourceHealth,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address and path.
func ServeHTTP(addr, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordResolution records one price resolution.
func RecordResolution(asset, strategy, outcome string, duration time.Duration) {
	PriceResolutionsTotal.WithLabelValues(asset, strategy, outcome).Inc()
	PriceResolutionDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordDeviationOverride records a resolution whose sources disagreed beyond the threshold.
func RecordDeviationOverride(asset, strategy string) {
	DeviationOverridesTotal.WithLabelValues(asset, strategy).Inc()
}

// RecordSourceFetch records an observation fetch and the resulting source health.
func RecordSourceFetch(source, sourceType string, ok bool) {
	status, val := "error", 0.0
	if ok {
		status, val = "ok", 1.0
	}
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceHealth.WithLabelValues(source, sourceType).Set(val)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
