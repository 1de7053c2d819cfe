// Package metrics exposes Prometheus collectors for the preview service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	classificationsTotal       *prometheus.CounterVec
	dispatchOutcomesTotal      *prometheus.CounterVec
	storeLookupsTotal          *prometheus.CounterVec
	renderDurationSeconds      prometheus.Histogram
	settingsRefreshTotal       *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		classificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogshim_classifications_total",
				Help: "User-Agent classifications on the article route, labeled by result.",
			},
			[]string{"result"},
		)

		dispatchOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogshim_dispatch_outcomes_total",
				Help: "Terminal dispatcher states, labeled by adapter and outcome.",
			},
			[]string{"adapter", "outcome"},
		)

		storeLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogshim_store_lookups_total",
				Help: "Content store article lookups, labeled by field and result.",
			},
			[]string{"field", "result"},
		)

		renderDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ogshim_render_duration_seconds",
				Help:    "Time spent rendering a meta document.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
		)

		settingsRefreshTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogshim_settings_refresh_total",
				Help: "Site settings cache refreshes, labeled by result.",
			},
			[]string{"result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveClassification counts one bot/human decision.
func ObserveClassification(bot bool) {
	Init()
	result := "human"
	if bot {
		result = "bot"
	}
	classificationsTotal.WithLabelValues(result).Inc()
}

// ObserveDispatch counts a terminal dispatcher outcome for an adapter.
func ObserveDispatch(adapter, outcome string) {
	Init()
	dispatchOutcomesTotal.WithLabelValues(adapter, outcome).Inc()
}

// ObserveLookup counts a store lookup; result is hit, miss or error.
func ObserveLookup(field, result string) {
	Init()
	storeLookupsTotal.WithLabelValues(field, result).Inc()
}

// ObserveRender records how long a document took to render.
func ObserveRender(d time.Duration) {
	Init()
	renderDurationSeconds.Observe(d.Seconds())
}

// ObserveSettingsRefresh counts a settings reload; result is ok or error.
func ObserveSettingsRefresh(result string) {
	Init()
	settingsRefreshTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
