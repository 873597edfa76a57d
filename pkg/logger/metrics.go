package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the engine. promauto registers everything on the
// default registry; the API server exposes it on /metrics.

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// BarsIngested counts committed and amended bars per symbol.
	BarsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_bars_ingested_total",
			Help: "Total number of bars ingested, by symbol and kind (append/amend)",
		},
		[]string{"symbol", "kind"},
	)

	// Recalculations counts indicator-set recalculations per symbol.
	Recalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_recalculations_total",
			Help: "Total number of indicator set recalculations",
		},
		[]string{"symbol"},
	)

	// RecalcDuration tracks how long one indicator-set recalculation takes.
	RecalcDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_recalc_duration_seconds",
			Help:    "Duration of indicator set recalculations in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"symbol"},
	)

	// FeedReconnects counts reconnect attempts against the market data feed.
	FeedReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "Total number of market data feed reconnects",
		},
		[]string{"provider"},
	)

	// StreamClients tracks currently connected websocket clients.
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_clients_connected",
			Help: "Number of currently connected stream clients",
		},
	)

	// StreamDropped counts clients dropped for slow consumption.
	StreamDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_clients_dropped_total",
			Help: "Total number of stream clients dropped for falling behind",
		},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors",
		},
		[]string{"service", "error_type"},
	)
)

// InitMetrics initializes Prometheus metrics. promauto self-registers, so
// this exists to make the dependency explicit from main.
func InitMetrics() {}
