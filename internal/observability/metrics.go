package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per route, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critter_requests_total",
			Help: "Total API requests received",
		},
		[]string{"route", "method", "status"},
	)

	// request latency in seconds per route/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "critter_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// reports accepted, labelled by severity
	ReportsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critter_reports_created_total",
			Help: "Total incident reports created",
		},
		[]string{"severity"},
	)

	// geocoding outcomes: provider, regex, unresolved
	GeocodeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critter_geocode_results_total",
			Help: "Geocode resolutions by path",
		},
		[]string{"path"},
	)

	// image intake outcomes: storage, fallback, failed
	ImageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critter_image_uploads_total",
			Help: "Image uploads by storage path",
		},
		[]string{"path"},
	)

	// classifier outcomes: identified, unidentified, unavailable
	ClassifierResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critter_classifier_results_total",
			Help: "Species classifier results by outcome",
		},
		[]string{"outcome"},
	)

	ClassifierLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "critter_classifier_duration_seconds",
			Help:    "Duration of species classifier calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		},
	)

	// connected dashboard sessions on this instance
	ConnectedSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "critter_broadcast_sessions",
			Help: "Currently connected real-time sessions",
		},
	)

	// events fanned out, labelled by type
	BroadcastEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critter_broadcast_events_total",
			Help: "Events broadcast to real-time sessions",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		ReportsCreated,
		GeocodeResults,
		ImageUploads,
		ClassifierResults,
		ClassifierLatency,
		ConnectedSessions,
		BroadcastEvents,
	)
}

// GinMetrics записывает счётчик и латентность для каждого запроса
func GinMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestCount.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		RequestLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
