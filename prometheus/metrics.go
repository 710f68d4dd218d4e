package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_register_total",
			Help: "Total number of tenant registrations",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Authorization rejections by taxonomy code
	AuthRejectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_auth_rejections_total",
			Help: "Total number of authorization rejections by code",
		},
		[]string{"code"},
	)

	// Usage-limit rejections by resource
	UsageLimitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_usage_limit_hits_total",
			Help: "Total number of requests rejected by a usage limit",
		},
		[]string{"resource"},
	)

	// Booking conflicts rejected by the storage layer
	BookingConflictCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_booking_conflicts_total",
			Help: "Total number of bookings rejected by the overlap constraint",
		},
	)

	// Pricing recommendations by outcome (ai, fallback, cache)
	PricingCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_pricing_recommendations_total",
			Help: "Total number of pricing recommendations by outcome",
		},
		[]string{"outcome"},
	)

	// Guest messages by outcome (ai, fallback)
	GuestMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_guest_messages_total",
			Help: "Total number of guest messages generated by outcome",
		},
		[]string{"outcome"},
	)

	// Market-trend analyses by outcome (ai, fallback)
	MarketAnalysisCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_market_analyses_total",
			Help: "Total number of market-trend analyses by outcome",
		},
		[]string{"outcome"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rental_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rental_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// External pricing call duration
	PricingCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rental_pricing_call_duration_seconds",
			Help:    "Duration of external pricing service calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rental_info",
			Help: "Information about the rental API service",
		},
		[]string{"version"},
	)

	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rental_active_tenants",
			Help: "Number of currently active tenants",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthRejectionCounter)
	prometheus.MustRegister(UsageLimitCounter)
	prometheus.MustRegister(BookingConflictCounter)
	prometheus.MustRegister(PricingCounter)
	prometheus.MustRegister(GuestMessageCounter)
	prometheus.MustRegister(MarketAnalysisCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(PricingCallDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveTenantsGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthRejection records an authorization rejection by taxonomy code
func RecordAuthRejection(code string) {
	AuthRejectionCounter.With(prometheus.Labels{"code": code}).Inc()
}

// RecordUsageLimitHit records a request rejected by a usage limit
func RecordUsageLimitHit(resource string) {
	UsageLimitCounter.With(prometheus.Labels{"resource": resource}).Inc()
}

// RecordPricingOutcome records a pricing recommendation by outcome
func RecordPricingOutcome(outcome string) {
	PricingCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordMessageOutcome records a guest-message generation by outcome
func RecordMessageOutcome(outcome string) {
	GuestMessageCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordAnalysisOutcome records a market-trend analysis by outcome
func RecordAnalysisOutcome(outcome string) {
	MarketAnalysisCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}
