package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "identity_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// CodesIssued tracks verification codes issued per channel and action
	CodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_codes_issued_total",
			Help: "Number of verification codes issued",
		},
		[]string{"channel", "action"},
	)

	// CodeVerifications tracks verification code checks
	CodeVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_code_verifications_total",
			Help: "Number of verification code checks",
		},
		[]string{"channel", "status"},
	)

	// Logins tracks login attempts by method
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_logins_total",
			Help: "Number of login attempts",
		},
		[]string{"method", "status"},
	)

	// Signups tracks completed registrations
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_signups_total",
			Help: "Number of completed registrations",
		},
		[]string{"channel", "status"},
	)

	// RateLimited tracks rejected send-code requests
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_send_code_rate_limited_total",
			Help: "Number of send-code requests rejected by rate limiting",
		},
		[]string{"channel"},
	)

	// DeliveryFailures tracks code delivery gateway failures
	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_code_delivery_failures_total",
			Help: "Number of failed code delivery attempts",
		},
		[]string{"channel"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "identity_active_connections",
			Help: "Number of active connections",
		},
	)
)

// RegisterRedisPoolStats exposes the Redis connection pool as gauges.
// Call once after the Redis client is initialized.
func RegisterRedisPoolStats(stats func() (total, idle uint32)) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "identity_redis_pool_total_connections",
			Help: "Total connections in the Redis pool",
		},
		func() float64 {
			total, _ := stats()
			return float64(total)
		},
	)
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "identity_redis_pool_idle_connections",
			Help: "Idle connections in the Redis pool",
		},
		func() float64 {
			_, idle := stats()
			return float64(idle)
		},
	)
}

// RegisterSendCodeTokens exposes the global send-code bucket as a gauge.
// Call once after the send-code limiter is initialized.
func RegisterSendCodeTokens(status func() (tokens, max int)) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "identity_send_code_tokens",
			Help: "Remaining tokens in the global send-code bucket",
		},
		func() float64 {
			tokens, _ := status()
			return float64(tokens)
		},
	)
}
