package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names understood by PrometheusMetrics
const (
	MetricAccountOperation       = "account_operation"
	MetricAccountNumberCollision = "account_number_collision"
	MetricVerification           = "customer_verification"
	MetricVerificationDuration   = "customer_verification_duration"
	MetricVerificationRetry      = "customer_verification_retry"
	MetricCircuitBreakerState    = "circuit_breaker_state"
	MetricAccountsTotal          = "accounts_total"
)

type PrometheusMetrics struct {
	accountOperations      *prometheus.CounterVec
	accountOperationTime   *prometheus.HistogramVec
	accountNumberConflicts prometheus.Counter
	verifications          *prometheus.CounterVec
	verificationDuration   prometheus.Histogram
	verificationRetries    prometheus.Counter
	circuitBreakerState    *prometheus.GaugeVec
	accountsTotal          prometheus.Gauge
}

// NewPrometheusMetrics registers the collectors on the default registry
func NewPrometheusMetrics() MetricsRecorderInterface {
	return NewPrometheusMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWithRegistry registers the collectors on reg
func NewPrometheusMetricsWithRegistry(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		accountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_operations_total",
				Help: "Total number of account operations by outcome",
			},
			[]string{"operation", "status"},
		),
		accountOperationTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "account_operation_duration_milliseconds",
				Help:    "Account operation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operation"},
		),
		accountNumberConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "account_number_collisions_total",
				Help: "Total number of generated account numbers that were already taken",
			},
		),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_verifications_total",
				Help: "Total number of customer KYC verifications by outcome",
			},
			[]string{"outcome"},
		),
		verificationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "customer_verification_duration_seconds",
				Help:    "Customer verification duration in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
		),
		verificationRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "customer_verification_retries_total",
				Help: "Total number of customer verification retry attempts",
			},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		accountsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "accounts_total",
				Help: "Number of accounts returned by the last listing",
			},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case MetricAccountOperation:
		if operation := tags["operation"]; operation != "" {
			m.accountOperations.WithLabelValues(operation, tags["status"]).Inc()
		}
	case MetricAccountNumberCollision:
		m.accountNumberConflicts.Inc()
	case MetricVerification:
		if outcome := tags["outcome"]; outcome != "" {
			m.verifications.WithLabelValues(outcome).Inc()
		}
	case MetricVerificationRetry:
		m.verificationRetries.Inc()
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case MetricVerificationDuration:
		m.verificationDuration.Observe(duration.Seconds())
	default:
		// any other name is an account operation
		m.accountOperationTime.WithLabelValues(name).Observe(float64(duration.Milliseconds()))
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case MetricCircuitBreakerState:
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(value)
	case MetricAccountsTotal:
		m.accountsTotal.Set(value)
	}
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) IncrementCounter(string, map[string]string) {}

func (NoopMetrics) RecordProcessingTime(string, time.Duration) {}

func (NoopMetrics) RecordGauge(string, float64, map[string]string) {}
