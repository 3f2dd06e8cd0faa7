package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"account-service/internal/config"
	"account-service/internal/retry"
)

const (
	kycStatusVerified  = "VERIFIED"
	maxCustomerPayload = 1 << 20
)

// VerificationOutcome classifies a customer lookup
type VerificationOutcome int

const (
	OutcomeVerified VerificationOutcome = iota
	OutcomeNotFound
	OutcomeRejected
	OutcomeUnavailable
	OutcomeTimeout
	// OutcomeCanceled means the caller's context ended before an answer
	// arrived. It says nothing about the customer service's health.
	OutcomeCanceled
)

func (o VerificationOutcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// VerificationResult is the outcome of a KYC check. KYCStatus is set for
// Rejected; Err carries the cause for Unavailable, Timeout and Canceled.
type VerificationResult struct {
	Outcome   VerificationOutcome
	KYCStatus string
	Err       error
}

func (r VerificationResult) retryable() bool {
	return r.Outcome == OutcomeUnavailable || r.Outcome == OutcomeTimeout
}

type customerResponse struct {
	Data *struct {
		KYCStatus *string `json:"kyc_status"`
	} `json:"data"`
}

type customerVerifier struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	breaker    CircuitBreakerInterface
	metrics    MetricsRecorderInterface
	logger     *slog.Logger
}

// NewCustomerVerifier creates a client for GET <base-url>/{customer_id}
func NewCustomerVerifier(
	cfg config.CustomerServiceConfig,
	breaker CircuitBreakerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) CustomerVerifierInterface {
	return &customerVerifier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		policy: retry.Policy{
			MaxAttempts:     cfg.MaxRetries + 1,
			InitialInterval: cfg.RetryInterval,
			MaxInterval:     cfg.Timeout,
		},
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
	}
}

// Verify looks the customer up, retrying transport failures and timeouts.
// NotFound and Rejected are final answers and are never retried.
func (v *customerVerifier) Verify(ctx context.Context, customerID string) VerificationResult {
	start := time.Now()

	if v.breaker.IsOpen() {
		v.logger.Warn("Customer service circuit breaker open, skipping lookup",
			"customer_id", customerID)
		result := VerificationResult{Outcome: OutcomeUnavailable, Err: ErrCircuitBreakerOpen}
		v.record(result, start)
		return result
	}

	var result VerificationResult
	err := retry.Do(ctx, v.policy, func(ctx context.Context) error {
		result = v.lookup(ctx, customerID)
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		if result.retryable() {
			return result.Err
		}
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		v.metrics.IncrementCounter(MetricVerificationRetry, nil)
		v.logger.Warn("Customer lookup failed, retrying",
			"customer_id", customerID,
			"attempt", attempt,
			"backoff", wait,
			"error", err)
	})

	switch {
	case ctx.Err() != nil:
		v.logger.Info("Customer lookup abandoned by caller",
			"customer_id", customerID,
			"error", ctx.Err())
		result = VerificationResult{Outcome: OutcomeCanceled, Err: ctx.Err()}
	case err != nil:
		v.logger.Warn("Customer lookup gave up",
			"customer_id", customerID,
			"outcome", result.Outcome.String(),
			"error", err)
		v.breaker.RecordFailure()
	default:
		v.breaker.RecordSuccess()
	}

	v.record(result, start)
	return result
}

func (v *customerVerifier) record(result VerificationResult, start time.Time) {
	v.metrics.IncrementCounter(MetricVerification, map[string]string{"outcome": result.Outcome.String()})
	v.metrics.RecordProcessingTime(MetricVerificationDuration, time.Since(start))
}

func (v *customerVerifier) lookup(ctx context.Context, customerID string) VerificationResult {
	customerURL := v.baseURL + "/" + url.PathEscape(customerID)
	v.logger.Debug("Checking customer", "url", customerURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, customerURL, nil)
	if err != nil {
		return unavailable(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return VerificationResult{Outcome: OutcomeNotFound}
	case resp.StatusCode != http.StatusOK:
		return unavailable(fmt.Errorf("customer service returned status %d", resp.StatusCode))
	}

	var body customerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCustomerPayload)).Decode(&body); err != nil {
		if isTimeout(err) {
			return VerificationResult{Outcome: OutcomeTimeout, Err: err}
		}
		return unavailable(fmt.Errorf("malformed customer response: %w", err))
	}

	status := ""
	if body.Data != nil && body.Data.KYCStatus != nil {
		status = strings.ToUpper(*body.Data.KYCStatus)
	}

	v.logger.Debug("Customer KYC status received", "customer_id", customerID, "kyc_status", status)

	if status == kycStatusVerified {
		return VerificationResult{Outcome: OutcomeVerified, KYCStatus: status}
	}
	return VerificationResult{Outcome: OutcomeRejected, KYCStatus: status}
}

func unavailable(err error) VerificationResult {
	return VerificationResult{Outcome: OutcomeUnavailable, Err: err}
}

func transportFailure(err error) VerificationResult {
	if isTimeout(err) {
		return VerificationResult{Outcome: OutcomeTimeout, Err: err}
	}
	return unavailable(fmt.Errorf("error connecting to customer service: %w", err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
