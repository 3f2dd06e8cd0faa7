package services

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"account-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVerifierConfig(baseURL string) config.CustomerServiceConfig {
	return config.CustomerServiceConfig{
		BaseURL:            baseURL,
		Timeout:            200 * time.Millisecond,
		MaxRetries:         2,
		RetryInterval:      5 * time.Millisecond,
		BreakerMaxFailures: 3,
		BreakerReset:       time.Minute,
	}
}

func newTestVerifier(t *testing.T, handler http.HandlerFunc) (CustomerVerifierInterface, *atomic.Int32, CircuitBreakerInterface) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := testVerifierConfig(server.URL + "/api/customers")
	breaker := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "customer_service",
		MaxFailures:  cfg.BreakerMaxFailures,
		ResetTimeout: cfg.BreakerReset,
	})

	return NewCustomerVerifier(cfg, breaker, NoopMetrics{}, slog.Default()), &calls, breaker
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestCustomerVerifier_Verified(t *testing.T) {
	var path string
	verifier, calls, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(w, http.StatusOK, `{"data":{"kyc_status":"verified","name":"Asha"}}`)
	})

	result := verifier.Verify(context.Background(), "C1")

	assert.Equal(t, OutcomeVerified, result.Outcome)
	assert.Equal(t, "/api/customers/C1", path)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCustomerVerifier_NotFoundIsNotRetried(t *testing.T) {
	verifier, calls, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"not found"}`)
	})

	result := verifier.Verify(context.Background(), "C2")

	assert.Equal(t, OutcomeNotFound, result.Outcome)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCustomerVerifier_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status string
	}{
		{name: "pending", body: `{"data":{"kyc_status":"pending"}}`, status: "PENDING"},
		{name: "missing kyc status", body: `{"data":{"name":"x"}}`, status: ""},
		{name: "missing data", body: `{}`, status: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier, calls, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			result := verifier.Verify(context.Background(), "C3")

			assert.Equal(t, OutcomeRejected, result.Outcome)
			assert.Equal(t, tt.status, result.KYCStatus)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestCustomerVerifier_ServerErrorRetriedThenUnavailable(t *testing.T) {
	verifier, calls, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{}`)
	})

	result := verifier.Verify(context.Background(), "C4")

	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestCustomerVerifier_RecoversOnRetry(t *testing.T) {
	var attempts atomic.Int32
	verifier, _, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			writeJSON(w, http.StatusBadGateway, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"kyc_status":"VERIFIED"}}`)
	})

	result := verifier.Verify(context.Background(), "C5")

	assert.Equal(t, OutcomeVerified, result.Outcome)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestCustomerVerifier_MalformedBodyIsUnavailable(t *testing.T) {
	verifier, _, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `not json`)
	})

	result := verifier.Verify(context.Background(), "C6")

	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	assert.Contains(t, result.Err.Error(), "malformed customer response")
}

func TestCustomerVerifier_Timeout(t *testing.T) {
	verifier, calls, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})

	result := verifier.Verify(context.Background(), "C7")

	assert.Equal(t, OutcomeTimeout, result.Outcome)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCustomerVerifier_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	cfg := testVerifierConfig(baseURL)
	cfg.MaxRetries = 0
	verifier := NewCustomerVerifier(cfg, NewCircuitBreaker(DefaultCircuitBreakerConfig()), NoopMetrics{}, slog.Default())

	result := verifier.Verify(context.Background(), "C8")

	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	assert.Contains(t, result.Err.Error(), "error connecting to customer service")
}

func TestCustomerVerifier_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	verifier, calls, breaker := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{}`)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, OutcomeUnavailable, verifier.Verify(context.Background(), "C9").Outcome)
	}
	require.Equal(t, StateOpen, breaker.GetState())

	before := calls.Load()
	result := verifier.Verify(context.Background(), "C9")

	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	assert.ErrorIs(t, result.Err, ErrCircuitBreakerOpen)
	assert.Equal(t, before, calls.Load())
}

func TestCustomerVerifier_CallerCancellationLeavesBreakerAlone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	verifier, calls, breaker := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		<-r.Context().Done()
	})

	for i := 0; i < 5; i++ {
		result := verifier.Verify(ctx, "C10")
		assert.Equal(t, OutcomeCanceled, result.Outcome)
		assert.ErrorIs(t, result.Err, context.Canceled)
	}

	assert.Equal(t, int32(1), calls.Load(), "a cancelled lookup is not retried")
	assert.Equal(t, StateClosed, breaker.GetState())
	assert.Zero(t, breaker.GetFailureCount())
}

func TestCustomerVerifier_EscapesCustomerID(t *testing.T) {
	var rawPath string
	verifier, _, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		writeJSON(w, http.StatusNotFound, `{}`)
	})

	verifier.Verify(context.Background(), "a/b c")

	assert.Equal(t, "/api/customers/a%2Fb%20c", rawPath)
}

func TestVerificationOutcome_String(t *testing.T) {
	assert.Equal(t, "verified", OutcomeVerified.String())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "unavailable", OutcomeUnavailable.String())
	assert.Equal(t, "timeout", OutcomeTimeout.String())
	assert.Equal(t, "canceled", OutcomeCanceled.String())
}
