package services

import (
	"context"
	"time"

	"account-service/internal/models"
)

// AccountServiceInterface defines account-related business operations
type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, customerID string, accountType models.AccountType) (*models.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ListCustomerAccounts(ctx context.Context, customerID string) ([]models.Account, error)
	UpdateAccountStatus(ctx context.Context, accountID int64, status models.AccountStatus) (*models.Account, error)
	PatchAccount(ctx context.Context, accountID int64, patch AccountPatch) (*models.Account, error)
	CloseAccount(ctx context.Context, accountID int64) (string, error)
}

// AccountPatch is a decoded partial update, still keyed by wire field name
type AccountPatch interface {
	DisallowedFields() []string
	ToUpdate() (models.AccountUpdate, error)
}

// CustomerVerifierInterface checks a customer's KYC standing with the customer service
type CustomerVerifierInterface interface {
	Verify(ctx context.Context, customerID string) VerificationResult
}

// AuditLoggerInterface records account lifecycle events
type AuditLoggerInterface interface {
	LogAccountCreated(ctx context.Context, account *models.Account)
	LogStatusChange(ctx context.Context, accountID int64, from, to models.AccountStatus)
	LogAccountUpdated(ctx context.Context, accountID int64, fields []string)
	LogAccountClosed(ctx context.Context, accountID int64)
	LogKYCRejected(ctx context.Context, customerID, kycStatus string)
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() models.CircuitBreakerState
	Reset()
	GetFailureCount() int
}
