package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"account-service/internal/config"
	"account-service/internal/models"
	"account-service/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound            = errors.New("account not found")
	ErrCustomerNotFound           = errors.New("customer not found")
	ErrKYCNotVerified             = errors.New("customer KYC is not verified")
	ErrCustomerServiceUnavailable = errors.New("customer service unavailable")
	ErrCustomerServiceTimeout     = errors.New("customer service timed out")
	ErrInvalidStatusTransition    = models.ErrInvalidStatusTransition
	ErrAccountNumberConflict      = errors.New("could not allocate a unique account number")
	ErrInvalidAccountUpdate       = errors.New("invalid account update")
	ErrFieldNotUpdatable          = errors.New("field cannot be updated")
	ErrStorage                    = repositories.ErrDatabase
	ErrVerificationAbandoned      = errors.New("customer verification abandoned")
)

// FieldNotUpdatableError lists the supplied fields a patch may not touch
type FieldNotUpdatableError struct {
	Fields []string
}

func (e *FieldNotUpdatableError) Error() string {
	return "fields cannot be updated: " + strings.Join(e.Fields, ", ")
}

func (e *FieldNotUpdatableError) Unwrap() error {
	return ErrFieldNotUpdatable
}

// KYCNotVerifiedError carries the KYC status the customer service reported
type KYCNotVerifiedError struct {
	CustomerID string
	Status     string
}

func (e *KYCNotVerifiedError) Error() string {
	return fmt.Sprintf("Cannot create account: KYC status for customer %s is '%s'", e.CustomerID, e.Status)
}

func (e *KYCNotVerifiedError) Unwrap() error {
	return ErrKYCNotVerified
}

// AccountServiceConfig holds the workflow switches
type AccountServiceConfig struct {
	StrictStatusTransitions  bool
	AccountNumberMaxAttempts int
}

// NewAccountServiceConfig maps the loaded configuration onto the workflow
func NewAccountServiceConfig(cfg config.AccountsConfig) AccountServiceConfig {
	return AccountServiceConfig{
		StrictStatusTransitions:  cfg.StrictStatusTransitions,
		AccountNumberMaxAttempts: cfg.AccountNumberMaxAttempts,
	}
}

// accountService implements AccountServiceInterface
type accountService struct {
	accountRepo    repositories.AccountRepositoryInterface
	verifier       CustomerVerifierInterface
	metrics        MetricsRecorderInterface
	logger         *slog.Logger
	audit          AuditLoggerInterface
	config         AccountServiceConfig
	generateNumber func() string
}

// NewAccountService creates the account workflow
func NewAccountService(
	accountRepo repositories.AccountRepositoryInterface,
	verifier CustomerVerifierInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
	cfg AccountServiceConfig,
) AccountServiceInterface {
	if cfg.AccountNumberMaxAttempts <= 0 {
		cfg.AccountNumberMaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &accountService{
		accountRepo:    accountRepo,
		verifier:       verifier,
		metrics:        metrics,
		logger:         logger,
		audit:          NewAuditLogger(logger),
		config:         cfg,
		generateNumber: models.GenerateAccountNumber,
	}
}

// CreateAccount verifies the customer's KYC standing and opens a new ACTIVE
// account with a zero INR balance.
func (s *accountService) CreateAccount(ctx context.Context, customerID string, accountType models.AccountType) (account *models.Account, err error) {
	defer s.observe("create", time.Now(), &err)

	if !accountType.IsValid() {
		return nil, models.ErrInvalidAccountType
	}

	if err := s.verifyCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.config.AccountNumberMaxAttempts; attempt++ {
		account = &models.Account{
			CustomerID:    customerID,
			AccountNumber: s.generateNumber(),
			AccountType:   accountType,
			Balance:       decimal.Zero,
			Currency:      models.DefaultCurrency,
			Status:        models.AccountStatusActive,
		}

		err = s.accountRepo.Create(ctx, account)
		if err == nil {
			s.audit.LogAccountCreated(ctx, account)
			return account, nil
		}

		if !errors.Is(err, repositories.ErrAccountNumberExists) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}

		s.metrics.IncrementCounter(MetricAccountNumberCollision, nil)
		s.logger.Warn("Generated account number already taken, regenerating",
			"attempt", attempt,
			"max_attempts", s.config.AccountNumberMaxAttempts)
	}

	return nil, ErrAccountNumberConflict
}

func (s *accountService) verifyCustomer(ctx context.Context, customerID string) error {
	result := s.verifier.Verify(ctx, customerID)

	switch result.Outcome {
	case OutcomeVerified:
		return nil
	case OutcomeNotFound:
		return ErrCustomerNotFound
	case OutcomeRejected:
		s.audit.LogKYCRejected(ctx, customerID, result.KYCStatus)
		return &KYCNotVerifiedError{CustomerID: customerID, Status: result.KYCStatus}
	case OutcomeTimeout:
		s.logger.Error("Customer service timed out", "customer_id", customerID, "error", result.Err)
		return ErrCustomerServiceTimeout
	case OutcomeCanceled:
		return fmt.Errorf("%w: %w", ErrVerificationAbandoned, result.Err)
	default:
		s.logger.Error("Customer service unavailable", "customer_id", customerID, "error", result.Err)
		return ErrCustomerServiceUnavailable
	}
}

// GetAccount returns the account with the given id
func (s *accountService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	return s.load(ctx, accountID)
}

// ListAccounts returns every account in account_id order
func (s *accountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accountRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	s.metrics.RecordGauge(MetricAccountsTotal, float64(len(accounts)), nil)
	return accounts, nil
}

// ListCustomerAccounts returns the accounts held by customerID in account_id
// order. The customer service is not consulted.
func (s *accountService) ListCustomerAccounts(ctx context.Context, customerID string) ([]models.Account, error) {
	accounts, err := s.accountRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccountStatus moves the account to status
func (s *accountService) UpdateAccountStatus(ctx context.Context, accountID int64, status models.AccountStatus) (account *models.Account, err error) {
	defer s.observe("update_status", time.Now(), &err)

	account, err = s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	previous := account.Status
	if err := account.TransitionTo(status, s.config.StrictStatusTransitions); err != nil {
		return nil, err
	}

	if err := s.save(ctx, account); err != nil {
		return nil, err
	}

	s.audit.LogStatusChange(ctx, accountID, previous, account.Status)

	return account, nil
}

// PatchAccount applies patch as a whole. The account is looked up first, so a
// missing id is reported before anything about the body. If any field is
// disallowed or invalid nothing is written.
func (s *accountService) PatchAccount(ctx context.Context, accountID int64, patch AccountPatch) (account *models.Account, err error) {
	defer s.observe("patch", time.Now(), &err)

	account, err = s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if fields := patch.DisallowedFields(); len(fields) > 0 {
		return nil, &FieldNotUpdatableError{Fields: fields}
	}

	update, err := patch.ToUpdate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccountUpdate, err)
	}

	if update.IsEmpty() {
		return account, nil
	}

	if err := account.ApplyUpdate(update, s.config.StrictStatusTransitions); err != nil {
		if errors.Is(err, models.ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccountUpdate, err)
	}

	if err := s.save(ctx, account); err != nil {
		return nil, err
	}

	s.audit.LogAccountUpdated(ctx, accountID, update.Fields())
	return account, nil
}

// CloseAccount soft-closes the account and returns a confirmation message
func (s *accountService) CloseAccount(ctx context.Context, accountID int64) (message string, err error) {
	defer s.observe("close", time.Now(), &err)

	account, err := s.load(ctx, accountID)
	if err != nil {
		return "", err
	}

	if err := account.Close(s.config.StrictStatusTransitions); err != nil {
		return "", err
	}

	if err := s.save(ctx, account); err != nil {
		return "", err
	}

	s.audit.LogAccountClosed(ctx, accountID)
	return fmt.Sprintf("Account %d closed successfully", accountID), nil
}

func (s *accountService) load(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *accountService) save(ctx context.Context, account *models.Account) error {
	if err := s.accountRepo.Update(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (s *accountService) observe(operation string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "failed"
	}
	s.metrics.IncrementCounter(MetricAccountOperation, map[string]string{
		"operation": operation,
		"status":    status,
	})
	s.metrics.RecordProcessingTime(operation, time.Since(start))
}
