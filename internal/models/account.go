package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType is the product line of an account
type AccountType string

// AccountStatus is the lifecycle state of an account
type AccountStatus string

const (
	AccountTypeSalary  AccountType = "SALARY"
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeNRE     AccountType = "NRE"

	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"

	DefaultCurrency = "INR"

	AccountNumberLength = 12
)

var (
	ErrInvalidAccountType      = errors.New("invalid account type")
	ErrInvalidAccountStatus    = errors.New("invalid account status")
	ErrInvalidBalance          = errors.New("balance cannot be negative")
	ErrInvalidBalancePrecision = errors.New("balance must have at most 2 decimal places")
	ErrBalanceOutOfRange       = errors.New("balance exceeds the maximum supported value")
	ErrInvalidCurrency         = errors.New("currency must be 3 to 5 uppercase letters")
	ErrInvalidAccountNumber    = errors.New("account number must be 12 digits")
	ErrInvalidStatusTransition = errors.New("invalid account status transition")
	ErrCustomerIDRequired      = errors.New("customer ID is required")
	ErrCustomerIDTooLong       = errors.New("customer ID must be at most 36 characters")
)

// rowErrors are the failures Validate can report for a row.
var rowErrors = []error{
	ErrCustomerIDRequired, ErrCustomerIDTooLong, ErrInvalidAccountNumber,
	ErrInvalidAccountType, ErrInvalidAccountStatus, ErrInvalidCurrency,
	ErrInvalidBalance, ErrInvalidBalancePrecision, ErrBalanceOutOfRange,
}

// IsValidationError reports whether err came from Validate rather than from
// the database.
func IsValidationError(err error) bool {
	for _, target := range rowErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var (
	currencyPattern      = regexp.MustCompile(`^[A-Z]{3,5}$`)
	accountNumberPattern = regexp.MustCompile(`^[1-9][0-9]{11}$`)

	// decimal(12,2) holds at most 10 integer digits
	maxBalance = decimal.New(1, 10)

	accountNumberMin int64 = 100_000_000_000
	accountNumberMax int64 = 999_999_999_999
)

// statusTransitions lists the states reachable from each non-terminal state.
// CLOSED has no outgoing edges.
var statusTransitions = map[AccountStatus][]AccountStatus{
	AccountStatusActive: {AccountStatusFrozen, AccountStatusClosed},
	AccountStatusFrozen: {AccountStatusActive, AccountStatusClosed},
}

// Account represents a customer bank account
type Account struct {
	AccountID     int64           `gorm:"column:account_id;primaryKey;autoIncrement" json:"account_id"`
	CustomerID    string          `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	AccountNumber string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"account_number"`
	AccountType   AccountType     `gorm:"type:varchar(20);not null" json:"account_type"`
	Balance       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	Currency      string          `gorm:"type:varchar(5);not null;default:'INR'" json:"currency"`
	Status        AccountStatus   `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt     time.Time       `gorm:"<-:create;not null" json:"created_at"`
}

// BeforeCreate hook for Account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = AccountStatusActive
	}

	if a.Currency == "" {
		a.Currency = DefaultCurrency
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	return a.Validate()
}

// BeforeUpdate hook for Account
func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	return a.Validate()
}

// Validate validates the account fields
func (a *Account) Validate() error {
	if a.CustomerID == "" {
		return ErrCustomerIDRequired
	}

	if len(a.CustomerID) > 36 {
		return ErrCustomerIDTooLong
	}

	if !ValidateAccountNumber(a.AccountNumber) {
		return ErrInvalidAccountNumber
	}

	if !a.AccountType.IsValid() {
		return ErrInvalidAccountType
	}

	if !a.Status.IsValid() {
		return ErrInvalidAccountStatus
	}

	if !IsValidCurrency(a.Currency) {
		return ErrInvalidCurrency
	}

	return ValidateBalance(a.Balance)
}

// IsActive returns true if the account is active
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsClosed returns true if the account has been closed
func (a *Account) IsClosed() bool {
	return a.Status == AccountStatusClosed
}

// TransitionTo moves the account to next. When strict is false, the default,
// any valid status may be written. Strict mode only allows CanTransitionTo moves.
func (a *Account) TransitionTo(next AccountStatus, strict bool) error {
	if !next.IsValid() {
		return ErrInvalidAccountStatus
	}

	if strict && !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, a.Status, next)
	}

	a.Status = next
	return nil
}

// Close soft-closes the account
func (a *Account) Close(strict bool) error {
	return a.TransitionTo(AccountStatusClosed, strict)
}

// MarshalJSON renders balance as a JSON number with two fractional digits
func (a Account) MarshalJSON() ([]byte, error) {
	type account Account
	return json.Marshal(struct {
		account
		Balance json.Number `json:"balance"`
	}{
		account: account(a),
		Balance: json.Number(a.Balance.StringFixed(2)),
	})
}

// TableName returns the table name for Account
func (a *Account) TableName() string {
	return "accounts"
}

// IsValid checks if the account type is one of the supported products
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeSalary, AccountTypeSavings, AccountTypeCurrent, AccountTypeNRE:
		return true
	default:
		return false
	}
}

// IsValid checks if the status is a known lifecycle state
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether next is reachable from s.
// Writing the current status again is always allowed.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	if s == next {
		return true
	}

	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Helper functions

// AccountTypes returns every supported account type
func AccountTypes() []AccountType {
	return []AccountType{AccountTypeSalary, AccountTypeSavings, AccountTypeCurrent, AccountTypeNRE}
}

// AccountStatuses returns every lifecycle state
func AccountStatuses() []AccountStatus {
	return []AccountStatus{AccountStatusActive, AccountStatusFrozen, AccountStatusClosed}
}

// IsValidCurrency checks the 3-5 letter currency code format
func IsValidCurrency(currency string) bool {
	return currencyPattern.MatchString(currency)
}

// ValidateBalance checks sign, precision and range of a balance
func ValidateBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrInvalidBalance
	}

	if !balance.Equal(balance.Round(2)) {
		return ErrInvalidBalancePrecision
	}

	if balance.GreaterThanOrEqual(maxBalance) {
		return ErrBalanceOutOfRange
	}

	return nil
}

// GenerateAccountNumber returns a random 12-digit account number drawn
// uniformly from [10^11, 10^12-1]. Uniqueness is enforced by the store.
func GenerateAccountNumber() string {
	n := accountNumberMin + rand.Int64N(accountNumberMax-accountNumberMin+1)
	return fmt.Sprintf("%d", n)
}

// ValidateAccountNumber validates an account number format
func ValidateAccountNumber(accountNumber string) bool {
	return accountNumberPattern.MatchString(accountNumber)
}
