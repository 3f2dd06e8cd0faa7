package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"account-service/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNumberExists = errors.New("account number already exists")
	// ErrDatabase marks a failure of the store itself, as opposed to a row
	// rejected by the model hooks.
	ErrDatabase = errors.New("database error")
)

// mutableColumns are the only columns Update writes
var mutableColumns = []string{"account_type", "balance", "currency", "status"}

// accountRepository implements AccountRepositoryInterface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepositoryInterface {
	return &accountRepository{
		db: db,
	}
}

// Create inserts a new account. A clash on account_number is reported as
// ErrAccountNumberExists so callers can pick a new number and retry.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrAccountNumberExists
		}
		return dbError("create account", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("account_id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, dbError("get account", err)
	}
	return &account, nil
}

// GetByCustomerID retrieves all accounts held by a customer
func (r *accountRepository) GetByCustomerID(ctx context.Context, customerID string) ([]models.Account, error) {
	accounts := []models.Account{}
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).
		Order("account_id ASC").Find(&accounts).Error; err != nil {
		return nil, dbError("get accounts for customer", err)
	}
	return accounts, nil
}

// GetAll retrieves every account ordered by account_id
func (r *accountRepository) GetAll(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	if err := r.db.WithContext(ctx).Order("account_id ASC").Find(&accounts).Error; err != nil {
		return nil, dbError("get accounts", err)
	}
	return accounts, nil
}

// Update writes the mutable fields of account. Identity columns and
// created_at are never touched.
func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).Model(account).Select(mutableColumns).Updates(account)
	if result.Error != nil {
		return dbError("update account", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func dbError(op string, err error) error {
	if models.IsValidationError(err) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, ErrDatabase, err)
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
