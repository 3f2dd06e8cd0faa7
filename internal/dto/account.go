package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"account-service/internal/models"

	"github.com/shopspring/decimal"
)

// Account Request DTOs

// CreateAccountRequest represents the request payload for opening an account
type CreateAccountRequest struct {
	CustomerID  string `json:"customer_id" validate:"required,customer_id"`
	AccountType string `json:"account_type" validate:"required,account_type"`
}

// UpdateAccountStatusRequest represents the request payload for updating account status
type UpdateAccountStatusRequest struct {
	Status string `json:"status" validate:"required,account_status"`
}

// ListAccountsQuery holds the optional filters of GET /accounts
type ListAccountsQuery struct {
	CustomerID string `json:"customer_id" query:"customer_id" validate:"omitempty,customer_id"`
}

// PatchAccountRequest is a partial update keyed by wire field name. Values are
// kept raw until the field names have been checked.
type PatchAccountRequest map[string]json.RawMessage

// DisallowedFields returns the supplied field names that cannot be patched, sorted
func (r PatchAccountRequest) DisallowedFields() []string {
	var fields []string
	for name := range r {
		if !models.IsPatchableField(name) {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// ToUpdate decodes the raw values into a typed update. It only checks JSON
// types; value rules are enforced when the update is applied.
func (r PatchAccountRequest) ToUpdate() (models.AccountUpdate, error) {
	var update models.AccountUpdate

	for name, raw := range r {
		if isNull(raw) {
			return models.AccountUpdate{}, fmt.Errorf("%s: must not be null", name)
		}

		switch name {
		case models.FieldAccountType:
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return models.AccountUpdate{}, fmt.Errorf("%s: must be a string", name)
			}
			accountType := models.AccountType(v)
			update.AccountType = &accountType

		case models.FieldBalance:
			var v decimal.Decimal
			if err := json.Unmarshal(raw, &v); err != nil {
				return models.AccountUpdate{}, fmt.Errorf("%s: must be a number", name)
			}
			update.Balance = &v

		case models.FieldCurrency:
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return models.AccountUpdate{}, fmt.Errorf("%s: must be a string", name)
			}
			update.Currency = &v

		case models.FieldStatus:
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return models.AccountUpdate{}, fmt.Errorf("%s: must be a string", name)
			}
			status := models.AccountStatus(v)
			update.Status = &status

		default:
			return models.AccountUpdate{}, fmt.Errorf("Field '%s' cannot be updated", name)
		}
	}

	return update, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Account Response DTOs

// AccountListResponse is the body of GET /accounts
type AccountListResponse []models.Account

// CloseAccountResponse is the confirmation returned when an account is closed
type CloseAccountResponse struct {
	Detail string `json:"detail"`
}
