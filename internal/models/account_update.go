package models

import (
	"github.com/shopspring/decimal"
)

// Patchable account field names as they appear on the wire
const (
	FieldAccountType = "account_type"
	FieldBalance     = "balance"
	FieldCurrency    = "currency"
	FieldStatus      = "status"
)

// AccountUpdate is a partial update of the mutable account fields.
// A nil pointer means the field was not supplied.
type AccountUpdate struct {
	AccountType *AccountType
	Balance     *decimal.Decimal
	Currency    *string
	Status      *AccountStatus
}

// PatchableFields returns the names of the fields an AccountUpdate can carry
func PatchableFields() []string {
	return []string{FieldAccountType, FieldBalance, FieldCurrency, FieldStatus}
}

// IsPatchableField reports whether name is one of the mutable account fields
func IsPatchableField(name string) bool {
	switch name {
	case FieldAccountType, FieldBalance, FieldCurrency, FieldStatus:
		return true
	default:
		return false
	}
}

// IsEmpty returns true when no field is set
func (u AccountUpdate) IsEmpty() bool {
	return u.AccountType == nil && u.Balance == nil && u.Currency == nil && u.Status == nil
}

// Fields returns the names of the supplied fields
func (u AccountUpdate) Fields() []string {
	fields := make([]string, 0, 4)
	if u.AccountType != nil {
		fields = append(fields, FieldAccountType)
	}
	if u.Balance != nil {
		fields = append(fields, FieldBalance)
	}
	if u.Currency != nil {
		fields = append(fields, FieldCurrency)
	}
	if u.Status != nil {
		fields = append(fields, FieldStatus)
	}
	return fields
}

// ApplyUpdate applies every supplied field or none of them. The update is
// staged on a copy and only written back once the copy validates.
func (a *Account) ApplyUpdate(u AccountUpdate, strict bool) error {
	staged := *a

	if u.AccountType != nil {
		if !u.AccountType.IsValid() {
			return ErrInvalidAccountType
		}
		staged.AccountType = *u.AccountType
	}

	if u.Balance != nil {
		if err := ValidateBalance(*u.Balance); err != nil {
			return err
		}
		staged.Balance = *u.Balance
	}

	if u.Currency != nil {
		if !IsValidCurrency(*u.Currency) {
			return ErrInvalidCurrency
		}
		staged.Currency = *u.Currency
	}

	if u.Status != nil {
		if err := staged.TransitionTo(*u.Status, strict); err != nil {
			return err
		}
	}

	if err := staged.Validate(); err != nil {
		return err
	}

	*a = staged
	return nil
}
