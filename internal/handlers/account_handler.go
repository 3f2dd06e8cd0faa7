package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"account-service/internal/dto"
	"account-service/internal/errors"
	"account-service/internal/models"
	"account-service/internal/services"
	"account-service/internal/validation"

	"github.com/labstack/echo/v4"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService services.AccountServiceInterface
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService services.AccountServiceInterface, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// CreateAccount opens an account for a KYC-verified customer
// @Summary Create a new account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body dto.CreateAccountRequest true "Customer and account type"
// @Success 201 {object} models.Account "Account created"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 / VALIDATION_003 / CUSTOMER_006"
// @Failure 404 {object} errors.ErrorResponse "CUSTOMER_001 - Customer not found"
// @Failure 409 {object} errors.ErrorResponse "ACCOUNT_006 - Account number conflict"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_007 / SYSTEM_008 - Customer service failure"
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	var req dto.CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(validation.FormatErrors(err)...))
	}

	account, err := h.accountService.CreateAccount(c.Request().Context(), req.CustomerID, models.AccountType(req.AccountType))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, account)
}

// GetAccount retrieves a specific account by ID
// @Summary Get account by ID
// @Tags Accounts
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} models.Account "Account details"
// @Failure 400 {object} errors.ErrorResponse "ACCOUNT_002 - Invalid account ID"
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001 - Account not found"
// @Router /accounts/{account_id} [get]
func (h *AccountHandler) GetAccount(c echo.Context) error {
	accountID, ok := parseAccountID(c)
	if !ok {
		return SendError(c, errors.AccountInvalidID, errors.WithDetails("account_id must be a positive integer"))
	}

	account, err := h.accountService.GetAccount(c.Request().Context(), accountID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// ListAccounts returns every account in account_id order, optionally only
// those held by one customer
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Param customer_id query string false "Only accounts held by this customer"
// @Success 200 {array} models.Account "Accounts"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid customer_id"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	var query dto.ListAccountsQuery
	if err := c.Bind(&query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}

	if err := c.Validate(query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(validation.FormatErrors(err)...))
	}

	var (
		accounts []models.Account
		err      error
	)
	if query.CustomerID != "" {
		accounts, err = h.accountService.ListCustomerAccounts(c.Request().Context(), query.CustomerID)
	} else {
		accounts, err = h.accountService.ListAccounts(c.Request().Context())
	}
	if err != nil {
		return h.handleServiceError(c, err)
	}

	if accounts == nil {
		accounts = []models.Account{}
	}
	return c.JSON(http.StatusOK, dto.AccountListResponse(accounts))
}

// UpdateAccountStatus sets the lifecycle status of an account
// @Summary Update account status
// @Tags Accounts
// @Accept json
// @Produce json
// @Param account_id path int true "Account ID"
// @Param request body dto.UpdateAccountStatusRequest true "New status"
// @Success 200 {object} models.Account "Updated account"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid status"
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001 - Account not found"
// @Failure 422 {object} errors.ErrorResponse "ACCOUNT_005 - Illegal status transition"
// @Router /accounts/{account_id}/status [put]
func (h *AccountHandler) UpdateAccountStatus(c echo.Context) error {
	accountID, ok := parseAccountID(c)
	if !ok {
		return SendError(c, errors.AccountInvalidID, errors.WithDetails("account_id must be a positive integer"))
	}

	var req dto.UpdateAccountStatusRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(validation.FormatErrors(err)...))
	}

	account, err := h.accountService.UpdateAccountStatus(c.Request().Context(), accountID, models.AccountStatus(req.Status))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// PatchAccount updates one or more mutable fields of an account
// @Summary Patch account fields
// @Description Only account_type, balance, currency and status may be supplied. The patch is applied whole or not at all.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} models.Account "Updated account"
// @Failure 400 {object} errors.ErrorResponse "ACCOUNT_003 / ACCOUNT_004 - Disallowed field or invalid value"
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001 - Account not found, checked before the body"
// @Failure 422 {object} errors.ErrorResponse "ACCOUNT_005 - Illegal status transition"
// @Router /accounts/{account_id} [patch]
func (h *AccountHandler) PatchAccount(c echo.Context) error {
	accountID, ok := parseAccountID(c)
	if !ok {
		return SendError(c, errors.AccountInvalidID, errors.WithDetails("account_id must be a positive integer"))
	}

	var req dto.PatchAccountRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid request body"))
	}

	account, err := h.accountService.PatchAccount(c.Request().Context(), accountID, req)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// CloseAccount soft-closes an account
// @Summary Close account
// @Tags Accounts
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} dto.CloseAccountResponse "Confirmation"
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001 - Account not found"
// @Failure 422 {object} errors.ErrorResponse "ACCOUNT_005 - Illegal status transition"
// @Router /accounts/{account_id} [delete]
func (h *AccountHandler) CloseAccount(c echo.Context) error {
	accountID, ok := parseAccountID(c)
	if !ok {
		return SendError(c, errors.AccountInvalidID, errors.WithDetails("account_id must be a positive integer"))
	}

	message, err := h.accountService.CloseAccount(c.Request().Context(), accountID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.CloseAccountResponse{Detail: message})
}

// handleServiceError maps workflow errors onto the error envelope
func (h *AccountHandler) handleServiceError(c echo.Context, err error) error {
	var (
		kycErr   *services.KYCNotVerifiedError
		fieldErr *services.FieldNotUpdatableError
	)

	switch {
	case stderrors.Is(err, services.ErrAccountNotFound):
		return SendError(c, errors.AccountNotFound)
	case stderrors.Is(err, services.ErrCustomerNotFound):
		return SendError(c, errors.CustomerNotFound)
	case stderrors.As(err, &kycErr):
		return SendError(c, errors.CustomerKYCNotVerified, errors.WithDetails(kycErr.Error()))
	case stderrors.Is(err, services.ErrKYCNotVerified):
		return SendError(c, errors.CustomerKYCNotVerified)
	case stderrors.As(err, &fieldErr):
		details := make([]string, len(fieldErr.Fields))
		for i, field := range fieldErr.Fields {
			details[i] = "Field '" + field + "' cannot be updated"
		}
		return SendError(c, errors.AccountFieldNotUpdatable, errors.WithDetails(details...))
	case stderrors.Is(err, services.ErrInvalidStatusTransition):
		return SendError(c, errors.AccountInvalidStatusTransition, errors.WithDetails(err.Error()))
	case stderrors.Is(err, services.ErrInvalidAccountUpdate),
		stderrors.Is(err, models.ErrInvalidAccountStatus),
		stderrors.Is(err, models.ErrInvalidAccountType):
		return SendError(c, errors.AccountInvalidUpdate, errors.WithDetails(err.Error()))
	case stderrors.Is(err, services.ErrAccountNumberConflict):
		return SendError(c, errors.AccountNumberConflict)
	case stderrors.Is(err, services.ErrCustomerServiceTimeout):
		h.logger.Warn("Customer service timed out", "error", err, "trace_id", getTraceID(c))
		return SendError(c, errors.SystemCustomerServiceTimeout)
	case stderrors.Is(err, services.ErrCustomerServiceUnavailable):
		h.logger.Warn("Customer service unavailable", "error", err, "trace_id", getTraceID(c))
		return SendError(c, errors.SystemCustomerServiceUnavailable)
	case stderrors.Is(err, services.ErrVerificationAbandoned):
		h.logger.Info("Request abandoned during customer verification", "error", err, "trace_id", getTraceID(c))
		return SendError(c, errors.SystemServiceUnavailable)
	case stderrors.Is(err, services.ErrStorage):
		h.logger.Error("Account storage failed",
			"error", err,
			"method", c.Request().Method,
			"path", c.Path(),
			"trace_id", getTraceID(c))
		return SendError(c, errors.SystemDatabaseError)
	default:
		h.logger.Error("Account request failed",
			"error", err,
			"method", c.Request().Method,
			"path", c.Path(),
			"trace_id", getTraceID(c))
		return SendSystemError(c)
	}
}

func parseAccountID(c echo.Context) (int64, bool) {
	accountID, err := strconv.ParseInt(c.Param("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		return 0, false
	}
	return accountID, true
}
