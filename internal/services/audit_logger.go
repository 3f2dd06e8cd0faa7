package services

import (
	"context"
	"log/slog"
	"time"

	"account-service/internal/models"
	"account-service/internal/tracing"
)

// Audit event types
const (
	AuditEventAccountCreated      = "account_created"
	AuditEventAccountStatusChange = "account_status_change"
	AuditEventAccountUpdated      = "account_updated"
	AuditEventAccountClosed       = "account_closed"
	AuditEventKYCRejected         = "kyc_rejected"
)

// AuditLogger writes account lifecycle events as structured log records
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *slog.Logger) AuditLoggerInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger.With(slog.String("log_type", "audit")),
		now:    time.Now,
	}
}

func (al *AuditLogger) LogAccountCreated(ctx context.Context, account *models.Account) {
	al.logger.InfoContext(ctx, "account created",
		slog.String("event_type", AuditEventAccountCreated),
		slog.Int64("account_id", account.AccountID),
		slog.String("account_number", account.AccountNumber),
		slog.String("customer_id", account.CustomerID),
		slog.String("account_type", string(account.AccountType)),
		slog.Time("timestamp", al.now()),
		slog.String("correlation_id", tracing.TraceID(ctx)),
	)
}

func (al *AuditLogger) LogStatusChange(ctx context.Context, accountID int64, from, to models.AccountStatus) {
	al.logger.InfoContext(ctx, "account status change",
		slog.String("event_type", AuditEventAccountStatusChange),
		slog.Int64("account_id", accountID),
		slog.String("old_status", string(from)),
		slog.String("new_status", string(to)),
		slog.Time("timestamp", al.now()),
		slog.String("correlation_id", tracing.TraceID(ctx)),
	)
}

func (al *AuditLogger) LogAccountUpdated(ctx context.Context, accountID int64, fields []string) {
	al.logger.InfoContext(ctx, "account updated",
		slog.String("event_type", AuditEventAccountUpdated),
		slog.Int64("account_id", accountID),
		slog.Any("fields", fields),
		slog.Time("timestamp", al.now()),
		slog.String("correlation_id", tracing.TraceID(ctx)),
	)
}

func (al *AuditLogger) LogAccountClosed(ctx context.Context, accountID int64) {
	al.logger.InfoContext(ctx, "account closed",
		slog.String("event_type", AuditEventAccountClosed),
		slog.Int64("account_id", accountID),
		slog.Time("timestamp", al.now()),
		slog.String("correlation_id", tracing.TraceID(ctx)),
	)
}

func (al *AuditLogger) LogKYCRejected(ctx context.Context, customerID, kycStatus string) {
	al.logger.WarnContext(ctx, "account opening rejected",
		slog.String("event_type", AuditEventKYCRejected),
		slog.String("customer_id", customerID),
		slog.String("kyc_status", kycStatus),
		slog.Time("timestamp", al.now()),
		slog.String("correlation_id", tracing.TraceID(ctx)),
	)
}
