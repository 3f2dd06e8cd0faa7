package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("CUSTOMER_SERVICE_URL", "")
	t.Setenv("ACCOUNT_STRICT_STATUS_TRANSITIONS", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Address())
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.Database.LogSQL)
	assert.Equal(t, "http://customer-service:5001/api/customers", cfg.CustomerService.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.CustomerService.Timeout)
	assert.False(t, cfg.Accounts.StrictStatusTransitions, "status writes are unconditional unless opted in")
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, 5, cfg.Accounts.AccountNumberMaxAttempts)
	assert.False(t, cfg.Seed.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CUSTOMER_SERVICE_URL", "http://customers.local/api/customers/")
	t.Setenv("CUSTOMER_SERVICE_TIMEOUT", "750ms")
	t.Setenv("ACCOUNT_STRICT_STATUS_TRANSITIONS", "true")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.168.0.0/16")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Database.LogSQL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://customers.local/api/customers", cfg.CustomerService.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.CustomerService.Timeout)
	assert.True(t, cfg.Accounts.StrictStatusTransitions)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 100, cfg.Server.RateLimitBurst, "unparsable values fall back to the default")
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestDatabaseConfig_ConnectionStrings(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "svc",
		Password: "secret",
		Name:     "accounts_db",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5432 user=svc password=secret dbname=accounts_db sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://svc:secret@db:5432/accounts_db?sslmode=disable", cfg.URL())
}

func TestLoggingConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for level, expected := range tests {
		t.Run(level, func(t *testing.T) {
			cfg := LoggingConfig{Level: level}
			assert.Equal(t, expected, cfg.SlogLevel())
		})
	}
}
