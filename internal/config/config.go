package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	CustomerService CustomerServiceConfig
	Accounts        AccountsConfig
	Logging         LoggingConfig
	Seed            SeedConfig
}

type ServerConfig struct {
	Port               string
	Host               string
	Environment        string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerSecond int
	RateLimitBurst     int
	// TrustedProxies are CIDR ranges whose X-Forwarded-For is believed. Empty
	// means the socket peer is the client.
	TrustedProxies []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	// LogSQL switches gorm to Info level so every statement is logged
	LogSQL  bool
	Connect RetryConfig
}

// RetryConfig is a bounded exponential backoff policy
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type CustomerServiceConfig struct {
	BaseURL            string
	Timeout            time.Duration
	MaxRetries         int
	RetryInterval      time.Duration
	BreakerMaxFailures int
	BreakerReset       time.Duration
}

type AccountsConfig struct {
	StrictStatusTransitions  bool
	AccountNumberMaxAttempts int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type SeedConfig struct {
	Enabled bool
	CSVPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:               getEnv("SERVER_PORT", "8000"),
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:        getEnv("APP_ENV", "development"),
			ReadTimeout:        getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 50),
			RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 100),
			TrustedProxies:     getListEnv("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "accounts_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     getBoolEnv("AUTO_MIGRATE", true),
			Connect: RetryConfig{
				MaxAttempts:     getIntEnv("DB_CONNECT_MAX_ATTEMPTS", 10),
				InitialInterval: getDurationEnv("DB_CONNECT_RETRY_INTERVAL", 3*time.Second),
				MaxInterval:     getDurationEnv("DB_CONNECT_MAX_INTERVAL", 15*time.Second),
			},
		},
		CustomerService: CustomerServiceConfig{
			BaseURL:            strings.TrimRight(getEnv("CUSTOMER_SERVICE_URL", "http://customer-service:5001/api/customers"), "/"),
			Timeout:            getDurationEnv("CUSTOMER_SERVICE_TIMEOUT", 5*time.Second),
			MaxRetries:         getIntEnv("CUSTOMER_SERVICE_MAX_RETRIES", 2),
			RetryInterval:      getDurationEnv("CUSTOMER_SERVICE_RETRY_INTERVAL", 200*time.Millisecond),
			BreakerMaxFailures: getIntEnv("CUSTOMER_SERVICE_BREAKER_MAX_FAILURES", 5),
			BreakerReset:       getDurationEnv("CUSTOMER_SERVICE_BREAKER_RESET", 30*time.Second),
		},
		Accounts: AccountsConfig{
			StrictStatusTransitions:  getBoolEnv("ACCOUNT_STRICT_STATUS_TRANSITIONS", false),
			AccountNumberMaxAttempts: getIntEnv("ACCOUNT_NUMBER_MAX_ATTEMPTS", 5),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Seed: SeedConfig{
			Enabled: getBoolEnv("SEED_DATABASE", false),
			CSVPath: getEnv("SEED_CSV_PATH", "./data/accounts.csv"),
		},
	}

	config.Database.LogSQL = getBoolEnv("DB_LOG_SQL", config.IsDevelopment())

	return config
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the connection string in URL form, as expected by golang-migrate
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// SlogLevel maps the configured level name onto slog
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
