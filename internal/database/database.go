package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"account-service/internal/config"
	"account-service/internal/models"
	"account-service/internal/retry"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func New(cfg *config.DatabaseConfig) (*DB, error) {
	level := logger.Warn
	if cfg.LogSQL {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(level))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

// Connect opens the database, retrying while the server is still starting
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	var db *DB

	err := retry.Do(ctx, connectPolicy(cfg), func(ctx context.Context) error {
		var err error
		db, err = New(cfg)
		return err
	}, func(attempt int, err error, wait time.Duration) {
		log.Printf("Database not ready (attempt %d/%d): %v, retrying in %s", attempt, cfg.Connect.MaxAttempts, err, wait)
	})
	if err != nil {
		return nil, fmt.Errorf("database not ready after %d attempts: %w", cfg.Connect.MaxAttempts, err)
	}

	return db, nil
}

func connectPolicy(cfg *config.DatabaseConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts:     cfg.Connect.MaxAttempts,
		InitialInterval: cfg.Connect.InitialInterval,
		MaxInterval:     cfg.Connect.MaxInterval,
	}
}

func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(&models.Account{})
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) CreateIndexes() error {
	queries := []string{
		"CREATE INDEX IF NOT EXISTS idx_accounts_customer_id ON accounts(customer_id)",
		"CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts(status)",
		"CREATE INDEX IF NOT EXISTS idx_accounts_account_type ON accounts(account_type)",
		"CREATE INDEX IF NOT EXISTS idx_accounts_created_at ON accounts(created_at)",
	}

	for _, query := range queries {
		if err := db.DB.Exec(query).Error; err != nil {
			log.Printf("Failed to create index: %s, error: %v", query, err)
		}
	}

	return nil
}

// Initialize connects to the database and brings the schema up to date
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := Connect(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := RunMigrationsIfEnabled(ctx, sqlDB, &cfg.Database); err != nil {
		log.Printf("Warning: migration runner failed: %v", err)
		log.Println("Falling back to GORM AutoMigrate...")

		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if err := db.CreateIndexes(); err != nil {
		log.Printf("Warning: failed to create some indexes: %v", err)
	}

	log.Println("Database initialized successfully")

	return db, nil
}
