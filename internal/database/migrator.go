package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	dbmigrations "account-service/db"
	"account-service/internal/config"
	"account-service/internal/retry"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var defaultWaitPolicy = retry.Policy{
	MaxAttempts:     10,
	InitialInterval: 3 * time.Second,
	MaxInterval:     15 * time.Second,
}

// MigrationRunner applies the embedded SQL migrations
type MigrationRunner struct {
	db             *sql.DB
	migrations     fs.FS
	migrationsPath string
	wait           retry.Policy
}

// NewMigrationRunner creates a new migration runner over the embedded migrations
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db:             db,
		migrations:     dbmigrations.Migrations,
		migrationsPath: dbmigrations.MigrationsDir,
		wait:           defaultWaitPolicy,
	}
}

// WithWaitPolicy overrides how long WaitForDatabase keeps trying
func (mr *MigrationRunner) WithWaitPolicy(p retry.Policy) *MigrationRunner {
	mr.wait = p
	return mr
}

// WaitForDatabase waits for the database to be ready
func (mr *MigrationRunner) WaitForDatabase(ctx context.Context) error {
	log.Println("Waiting for database to be ready...")

	err := retry.Do(ctx, mr.wait, func(ctx context.Context) error {
		return mr.db.PingContext(ctx)
	}, func(attempt int, err error, wait time.Duration) {
		log.Printf("Database not ready (attempt %d/%d): %v", attempt, mr.wait.MaxAttempts, err)
	})
	if err != nil {
		return fmt.Errorf("database not ready after %d attempts: %w", mr.wait.MaxAttempts, err)
	}

	log.Println("Database is ready!")
	return nil
}

func (mr *MigrationRunner) hasMigrations() bool {
	_, err := fs.Stat(mr.migrations, mr.migrationsPath)
	return err == nil
}

func (mr *MigrationRunner) newMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(mr.migrations, mr.migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(mr.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return m, nil
}

// RunMigrations executes all pending migrations
func (mr *MigrationRunner) RunMigrations() error {
	if !mr.hasMigrations() {
		log.Printf("Migrations directory %s not found, skipping migrations", mr.migrationsPath)
		return nil
	}

	m, err := mr.newMigrate()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Printf("Warning: database is in dirty state at version %d, forcing version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	log.Printf("Current migration version: %d", version)

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No new migrations to apply")
	} else {
		newVersion, _, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get new migration version: %w", err)
		}
		log.Printf("Successfully applied migrations. New version: %d", newVersion)
	}

	return nil
}

// GetMigrationStatus returns the current migration status
func (mr *MigrationRunner) GetMigrationStatus() (version uint, dirty bool, err error) {
	if !mr.hasMigrations() {
		return 0, false, fmt.Errorf("migrations directory not found")
	}

	m, err := mr.newMigrate()
	if err != nil {
		return 0, false, err
	}

	return m.Version()
}

// RunMigrationsIfEnabled runs migrations when AUTO_MIGRATE is on
func RunMigrationsIfEnabled(ctx context.Context, db *sql.DB, cfg *config.DatabaseConfig) error {
	if !cfg.AutoMigrate {
		log.Println("Auto-migration disabled (AUTO_MIGRATE != true)")
		return nil
	}

	log.Println("Auto-migration enabled, running migrations...")

	runner := NewMigrationRunner(db).WithWaitPolicy(connectPolicy(cfg))

	if err := runner.WaitForDatabase(ctx); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}

	if err := runner.RunMigrations(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}

	version, dirty, err := runner.GetMigrationStatus()
	if err != nil {
		log.Printf("Warning: failed to get migration status: %v", err)
	} else {
		log.Printf("Migration status - Version: %d, Dirty: %v", version, dirty)
	}

	return nil
}
