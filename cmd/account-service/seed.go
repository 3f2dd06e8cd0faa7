package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"account-service/internal/database"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import accounts from a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := loadConfig()
			if csvPath == "" {
				csvPath = cfg.Seed.CSVPath
			}

			db, err := database.Connect(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.AutoMigrate(); err != nil {
				return fmt.Errorf("failed to ensure accounts table: %w", err)
			}

			_, err = seedAccounts(cmd.Context(), db, csvPath, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the accounts CSV (default SEED_CSV_PATH)")
	return cmd
}

// seedAccounts imports the CSV at path. A missing file is logged and skipped.
func seedAccounts(ctx context.Context, db *database.DB, path string, logger *slog.Logger) (*database.SeedResult, error) {
	result, err := database.NewSeeder(db.DB).SeedFromFile(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Seed file not found, skipping", "path", path)
			return &database.SeedResult{}, nil
		}
		return nil, fmt.Errorf("failed to seed accounts: %w", err)
	}

	logger.Info("Seeded accounts", "path", path, "rows", result.Rows, "inserted", result.Inserted)
	return result, nil
}
