package main

import (
	"fmt"

	"account-service/internal/database"

	"github.com/spf13/cobra"
)

func newDBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dbcheck",
		Short: "Check that the database is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _ := loadConfig()

			info, err := database.CheckConnection(cmd.Context(), cfg.Database.DSN())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Database connection failed: %v\n", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database connection successful\ndatabase: %s\nversion: %s\n", info.Database, info.Version)
			return nil
		},
	}
}
