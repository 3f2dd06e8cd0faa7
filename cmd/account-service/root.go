package main

import (
	"io"
	"log/slog"
	"os"

	"account-service/internal/config"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "account-service",
		Short:         "Bank account service with KYC-gated account opening",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newDBCheckCmd(),
	)

	return root
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With("service", "account-service")
	slog.SetDefault(logger)
	return logger
}

func loadConfig() (*config.Config, *slog.Logger) {
	cfg := config.Load()
	return cfg, newLogger(cfg.Logging, os.Stdout)
}
