// Package cli provides the dumpmigrate command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/DumpMigration/internal/config"
	"github.com/JonMunkholm/DumpMigration/internal/dump"
	"github.com/JonMunkholm/DumpMigration/internal/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		envFile  string
		logLevel string
		sqlFile  string
	)

	rootCmd := &cobra.Command{
		Use:   "dumpmigrate",
		Short: "Migrate a MySQL dump into Strapi or PostgreSQL",
		Long: `dumpmigrate parses a MySQL logical dump (CREATE TABLE and INSERT INTO
statements) without a running MySQL server.

The parsed tables can be inspected, migrated into a Strapi content API,
staged into a PostgreSQL schema, or browsed over a read-only JSON API.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}

			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = strings.ToLower(logLevel)
			}
			if sqlFile != "" {
				cfg.SQLFile = sqlFile
			}
			// Validate once, after flag overrides.
			if err := cfg.Validate(); err != nil {
				return err
			}

			logging.Setup(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

			ctx := logging.WithRun(cmd.Context(), uuid.NewString())
			ctx = context.WithValue(ctx, configKey{}, cfg)
			cmd.SetContext(ctx)

			logging.FromContext(ctx).Debug("Configuration loaded", "command", cmd.Name(), "config", cfg.String())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&sqlFile, "sql-file", "", "path to the MySQL dump (overrides SQL_FILE)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newStageCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSetupCmd())

	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// configFrom retrieves the config stored by the root command.
func configFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	panic("cli: config missing from command context")
}

// readDump reads and parses the dump at path.
func readDump(ctx context.Context, path string) (*dump.Database, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	db := dump.Parse(string(data))
	stats := db.Stats()
	logging.FromContext(ctx).Info("Parsed dump",
		"file", path,
		"bytes", len(data),
		"tables", stats.Tables,
		"columns", stats.Columns,
		"rows", stats.Rows,
		"duration", time.Since(start),
	)
	return db, nil
}
