package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/DumpMigration/internal/logging"
	"github.com/JonMunkholm/DumpMigration/internal/migrate"
	"github.com/JonMunkholm/DumpMigration/internal/strapi"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate authors, categories and posts into Strapi",
		Example: `  # Preview the documents without contacting Strapi
  dumpmigrate migrate --dry-run --log-level debug

  # Migrate using STRAPI_URL and STRAPI_API_TOKEN from .env
  dumpmigrate migrate`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if !dryRun && configFrom(cmd.Context()).StrapiToken == "" {
				return errors.New("STRAPI_API_TOKEN is required unless --dry-run is specified")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the documents but don't send them")
	return cmd
}

func runMigrate(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()
	cfg := configFrom(ctx)
	logger := logging.FromContext(ctx)

	db, err := readDump(ctx, cfg.SQLFile)
	if err != nil {
		return err
	}

	var store migrate.ContentStore
	if dryRun {
		store = migrate.NewDryRunStore()
	} else {
		store = strapi.NewClient(cfg.StrapiURL, cfg.StrapiToken, cfg.HTTPTimeout)
	}

	logger.Info("Starting migration", "strapi_url", cfg.StrapiURL, "dry_run", dryRun)
	report, err := migrate.NewMapper(store, cfg.UploadsDir).Run(ctx, db)
	logger.Info("Migration finished",
		"authors", report.Authors,
		"categories", report.Categories,
		"articles", report.Articles,
		"failed", report.Failed,
	)
	renderReport(cmd.OutOrStdout(), report)

	if err != nil {
		return fmt.Errorf("migration interrupted: %w", err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d records failed to migrate", report.Failed)
	}
	return nil
}

func renderReport(w io.Writer, r migrate.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Content type", "Created"})
	t.AppendRows([]table.Row{
		{"authors", r.Authors},
		{"categories", r.Categories},
		{"articles", r.Articles},
	})
	t.AppendFooter(table.Row{"failed", r.Failed})
	t.Render()
}
