package cli

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/DumpMigration/internal/logging"
	"github.com/JonMunkholm/DumpMigration/internal/schema"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStageCmd() *cobra.Command {
	var schemaName string

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Load every parsed table into a PostgreSQL schema",
		Long: `Load every table of the dump into PostgreSQL through DATABASE_URL.

Each table is dropped and recreated in the staging schema with MySQL types
mapped onto PostgreSQL types, then bulk-loaded with COPY. Staged columns
carry no constraints.`,
		Example: `  dumpmigrate stage --schema legacy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, schemaName)
		},
	}

	cmd.Flags().StringVar(&schemaName, "schema", "", "target schema (overrides STAGE_SCHEMA)")
	return cmd
}

func runStage(cmd *cobra.Command, schemaName string) error {
	ctx := cmd.Context()
	cfg := configFrom(ctx)
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	if schemaName == "" {
		schemaName = cfg.StageSchema
	}

	db, err := readDump(ctx, cfg.SQLFile)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logging.FromContext(ctx).Info("Connected to database", "database", cfg.CurrentDatabase(), "schema", schemaName)

	stager := schema.NewStager(pool, schema.StagerConfig{
		Schema:       schemaName,
		BatchSize:    cfg.BatchSize,
		Concurrency:  cfg.StageConcurrency,
		QueryTimeout: cfg.QueryTimeout,
	})
	results, err := stager.Stage(ctx, db)
	renderStageResults(cmd.OutOrStdout(), results)
	return err
}

func renderStageResults(w io.Writer, results []schema.TableResult) {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 tables)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Rows", "Reshaped", "Status"})

	var total int64
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		total += r.Rows
		t.AppendRow(table.Row{r.Table, r.Rows, r.Reshaped, status})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d tables", len(results)), total, "", ""})
	t.Render()
}
