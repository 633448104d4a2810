package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
	"github.com/JonMunkholm/DumpMigration/internal/logging"
	"github.com/JonMunkholm/DumpMigration/internal/migrate"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// sampleTables are the tables the migration reads; inspect previews them.
var sampleTables = []string{"authors", "categories", "posts"}

const (
	sampleValues = 3
	sampleWidth  = 50
	mediaSample  = 5
)

func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Parse the dump and summarize its tables",
		Long: `Parse the dump and print every table with its column and row counts,
a sample row from the tables the migration reads, and a check of the
first author images against the uploads directory.`,
		Example: `  # Summarize the dump named by SQL_FILE
  dumpmigrate inspect

  # Print the parsed tables as JSON
  dumpmigrate inspect --json --sql-file backup.sql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed database as JSON")
	return cmd
}

func runInspect(cmd *cobra.Command, asJSON bool) error {
	ctx := cmd.Context()
	cfg := configFrom(ctx)
	logger := logging.FromContext(ctx)

	db, err := readDump(ctx, cfg.SQLFile)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(db)
	}

	renderSummary(w, db)
	renderSamples(w, db)

	if _, err := os.Stat(cfg.UploadsDir); err != nil {
		logger.Warn("Uploads directory not found, media files will not be migrated", "path", cfg.UploadsDir)
		return nil
	}
	audit := migrate.AuditMedia(db, cfg.UploadsDir, mediaSample)
	for _, name := range audit.Missing {
		logger.Warn("Missing author image", "image", name)
	}
	_, _ = fmt.Fprintf(w, "Media files: %d found, %d missing\n", audit.Found, len(audit.Missing))
	return nil
}

func renderSummary(w io.Writer, db *dump.Database) {
	if db.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 tables)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Columns", "Rows"})

	stats := db.Stats()
	for _, name := range db.Names() {
		tbl, _ := db.Table(name)
		t.AppendRow(table.Row{name, len(tbl.Columns), len(tbl.Rows)})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d tables", stats.Tables), stats.Columns, stats.Rows})
	t.Render()
}

func renderSamples(w io.Writer, db *dump.Database) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Fields", "Sample"})

	for _, name := range sampleTables {
		tbl, ok := db.Table(name)
		switch {
		case !ok:
			t.AppendRow(table.Row{name, "-", "(not found)"})
		case len(tbl.Rows) == 0:
			t.AppendRow(table.Row{name, len(tbl.Columns), "(no rows)"})
		default:
			first := tbl.Rows[0]
			t.AppendRow(table.Row{name, len(first), sampleRow(first)})
		}
	}
	t.Render()
}

// sampleRow renders the leading values of row, each cut to sampleWidth.
func sampleRow(row dump.Row) string {
	n := min(len(row), sampleValues)
	parts := make([]string, 0, n+1)
	for _, v := range row[:n] {
		s := v.String()
		if v.Kind() == dump.KindText {
			if r := []rune(s); len(r) > sampleWidth {
				s = string(r[:sampleWidth]) + "..."
			}
			s = fmt.Sprintf("%q", s)
		}
		parts = append(parts, s)
	}
	if len(row) > n {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}
