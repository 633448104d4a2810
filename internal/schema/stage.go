package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
	"github.com/JonMunkholm/DumpMigration/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

// Conn is the subset of *pgxpool.Pool the stager needs.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// StagerConfig controls how tables are loaded.
type StagerConfig struct {
	Schema       string
	BatchSize    int
	Concurrency  int
	QueryTimeout time.Duration
}

// Stager loads parsed dump tables into a PostgreSQL schema.
// Every staged table is dropped and recreated, so staging is repeatable.
type Stager struct {
	conn Conn
	cfg  StagerConfig
}

// TableResult reports the outcome of staging one table.
type TableResult struct {
	Table string
	Rows  int64
	// Reshaped counts rows whose arity did not match the column list and
	// were padded with NULL or cut to fit.
	Reshaped int
	Err      error
}

// NewStager creates a stager writing through conn.
func NewStager(conn Conn, cfg StagerConfig) *Stager {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	return &Stager{conn: conn, cfg: cfg}
}

// withTimeout returns a context with the query timeout applied.
// If the parent context already has a shorter deadline, that deadline is preserved.
// Returns the context and a cancel function that must be called.
func (s *Stager) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	// Check if parent already has a deadline
	if deadline, ok := parent.Deadline(); ok {
		if time.Until(deadline) <= s.cfg.QueryTimeout {
			return context.WithCancel(parent)
		}
	}
	return context.WithTimeout(parent, s.cfg.QueryTimeout)
}

// Stage loads every table in db. Tables are staged concurrently and
// independently: one failing table does not stop the others. The returned
// results are in table-name order; the error is non-nil when the schema
// could not be created, the context ended, or any table failed.
func (s *Stager) Stage(ctx context.Context, db *dump.Database) ([]TableResult, error) {
	ddl, err := BuildCreateSchemaDDL(s.cfg.Schema)
	if err != nil {
		return nil, err
	}
	if err := s.exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create schema %s: %w", s.cfg.Schema, err)
	}

	described := FromDump(db)
	results := make([]TableResult, len(described.Tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, table := range described.Tables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.stageTable(gctx, table, db.Tables[table.Name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d tables failed to stage", failed, len(results))
	}
	return results, nil
}

func (s *Stager) stageTable(ctx context.Context, table Table, source *dump.Table) TableResult {
	logger := logging.WithFields(ctx, "table", table.Name)
	result := TableResult{Table: table.Name}

	drop, err := BuildDropTableDDL(s.cfg.Schema, table.Name)
	if err != nil {
		result.Err = err
		return result
	}
	create, err := BuildCreateTableDDL(s.cfg.Schema, table)
	if err != nil {
		result.Err = err
		return result
	}

	for _, stmt := range []string{drop, create} {
		if err := s.exec(ctx, stmt); err != nil {
			result.Err = fmt.Errorf("failed to prepare table %s: %w", table.Name, err)
			logger.Error("Staging failed", "error", result.Err)
			return result
		}
	}

	if len(table.Columns) == 0 || len(source.Rows) == 0 {
		logger.Info("Staged empty table", "columns", len(table.Columns))
		return result
	}

	columnNames := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columnNames[i] = c.Name
	}

	for start := 0; start < len(source.Rows); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(source.Rows))

		batch, reshaped, err := convertRows(table, source.Rows[start:end], start)
		result.Reshaped += reshaped
		if err != nil {
			result.Err = err
			logger.Error("Staging failed", "error", err)
			return result
		}

		n, err := s.copy(ctx, table.Name, columnNames, batch)
		result.Rows += n
		if err != nil {
			result.Err = fmt.Errorf("failed to copy rows %d-%d of %s: %w", start, end-1, table.Name, err)
			logger.Error("Staging failed", "error", result.Err)
			return result
		}
	}

	if result.Reshaped > 0 {
		logger.Warn("Rows did not match column count", "rows", result.Reshaped)
	}
	logger.Info("Staged table", "rows", result.Rows)
	return result
}

// convertRows prepares one batch for COPY. offset is the index of the first
// row in the table, used in error messages.
func convertRows(table Table, rows []dump.Row, offset int) ([][]any, int, error) {
	out := make([][]any, len(rows))
	reshaped := 0
	for i, row := range rows {
		if len(row) != len(table.Columns) {
			reshaped++
		}
		values := make([]any, len(table.Columns))
		for j, col := range table.Columns {
			if j >= len(row) {
				continue
			}
			v, err := convertValue(row[j], col.DataType)
			if err != nil {
				return nil, reshaped, fmt.Errorf("row %d column %s: %w", offset+i, col.Name, err)
			}
			values[j] = v
		}
		out[i] = values
	}
	return out, reshaped, nil
}

func (s *Stager) exec(ctx context.Context, sql string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.conn.Exec(ctx, sql)
	return err
}

func (s *Stager) copy(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.conn.CopyFrom(ctx, pgx.Identifier{s.cfg.Schema, table}, columns, pgx.CopyFromRows(rows))
}
