package schema

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type copyCall struct {
	table   string
	columns []string
	rows    [][]any
}

// fakeConn records statements and copied rows. It is safe for concurrent use.
type fakeConn struct {
	mu      sync.Mutex
	execs   []string
	copies  []copyCall
	failSQL string
}

func (f *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSQL != "" && strings.Contains(sql, f.failSQL) {
		return pgconn.CommandTag{}, errors.New("exec failed")
	}
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeConn) CopyFrom(_ context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	var rows [][]any
	for rowSrc.Next() {
		values, err := rowSrc.Values()
		if err != nil {
			return 0, err
		}
		rows = append(rows, values)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, copyCall{table: tableName.Sanitize(), columns: columnNames, rows: rows})
	return int64(len(rows)), nil
}

func (f *fakeConn) copiesFor(table string) []copyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []copyCall
	for _, c := range f.copies {
		if c.table == table {
			out = append(out, c)
		}
	}
	return out
}

const stageDump = "CREATE TABLE `authors` (\n  `id` int(11) NOT NULL,\n  `name` varchar(255)\n) ENGINE=InnoDB;\n" +
	"CREATE TABLE `empty` (\n  `id` int\n) ENGINE=InnoDB;\n" +
	"INSERT INTO `authors` VALUES (1,'Jane'),(2,'Bob'),(3,NULL),(4,'Eve','extra'),(5);\n"

func TestStager_Stage(t *testing.T) {
	conn := &fakeConn{}
	stager := NewStager(conn, StagerConfig{Schema: "staging", BatchSize: 2, Concurrency: 2})

	results, err := stager.Stage(context.Background(), dump.Parse(stageDump))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, TableResult{Table: "authors", Rows: 5, Reshaped: 2}, results[0])
	assert.Equal(t, TableResult{Table: "empty"}, results[1])

	assert.Equal(t, `CREATE SCHEMA IF NOT EXISTS "staging"`, conn.execs[0])
	assert.Contains(t, conn.execs, `DROP TABLE IF EXISTS "staging"."authors"`)
	assert.Contains(t, conn.execs, `CREATE TABLE "staging"."authors" ("id" integer, "name" varchar)`)
	assert.Contains(t, conn.execs, `CREATE TABLE "staging"."empty" ("id" integer)`)

	copies := conn.copiesFor(`"staging"."authors"`)
	require.Len(t, copies, 3, "5 rows in batches of 2")
	assert.Equal(t, []string{"id", "name"}, copies[0].columns)
	assert.Equal(t, [][]any{{int64(1), "Jane"}, {int64(2), "Bob"}}, copies[0].rows)
	assert.Equal(t, [][]any{{int64(3), nil}, {int64(4), "Eve"}}, copies[1].rows)
	assert.Equal(t, [][]any{{int64(5), nil}}, copies[2].rows)
	assert.Empty(t, conn.copiesFor(`"staging"."empty"`))
}

func TestStager_TableFailureIsIsolated(t *testing.T) {
	conn := &fakeConn{failSQL: `"staging"."empty"`}
	stager := NewStager(conn, StagerConfig{Schema: "staging"})

	results, err := stager.Stage(context.Background(), dump.Parse(stageDump))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 tables failed")

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, int64(5), results[0].Rows)
	assert.Error(t, results[1].Err)
}

func TestStager_ConversionError(t *testing.T) {
	conn := &fakeConn{}
	stager := NewStager(conn, StagerConfig{Schema: "staging"})

	db := dump.Parse("CREATE TABLE `t` (\n  `n` int\n) ENGINE=InnoDB;\nINSERT INTO `t` VALUES (1),('nope');\n")
	results, err := stager.Stage(context.Background(), db)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "row 1 column n")
	assert.Empty(t, conn.copiesFor(`"staging"."t"`))
}

func TestStager_SchemaFailure(t *testing.T) {
	conn := &fakeConn{failSQL: "CREATE SCHEMA"}
	_, err := NewStager(conn, StagerConfig{Schema: "staging"}).Stage(context.Background(), dump.Parse(stageDump))
	assert.ErrorContains(t, err, "failed to create schema")

	_, err = NewStager(conn, StagerConfig{Schema: "bad name"}).Stage(context.Background(), dump.Parse(stageDump))
	assert.ErrorContains(t, err, "invalid schema name")
}

func TestStager_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStager(&fakeConn{}, StagerConfig{Schema: "staging"}).Stage(ctx, dump.Parse(stageDump))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStager_UnsignedBigintOverflowFailsTable(t *testing.T) {
	conn := &fakeConn{}
	stager := NewStager(conn, StagerConfig{Schema: "staging"})

	db := dump.Parse("CREATE TABLE `t` (\n  `n` bigint unsigned\n) ENGINE=InnoDB;\nINSERT INTO `t` VALUES (1),(18446744073709551615);\n")
	results, err := stager.Stage(context.Background(), db)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "row 1 column n")
	assert.ErrorContains(t, results[0].Err, "out of range for bigint")
	assert.Empty(t, conn.copiesFor(`"staging"."t"`))
}
