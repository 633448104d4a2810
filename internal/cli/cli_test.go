package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliDump = "CREATE TABLE `authors` (\n" +
	"  `id` int NOT NULL,\n  `name` varchar(255),\n  `image` varchar(255),\n  `about` text\n) ENGINE=InnoDB;\n" +
	"INSERT INTO `authors` VALUES (1,'Jane','jane.jpg','Editor'),(2,'Bob','bob.jpg',NULL);\n" +
	"CREATE TABLE `tags` (\n  `id` int\n) ENGINE=InnoDB;\n"

// testEnv writes the dump and an uploads directory holding jane.jpg, and
// points the config at them.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	sqlPath := filepath.Join(dir, "dump.sql")
	require.NoError(t, os.WriteFile(sqlPath, []byte(cliDump), 0o600))
	uploads := filepath.Join(dir, "uploads")
	require.NoError(t, os.Mkdir(uploads, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "jane.jpg"), []byte("img"), 0o600))

	for _, key := range []string{"STRAPI_URL", "DATABASE_URL", "PORT", "BATCH_SIZE", "STAGE_CONCURRENCY", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	t.Setenv("SQL_FILE", sqlPath)
	t.Setenv("UPLOADS_DIR", uploads)
	t.Setenv("STRAPI_UPLOADS_DIR", filepath.Join(dir, "public"))
	t.Setenv("STRAPI_API_TOKEN", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "dumpmigrate", cmd.Use)
	for _, flag := range []string{"env-file", "log-level", "sql-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"inspect", "migrate", "stage", "serve", "setup"})
}

func TestInspect(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "authors")
	assert.Contains(t, out, "tags")
	assert.Contains(t, out, `1, "Jane", "jane.jpg", ...`)
	assert.Contains(t, out, "(not found)")
	assert.Contains(t, out, "Media files: 1 found, 1 missing")
}

func TestInspect_JSON(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "inspect", "--json")
	require.NoError(t, err)

	var got struct {
		Tables map[string]struct {
			Rows []json.RawMessage `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Contains(t, got.Tables, "authors")
	require.Len(t, got.Tables["authors"].Rows, 2)
	assert.JSONEq(t, `[2,"Bob","bob.jpg",null]`, string(got.Tables["authors"].Rows[1]))
	assert.Empty(t, got.Tables["tags"].Rows)
}

func TestInspect_SQLFileFlag(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "inspect", "--sql-file", filepath.Join(t.TempDir(), "absent.sql"))
	assert.ErrorContains(t, err, "failed to read dump")
}

func TestMigrate_DryRun(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "migrate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "authors")
	assert.Contains(t, out, "2")
}

func TestMigrate_RequiresToken(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "STRAPI_API_TOKEN is required")
}

func TestStage_RequiresDatabase(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "stage")
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestSetup(t *testing.T) {
	dir := testEnv(t)
	envDir := filepath.Join(dir, "conf")
	require.NoError(t, os.Mkdir(envDir, 0o755))

	out, err := execute(t, "setup", "--dir", envDir)
	require.NoError(t, err)
	assert.Contains(t, out, "created  "+filepath.Join(envDir, ".env"))
	assert.Contains(t, out, "exists   "+filepath.Join(dir, "uploads"))
	assert.FileExists(t, filepath.Join(envDir, ".env.example"))
	assert.DirExists(t, filepath.Join(dir, "public"))
}

func TestPersistentFlagErrors(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "inspect", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "env file")

	_, err = execute(t, "inspect", "--log-level", "loud")
	assert.ErrorContains(t, err, "LOG_LEVEL")
}

func TestLogLevelFlagOverridesInvalidEnv(t *testing.T) {
	testEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := execute(t, "inspect", "--log-level", "error")
	assert.NoError(t, err)
}

func TestMalformedEnvFile(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "bad.env")
	require.NoError(t, os.WriteFile(path, []byte("BAD-KEY=1\n"), 0o600))

	_, err := execute(t, "inspect", "--env-file", path)
	assert.ErrorContains(t, err, "failed to load env file")
}
