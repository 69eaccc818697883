package cli

import (
	"bytes"
	"context"
	stdsql "database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	sqlschema "github.com/syssam/relmap/dialect/sql/schema"
	"github.com/syssam/relmap/internal/testmodel"
	"github.com/syssam/relmap/internal/testmodel/testdb"
)

// writeFile writes content to name in dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeModel(t *testing.T, dir string) string {
	t.Helper()
	data, err := yaml.Marshal(testmodel.Library())
	require.NoError(t, err)
	return writeFile(t, dir, "model.yaml", string(data))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "relmap", cmd.Use)
	for _, name := range []string{"views", "compile", "exec"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
	flag := cmd.PersistentFlags().Lookup("dialect")
	require.NotNil(t, flag)
	assert.Equal(t, "d", flag.Shorthand)
	assert.Equal(t, "sqlserver", flag.DefValue)

	_, err := run(t, "views", "--dialect", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid dialect "oracle"`)

	_, err = run(t, "views", "--model", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load model")
}

func TestViewsCommand(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	vs, err := sqlschema.BuildViews(testmodel.Library())
	require.NoError(t, err)
	all := vs.All()

	t.Run("create", func(t *testing.T) {
		out, err := run(t, "views", "-m", model, "-d", "sqlite")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "CREATE VIEW People_View AS\n"))
		assert.Equal(t, len(all), strings.Count(out, ";\n\n"))
		assert.NotContains(t, out, "DROP VIEW")
	})
	t.Run("drop and tables", func(t *testing.T) {
		out, err := run(t, "views", "-m", model, "-d", "sqlite", "--drop", "--tables")
		require.NoError(t, err)
		stmts := strings.Split(strings.TrimSuffix(out, ";\n\n"), ";\n\n")
		tables := sqlschema.Tables(testmodel.Library())
		require.Len(t, stmts, len(tables)+2*len(all))
		assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE People ("))
		assert.Equal(t, "DROP VIEW IF EXISTS "+all[len(all)-1].Name, stmts[len(tables)])
		assert.Equal(t, "DROP VIEW IF EXISTS People_View", stmts[len(tables)+len(all)-1])
		assert.True(t, strings.HasPrefix(stmts[len(tables)+len(all)], "CREATE VIEW People_View AS"))
	})
	t.Run("migration", func(t *testing.T) {
		migrations := filepath.Join(dir, "migrations")
		require.NoError(t, os.Mkdir(migrations, 0o755))
		out, err := run(t, "views", "-m", model, "-d", "postgres", "--migration-dir", migrations, "--version", "20260101000000")
		require.NoError(t, err)
		path := filepath.Join(migrations, "20260101000000_views.sql")
		assert.Equal(t, "wrote "+path+"\n", out)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `CREATE VIEW "People_View" AS`)
		assert.Contains(t, string(data), `DROP VIEW IF EXISTS "People_View"`)
	})
}

const booksQuery = `
root: library.Book
columns: [Title]
filter:
  - {field: Author.Name, op: "==", value: Ann}
  - {field: PublishedYear, op: ">", value: 2000}
sort: [-PublishedYear]
`

const tagsQuery = `
root: library.Tag
columns: [Name]
filter:
  - {field: Color, op: "==", value: null}
`

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	books := writeFile(t, dir, "books.yaml", booksQuery)
	tags := writeFile(t, dir, "tags.yaml", tagsQuery)

	out, err := run(t, "compile", "-m", model, tags, books)
	require.NoError(t, err)
	assert.Equal(t, "-- "+tags+"\n"+
		"SELECT r0.Name FROM Tags_View r0 WHERE r0.Color IS NULL;\n\n"+
		"-- "+books+"\n"+
		"SELECT r0.Title FROM Books_View r0 INNER JOIN People_View r1 ON r0.Author=r1.Id WHERE r1.Name=@p1 AND r0.PublishedYear>@p2 ORDER BY r0.PublishedYear DESC;\n"+
		"-- @p1 = Ann (string)\n"+
		"-- @p2 = 2000 (int32)\n\n", out)

	out, err = run(t, "compile", "-m", model, "-d", "sqlite", "--inline", books)
	require.NoError(t, err)
	assert.Contains(t, out, "r1.Name='Ann' AND r0.PublishedYear>2000")
	assert.NotContains(t, out, "@p1")

	_, err = run(t, "compile", "-m", model, books, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relmap: read query")

	bad := writeFile(t, dir, "bad.yaml", "root: library.Book\nfilter:\n  - {field: Nope, op: \"==\", value: 1}\n")
	_, err = run(t, "compile", "-m", model, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestExecCommand(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	dsn := filepath.Join(dir, "library.db")
	db, err := stdsql.Open("sqlite", dsn)
	require.NoError(t, err)
	testdb.Create(t, db, testmodel.Library())
	testdb.Seed(t, db)
	require.NoError(t, db.Close())
	query := writeFile(t, dir, "q.yaml", "root: library.Book\ncolumns: [Title]\nsort: [Title]\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "all", want: "- Title: Go\n- Title: Net\n- Title: Old\n"},
		{name: "staff", args: []string{"--group", testdb.Staff.String()}, want: "- Title: Go\n"},
		{name: "staff or public", args: []string{"-g", testdb.Staff.String(), "-g", testdb.Public.String()}, want: "- Title: Go\n- Title: Net\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"exec", "-m", model, "-d", "sqlite", "--dsn", dsn, query}, tt.args...)
			out, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err = run(t, "exec", "-m", model, "-d", "sqlite", "--dsn", dsn, "--group", "staff", query)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid group "staff"`)

	_, err = run(t, "exec", "-m", model, "-d", "mysql", "--dsn", "not a dsn", query)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mysql dsn")

	_, err = run(t, "exec", "-m", model, query)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "dsn" not set`)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "model.yaml", "types: []\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, slog.New(slog.DiscardHandler), func() error {
			select {
			case changed <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(5 * time.Second)
	// Writes before the watcher is registered are missed, so keep writing.
	for waiting := true; waiting; {
		select {
		case <-changed:
			waiting = false
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("types: []\n"), 0o600))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
	cancel()
	require.NoError(t, <-done)
}
