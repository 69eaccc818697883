package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/dialect"
)

func TestParse(t *testing.T) {
	tests := map[string]string{
		"sqlserver":  dialect.SQLServer,
		"MSSQL":      dialect.SQLServer,
		"postgres":   dialect.Postgres,
		"pgx":        dialect.Postgres,
		" mysql ":    dialect.MySQL,
		"mariadb":    dialect.MySQL,
		"sqlite3":    dialect.SQLite,
		"SQLite":     dialect.SQLite,
		"postgresql": dialect.Postgres,
	}
	for in, want := range tests {
		got, err := dialect.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := dialect.Parse("oracle")
	require.EqualError(t, err, `dialect: unknown dialect "oracle"`)
}
