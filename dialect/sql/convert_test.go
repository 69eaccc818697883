package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/relmap/dialect"
)

func TestFieldNameConverter(t *testing.T) {
	tests := []struct {
		dialect string
		in      string
		want    string
	}{
		{dialect.SQLServer, "Name", "Name"},
		{dialect.SQLServer, "Order", "[Order]"},
		{dialect.SQLServer, "a]b", "[a]]b]"},
		{dialect.SQLServer, "Books_View", "Books_View"},
		{dialect.Postgres, "name", "name"},
		{dialect.Postgres, "Name", `"Name"`},
		{dialect.Postgres, `a"b`, `"a""b"`},
		{dialect.Postgres, "user", `"user"`},
		{dialect.MySQL, "PublishedYear", "PublishedYear"},
		{dialect.MySQL, "select", "`select`"},
		{dialect.MySQL, "a`b", "`a``b`"},
		{dialect.SQLite, "my col", `"my col"`},
		{dialect.SQLite, "1st", `"1st"`},
		{dialect.SQLite, "Status", "Status"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFieldNameConverter(tt.dialect).Escape(tt.in))
		})
	}
}

func TestFieldNameConverterQualify(t *testing.T) {
	c := NewFieldNameConverter(dialect.SQLServer)
	assert.Equal(t, "r1.Name", c.Qualify("r1", "Name"))
	assert.Equal(t, "r0.[Key]", c.Qualify("r0", "Key"))
	assert.Equal(t, "Id", c.Qualify("", "Id"))
	assert.Equal(t, "[Id]", c.Quote("Id"))
	assert.Equal(t, dialect.SQLServer, c.Dialect())
}
