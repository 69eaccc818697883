package sql

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeEscaper(t *testing.T) {
	e := NewLikeEscaper(0)
	assert.Equal(t, DefaultEscapeChar, e.Char)
	assert.Equal(t, "plain", e.Escape("plain"))
	assert.Equal(t, "50\a%\a_off", e.Escape("50%_off"))
	assert.Equal(t, "a\a[b]", e.Escape("a[b]"))
	assert.Equal(t, "bell\a\a", e.Escape("bell\a"))
	assert.Equal(t, "%x%", e.Contains("x"))
	assert.Equal(t, "x%", e.HasPrefix("x"))
	assert.Equal(t, "%x", e.HasSuffix("x"))
	assert.Equal(t, "ESCAPE '\a'", e.Clause())

	bang := NewLikeEscaper('!')
	assert.Equal(t, "100!%!!", bang.Escape("100%!"))
	assert.Equal(t, "ESCAPE '!'", bang.Clause())
	assert.Equal(t, "ESCAPE ''''", NewLikeEscaper('\'').Clause())
}

func TestLikeEscaperExact(t *testing.T) {
	db := openSQLite(t)
	e := NewLikeEscaper(0)
	tests := []struct {
		pattern string
		input   string
		match   bool
	}{
		{e.Contains("50%_off"), "50%_off", true},
		{e.Contains("50%_off"), "get 50%_off now", true},
		{e.Contains("50%_off"), "50X_off", false},
		{e.Contains("50%_off"), "50%Xoff", false},
		{e.Contains("50%_off"), "50XXoff", false},
		{e.Contains("50%_off"), "50%%_off", false},
		{e.HasPrefix("a_"), "a_b", true},
		{e.HasPrefix("a_"), "ab", false},
		{e.HasSuffix("\a"), "bell\a", true},
		{e.HasSuffix("\a"), "bell", false},
		{e.Contains("[a]"), "x[a]y", true},
	}
	for _, tt := range tests {
		var got bool
		err := db.QueryRow("SELECT @v LIKE @p "+e.Clause(), sql.Named("v", tt.input), sql.Named("p", tt.pattern)).Scan(&got)
		require.NoError(t, err)
		assert.Equal(t, tt.match, got, "%q LIKE %q", tt.input, tt.pattern)
	}
}
