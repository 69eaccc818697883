package sql

import "strings"

// DefaultEscapeChar is the LIKE escape character used unless configured
// otherwise. It cannot appear in ordinary user input.
const DefaultEscapeChar = '\a'

// LikeEscaper builds LIKE patterns matching their input literally.
type LikeEscaper struct {
	Char rune
}

// NewLikeEscaper returns an escaper using the given escape character, or
// DefaultEscapeChar if c is zero.
func NewLikeEscaper(c rune) LikeEscaper {
	if c == 0 {
		c = DefaultEscapeChar
	}
	return LikeEscaper{Char: c}
}

// Escape prefixes the wildcards %, _ and [ and the escape character itself
// with the escape character.
func (e LikeEscaper) Escape(s string) string {
	if !strings.ContainsAny(s, "%_["+string(e.Char)) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '%', '_', '[', e.Char:
			b.WriteRune(e.Char)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Contains returns a pattern matching values containing s.
func (e LikeEscaper) Contains(s string) string { return "%" + e.Escape(s) + "%" }

// HasPrefix returns a pattern matching values starting with s.
func (e LikeEscaper) HasPrefix(s string) string { return e.Escape(s) + "%" }

// HasSuffix returns a pattern matching values ending with s.
func (e LikeEscaper) HasSuffix(s string) string { return "%" + e.Escape(s) }

// Clause returns the ESCAPE clause following a LIKE pattern.
func (e LikeEscaper) Clause() string {
	if e.Char == '\'' {
		return "ESCAPE ''''"
	}
	return "ESCAPE '" + string(e.Char) + "'"
}
