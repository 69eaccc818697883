package sql

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/syssam/relmap/dialect"
)

// sqliteTimeLayout matches the text modernc.org/sqlite stores for time values.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// Literal renders a parameter value as a dialect literal.
func Literal(d string, v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		switch {
		case d == dialect.Postgres && v:
			return "TRUE", nil
		case d == dialect.Postgres:
			return "FALSE", nil
		case v:
			return "1", nil
		default:
			return "0", nil
		}
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("dialect/sql: no literal for %v", v)
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s, nil
	case string:
		return quoteString(d, v), nil
	case time.Time:
		if d == dialect.SQLite {
			return quoteString(d, v.Format(sqliteTimeLayout)), nil
		}
		return quoteString(d, v.UTC().Format("2006-01-02 15:04:05.999999")), nil
	case uuid.UUID:
		return quoteString(d, v.String()), nil
	case []byte:
		switch d {
		case dialect.SQLServer:
			return "0x" + hex.EncodeToString(v), nil
		case dialect.Postgres:
			return "decode('" + hex.EncodeToString(v) + "', 'hex')", nil
		default:
			return "X'" + hex.EncodeToString(v) + "'", nil
		}
	default:
		return "", fmt.Errorf("dialect/sql: no literal for %T", v)
	}
}

func quoteString(d, s string) string {
	switch d {
	case dialect.Postgres:
		return pq.QuoteLiteral(s)
	case dialect.SQLServer:
		return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
	case dialect.MySQL:
		return "'" + escapeStringValue(s) + "'"
	default:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}

// escapeStringValue escapes a string value for a MySQL literal.
// It escapes both single quotes (by doubling) and backslashes.
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// ApplyParameters returns the statement text with every placeholder outside
// quoted sections replaced by the literal of its parameter.
func ApplyParameters(d string, text string, params []Parameter) (string, error) {
	var (
		b       strings.Builder
		quote   byte // Closing quote of the current quoted section.
		next    int  // Next positional parameter (MySQL).
		byName  = make(map[string]Parameter, len(params))
		byOrder = make(map[int]Parameter, len(params))
	)
	for _, p := range params {
		byName[p.Name] = p
		byOrder[p.Ordinal] = p
	}
	write := func(p Parameter, ok bool, ref string) error {
		if !ok {
			return fmt.Errorf("dialect/sql: no parameter for placeholder %s", ref)
		}
		lit, err := Literal(d, p.Value)
		if err != nil {
			return err
		}
		b.WriteString(lit)
		return nil
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[' && d == dialect.SQLServer:
			quote = ']'
		case c == '@' && i+1 < len(text) && text[i+1] == '@':
			// System variable, such as @@version.
			b.WriteString("@@")
			i++
			continue
		case c == '@' && d != dialect.Postgres && d != dialect.MySQL:
			j := identEnd(text, i+1)
			if j == i+1 {
				break
			}
			name := text[i+1 : j]
			p, ok := byName[name]
			if err := write(p, ok, text[i:j]); err != nil {
				return "", err
			}
			i = j - 1
			continue
		case c == '$' && d == dialect.Postgres:
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			if j == i+1 {
				break
			}
			n, _ := strconv.Atoi(text[i+1 : j])
			p, ok := byOrder[n]
			if err := write(p, ok, text[i:j]); err != nil {
				return "", err
			}
			i = j - 1
			continue
		case c == '?' && d == dialect.MySQL:
			var (
				p  Parameter
				ok = next < len(params)
			)
			if ok {
				p = params[next]
			}
			next++
			if err := write(p, ok, "?"); err != nil {
				return "", err
			}
			continue
		}
		b.WriteByte(c)
	}
	if quote != 0 {
		return "", fmt.Errorf("dialect/sql: unterminated quoted section in %q", text)
	}
	return b.String(), nil
}

func identEnd(s string, i int) int {
	for i < len(s) {
		c := s[i]
		if c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			i++
			continue
		}
		break
	}
	return i
}
