package sql

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema/field"
)

// Parameter is a typed query parameter.
type Parameter struct {
	Name    string     // p<Ordinal>.
	Ordinal int        // 1-based position in the statement.
	Value   any        // Converted value, see DataTypeMapper.CreateParameter.
	Type    field.Type // Type of the compared column.
}

// Statement is compiled SQL text and its ordered parameters.
type Statement struct {
	Text       string
	Parameters []Parameter
}

// Args returns the database/sql arguments binding the statement parameters.
func (s Statement) Args(dialect string) []any {
	return Args(dialect, s.Parameters)
}

// ParamName returns the name of the parameter at the given ordinal.
func ParamName(ordinal int) string {
	return "p" + strconv.Itoa(ordinal)
}

// Placeholder returns the text referencing the parameter in a statement.
func Placeholder(d string, p Parameter) string {
	switch d {
	case dialect.Postgres:
		return "$" + strconv.Itoa(p.Ordinal)
	case dialect.MySQL:
		return "?"
	default:
		return "@" + p.Name
	}
}

// Args returns the database/sql arguments for the given parameters: named
// arguments for dialects with named placeholders, positional ones otherwise.
func Args(d string, params []Parameter) []any {
	args := make([]any, len(params))
	for i, p := range params {
		switch d {
		case dialect.Postgres, dialect.MySQL:
			args[i] = p.Value
		default:
			args[i] = sql.Named(p.Name, p.Value)
		}
	}
	return args
}

// ParameterError is returned when a value cannot be bound to a column type.
type ParameterError struct {
	Name  string
	Value any
	Type  field.Type
	Err   error
}

// Error implements the error interface.
func (e *ParameterError) Error() string {
	return fmt.Sprintf("dialect/sql: parameter %s: cannot use %T as %s: %v", e.Name, e.Value, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParameterError) Unwrap() error { return e.Err }

// DataTypeMapper maps field types to dialect column types and converts
// values into parameters.
type DataTypeMapper struct {
	dialect string
}

// NewDataTypeMapper returns the mapper of the given dialect.
func NewDataTypeMapper(dialect string) DataTypeMapper {
	return DataTypeMapper{dialect: dialect}
}

var columnTypes = map[string]map[field.Type]string{
	dialect.SQLServer: {
		field.TypeBool:    "bit",
		field.TypeInt32:   "int",
		field.TypeInt64:   "bigint",
		field.TypeFloat64: "float",
		field.TypeString:  "nvarchar(max)",
		field.TypeTime:    "datetime2",
		field.TypeUUID:    "uniqueidentifier",
		field.TypeBytes:   "varbinary(max)",
		field.TypeEnum:    "nvarchar(255)",
	},
	dialect.Postgres: {
		field.TypeBool:    "boolean",
		field.TypeInt32:   "integer",
		field.TypeInt64:   "bigint",
		field.TypeFloat64: "double precision",
		field.TypeString:  "text",
		field.TypeTime:    "timestamp",
		field.TypeUUID:    "uuid",
		field.TypeBytes:   "bytea",
		field.TypeEnum:    "text",
	},
	dialect.MySQL: {
		field.TypeBool:    "tinyint(1)",
		field.TypeInt32:   "int",
		field.TypeInt64:   "bigint",
		field.TypeFloat64: "double",
		field.TypeString:  "longtext",
		field.TypeTime:    "datetime(6)",
		field.TypeUUID:    "char(36)",
		field.TypeBytes:   "longblob",
		field.TypeEnum:    "varchar(255)",
	},
	dialect.SQLite: {
		field.TypeBool:    "INTEGER",
		field.TypeInt32:   "INTEGER",
		field.TypeInt64:   "INTEGER",
		field.TypeFloat64: "REAL",
		field.TypeString:  "TEXT",
		field.TypeTime:    "TEXT",
		field.TypeUUID:    "TEXT",
		field.TypeBytes:   "BLOB",
		field.TypeEnum:    "TEXT",
	},
}

// MapType returns the column type storing values of the given type.
func (m DataTypeMapper) MapType(t field.Type) (string, error) {
	types, ok := columnTypes[m.dialect]
	if !ok {
		return "", fmt.Errorf("dialect/sql: unknown dialect %q", m.dialect)
	}
	ct, ok := types[t]
	if !ok {
		return "", fmt.Errorf("dialect/sql: no %s column type for %s", m.dialect, t)
	}
	return ct, nil
}

// CreateParameter converts v to the canonical Go representation of type t
// and returns it as the parameter at the given ordinal. Integers are
// range-checked, UUIDs may be given as strings.
func (m DataTypeMapper) CreateParameter(ordinal int, v any, t field.Type) (Parameter, error) {
	p := Parameter{Name: ParamName(ordinal), Ordinal: ordinal, Type: t}
	cv, err := convert(v, t)
	if err != nil {
		return Parameter{}, &ParameterError{Name: p.Name, Value: v, Type: t, Err: err}
	}
	p.Value = cv
	return p, nil
}

func convert(v any, t field.Type) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value")
	}
	switch t {
	case field.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case field.TypeInt32:
		if i, ok := toInt64(v); ok {
			if i < math.MinInt32 || i > math.MaxInt32 {
				return nil, fmt.Errorf("value %d out of range", i)
			}
			return int32(i), nil
		}
	case field.TypeInt64:
		if i, ok := toInt64(v); ok {
			return i, nil
		}
	case field.TypeFloat64:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}
		if i, ok := toInt64(v); ok {
			return float64(i), nil
		}
	case field.TypeString, field.TypeEnum:
		switch s := v.(type) {
		case string:
			return s, nil
		case fmt.Stringer:
			return s.String(), nil
		}
	case field.TypeTime:
		switch tm := v.(type) {
		case time.Time:
			return tm, nil
		case string:
			return time.Parse(time.RFC3339Nano, tm)
		}
	case field.TypeUUID:
		switch u := v.(type) {
		case uuid.UUID:
			return u, nil
		case string:
			return uuid.Parse(u)
		case [16]byte:
			return uuid.UUID(u), nil
		}
	case field.TypeBytes:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	default:
		return nil, fmt.Errorf("unsupported type")
	}
	return nil, fmt.Errorf("incompatible value")
}

func toInt64(v any) (int64, bool) {
	switch i := v.(type) {
	case int:
		return int64(i), true
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case int64:
		return i, true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	}
	return 0, false
}
