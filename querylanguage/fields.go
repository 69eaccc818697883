package querylanguage

import (
	"time"

	"github.com/google/uuid"
)

// Field is a typed field-name chain providing comparison criteria.
//
// Usage:
//
//	var PublishedYear = querylanguage.Int32Field("PublishedYear")
//	f := PublishedYear.GT(2000)
type Field[T any] string

// Name returns the field-name chain.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a criterion that checks if the field equals the given value.
func (f Field[T]) EQ(v T) *Criterion {
	return Where(string(f), IsEqualTo, v)
}

// NEQ returns a criterion that checks if the field does not equal the given value.
func (f Field[T]) NEQ(v T) *Criterion {
	return Where(string(f), IsNotEqualTo, v)
}

// GT returns a criterion that checks if the field is greater than the given value.
func (f Field[T]) GT(v T) *Criterion {
	return Where(string(f), IsGreaterThan, v)
}

// GTE returns a criterion that checks if the field is greater than or equal to the given value.
func (f Field[T]) GTE(v T) *Criterion {
	return Where(string(f), IsGreaterThanOrEqualTo, v)
}

// LT returns a criterion that checks if the field is less than the given value.
func (f Field[T]) LT(v T) *Criterion {
	return Where(string(f), IsLessThan, v)
}

// LTE returns a criterion that checks if the field is less than or equal to the given value.
func (f Field[T]) LTE(v T) *Criterion {
	return Where(string(f), IsLessThanOrEqualTo, v)
}

// IsNull returns a criterion that checks if the field is NULL.
func (f Field[T]) IsNull() *Criterion {
	return Where(string(f), IsEqualTo, nil)
}

// NotNull returns a criterion that checks if the field is not NULL.
func (f Field[T]) NotNull() *Criterion {
	return Where(string(f), IsNotEqualTo, nil)
}

// EQField returns a criterion that checks if the field equals another field.
func (f Field[T]) EQField(other string) *Criterion {
	return WhereField(string(f), IsEqualTo, other)
}

// Typed fields.
type (
	BoolField    = Field[bool]
	Int32Field   = Field[int32]
	Int64Field   = Field[int64]
	Float64Field = Field[float64]
	TimeField    = Field[time.Time]
	UUIDField    = Field[uuid.UUID]
)

// StringField is a string field that also provides pattern criteria.
type StringField string

// Name returns the field-name chain.
func (f StringField) Name() string { return string(f) }

func (f StringField) field() Field[string] { return Field[string](f) }

// EQ returns a criterion that checks if the field equals the given value.
func (f StringField) EQ(v string) *Criterion { return f.field().EQ(v) }

// NEQ returns a criterion that checks if the field does not equal the given value.
func (f StringField) NEQ(v string) *Criterion { return f.field().NEQ(v) }

// GT returns a criterion that checks if the field is greater than the given value.
func (f StringField) GT(v string) *Criterion { return f.field().GT(v) }

// LT returns a criterion that checks if the field is less than the given value.
func (f StringField) LT(v string) *Criterion { return f.field().LT(v) }

// IsNull returns a criterion that checks if the field is NULL.
func (f StringField) IsNull() *Criterion { return f.field().IsNull() }

// NotNull returns a criterion that checks if the field is not NULL.
func (f StringField) NotNull() *Criterion { return f.field().NotNull() }

// Contains returns a criterion that checks if the field contains the given substring.
func (f StringField) Contains(v string) *Criterion {
	return Where(string(f), Contains, v)
}

// HasPrefix returns a criterion that checks if the field has the given prefix.
func (f StringField) HasPrefix(v string) *Criterion {
	return Where(string(f), StartsWith, v)
}

// HasSuffix returns a criterion that checks if the field has the given suffix.
func (f StringField) HasSuffix(v string) *Criterion {
	return Where(string(f), EndsWith, v)
}

// Matches returns a criterion that checks if the field matches the given
// regular expression.
func (f StringField) Matches(expr string) *Criterion {
	return Where(string(f), Matches, expr)
}
