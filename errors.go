// Package relmap is the relational-mapping core of the persistence layer.
//
// It translates type-hierarchy-aware object queries into parameterized SQL.
// The work is split across a few packages:
//
//   - schema: the type model, container names and the hierarchy graph
//   - schema/mixin: reusable field sets for type declarations
//   - querylanguage: filter and sort criteria
//   - dialect/sql: identifier escaping, type mapping and parameters
//   - dialect/sql/sqlgraph: join and subquery resolution of field chains
//   - dialect/sql/sqlquery: WHERE and SELECT compilation
//   - dialect/sql/schema: polymorphic view definitions
//   - compiler: the facade used by the execution and migration layers
//
// This package holds the error kinds shared by all of them.
package relmap

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds of the compiler.
var (
	// ErrSchemaResolution is returned when a field-name chain cannot be
	// mapped to any known field or table.
	ErrSchemaResolution = errors.New("relmap: schema resolution failed")

	// ErrUnsupportedOperator is returned when an operator has no SQL
	// translation for the target dialect.
	ErrUnsupportedOperator = errors.New("relmap: unsupported operator")

	// ErrNotSupportedUsage is returned when a compiler entry point is invoked
	// outside its documented contract.
	ErrNotSupportedUsage = errors.New("relmap: not supported usage pattern")
)

// SchemaResolutionError reports a field-name chain that could not be
// resolved against the type model.
type SchemaResolutionError struct {
	Type    string   // Declaring type the chain was resolved from.
	Chain   []string // Offending field-name chain.
	Message string
}

// Error returns the error string.
func (e *SchemaResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("relmap: cannot resolve")
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " field %q", strings.Join(e.Chain, "."))
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " on type %s", e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches ErrSchemaResolution.
func (e *SchemaResolutionError) Is(target error) bool {
	return target == ErrSchemaResolution
}

// NewSchemaResolutionError returns a new SchemaResolutionError.
func NewSchemaResolutionError(typeName string, chain []string, format string, args ...any) *SchemaResolutionError {
	return &SchemaResolutionError{
		Type:    typeName,
		Chain:   append([]string(nil), chain...),
		Message: fmt.Sprintf(format, args...),
	}
}

// IsSchemaResolutionError returns true if the error is a SchemaResolutionError.
func IsSchemaResolutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaResolutionError
	return errors.As(err, &e) || errors.Is(err, ErrSchemaResolution)
}

// UnsupportedOperatorError reports an operator without an SQL translation.
type UnsupportedOperatorError struct {
	Operator string
	Dialect  string // Empty when no dialect could translate it.
	Reason   string
}

// Error returns the error string.
func (e *UnsupportedOperatorError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "relmap: unsupported operator %s", e.Operator)
	if e.Dialect != "" {
		fmt.Fprintf(&b, " for dialect %s", e.Dialect)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is reports whether the target matches ErrUnsupportedOperator.
func (e *UnsupportedOperatorError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}

// NewUnsupportedOperatorError returns a new UnsupportedOperatorError.
func NewUnsupportedOperatorError(op, dialect, reason string) *UnsupportedOperatorError {
	return &UnsupportedOperatorError{Operator: op, Dialect: dialect, Reason: reason}
}

// IsUnsupportedOperatorError returns true if the error is an UnsupportedOperatorError.
func IsUnsupportedOperatorError(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedOperatorError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedOperator)
}

// NotSupportedUsagePatternError reports a compiler entry point invoked
// outside its contract, e.g. a condition appended without a batch.
type NotSupportedUsagePatternError struct {
	Op      string // Entry point that was misused.
	Message string
}

// Error returns the error string.
func (e *NotSupportedUsagePatternError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("relmap: %s: not supported usage pattern: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("relmap: %s: not supported usage pattern", e.Op)
}

// Is reports whether the target matches ErrNotSupportedUsage.
func (e *NotSupportedUsagePatternError) Is(target error) bool {
	return target == ErrNotSupportedUsage
}

// NewNotSupportedUsagePatternError returns a new NotSupportedUsagePatternError.
func NewNotSupportedUsagePatternError(op, message string) *NotSupportedUsagePatternError {
	return &NotSupportedUsagePatternError{Op: op, Message: message}
}

// IsNotSupportedUsagePattern returns true if the error is a NotSupportedUsagePatternError.
func IsNotSupportedUsagePattern(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSupportedUsagePatternError
	return errors.As(err, &e) || errors.Is(err, ErrNotSupportedUsage)
}
