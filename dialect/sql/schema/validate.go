package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a view validation error.
type ValidationError struct {
	View    string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.View, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.View, e.Message)
}

// ValidationResult holds the results of view validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the validation errors as one error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return fmt.Errorf("dialect/sql/schema: invalid views:\n%s", r)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures view validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	tables      map[string]*Table
	rejectEmpty bool
}

// WithTables checks the unions against the given storage tables: sources
// must exist and each source column must have the type of the view column
// it feeds.
func WithTables(tables ...*Table) ValidateOption {
	return func(c *validateConfig) {
		if c.tables == nil {
			c.tables = make(map[string]*Table, len(tables))
		}
		for _, t := range tables {
			c.tables[t.Name] = t
		}
	}
}

// RejectEmptyViews reports views without rows as errors instead of warnings.
func RejectEmptyViews() ValidateOption {
	return func(c *validateConfig) {
		c.rejectEmpty = true
	}
}

// ValidateViews validates view definitions. All unions of a view must
// produce the ordered column signature of the view.
//
// Example:
//
//	result := schema.ValidateViews(views.All(), schema.WithTables(schema.Tables(snap)...))
//	if result.HasErrors() {
//	    log.Fatal("invalid views:", result)
//	}
func ValidateViews(views []*View, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	names := make(map[string]bool, len(views))
	for _, v := range views {
		if names[strings.ToLower(v.Name)] {
			result.Errors = append(result.Errors, &ValidationError{
				View:    v.Name,
				Message: "duplicate view name",
			})
		}
		names[strings.ToLower(v.Name)] = true
		validateView(v, cfg, result)
	}
	return result
}

func validateView(v *View, cfg *validateConfig, result *ValidationResult) {
	if len(v.Columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			View:    v.Name,
			Message: "view has no columns",
		})
	}
	cols := make(map[string]*Column, len(v.Columns))
	for _, c := range v.Columns {
		if cols[c.Name] != nil {
			result.Errors = append(result.Errors, &ValidationError{
				View:    v.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		cols[c.Name] = c
	}
	if len(v.Unions) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			View:    v.Name,
			Message: "view has no unions",
		})
		return
	}
	empty := true
	for i, u := range v.Unions {
		if !u.Empty() {
			empty = false
		}
		validateUnion(v, i, u, cols, cfg, result)
	}
	if empty {
		err := &ValidationError{
			View:    v.Name,
			Message: "view has no rows",
		}
		if cfg.rejectEmpty {
			result.Errors = append(result.Errors, err)
		} else {
			result.Warnings = append(result.Warnings, err)
		}
	}
}

func validateUnion(v *View, i int, u *Union, cols map[string]*Column, cfg *validateConfig, result *ValidationResult) {
	fail := func(column, format string, args ...any) {
		result.Errors = append(result.Errors, &ValidationError{
			View:    v.Name,
			Column:  column,
			Message: fmt.Sprintf("union %d: ", i) + fmt.Sprintf(format, args...),
		})
	}
	if u.Empty() && (len(u.Dynamic) > 0 || len(u.Filter) > 0) {
		fail("", "branch without source reads columns")
	}
	for name := range u.Static {
		if cols[name] == nil {
			fail(name, "static value for unknown column")
		}
		if _, ok := u.Dynamic[name]; ok {
			fail(name, "column is both static and read from %s", u.SourceTable)
		}
	}
	var src *Table
	if cfg.tables != nil && !u.Empty() {
		if src = cfg.tables[u.SourceTable]; src == nil {
			fail("", "unknown source table %s", u.SourceTable)
		}
	}
	for name, from := range u.Dynamic {
		col := cols[name]
		if col == nil {
			fail(name, "source column %s feeds unknown column", from)
			continue
		}
		if src == nil {
			continue
		}
		sc, ok := src.Column(from)
		switch {
		case !ok:
			fail(name, "unknown column %s.%s", src.Name, from)
		case sc.Type != col.Type:
			fail(name, "column type %s of %s.%s differs from %s", sc.Type, src.Name, from, col.Type)
		}
	}
	for _, p := range u.Filter {
		if len(p.Values) == 0 {
			fail(p.Column, "filter without values")
		}
		if src == nil {
			continue
		}
		if _, ok := src.Column(p.Column); !ok {
			fail(p.Column, "filter on unknown column %s.%s", src.Name, p.Column)
		}
	}
}
