package schema

import (
	"regexp"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/relmap/schema/field"
)

// Storage names shared by every container.
const (
	// IDColumn is the primary key column of every object table.
	IDColumn = "Id"
	// TypeNameColumn is the static column of polymorphic views carrying the
	// concrete type of a row.
	TypeNameColumn = "TypeName"
	// TypeNameSuffix is appended to an inline object column to name its
	// discriminator column.
	TypeNameSuffix = "_TypeName"

	// RelationsTable stores object collections and non-inline references.
	RelationsTable = "Relations"
	// ParentTableColumn of the relations table and relation views.
	ParentTableColumn = "ParentTable"
	// ParentIDColumn of the relations table, sub-tables and their views.
	ParentIDColumn = "ParentId"
	// ParentFieldColumn of the relations table and relation views.
	ParentFieldColumn = "ParentField"
	// ChildTableColumn of the relations table.
	ChildTableColumn = "ChildTable"
	// ChildIDColumn of the relations table and relation views.
	ChildIDColumn = "ChildId"
	// PositionColumn orders collection rows.
	PositionColumn = "Position"
	// ValueColumn of element sub-tables.
	ValueColumn = "Value"
)

// Type describes a persisted type.
type Type struct {
	Name     string   `yaml:"name" msgpack:"name"`
	Table    string   `yaml:"table,omitempty" msgpack:"table,omitempty"`
	Abstract bool     `yaml:"abstract,omitempty" msgpack:"abstract,omitempty"`
	Super    string   `yaml:"super,omitempty" msgpack:"super,omitempty"`
	Fields   []*Field `yaml:"fields,omitempty" msgpack:"fields,omitempty"`
}

// ShortName returns the name without its package qualifier.
func (t *Type) ShortName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Field describes a field declared on a type.
type Field struct {
	Name string     `yaml:"name" msgpack:"name"`
	Kind field.Kind `yaml:"kind,omitempty" msgpack:"kind,omitempty"`
	// Type of element and element-collection values.
	Type field.Type `yaml:"type,omitempty" msgpack:"type,omitempty"`
	// Target is the declared content type of object fields.
	Target string `yaml:"target,omitempty" msgpack:"target,omitempty"`
	// Inline object fields are stored as a column pair on the owner's table.
	Inline bool `yaml:"inline,omitempty" msgpack:"inline,omitempty"`
}

// IsInlineObject reports if the field is a single object reference stored on
// the owner's table.
func (f *Field) IsInlineObject() bool {
	return f.Kind == field.KindObject && f.Inline
}

// InRelationsTable reports if the field values are rows of the relations table.
func (f *Field) InRelationsTable() bool {
	return f.Kind == field.KindObjectCollection || (f.Kind == field.KindObject && !f.Inline)
}

// Column returns the owner column storing the field, or "" if the field is
// not stored on the owner's table.
func (f *Field) Column() string {
	switch {
	case f.Kind == field.KindElement, f.IsInlineObject():
		return f.Name
	default:
		return ""
	}
}

// DiscriminatorColumn returns the column holding the concrete type of an
// inline object reference.
func (f *Field) DiscriminatorColumn() string {
	return f.Name + TypeNameSuffix
}

// ColumnType returns the value type of the owner column storing the field.
func (f *Field) ColumnType() field.Type {
	if f.Kind.IsObject() {
		return field.TypeUUID
	}
	return f.Type
}

// Pseudo fields present on every object type.
var (
	// IDField is the implicit primary key.
	IDField = &Field{Name: IDColumn, Kind: field.KindElement, Type: field.TypeUUID}
	// TypeNameField is the concrete type name exposed by polymorphic views.
	TypeNameField = &Field{Name: TypeNameColumn, Kind: field.KindElement, Type: field.TypeString}
)

// SubTableName returns the element sub-table name of a field stored on table.
func SubTableName(table, fieldName string) string {
	return table + "_" + fieldName
}

// ViewName returns the name of the polymorphic view of a type stored in
// the given container.
func ViewName(table string) string {
	return table + "_View"
}

// SubTableViewName returns the name of the view over the element sub-tables
// of a field, merged across the hierarchy of the type stored in table.
func SubTableViewName(table, fieldName string) string {
	return SubTableName(table, fieldName) + "_View"
}

// RelationsViewName returns the name of the view listing the references to
// objects of the type stored in table.
func RelationsViewName(table string) string {
	return table + "_" + RelationsTable + "_View"
}

// rules pluralizes camel-cased type names. Suffix rules of the default
// ruleset are case-sensitive, so irregular nouns are added capitalized.
var rules = func() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	r.AddIrregular("Person", "People")
	r.AddIrregular("Child", "Children")
	return r
}()

// DefaultTableName returns the container name used for a type that does not
// declare one.
func DefaultTableName(typeName string) string {
	t := &Type{Name: typeName}
	return rules.Pluralize(rules.Camelize(t.ShortName()))
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// isIdent reports if s is usable as an unqualified identifier.
func isIdent(s string) bool {
	return len(s) <= 128 && identRe.MatchString(s)
}
