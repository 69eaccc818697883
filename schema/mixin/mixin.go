// Package mixin provides reusable field sets for relmap types.
//
// A mixin is a set of fields shared by several type declarations. Mixin
// fields are appended after the fields the type declares:
//
//	t := mixin.Apply(&schema.Type{
//	    Name:   "library.Publication",
//	    Fields: []*schema.Field{{Name: "Title", Type: field.TypeString}},
//	}, mixin.Secured{}, mixin.Time{})
//
// Custom mixins embed Schema and override Fields:
//
//	type Audit struct{ mixin.Schema }
//
//	func (Audit) Fields() []*schema.Field {
//	    return []*schema.Field{{Name: "CreatedBy", Type: field.TypeString}}
//	}
package mixin

import (
	"fmt"

	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// Mixin is a reusable set of fields.
type Mixin interface {
	Fields() []*schema.Field
}

// Schema is the default implementation for the Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []*schema.Field { return nil }

var _ Mixin = (*Schema)(nil)

// Field names of the built-in mixins.
const (
	ReadGroupsField  = "AllowedReadGroups"
	WriteGroupsField = "AllowedWriteGroups"
	CreatedField     = "Created"
	UpdatedField     = "Updated"
	DeletedField     = "Deleted"
)

// Secured adds the group-id collections checked by the privacy package.
type Secured struct {
	Schema
}

// Fields returns the read and write group collections.
func (Secured) Fields() []*schema.Field {
	return []*schema.Field{
		{Name: ReadGroupsField, Kind: field.KindElementCollection, Type: field.TypeUUID},
		{Name: WriteGroupsField, Kind: field.KindElementCollection, Type: field.TypeUUID},
	}
}

// Time adds creation and update timestamps.
type Time struct {
	Schema
}

// Fields returns the timestamp fields.
func (Time) Fields() []*schema.Field {
	return []*schema.Field{
		{Name: CreatedField, Type: field.TypeTime},
		{Name: UpdatedField, Type: field.TypeTime},
	}
}

// SoftDelete adds a deletion timestamp. A NULL value means not deleted.
type SoftDelete struct {
	Schema
}

// Fields returns the deletion field.
func (SoftDelete) Fields() []*schema.Field {
	return []*schema.Field{
		{Name: DeletedField, Type: field.TypeTime},
	}
}

// Apply appends the fields of the mixins to t and returns it. Mixin fields
// are copied so one mixin value may serve many types.
func Apply(t *schema.Type, ms ...Mixin) *schema.Type {
	for _, m := range ms {
		for _, f := range m.Fields() {
			c := *f
			t.Fields = append(t.Fields, &c)
		}
	}
	return t
}

// Check reports mixin fields colliding with the fields declared on t.
func Check(t *schema.Type, ms ...Mixin) error {
	seen := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		seen[f.Name] = t.Name
	}
	for _, m := range ms {
		for _, f := range m.Fields() {
			if owner, ok := seen[f.Name]; ok {
				return fmt.Errorf("relmap/mixin: field %q of %T collides with a field of %s", f.Name, m, owner)
			}
			seen[f.Name] = fmt.Sprintf("%T", m)
		}
	}
	return nil
}
