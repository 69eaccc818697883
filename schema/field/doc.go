// Package field defines the value types and storage kinds of persisted fields.
//
// A Type tags the domain value carried by an element field, a sub-table
// element or a query parameter:
//
//	field.TypeString    // nvarchar(max), text, longtext, TEXT
//	field.TypeInt64     // bigint, INTEGER
//	field.TypeUUID      // uniqueidentifier, uuid, char(36), TEXT
//
// The dialect column type of a Type is resolved by the dialect/sql
// DataTypeMapper, never here.
//
// # Kinds
//
// A Kind tells the compiler how a field is stored and therefore how a
// field-name chain crossing it is resolved:
//
//   - KindElement: a column on the owner's table
//   - KindElementCollection: rows of the owner's element sub-table
//   - KindObject: a reference to one object, either inline (a column pair
//     on the owner's table) or a row of the shared relations table
//   - KindObjectCollection: rows of the shared relations table
package field
