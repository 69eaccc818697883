// Package schema describes the persisted type model the compiler works on.
//
// A model is a set of types organised in a single-inheritance hierarchy.
// Every concrete type is stored in its own container (table) holding the
// columns of all its fields, inherited ones included. Abstract types own a
// container name too, used to name their polymorphic views, but no table.
//
//	types:
//	  - name: library.Publication
//	    abstract: true
//	    fields:
//	      - {name: Title, type: string}
//	  - name: library.Book
//	    super: library.Publication
//	    table: Books
//	    fields:
//	      - {name: PublishedYear, type: int32}
//	      - {name: Author, kind: object, target: library.Person, inline: true}
//	      - {name: Tags, kind: objects, target: library.Tag}
//	      - {name: Keywords, kind: elements, type: string}
//
// # Storage
//
// Besides the implicit Id column and one column per element field, an inline
// object field is stored as the column pair <Field> (referenced id) and
// <Field>_TypeName (concrete type of the referenced object). Object
// collections and non-inline object fields are rows of the shared relations
// table, and element collections are rows of the <Table>_<Field> sub-table.
//
// # Snapshots
//
// A Snapshot is an immutable, validated view of the model. Snapshots are
// handed to the compiler per call and never mutated; a Store publishes new
// generations atomically for the collaborator that owns the live model.
package schema
