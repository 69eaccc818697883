package sqlgraph

import (
	"github.com/syssam/relmap"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// ChildQuery is one level of a subquery: the hop from a container to the
// view of the objects referenced by one field.
type ChildQuery struct {
	// Key is the field-name chain up to and including the hop.
	Key string
	// InternalNameOfContainer is the view selected by the level.
	InternalNameOfContainer string
	// IsForInlineRelation is set when the reference is a column of the
	// parent, and unset when it is a row of the relations table.
	IsForInlineRelation bool
	// Field is the parent field followed by the hop.
	Field *schema.Field
}

// Column returns the parent column compared with the ids selected by the
// level.
func (c ChildQuery) Column() string {
	if c.IsForInlineRelation {
		return c.Field.Name
	}
	return schema.IDColumn
}

// Subquery is a field-name chain modeled as nested subquery levels.
type Subquery struct {
	// FieldName is the chain key, see ChainKey.
	FieldName string
	// IsForSubTable is set when the terminal is an element collection, read
	// from SubTableView.
	IsForSubTable bool
	SubTableView  string
	ChildQueries  []ChildQuery
	// Column is the terminal column on the innermost container.
	Column string
	// Type of the values of the terminal column.
	Type field.Type
	Path *schema.Path
}

// ReferenceLevel reports if the innermost level selects only the Id of the
// referenced objects through an inline reference, so the comparison can be
// made on the reference column instead.
func (s *Subquery) ReferenceLevel() bool {
	if s.IsForSubTable || len(s.ChildQueries) == 0 || s.Column != schema.IDColumn {
		return false
	}
	return s.ChildQueries[len(s.ChildQueries)-1].IsForInlineRelation
}

// RequiresSubquery reports if a resolved path goes through a collection or
// the relations table, where a join would multiply result rows.
func RequiresSubquery(p *schema.Path) bool {
	for _, h := range p.Hops {
		if h.Field.Kind.IsCollection() || h.Field.InRelationsTable() {
			return true
		}
	}
	return false
}

// SubqueryCollection holds the subqueries of one filter by field name, in
// order of first use.
type SubqueryCollection struct {
	order  []*Subquery
	byName map[string]*Subquery
}

// Get returns the subquery of the given field name.
func (c *SubqueryCollection) Get(name string) (*Subquery, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// All returns the subqueries in order of first use.
func (c *SubqueryCollection) All() []*Subquery {
	return append([]*Subquery(nil), c.order...)
}

// Len returns the number of subqueries.
func (c *SubqueryCollection) Len() int { return len(c.order) }

// SubqueryResolver models field-name chains queried on one root type as
// subqueries, memoized by field name. Like the JoinResolver it belongs to a
// single compilation.
type SubqueryResolver struct {
	snap *schema.Snapshot
	root *schema.Type
	memo *SubqueryCollection
}

// NewSubqueryResolver returns a resolver for chains queried on the given type.
func NewSubqueryResolver(snap *schema.Snapshot, root string) (*SubqueryResolver, error) {
	t, ok := snap.Type(root)
	if !ok {
		return nil, relmap.NewSchemaResolutionError(root, nil, "unknown type")
	}
	return &SubqueryResolver{
		snap: snap,
		root: t,
		memo: &SubqueryCollection{byName: make(map[string]*Subquery)},
	}, nil
}

// Subqueries returns the subqueries resolved so far.
func (r *SubqueryResolver) Subqueries() *SubqueryCollection { return r.memo }

// Resolve returns the subquery of a chain queried on the given content
// type, "" meaning the root type. A strict subtype of the root adds a
// leading level selecting the ids of its view.
func (r *SubqueryResolver) Resolve(baseType string, chain []string) (*Subquery, error) {
	name := ChainKey(baseType, chain)
	if s, ok := r.memo.byName[name]; ok {
		return s, nil
	}
	start := r.root
	sq := &Subquery{FieldName: name}
	if baseType != "" && baseType != r.root.Name {
		t, ok := r.snap.Type(baseType)
		if !ok {
			return nil, relmap.NewSchemaResolutionError(baseType, chain, "unknown content type")
		}
		h := r.snap.Hierarchy()
		switch {
		case h.IsA(r.root.Name, baseType):
		case h.IsA(baseType, r.root.Name):
			start = t
			sq.ChildQueries = append(sq.ChildQueries, ChildQuery{
				Key:                     "@" + baseType,
				InternalNameOfContainer: schema.ViewName(t.Table),
				IsForInlineRelation:     true,
				Field:                   schema.IDField,
			})
		default:
			return nil, relmap.NewSchemaResolutionError(baseType, chain, "content type is unrelated to %s", r.root.Name)
		}
	}
	p, err := r.snap.ResolveChain(start.Name, chain)
	if err != nil {
		return nil, err
	}
	sq.Path = p
	key := ""
	for _, h := range p.Links() {
		key = joinKey(key, h.Field.Name)
		target, _ := r.snap.GetInternalNameOfContainer(h.Field.Target)
		sq.ChildQueries = append(sq.ChildQueries, ChildQuery{
			Key:                     key,
			InternalNameOfContainer: schema.ViewName(target),
			IsForInlineRelation:     h.Field.IsInlineObject(),
			Field:                   h.Field,
		})
	}
	t := p.Terminal()
	switch t.Field.Kind {
	case field.KindElementCollection:
		sq.IsForSubTable = true
		sq.SubTableView = schema.SubTableViewName(t.Owner.Table, t.Field.Name)
		sq.Column, sq.Type = schema.ValueColumn, t.Field.Type
	default:
		sq.Column, sq.Type = t.Field.Name, t.Field.ColumnType()
	}
	r.memo.order = append(r.memo.order, sq)
	r.memo.byName[name] = sq
	return sq, nil
}
