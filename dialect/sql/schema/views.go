package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// ViewKind identifies what a view lists.
type ViewKind uint8

// View kinds.
const (
	ViewForTable ViewKind = iota + 1
	ViewForSubTable
	ViewForRelations
)

func (k ViewKind) String() string {
	switch k {
	case ViewForTable:
		return "table"
	case ViewForSubTable:
		return "subtable"
	case ViewForRelations:
		return "relations"
	default:
		return "invalid"
	}
}

// Column is a typed column of a view or a storage table.
type Column struct {
	Name string
	Type field.Type
}

// View is a polymorphic view: the UNION ALL of its unions, each exposing
// the view columns in order.
type View struct {
	Name string
	Kind ViewKind
	// Type is the type whose objects, element values or referrers the view lists.
	Type string
	// Field is the element-collection field of sub-table views.
	Field   string
	Columns []*Column
	Unions  []*Union
}

// Column returns the view column with the given name.
func (v *View) Column(name string) (*Column, bool) {
	for _, c := range v.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Union is one SELECT branch of a view.
type Union struct {
	// SourceTable is the table the branch reads, or "" for a branch
	// without rows.
	SourceTable string
	// Dynamic maps view columns to the source columns they read.
	Dynamic map[string]string
	// Static maps view columns to constant text values. View columns in
	// neither map are NULL.
	Static map[string]string
	// Filter restricts the source rows.
	Filter []*Predicate
}

// Empty reports if the branch never yields rows.
func (u *Union) Empty() bool {
	return u.SourceTable == ""
}

// Predicate restricts a source column to a set of values.
type Predicate struct {
	Column string
	Values []string
}

// Views holds the view definitions of a snapshot.
type Views struct {
	Tables    []*View
	SubTables []*View
	Relations []*View
}

// All returns the views in creation order: table views, sub-table views and
// relation views, each in type declaration order.
func (vs *Views) All() []*View {
	all := make([]*View, 0, len(vs.Tables)+len(vs.SubTables)+len(vs.Relations))
	all = append(all, vs.Tables...)
	all = append(all, vs.SubTables...)
	return append(all, vs.Relations...)
}

// View returns the view with the given name.
func (vs *Views) View(name string) (*View, bool) {
	for _, v := range vs.All() {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// BuildViews returns the views of all types of the snapshot. The view of a
// type reads the tables of the type and of all its concrete descendants.
func BuildViews(s *schema.Snapshot) (*Views, error) {
	if s == nil {
		return nil, errors.New("dialect/sql/schema: nil snapshot")
	}
	b := &builder{snap: s, h: s.Hierarchy()}
	vs := &Views{}
	for _, t := range s.Types() {
		vs.Tables = append(vs.Tables, b.tableView(t))
		for _, f := range s.Fields(t.Name) {
			if f.Kind == field.KindElementCollection {
				vs.SubTables = append(vs.SubTables, b.subTableView(t, f))
			}
		}
		vs.Relations = append(vs.Relations, b.relationsView(t))
	}
	if err := checkNames(vs.All(), Tables(s)); err != nil {
		return nil, err
	}
	return vs, nil
}

// checkNames fails if a view name collides with another view or a table.
func checkNames(views []*View, tables []*Table) error {
	var (
		errs []error
		used = make(map[string]string, len(views)+len(tables))
	)
	for _, t := range tables {
		used[strings.ToLower(t.Name)] = "table " + t.Name
	}
	for _, v := range views {
		k := strings.ToLower(v.Name)
		if prev, ok := used[k]; ok {
			errs = append(errs, fmt.Errorf("dialect/sql/schema: view %s of %s collides with %s", v.Name, v.Type, prev))
			continue
		}
		used[k] = "view " + v.Name
	}
	return errors.Join(errs...)
}

type builder struct {
	snap *schema.Snapshot
	h    *schema.Hierarchy
}

func (b *builder) tableView(t *schema.Type) *View {
	v := &View{
		Name:    schema.ViewName(t.Table),
		Kind:    ViewForTable,
		Type:    t.Name,
		Columns: objectColumns(b.snap.Fields(t.Name)),
	}
	v.Columns = slices.Insert(v.Columns, 1, &Column{Name: schema.TypeNameColumn, Type: field.TypeString})
	for _, c := range b.snap.Concrete(t.Name) {
		u := &Union{
			SourceTable: c.Table,
			Dynamic:     make(map[string]string, len(v.Columns)-1),
			Static:      map[string]string{schema.TypeNameColumn: c.Name},
		}
		for _, col := range v.Columns {
			if col.Name != schema.TypeNameColumn {
				u.Dynamic[col.Name] = col.Name
			}
		}
		v.Unions = append(v.Unions, u)
	}
	return withRows(v)
}

func (b *builder) subTableView(t *schema.Type, f *schema.Field) *View {
	v := &View{
		Name:    schema.SubTableViewName(t.Table, f.Name),
		Kind:    ViewForSubTable,
		Type:    t.Name,
		Field:   f.Name,
		Columns: subTableColumns(f),
	}
	for _, c := range b.snap.Concrete(t.Name) {
		u := &Union{
			SourceTable: schema.SubTableName(c.Table, f.Name),
			Dynamic:     make(map[string]string, len(v.Columns)),
		}
		for _, col := range v.Columns {
			u.Dynamic[col.Name] = col.Name
		}
		v.Unions = append(v.Unions, u)
	}
	return withRows(v)
}

// relationsView lists the references held by any field whose content type
// may be an object of type t.
func (b *builder) relationsView(t *schema.Type) *View {
	v := &View{
		Name: schema.RelationsViewName(t.Table),
		Kind: ViewForRelations,
		Type: t.Name,
		Columns: []*Column{
			{Name: schema.ParentTableColumn, Type: field.TypeEnum},
			{Name: schema.ParentIDColumn, Type: field.TypeUUID},
			{Name: schema.ParentFieldColumn, Type: field.TypeEnum},
			{Name: schema.ChildIDColumn, Type: field.TypeUUID},
		},
	}
	for _, owner := range b.snap.Types() {
		for _, f := range owner.Fields {
			if !f.Kind.IsObject() || !b.related(f.Target, t.Name) {
				continue
			}
			children := b.snap.Concrete(t.Name)
			if b.h.IsA(f.Target, t.Name) {
				children = b.snap.Concrete(f.Target)
			}
			owners := b.snap.Concrete(owner.Name)
			if len(children) == 0 || len(owners) == 0 {
				continue
			}
			if f.IsInlineObject() {
				for _, o := range owners {
					v.Unions = append(v.Unions, &Union{
						SourceTable: o.Table,
						Dynamic: map[string]string{
							schema.ParentIDColumn: schema.IDColumn,
							schema.ChildIDColumn:  f.Column(),
						},
						Static: map[string]string{
							schema.ParentTableColumn: o.Table,
							schema.ParentFieldColumn: f.Name,
						},
						Filter: []*Predicate{{Column: f.DiscriminatorColumn(), Values: typeNames(children)}},
					})
				}
				continue
			}
			v.Unions = append(v.Unions, &Union{
				SourceTable: schema.RelationsTable,
				Dynamic: map[string]string{
					schema.ParentTableColumn: schema.ParentTableColumn,
					schema.ParentIDColumn:    schema.ParentIDColumn,
					schema.ParentFieldColumn: schema.ParentFieldColumn,
					schema.ChildIDColumn:     schema.ChildIDColumn,
				},
				Filter: []*Predicate{
					{Column: schema.ParentFieldColumn, Values: []string{f.Name}},
					{Column: schema.ParentTableColumn, Values: tableNames(owners)},
					{Column: schema.ChildTableColumn, Values: tableNames(children)},
				},
			})
		}
	}
	return withRows(v)
}

// related reports if objects of type a may be objects of type b.
func (b *builder) related(a, c string) bool {
	return b.h.IsA(a, c) || b.h.IsA(c, a)
}

// withRows adds a branch without rows to a view without unions, so that
// every view can be created and queried.
func withRows(v *View) *View {
	if len(v.Unions) == 0 {
		v.Unions = []*Union{{}}
	}
	return v
}

// objectColumns returns the Id column followed by the owner columns of the
// given fields.
func objectColumns(fields []*schema.Field) []*Column {
	cols := []*Column{{Name: schema.IDColumn, Type: field.TypeUUID}}
	for _, f := range fields {
		if f.Column() == "" {
			continue
		}
		cols = append(cols, &Column{Name: f.Column(), Type: f.ColumnType()})
		if f.IsInlineObject() {
			cols = append(cols, &Column{Name: f.DiscriminatorColumn(), Type: field.TypeString})
		}
	}
	return cols
}

func subTableColumns(f *schema.Field) []*Column {
	return []*Column{
		{Name: schema.ParentIDColumn, Type: field.TypeUUID},
		{Name: schema.PositionColumn, Type: field.TypeInt32},
		{Name: schema.ValueColumn, Type: f.Type},
	}
}

func typeNames(ts []*schema.Type) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return names
}

func tableNames(ts []*schema.Type) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Table
	}
	return names
}

// Table is a storage table the views read from.
type Table struct {
	Name       string
	Columns    []*Column
	PrimaryKey []string
}

// Column returns the table column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Tables returns the storage layout of a snapshot: one table per concrete
// type holding its own and inherited columns, one sub-table per concrete
// type and element-collection field, and the relations table.
func Tables(s *schema.Snapshot) []*Table {
	var ts []*Table
	for _, t := range s.Types() {
		if t.Abstract {
			continue
		}
		fields := s.Fields(t.Name)
		ts = append(ts, &Table{
			Name:       t.Table,
			Columns:    objectColumns(fields),
			PrimaryKey: []string{schema.IDColumn},
		})
		for _, f := range fields {
			if f.Kind != field.KindElementCollection {
				continue
			}
			ts = append(ts, &Table{
				Name:       schema.SubTableName(t.Table, f.Name),
				Columns:    subTableColumns(f),
				PrimaryKey: []string{schema.ParentIDColumn, schema.PositionColumn},
			})
		}
	}
	return append(ts, &Table{
		Name: schema.RelationsTable,
		Columns: []*Column{
			{Name: schema.ParentTableColumn, Type: field.TypeEnum},
			{Name: schema.ParentIDColumn, Type: field.TypeUUID},
			{Name: schema.ParentFieldColumn, Type: field.TypeEnum},
			{Name: schema.ChildTableColumn, Type: field.TypeEnum},
			{Name: schema.ChildIDColumn, Type: field.TypeUUID},
			{Name: schema.PositionColumn, Type: field.TypeInt32},
		},
		PrimaryKey: []string{schema.ParentIDColumn, schema.ParentFieldColumn, schema.PositionColumn},
	})
}
