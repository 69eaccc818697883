package sqlgraph

import (
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// RootAlias is the alias of the queried view.
const RootAlias = "r0"

// ColumnRef is a column of an aliased table or view.
type ColumnRef struct {
	Alias  string
	Column string
}

// ColumnPair is an equality predicate between two columns.
type ColumnPair struct {
	Left, Right ColumnRef
}

// ColumnLiteral is an equality predicate between a column and a string
// literal.
type ColumnLiteral struct {
	Column ColumnRef
	Value  string
}

// Join resolves one hop of a field-name chain to an aliased table or view.
type Join struct {
	Table string
	Alias string
	// Chain is the field-name chain the join resolves, the identity key of
	// the join. It is empty for the relations-table half of a relation hop.
	Chain            string
	FieldPredicates  []ColumnPair
	StringPredicates []ColumnLiteral
}

// Equal reports if two joins are the same: same chain, or for chain-less
// joins, same structure.
func (j Join) Equal(o Join) bool {
	if j.Chain != "" || o.Chain != "" {
		return j.Chain == o.Chain
	}
	return j.Table == o.Table && j.Alias == o.Alias &&
		slices.Equal(j.FieldPredicates, o.FieldPredicates) &&
		slices.Equal(j.StringPredicates, o.StringPredicates)
}

// JoinsEqual reports if two join lists are pairwise equal.
func JoinsEqual(a, b []Join) bool {
	return slices.EqualFunc(a, b, Join.Equal)
}

// Column is a field-name chain resolved to a column of an aliased view.
type Column struct {
	Alias string
	Name  string
	// Type of the values stored in the column.
	Type field.Type
	Path *schema.Path
}

// JoinResolver resolves field-name chains queried on one root type into
// aliased columns, collecting the joins they need. It holds the working
// state of one compilation and must not be shared between goroutines.
type JoinResolver struct {
	snap      *schema.Snapshot
	root      *schema.Type
	rootAlias string
	prefix    string
	joins     []Join
	byChain   map[string]string // chain key -> alias
}

// JoinOption configures a JoinResolver.
type JoinOption func(*JoinResolver)

// WithAliasPrefix names the root alias prefix+"0" and the joins prefix+"1",
// prefix+"2" and so on. It is used for subselects nested in a query that
// already uses the default aliases.
func WithAliasPrefix(prefix string) JoinOption {
	return func(r *JoinResolver) {
		r.prefix = prefix
		r.rootAlias = prefix + "0"
	}
}

// WithRootAlias sets the alias of the queried view. An empty alias leaves
// root columns unqualified, which is only valid when no join is made.
func WithRootAlias(alias string) JoinOption {
	return func(r *JoinResolver) {
		r.rootAlias = alias
	}
}

// NewJoinResolver returns a resolver for chains queried on the given type.
func NewJoinResolver(snap *schema.Snapshot, root string, opts ...JoinOption) (*JoinResolver, error) {
	t, ok := snap.Type(root)
	if !ok {
		return nil, relmap.NewSchemaResolutionError(root, nil, "unknown type")
	}
	r := &JoinResolver{
		snap:      snap,
		root:      t,
		rootAlias: RootAlias,
		prefix:    "r",
		byChain:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the queried type.
func (r *JoinResolver) Root() *schema.Type { return r.root }

// RootAlias returns the alias of the queried view.
func (r *JoinResolver) RootAlias() string { return r.rootAlias }

// Snapshot returns the snapshot chains are resolved against.
func (r *JoinResolver) Snapshot() *schema.Snapshot { return r.snap }

// Joins returns the joins collected so far, in creation order.
func (r *JoinResolver) Joins() []Join { return slices.Clone(r.joins) }

// Resolve resolves a chain on the root type.
func (r *JoinResolver) Resolve(chain []string) (Column, error) {
	return r.ResolveOfType("", chain)
}

// ResolveOfType resolves a chain on the given content type, which must be
// related to the root type. A strict subtype of the root is reached by a
// join on Id against its view.
func (r *JoinResolver) ResolveOfType(baseType string, chain []string) (Column, error) {
	start, alias, key, err := r.start(baseType, chain)
	if err != nil {
		return Column{}, err
	}
	p, err := r.snap.ResolveChain(start.Name, chain)
	if err != nil {
		return Column{}, err
	}
	hops, col := p.Hops, ""
	if p.ReferenceID() {
		hops = hops[:len(hops)-1]
		col = hops[len(hops)-1].Field.Name
		hops = hops[:len(hops)-1]
	} else {
		hops = p.Links()
	}
	for _, h := range hops {
		key = joinKey(key, h.Field.Name)
		view := schema.ViewName(r.table(h.Field.Target))
		switch {
		case h.Field.IsInlineObject():
			alias = r.join(key, view, ColumnRef{alias, h.Field.Name}, schema.IDColumn, nil)
		default:
			alias = r.relationJoin(key, view, alias, h.Field.Name)
		}
	}
	if col != "" {
		return Column{Alias: alias, Name: col, Type: field.TypeUUID, Path: p}, nil
	}
	t := p.Terminal()
	if t.Field.Kind == field.KindElementCollection {
		key = joinKey(key, t.Field.Name)
		view := schema.SubTableViewName(t.Owner.Table, t.Field.Name)
		alias = r.join(key, view, ColumnRef{alias, schema.IDColumn}, schema.ParentIDColumn, nil)
		return Column{Alias: alias, Name: schema.ValueColumn, Type: t.Field.Type, Path: p}, nil
	}
	return Column{Alias: alias, Name: t.Field.Name, Type: t.Field.ColumnType(), Path: p}, nil
}

func (r *JoinResolver) start(baseType string, chain []string) (*schema.Type, string, string, error) {
	if baseType == "" || baseType == r.root.Name {
		return r.root, r.rootAlias, "", nil
	}
	t, ok := r.snap.Type(baseType)
	if !ok {
		return nil, "", "", relmap.NewSchemaResolutionError(baseType, chain, "unknown content type")
	}
	h := r.snap.Hierarchy()
	switch {
	case h.IsA(r.root.Name, baseType):
		// Fields of an ancestor are fields of the root.
		return r.root, r.rootAlias, "", nil
	case h.IsA(baseType, r.root.Name):
		key := "@" + baseType
		alias := r.join(key, schema.ViewName(t.Table), ColumnRef{r.rootAlias, schema.IDColumn}, schema.IDColumn, nil)
		return t, alias, key, nil
	default:
		return nil, "", "", relmap.NewSchemaResolutionError(baseType, chain, "content type is unrelated to %s", r.root.Name)
	}
}

// join appends a join against table unless one exists for key, and returns
// the alias of the join.
func (r *JoinResolver) join(key, table string, left ColumnRef, right string, lits []ColumnLiteral) string {
	if alias, ok := r.byChain[key]; ok {
		return alias
	}
	alias := r.nextAlias()
	r.joins = append(r.joins, Join{
		Table:            table,
		Alias:            alias,
		Chain:            key,
		FieldPredicates:  []ColumnPair{{Left: left, Right: ColumnRef{alias, right}}},
		StringPredicates: lits,
	})
	r.byChain[key] = alias
	return alias
}

// relationJoin joins the relations table on the parent and the view of the
// child type on the relation row.
func (r *JoinResolver) relationJoin(key, view, parent, fieldName string) string {
	if alias, ok := r.byChain[key]; ok {
		return alias
	}
	rel := r.nextAlias()
	r.joins = append(r.joins, Join{
		Table: schema.RelationsTable,
		Alias: rel,
		FieldPredicates: []ColumnPair{{
			Left:  ColumnRef{parent, schema.IDColumn},
			Right: ColumnRef{rel, schema.ParentIDColumn},
		}},
		StringPredicates: []ColumnLiteral{{
			Column: ColumnRef{rel, schema.ParentFieldColumn},
			Value:  fieldName,
		}},
	})
	return r.join(key, view, ColumnRef{rel, schema.ChildIDColumn}, schema.IDColumn, nil)
}

func (r *JoinResolver) nextAlias() string {
	return r.prefix + strconv.Itoa(len(r.joins)+1)
}

func (r *JoinResolver) table(typeName string) string {
	t, _ := r.snap.GetInternalNameOfContainer(typeName)
	return t
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// ChainKey returns the identity key of a chain resolved on a content type.
func ChainKey(baseType string, chain []string) string {
	k := strings.Join(chain, ".")
	if baseType != "" {
		k = "@" + baseType + "." + k
	}
	return k
}
