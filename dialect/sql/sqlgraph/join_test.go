package sqlgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect/sql/sqlgraph"
	"github.com/syssam/relmap/internal/testmodel"
	"github.com/syssam/relmap/querylanguage"
	"github.com/syssam/relmap/schema/field"
)

func ref(alias, column string) sqlgraph.ColumnRef {
	return sqlgraph.ColumnRef{Alias: alias, Column: column}
}

func viewJoin(table, alias, chain string, left sqlgraph.ColumnRef, right string) sqlgraph.Join {
	return sqlgraph.Join{
		Table:           table,
		Alias:           alias,
		Chain:           chain,
		FieldPredicates: []sqlgraph.ColumnPair{{Left: left, Right: ref(alias, right)}},
	}
}

func relationsJoin(alias, parent, fieldName string) sqlgraph.Join {
	return sqlgraph.Join{
		Table:            "Relations",
		Alias:            alias,
		FieldPredicates:  []sqlgraph.ColumnPair{{Left: ref(parent, "Id"), Right: ref(alias, "ParentId")}},
		StringPredicates: []sqlgraph.ColumnLiteral{{Column: ref(alias, "ParentField"), Value: fieldName}},
	}
}

func TestJoinResolver(t *testing.T) {
	tests := []struct {
		name   string
		root   string
		chains [][]string
		alias  string
		column string
		typ    field.Type
		joins  []sqlgraph.Join
	}{
		{
			name:   "direct field",
			root:   testmodel.Book,
			chains: [][]string{{"PublishedYear"}},
			alias:  "r0",
			column: "PublishedYear",
			typ:    field.TypeInt32,
		},
		{
			name:   "inherited field",
			root:   testmodel.Ebook,
			chains: [][]string{{"Title"}},
			alias:  "r0",
			column: "Title",
			typ:    field.TypeString,
		},
		{
			name:   "inline object",
			root:   testmodel.Book,
			chains: [][]string{{"Author", "Name"}, {"Author", "Born"}},
			alias:  "r1",
			column: "Born",
			typ:    field.TypeTime,
			joins: []sqlgraph.Join{
				viewJoin("People_View", "r1", "Author", ref("r0", "Author"), "Id"),
			},
		},
		{
			name:   "inline object id",
			root:   testmodel.Book,
			chains: [][]string{{"Author", "Id"}},
			alias:  "r0",
			column: "Author",
			typ:    field.TypeUUID,
		},
		{
			name:   "inline object reference",
			root:   testmodel.Review,
			chains: [][]string{{"Subject"}},
			alias:  "r0",
			column: "Subject",
			typ:    field.TypeUUID,
		},
		{
			name:   "object collection",
			root:   testmodel.Book,
			chains: [][]string{{"Tags", "Name"}, {"Tags", "Color"}},
			alias:  "r2",
			column: "Color",
			typ:    field.TypeString,
			joins: []sqlgraph.Join{
				relationsJoin("r1", "r0", "Tags"),
				viewJoin("Tags_View", "r2", "Tags", ref("r1", "ChildId"), "Id"),
			},
		},
		{
			name:   "non-inline object",
			root:   testmodel.Book,
			chains: [][]string{{"Editor", "Name"}},
			alias:  "r2",
			column: "Name",
			typ:    field.TypeString,
			joins: []sqlgraph.Join{
				relationsJoin("r1", "r0", "Editor"),
				viewJoin("People_View", "r2", "Editor", ref("r1", "ChildId"), "Id"),
			},
		},
		{
			name:   "element collection",
			root:   testmodel.Book,
			chains: [][]string{{"Keywords"}},
			alias:  "r1",
			column: "Value",
			typ:    field.TypeString,
			joins: []sqlgraph.Join{
				viewJoin("Books_Keywords_View", "r1", "Keywords", ref("r0", "Id"), "ParentId"),
			},
		},
		{
			name:   "nested element collection",
			root:   testmodel.Review,
			chains: [][]string{{"Reviewer", "Name"}, {"Reviewer", "Aliases"}},
			alias:  "r2",
			column: "Value",
			typ:    field.TypeString,
			joins: []sqlgraph.Join{
				viewJoin("People_View", "r1", "Reviewer", ref("r0", "Reviewer"), "Id"),
				viewJoin("People_Aliases_View", "r2", "Reviewer.Aliases", ref("r1", "Id"), "ParentId"),
			},
		},
		{
			name:   "nested inline objects",
			root:   testmodel.Review,
			chains: [][]string{{"Subject", "Title"}, {"Subject", "TypeName"}},
			alias:  "r1",
			column: "TypeName",
			typ:    field.TypeString,
			joins: []sqlgraph.Join{
				viewJoin("Publications_View", "r1", "Subject", ref("r0", "Subject"), "Id"),
			},
		},
	}
	snap := testmodel.Library()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := sqlgraph.NewJoinResolver(snap, tt.root)
			require.NoError(t, err)
			var col sqlgraph.Column
			for _, chain := range tt.chains {
				col, err = r.Resolve(chain)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.alias, col.Alias)
			assert.Equal(t, tt.column, col.Name)
			assert.Equal(t, tt.typ, col.Type)
			assert.Equal(t, tt.joins, r.Joins())
		})
	}
}

func TestJoinResolverOfType(t *testing.T) {
	snap := testmodel.Library()

	r, err := sqlgraph.NewJoinResolver(snap, testmodel.Publication)
	require.NoError(t, err)
	col, err := r.ResolveOfType(testmodel.Book, []string{"Author", "Name"})
	require.NoError(t, err)
	assert.Equal(t, sqlgraph.ColumnRef{Alias: "r2", Column: "Name"}, sqlgraph.ColumnRef{Alias: col.Alias, Column: col.Name})
	col, err = r.ResolveOfType(testmodel.Book, []string{"PublishedYear"})
	require.NoError(t, err)
	assert.Equal(t, "r1", col.Alias)
	assert.Equal(t, []sqlgraph.Join{
		viewJoin("Books_View", "r1", "@library.Book", ref("r0", "Id"), "Id"),
		viewJoin("People_View", "r2", "@library.Book.Author", ref("r1", "Author"), "Id"),
	}, r.Joins())

	r, err = sqlgraph.NewJoinResolver(snap, testmodel.Ebook)
	require.NoError(t, err)
	col, err = r.ResolveOfType(testmodel.Publication, []string{"Title"})
	require.NoError(t, err)
	assert.Equal(t, "r0", col.Alias)
	assert.Empty(t, r.Joins())

	_, err = r.ResolveOfType(testmodel.Tag, []string{"Name"})
	require.Error(t, err)
	assert.True(t, relmap.IsSchemaResolutionError(err))
	assert.Contains(t, err.Error(), "unrelated to library.Ebook")

	_, err = r.ResolveOfType("library.Unknown", []string{"Name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content type")
}

func TestJoinResolverAliases(t *testing.T) {
	snap := testmodel.Library()

	r, err := sqlgraph.NewJoinResolver(snap, testmodel.Book, sqlgraph.WithAliasPrefix("c"))
	require.NoError(t, err)
	assert.Equal(t, "c0", r.RootAlias())
	col, err := r.Resolve([]string{"Author", "Name"})
	require.NoError(t, err)
	assert.Equal(t, "c1", col.Alias)
	assert.Equal(t, []sqlgraph.Join{
		viewJoin("People_View", "c1", "Author", ref("c0", "Author"), "Id"),
	}, r.Joins())

	r, err = sqlgraph.NewJoinResolver(snap, testmodel.Book, sqlgraph.WithRootAlias(""))
	require.NoError(t, err)
	col, err = r.Resolve([]string{"Title"})
	require.NoError(t, err)
	assert.Empty(t, col.Alias)
}

func TestJoinResolverErrors(t *testing.T) {
	snap := testmodel.Library()
	_, err := sqlgraph.NewJoinResolver(snap, "library.Unknown")
	require.Error(t, err)
	assert.True(t, relmap.IsSchemaResolutionError(err))

	r, err := sqlgraph.NewJoinResolver(snap, testmodel.Book)
	require.NoError(t, err)
	_, err = r.Resolve([]string{"Author", "Pseudonym"})
	require.EqualError(t, err, `relmap: cannot resolve field "Author.Pseudonym" on type library.Person: no field "Pseudonym"`)
	_, err = r.Resolve([]string{"Title", "Length"})
	require.Error(t, err)
	assert.True(t, relmap.IsSchemaResolutionError(err))
	// Failed resolutions leave no joins behind.
	assert.Empty(t, r.Joins())
}

func TestJoinEqual(t *testing.T) {
	a := viewJoin("People_View", "r1", "Author", ref("r0", "Author"), "Id")
	b := viewJoin("People_View", "r3", "Author", ref("r2", "Author"), "Id")
	assert.True(t, a.Equal(b), "joins with the same chain are equal")
	b.Chain = "Editor"
	assert.False(t, a.Equal(b))

	rel := relationsJoin("r1", "r0", "Tags")
	assert.True(t, rel.Equal(relationsJoin("r1", "r0", "Tags")))
	assert.False(t, rel.Equal(relationsJoin("r1", "r0", "Editor")))
	assert.False(t, rel.Equal(relationsJoin("r2", "r0", "Tags")))
	assert.False(t, rel.Equal(a))
}

func TestResolveJoins(t *testing.T) {
	snap := testmodel.Library()
	filter := querylanguage.StringField("Tags.Name").Contains("x").
		And(querylanguage.StringField("Author.Name").EQ("Ann")).
		And(querylanguage.Group(querylanguage.WhereField("Title", querylanguage.IsEqualTo, "Editor.Name")))
	sorts := querylanguage.Sorts{querylanguage.Desc("PublishedYear"), querylanguage.Asc("Author.Born")}
	extra := [][]string{{"Keywords"}}

	joins, err := sqlgraph.ResolveJoins(snap, testmodel.Book, filter, sorts, extra, false)
	require.NoError(t, err)
	assert.Equal(t, []sqlgraph.Join{
		relationsJoin("r1", "r0", "Tags"),
		viewJoin("Tags_View", "r2", "Tags", ref("r1", "ChildId"), "Id"),
		viewJoin("People_View", "r3", "Author", ref("r0", "Author"), "Id"),
		relationsJoin("r4", "r0", "Editor"),
		viewJoin("People_View", "r5", "Editor", ref("r4", "ChildId"), "Id"),
		viewJoin("Books_Keywords_View", "r6", "Keywords", ref("r0", "Id"), "ParentId"),
	}, joins)

	again, err := sqlgraph.ResolveJoins(snap, testmodel.Book, filter, sorts, extra, false)
	require.NoError(t, err)
	assert.True(t, sqlgraph.JoinsEqual(joins, again))

	// With subqueries, the collection leaf is left to the subquery path
	// while field-to-field comparisons still join.
	joins, err = sqlgraph.ResolveJoins(snap, testmodel.Book, filter, sorts, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []sqlgraph.Join{
		viewJoin("People_View", "r1", "Author", ref("r0", "Author"), "Id"),
		relationsJoin("r2", "r0", "Editor"),
		viewJoin("People_View", "r3", "Editor", ref("r2", "ChildId"), "Id"),
	}, joins)

	_, err = sqlgraph.ResolveJoins(snap, testmodel.Book, nil, querylanguage.Sorts{querylanguage.Asc("Nope")}, nil, false)
	require.Error(t, err)
}
