package sqlquery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/dialect/sql/sqlgraph"
	"github.com/syssam/relmap/dialect/sql/sqlquery"
	"github.com/syssam/relmap/internal/testmodel"
	ql "github.com/syssam/relmap/querylanguage"
)

func TestSelectCompiler(t *testing.T) {
	tests := []struct {
		name   string
		cfg    sqlquery.Config
		sel    sqlquery.Select
		text   string
		values []any
	}{
		{
			name: "inline join sorted",
			sel: sqlquery.Select{
				Root:   testmodel.Book,
				Filter: ql.Where("Author.Name", ql.IsEqualTo, "Ann").And(ql.Where("PublishedYear", ql.IsGreaterThan, 2000)),
				Sorts:  ql.Sorts{ql.Desc("PublishedYear")},
			},
			text:   "SELECT r0.* FROM Books_View r0 INNER JOIN People_View r1 ON r0.Author=r1.Id WHERE r1.Name=@p1 AND r0.PublishedYear>@p2 ORDER BY r0.PublishedYear DESC",
			values: []any{"Ann", int32(2000)},
		},
		{
			name: "filter is sorted by parent",
			sel: sqlquery.Select{
				Root: testmodel.Book,
				Filter: ql.All(
					ql.Where("Author.Name", ql.IsEqualTo, "Ann"),
					ql.Where("PublishedYear", ql.IsGreaterThan, 2000),
					ql.Where("Author.Born", ql.IsNotEqualTo, nil),
				),
			},
			text:   "SELECT r0.* FROM Books_View r0 LEFT OUTER JOIN People_View r1 ON r0.Author=r1.Id WHERE r1.Name=@p1 AND r1.Born IS NOT NULL AND r0.PublishedYear>@p2",
			values: []any{"Ann", int32(2000)},
		},
		{
			name: "relation joins",
			sel: sqlquery.Select{
				Root:   testmodel.Book,
				Filter: ql.Where("Tags.Name", ql.Contains, "x"),
			},
			text:   "SELECT r0.* FROM Books_View r0 INNER JOIN Relations r1 ON r0.Id=r1.ParentId AND r1.ParentField='Tags' INNER JOIN Tags_View r2 ON r1.ChildId=r2.Id WHERE r2.Name LIKE @p1 ESCAPE '\a'",
			values: []any{"%x%"},
		},
		{
			name: "complement",
			sel: sqlquery.Select{
				Root:       testmodel.Book,
				Filter:     ql.Where("Status", ql.IsEqualTo, "Closed"),
				Complement: true,
				Sorts:      ql.Sorts{ql.Asc("Author.Name")},
			},
			text:   "SELECT r0.* FROM Books_View r0 LEFT OUTER JOIN People_View r1 ON r0.Author=r1.Id WHERE r0.Id NOT IN (SELECT Id FROM Books_View WHERE Status=@p1) ORDER BY r1.Name",
			values: []any{"Closed"},
		},
		{
			name: "complement with joins",
			sel: sqlquery.Select{
				Root:       testmodel.Book,
				Filter:     ql.Where("Author.Name", ql.IsEqualTo, "Ann"),
				Complement: true,
			},
			text:   "SELECT r0.* FROM Books_View r0 WHERE r0.Id NOT IN (SELECT c0.Id FROM Books_View c0 INNER JOIN People_View c1 ON c0.Author=c1.Id WHERE c1.Name=@p1)",
			values: []any{"Ann"},
		},
		{
			name: "complement with subqueries",
			cfg:  sqlquery.Config{Subqueries: true},
			sel: sqlquery.Select{
				Root:       testmodel.Book,
				Filter:     ql.Where("Keywords", ql.IsEqualTo, "go"),
				Complement: true,
			},
			text:   "SELECT r0.* FROM Books_View r0 WHERE r0.Id NOT IN (SELECT Id FROM Books_View WHERE Id IN (SELECT ParentId FROM Books_Keywords_View WHERE Value=@p1))",
			values: []any{"go"},
		},
		{
			name: "complement without filter",
			sel:  sqlquery.Select{Root: testmodel.Book, Columns: []string{"Title"}, Complement: true},
			text: "SELECT r0.Title FROM Books_View r0 WHERE 1=0",
		},
		{
			name: "count of complement without filter",
			sel:  sqlquery.Select{Root: testmodel.Book, Mode: sqlquery.ModeCount, Complement: true},
			text: "SELECT COUNT(*) FROM Books_View r0 WHERE 1=0",
		},
		{
			name: "explicit join type",
			sel: sqlquery.Select{
				Root:     testmodel.Book,
				Sorts:    ql.Sorts{ql.Asc("Author.Name")},
				JoinType: sqlquery.JoinLeftOuter,
			},
			text: "SELECT r0.* FROM Books_View r0 LEFT OUTER JOIN People_View r1 ON r0.Author=r1.Id ORDER BY r1.Name",
		},
		{
			name: "columns",
			sel: sqlquery.Select{
				Root:    testmodel.Book,
				Columns: []string{"Title", "Author.Name"},
			},
			text: "SELECT r0.Title, r1.Name AS Author_Name FROM Books_View r0 INNER JOIN People_View r1 ON r0.Author=r1.Id",
		},
		{
			name: "distinct selects sort columns",
			sel: sqlquery.Select{
				Root:    testmodel.Book,
				Columns: []string{"Title"},
				Mode:    sqlquery.ModeDistinct,
				Sorts:   ql.Sorts{ql.Desc("Author.Name"), ql.Asc("Title")},
			},
			text: "SELECT DISTINCT r0.Title, r1.Name FROM Books_View r0 INNER JOIN People_View r1 ON r0.Author=r1.Id ORDER BY r1.Name DESC, r0.Title",
		},
		{
			name: "distinct on every column",
			sel: sqlquery.Select{
				Root:  testmodel.Book,
				Mode:  sqlquery.ModeDistinct,
				Sorts: ql.Sorts{ql.Asc("Title"), ql.Asc("Author.Name")},
			},
			text: "SELECT DISTINCT r0.*, r1.Name FROM Books_View r0 INNER JOIN People_View r1 ON r0.Author=r1.Id ORDER BY r0.Title, r1.Name",
		},
		{
			name: "extra fields",
			sel: sqlquery.Select{
				Root:        testmodel.Book,
				ExtraFields: []string{"Editor.Name"},
			},
			text: "SELECT r0.* FROM Books_View r0 INNER JOIN Relations r1 ON r0.Id=r1.ParentId AND r1.ParentField='Editor' INNER JOIN People_View r2 ON r1.ChildId=r2.Id",
		},
		{
			name: "count",
			cfg:  sqlquery.Config{Subqueries: true},
			sel: sqlquery.Select{
				Root:   testmodel.Book,
				Mode:   sqlquery.ModeCount,
				Filter: ql.Where("Tags.Name", ql.IsEqualTo, "x"),
				Sorts:  ql.Sorts{ql.Asc("Author.Name")},
			},
			text:   "SELECT COUNT(*) FROM Books_View r0 WHERE " + tagsIn + "Name=@p1))",
			values: []any{"x"},
		},
		{
			name: "count with joins",
			sel: sqlquery.Select{
				Root:   testmodel.Book,
				Mode:   sqlquery.ModeCount,
				Filter: ql.Where("Author.Name", ql.IsEqualTo, "Ann"),
			},
			text:   "SELECT COUNT(DISTINCT r0.Id) FROM Books_View r0 INNER JOIN People_View r1 ON r0.Author=r1.Id WHERE r1.Name=@p1",
			values: []any{"Ann"},
		},
		{
			name: "sum",
			sel: sqlquery.Select{
				Root:    testmodel.Book,
				Mode:    sqlquery.ModeSum,
				Columns: []string{"Price"},
				Filter:  ql.Where("Tags.Name", ql.IsEqualTo, "x"),
			},
			text:   "SELECT SUM(t.c1) AS Price FROM (SELECT r0.Id AS k1, r0.Price AS c1 FROM Books_View r0 INNER JOIN Relations r1 ON r0.Id=r1.ParentId AND r1.ParentField='Tags' INNER JOIN Tags_View r2 ON r1.ChildId=r2.Id WHERE r2.Name=@p1 GROUP BY r0.Id, r0.Price) t",
			values: []any{"x"},
		},
		{
			name: "average of referenced objects",
			sel: sqlquery.Select{
				Root:    testmodel.Review,
				Mode:    sqlquery.ModeAvg,
				Columns: []string{"Rating", "Subject.Price"},
			},
			text: "SELECT AVG(t.c1) AS Rating, AVG(t.c2) AS Subject_Price FROM (SELECT r0.Id AS k1, r1.Id AS k2, r0.Rating AS c1, r1.Price AS c2 FROM Reviews_View r0 INNER JOIN Publications_View r1 ON r0.Subject=r1.Id GROUP BY r0.Id, r1.Id, r0.Rating, r1.Price) t",
		},
		{
			name: "downcast on an abstract root",
			sel: sqlquery.Select{
				Root:   testmodel.Publication,
				Filter: ql.Where("PublishedYear", ql.IsGreaterThan, 2000).OfType(testmodel.Book),
			},
			text:   "SELECT r0.* FROM Publications_View r0 INNER JOIN Books_View r1 ON r0.Id=r1.Id WHERE r1.PublishedYear>@p1",
			values: []any{int32(2000)},
		},
		{
			name: "sql server paging",
			sel:  sqlquery.Select{Root: testmodel.Book, Offset: 20, Limit: 10},
			text: "SELECT r0.* FROM Books_View r0 ORDER BY r0.Id OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name: "sql server offset",
			sel:  sqlquery.Select{Root: testmodel.Book, Offset: 5, Sorts: ql.Sorts{ql.Asc("Title")}},
			text: "SELECT r0.* FROM Books_View r0 ORDER BY r0.Title OFFSET 5 ROWS",
		},
		{
			name: "postgres paging",
			cfg:  sqlquery.Config{Dialect: dialect.Postgres},
			sel:  sqlquery.Select{Root: testmodel.Book, Offset: 20, Limit: 10},
			text: `SELECT r0.* FROM "Books_View" r0 LIMIT 10 OFFSET 20`,
		},
		{
			name: "mysql offset",
			cfg:  sqlquery.Config{Dialect: dialect.MySQL},
			sel:  sqlquery.Select{Root: testmodel.Book, Offset: 5},
			text: "SELECT r0.* FROM Books_View r0 LIMIT 18446744073709551615 OFFSET 5",
		},
		{
			name: "sqlite limit",
			cfg:  sqlquery.Config{Dialect: dialect.SQLite},
			sel:  sqlquery.Select{Root: testmodel.Book, Limit: 3},
			text: "SELECT r0.* FROM Books_View r0 LIMIT 3",
		},
		{
			name: "sql server full text",
			sel: sqlquery.Select{
				Root:     testmodel.Book,
				Filter:   ql.Where("Price", ql.IsLessThan, 10),
				FullText: "go",
			},
			text:   "SELECT r0.* FROM Books_View r0 WHERE (r0.Price<@p1) AND (CONTAINS((r0.Title), @p2))",
			values: []any{10.0, "go"},
		},
		{
			name: "postgres full text",
			cfg:  sqlquery.Config{Dialect: dialect.Postgres},
			sel: sqlquery.Select{
				Root:            testmodel.Book,
				FullText:        "go",
				FullTextColumns: []string{"Title", "Author.Name"},
			},
			text:   `SELECT r0.* FROM "Books_View" r0 INNER JOIN "People_View" r1 ON r0."Author"=r1."Id" WHERE to_tsvector(concat_ws(' ', r0."Title", r1."Name")) @@ plainto_tsquery($1)`,
			values: []any{"go"},
		},
		{
			name:   "mysql full text",
			cfg:    sqlquery.Config{Dialect: dialect.MySQL},
			sel:    sqlquery.Select{Root: testmodel.Book, FullText: "go"},
			text:   "SELECT r0.* FROM Books_View r0 WHERE MATCH (r0.Title) AGAINST (? IN NATURAL LANGUAGE MODE)",
			values: []any{"go"},
		},
		{
			name: "sqlite full text",
			cfg:  sqlquery.Config{Dialect: dialect.SQLite},
			sel: sqlquery.Select{
				Root:            testmodel.Book,
				FullText:        "5%",
				FullTextColumns: []string{"Title", "Keywords"},
			},
			text:   "SELECT r0.* FROM Books_View r0 INNER JOIN Books_Keywords_View r1 ON r0.Id=r1.ParentId WHERE (r0.Title LIKE @p1 ESCAPE '\a' OR r1.Value LIKE @p1 ESCAPE '\a')",
			values: []any{"%5\a%%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := sqlquery.NewSelectCompiler(testmodel.Library(), tt.cfg).Compile(tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.text, st.Text)
			if tt.values == nil {
				tt.values = []any{}
			}
			assert.Equal(t, tt.values, values(st.Parameters))
		})
	}
}

func TestSelectCompilerErrors(t *testing.T) {
	tests := []struct {
		name  string
		sel   sqlquery.Select
		check func(error) bool
	}{
		{
			name:  "unknown root",
			sel:   sqlquery.Select{Root: "library.Unknown"},
			check: relmap.IsSchemaResolutionError,
		},
		{
			name:  "unknown sort field",
			sel:   sqlquery.Select{Root: testmodel.Book, Sorts: ql.Sorts{ql.Asc("Isbn")}},
			check: relmap.IsSchemaResolutionError,
		},
		{
			name:  "negative limit",
			sel:   sqlquery.Select{Root: testmodel.Book, Limit: -1},
			check: relmap.IsNotSupportedUsagePattern,
		},
		{
			name:  "paged count",
			sel:   sqlquery.Select{Root: testmodel.Book, Mode: sqlquery.ModeCount, Limit: 1},
			check: relmap.IsNotSupportedUsagePattern,
		},
		{
			name:  "sum without columns",
			sel:   sqlquery.Select{Root: testmodel.Book, Mode: sqlquery.ModeSum},
			check: relmap.IsNotSupportedUsagePattern,
		},
		{
			name:  "full text without string fields",
			sel:   sqlquery.Select{Root: testmodel.Review, FullText: "x"},
			check: relmap.IsNotSupportedUsagePattern,
		},
		{
			name:  "complement of an unknown field",
			sel:   sqlquery.Select{Root: testmodel.Book, Filter: ql.Where("Isbn", ql.IsEqualTo, "1"), Complement: true},
			check: relmap.IsSchemaResolutionError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlquery.NewSelectCompiler(testmodel.Library(), sqlquery.Config{}).Compile(tt.sel)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestSelectApplyParameters(t *testing.T) {
	st, err := sqlquery.NewSelectCompiler(testmodel.Library(), sqlquery.Config{Dialect: dialect.MySQL}).Compile(sqlquery.Select{
		Root:   testmodel.Book,
		Filter: ql.Where("Title", ql.IsEqualTo, "it's").And(ql.Where("Price", ql.IsLessThan, 5)),
	})
	require.NoError(t, err)
	text, err := sql.ApplyParameters(dialect.MySQL, st.Text, st.Parameters)
	require.NoError(t, err)
	assert.Equal(t, "SELECT r0.* FROM Books_View r0 WHERE r0.Title='it''s' AND r0.Price<5.0", text)
}

func TestModes(t *testing.T) {
	for _, m := range []sqlquery.Mode{sqlquery.ModeDefault, sqlquery.ModeDistinct, sqlquery.ModeCount, sqlquery.ModeSum, sqlquery.ModeAvg} {
		got, err := sqlquery.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := sqlquery.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, sqlquery.ModeDefault, got)
	_, err = sqlquery.ParseMode("median")
	require.Error(t, err)
	assert.Equal(t, "Mode(9)", sqlquery.Mode(9).String())
}

func TestJoinClause(t *testing.T) {
	joins, err := sqlgraph.ResolveJoins(testmodel.Library(), testmodel.Book, nil, ql.Sorts{ql.Asc("Tags.Name")}, nil, false)
	require.NoError(t, err)
	conv := sql.NewFieldNameConverter(dialect.SQLServer)
	assert.Equal(t,
		" LEFT OUTER JOIN Relations r1 ON r0.Id=r1.ParentId AND r1.ParentField='Tags' LEFT OUTER JOIN Tags_View r2 ON r1.ChildId=r2.Id",
		sqlquery.JoinClause(conv, sqlquery.JoinLeftOuter, joins),
	)
}
