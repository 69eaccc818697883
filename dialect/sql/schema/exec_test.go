package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/internal/testmodel"
	"github.com/syssam/relmap/internal/testmodel/testdb"
)

func TestViewsExec(t *testing.T) {
	db := testdb.Library(t)
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "ancestor view lists descendant rows",
			query: "SELECT TypeName FROM Publications_View ORDER BY Title",
			want:  []string{testmodel.Book, testmodel.Magazine, testmodel.Ebook, testmodel.Book},
		},
		{
			name:  "subtype rows",
			query: "SELECT Name FROM People_View WHERE TypeName='" + testmodel.Author + "'",
			want:  []string{"Bob"},
		},
		{
			name:  "inherited sub-table",
			query: "SELECT Value FROM Books_Keywords_View ORDER BY Value",
			want:  []string{"50%_off", "golang", "network"},
		},
		{
			name:  "abstract sub-table",
			query: "SELECT ParentId FROM Publications_AllowedReadGroups_View WHERE Value=? ORDER BY ParentId",
			want:  []string{testdb.GoBook.String(), testdb.Monthly.String()},
		},
		{
			name:  "referrers through the relations table",
			query: "SELECT ParentId FROM Tags_Relations_View WHERE ChildId=? ORDER BY ParentId",
			want:  []string{testdb.GoBook.String(), testdb.NetBook.String()},
		},
		{
			name:  "referrers through inline columns",
			query: "SELECT ParentTable || '.' || ParentField FROM People_Relations_View WHERE ChildId=? ORDER BY 1",
			want:  []string{"Books.Author", "Ebooks.Author", "Reviews.Reviewer", "Tags.Owner"},
		},
		{
			name:  "referrers of a subtype",
			query: "SELECT ParentTable || '.' || ParentField FROM Authors_Relations_View ORDER BY 1",
			want:  []string{"Books.Author", "Magazines.Publisher", "Tags.Owner"},
		},
		{
			name:  "view without rows",
			query: "SELECT ParentId FROM Reviews_Relations_View",
		},
	}
	args := map[string][]any{
		"abstract sub-table":                   {testdb.Staff.String()},
		"referrers through the relations table": {testdb.Classic.String()},
		"referrers through inline columns":      {testdb.Ann.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testdb.IDs(t, db, tt.query, args[tt.name]...)
			require.Equal(t, len(tt.want), len(got), "%v", got)
			assert.Equal(t, tt.want, got)
		})
	}
}
