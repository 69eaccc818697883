package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/internal/testmodel"
	"github.com/syssam/relmap/schema/field"
)

func TestValidateViews(t *testing.T) {
	snap := testmodel.Library()
	vs := libraryViews(t)
	result := ValidateViews(vs.All(), WithTables(Tables(snap)...))
	assert.False(t, result.HasErrors(), result.String())
	// No field references reviews.
	require.True(t, result.HasWarnings())
	for _, w := range result.Warnings {
		assert.Equal(t, "view has no rows", w.Message)
	}
	assert.NoError(t, result.Err())

	result = ValidateViews(vs.All(), RejectEmptyViews())
	assert.True(t, result.HasErrors())
	assert.Error(t, result.Err())
}

func TestValidateViewsErrors(t *testing.T) {
	items := &Table{
		Name:       "Items",
		Columns:    []*Column{{Name: "Id", Type: field.TypeUUID}, {Name: "Size", Type: field.TypeInt64}},
		PrimaryKey: []string{"Id"},
	}
	columns := []*Column{{Name: "Id", Type: field.TypeUUID}, {Name: "Size", Type: field.TypeInt32}}
	tests := []struct {
		name string
		view *View
		want string
	}{
		{
			name: "no unions",
			view: &View{Name: "V", Columns: columns},
			want: "V: view has no unions",
		},
		{
			name: "no columns",
			view: &View{Name: "V", Unions: []*Union{{}}},
			want: "V: view has no columns",
		},
		{
			name: "duplicate column",
			view: &View{Name: "V", Columns: []*Column{columns[0], columns[0]}, Unions: []*Union{{}}},
			want: "V.Id: duplicate column name",
		},
		{
			name: "unknown column",
			view: &View{Name: "V", Columns: columns, Unions: []*Union{{
				SourceTable: "Items",
				Dynamic:     map[string]string{"Id": "Id", "Weight": "Size"},
			}}},
			want: "V.Weight: union 0: source column Size feeds unknown column",
		},
		{
			name: "static and dynamic",
			view: &View{Name: "V", Columns: columns, Unions: []*Union{{
				SourceTable: "Items",
				Dynamic:     map[string]string{"Id": "Id"},
				Static:      map[string]string{"Id": "x"},
			}}},
			want: "V.Id: union 0: column is both static and read from Items",
		},
		{
			name: "type mismatch",
			view: &View{Name: "V", Columns: columns, Unions: []*Union{{
				SourceTable: "Items",
				Dynamic:     map[string]string{"Id": "Id", "Size": "Size"},
			}}},
			want: "V.Size: union 0: column type int64 of Items.Size differs from int32",
		},
		{
			name: "unknown source",
			view: &View{Name: "V", Columns: columns, Unions: []*Union{{SourceTable: "Things"}}},
			want: "V: union 0: unknown source table Things",
		},
		{
			name: "unknown filter column",
			view: &View{Name: "V", Columns: columns, Unions: []*Union{{
				SourceTable: "Items",
				Filter:      []*Predicate{{Column: "Kind", Values: []string{"a"}}},
			}}},
			want: "V.Kind: union 0: filter on unknown column Items.Kind",
		},
		{
			name: "empty filter",
			view: &View{Name: "V", Columns: columns, Unions: []*Union{{
				SourceTable: "Items",
				Filter:      []*Predicate{{Column: "Id"}},
			}}},
			want: "V.Id: union 0: filter without values",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateViews([]*View{tt.view}, WithTables(items))
			require.True(t, result.HasErrors())
			var msgs []string
			for _, e := range result.Errors {
				msgs = append(msgs, e.Error())
			}
			assert.Contains(t, msgs, tt.want)
		})
	}
}

func TestValidateViewsDuplicate(t *testing.T) {
	v := &View{Name: "V", Columns: []*Column{{Name: "Id", Type: field.TypeUUID}}, Unions: []*Union{{}}}
	result := ValidateViews([]*View{v, {Name: "v", Columns: v.Columns, Unions: v.Unions}})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "v: duplicate view name", result.Errors[0].Error())
	assert.Contains(t, result.String(), "Warnings:\n  - V: view has no rows")
}
