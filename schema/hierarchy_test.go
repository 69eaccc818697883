package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/relmap/internal/testmodel"
)

func TestHierarchy(t *testing.T) {
	h := testmodel.Library().Hierarchy()

	assert.Equal(t, []string{testmodel.Person, testmodel.Tag, testmodel.Publication, testmodel.Review}, h.Roots())
	assert.Equal(t, []string{testmodel.Book, testmodel.Publication}, h.Ancestors(testmodel.Ebook))
	assert.Empty(t, h.Ancestors(testmodel.Tag))
	assert.Equal(t, []string{testmodel.Book, testmodel.Ebook, testmodel.Magazine}, h.Descendants(testmodel.Publication))
	assert.Equal(t, []string{testmodel.Book, testmodel.Magazine}, h.Subtypes(testmodel.Publication))
	assert.Equal(t, testmodel.Publication, h.Root(testmodel.Ebook))

	sup, ok := h.Super(testmodel.Author)
	assert.True(t, ok)
	assert.Equal(t, testmodel.Person, sup)
	_, ok = h.Super(testmodel.Person)
	assert.False(t, ok)

	assert.True(t, h.IsA(testmodel.Ebook, testmodel.Publication))
	assert.True(t, h.IsA(testmodel.Book, testmodel.Book))
	assert.False(t, h.IsA(testmodel.Publication, testmodel.Book))
	assert.False(t, h.IsA(testmodel.Magazine, testmodel.Book))
}
