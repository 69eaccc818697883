package relmap_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/relmap"
)

func TestSchemaResolutionError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := relmap.NewSchemaResolutionError("library.Book", []string{"Author", "Nmae"}, "no field %q", "Nmae")
		assert.Equal(t, `relmap: cannot resolve field "Author.Nmae" on type library.Book: no field "Nmae"`, err.Error())
	})

	t.Run("ChainIsCopied", func(t *testing.T) {
		chain := []string{"Author", "Name"}
		err := relmap.NewSchemaResolutionError("library.Book", chain, "boom")
		chain[0] = "Editor"
		assert.Equal(t, []string{"Author", "Name"}, err.Chain)
	})

	t.Run("IsSchemaResolutionError", func(t *testing.T) {
		err := relmap.NewSchemaResolutionError("library.Book", []string{"X"}, "unknown")
		assert.True(t, relmap.IsSchemaResolutionError(err))

		// Wrapped error
		wrapped := fmt.Errorf("compile where: %w", err)
		assert.True(t, relmap.IsSchemaResolutionError(wrapped))
		assert.True(t, errors.Is(wrapped, relmap.ErrSchemaResolution))

		// Sentinel error
		assert.True(t, relmap.IsSchemaResolutionError(relmap.ErrSchemaResolution))

		// Non-matching error
		assert.False(t, relmap.IsSchemaResolutionError(errors.New("other error")))
		assert.False(t, relmap.IsSchemaResolutionError(nil))
	})
}

func TestUnsupportedOperatorError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := relmap.NewUnsupportedOperatorError("Matches", "sqlite", "no regular expression support")
		assert.Equal(t, "relmap: unsupported operator Matches for dialect sqlite: no regular expression support", err.Error())
	})

	t.Run("ErrorWithoutDialect", func(t *testing.T) {
		err := relmap.NewUnsupportedOperatorError("IsGreaterThan", "", "")
		assert.Equal(t, "relmap: unsupported operator IsGreaterThan", err.Error())
	})

	t.Run("IsUnsupportedOperatorError", func(t *testing.T) {
		err := relmap.NewUnsupportedOperatorError("Matches", "sqlserver", "")
		assert.True(t, relmap.IsUnsupportedOperatorError(fmt.Errorf("wrap: %w", err)))
		assert.True(t, errors.Is(err, relmap.ErrUnsupportedOperator))
		assert.False(t, errors.Is(err, relmap.ErrSchemaResolution))
		assert.False(t, relmap.IsUnsupportedOperatorError(nil))
	})
}

func TestNotSupportedUsagePatternError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := relmap.NewNotSupportedUsagePatternError("AppendCondition", "conditions must be appended through a batch")
		assert.Equal(t, "relmap: AppendCondition: not supported usage pattern: conditions must be appended through a batch", err.Error())
		assert.Equal(t, "relmap: Compile: not supported usage pattern", relmap.NewNotSupportedUsagePatternError("Compile", "").Error())
	})

	t.Run("IsNotSupportedUsagePattern", func(t *testing.T) {
		err := relmap.NewNotSupportedUsagePatternError("AppendCondition", "")
		assert.True(t, relmap.IsNotSupportedUsagePattern(fmt.Errorf("wrap: %w", err)))
		assert.True(t, relmap.IsNotSupportedUsagePattern(relmap.ErrNotSupportedUsage))
		assert.False(t, relmap.IsNotSupportedUsagePattern(relmap.ErrUnsupportedOperator))
		assert.False(t, relmap.IsNotSupportedUsagePattern(nil))
	})
}
