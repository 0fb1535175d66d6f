package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsync/backend/internal/domain"
)

func TestPipeline_Process(t *testing.T) {
	t.Run("valid page is recorded once", func(t *testing.T) {
		pl := newTestPipeline()

		result, err := pl.Process(rawPage(t, productURL, productPageHTML))

		require.NoError(t, err)
		assert.True(t, result.Validation.Valid, result.Validation.Errors)
		assert.Empty(t, result.Validation.Warnings)
		assert.Empty(t, result.Consistency)
		assert.Equal(t, 1, pl.Tracker().Snapshot().Total)
		assert.Equal(t, 1, pl.Tracker().Snapshot().Valid)
	})

	t.Run("consistency findings become warnings", func(t *testing.T) {
		pl := newTestPipeline()
		html := strings.Replace(productPageHTML, "<h1>Nivea Soft крем 200 мл</h1>", "<h1>Eucerin Urea</h1>", 1)

		result, err := pl.Process(rawPage(t, productURL, html))

		require.NoError(t, err)
		assert.True(t, result.Validation.Valid)
		require.Len(t, result.Consistency, 1)
		assert.Equal(t, []string{result.Consistency[0].String()}, result.Validation.Warnings)
		assert.Contains(t, result.Validation.Issues, result.Consistency[0].String())

		s := pl.Tracker().Snapshot()
		assert.Equal(t, 1, s.WarningsOnly)
		assert.Equal(t, 1, s.FieldCounts["consistency_title"])
	})

	t.Run("source references are removed after validation", func(t *testing.T) {
		pl := newTestPipeline()
		html := strings.ReplaceAll(productPageHTML, "Nivea Soft крем 200 мл", "Nivea Soft крем 200 мл от benu.bg")

		result, err := pl.Process(rawPage(t, productURL, html))

		require.NoError(t, err)
		assert.Equal(t, "Nivea Soft крем 200 мл от", result.Product.Title)
		assert.NotContains(t, result.Product.SEOTitle, "benu.bg")
		assert.NotContains(t, result.Product.SEODescription, "benu.bg")
	})

	t.Run("extraction failure is not recorded", func(t *testing.T) {
		pl := newTestPipeline()

		_, err := pl.Process(rawPage(t, productURL, "<p>no title</p>"))

		assert.True(t, errors.Is(err, domain.ErrMissingTitle))
		assert.Equal(t, 0, pl.Tracker().Snapshot().Total)
	})
}

func TestPipeline_Validate(t *testing.T) {
	pl := newTestPipeline()
	result := pl.Validate(validProduct())
	assert.True(t, result.Valid)
	assert.Equal(t, 0, pl.Tracker().Snapshot().Total)
}
