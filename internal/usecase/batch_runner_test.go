package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsync/backend/internal/domain"
)

const (
	secondURL  = "https://benu.bg/nivea-soft-krem-100-ml"
	noImageURL = "https://benu.bg/bez-snimka"
	invalidURL = "https://benu.bg/bez-cena"
	missingURL = "https://benu.bg/missing"
)

// noImageHTML is a complete page whose images are all icons.
var noImageHTML = strings.NewReplacer(
	`"image":["https://benu.bg/media/cache/product_view_default/images/products/1/nivea.jpg","/uploads/images/products/1/nivea-2.jpg"],`, "",
	`<img src="/media/cache/product_view_default/images/products/1/nivea.jpg">`, "",
).Replace(productPageHTML)

func newBatchFixture() (*MockPageFetcher, *MockStateStore, *MockSink) {
	fetcher := NewMockPageFetcher()
	fetcher.pages[productURL] = productPageHTML
	fetcher.pages[secondURL] = strings.Replace(productPageHTML, `"sku":"8825"`, `"sku":"8826"`, 1)
	fetcher.pages[noImageURL] = noImageHTML
	fetcher.pages[invalidURL] = `<h1>Продукт без цена</h1>`
	return fetcher, NewMockStateStore(), &MockSink{}
}

func TestBatchRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("exports valid products and records failures", func(t *testing.T) {
		fetcher, state, sink := newBatchFixture()
		runner := NewBatchRunner(fetcher, newTestPipeline(), state, sink, nil, BatchConfig{
			Workers:         4,
			ContinueOnError: true,
		})

		report, err := runner.Run(ctx, []string{productURL, secondURL, invalidURL, missingURL, productURL, ""})

		require.NoError(t, err)
		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, 6, report.Input)
		assert.Equal(t, 4, report.Attempted)
		assert.Equal(t, 2, report.Exported)
		assert.Equal(t, 1, report.Rejected)
		assert.Equal(t, 1, report.Failed)
		require.Len(t, report.FailedURLs, 1)
		assert.Equal(t, missingURL, report.FailedURLs[0].URL)
		assert.Equal(t, report.RunID, report.FailedURLs[0].RunID)
		assert.Contains(t, report.FailedURLs[0].Reason, "not found")
		assert.Len(t, sink.products, 2)

		assert.Equal(t, 3, report.Quality.Total)
		assert.Equal(t, 1, report.Quality.Errored)
		assert.True(t, report.Quality.CriticalFailure)
		assert.False(t, report.GatePassed())

		for _, u := range []string{productURL, secondURL, invalidURL, missingURL} {
			done, _ := state.IsProcessed(ctx, u)
			assert.True(t, done, u)
		}
	})

	t.Run("resumes by skipping processed urls", func(t *testing.T) {
		fetcher, state, sink := newBatchFixture()
		require.NoError(t, state.MarkProcessed(ctx, "earlier", productURL))
		runner := NewBatchRunner(fetcher, newTestPipeline(), state, sink, nil, BatchConfig{ContinueOnError: true})

		report, err := runner.Run(ctx, []string{productURL, secondURL})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Resumed)
		assert.Equal(t, 1, report.Attempted)
		assert.Equal(t, []string{secondURL}, fetcher.called)
	})

	t.Run("skips products without images", func(t *testing.T) {
		fetcher, state, sink := newBatchFixture()
		runner := NewBatchRunner(fetcher, newTestPipeline(), state, sink, nil, BatchConfig{
			ContinueOnError:   true,
			SkipWithoutImages: true,
		})

		report, err := runner.Run(ctx, []string{noImageURL})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, 0, report.Failed)
		assert.Empty(t, sink.products)
		done, _ := state.IsProcessed(ctx, noImageURL)
		assert.True(t, done)
	})

	t.Run("limit caps the attempted pages", func(t *testing.T) {
		fetcher, state, sink := newBatchFixture()
		runner := NewBatchRunner(fetcher, newTestPipeline(), state, sink, nil, BatchConfig{Limit: 1})

		report, err := runner.Run(ctx, []string{productURL, secondURL})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Attempted)
		assert.Equal(t, 1, report.Exported)
	})

	t.Run("aborts on failure without continue on error", func(t *testing.T) {
		fetcher, state, sink := newBatchFixture()
		runner := NewBatchRunner(fetcher, newTestPipeline(), state, sink, nil, BatchConfig{Workers: 1})

		report, err := runner.Run(ctx, []string{missingURL, productURL})

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPageNotFound))
		require.NotNil(t, report)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 0, report.Exported)
	})

	t.Run("sink failure is a page failure", func(t *testing.T) {
		fetcher, state, _ := newBatchFixture()
		sink := &MockSink{err: errBoom}
		runner := NewBatchRunner(fetcher, newTestPipeline(), state, sink, nil, BatchConfig{ContinueOnError: true})

		report, err := runner.Run(ctx, []string{productURL})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 0, report.Exported)
	})

	t.Run("state store error stops before processing", func(t *testing.T) {
		fetcher, state, sink := newBatchFixture()
		state.err = errBoom
		runner := NewBatchRunner(fetcher, newTestPipeline(), state, sink, nil, BatchConfig{})

		_, err := runner.Run(ctx, []string{productURL})

		assert.True(t, errors.Is(err, domain.ErrStateStore))
		assert.Zero(t, fetcher.calls)
	})

	t.Run("runs without state or sink", func(t *testing.T) {
		fetcher, _, _ := newBatchFixture()
		pl := newTestPipeline()
		pl.tracker = nil
		runner := NewBatchRunner(fetcher, pl, nil, nil, nil, BatchConfig{SummaryEvery: 1})

		report, err := runner.Run(ctx, []string{productURL})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Exported)
		assert.Equal(t, 1, report.Quality.Total)
		assert.True(t, report.GatePassed())
	})
}
