package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsync/backend/internal/domain"
)

func TestExtractor_Extract(t *testing.T) {
	e := newTestExtractor()

	t.Run("reconciles every source of a full page", func(t *testing.T) {
		p, sources, err := e.Extract(rawPage(t, productURL, productPageHTML))
		require.NoError(t, err)
		require.NotNil(t, sources)

		assert.Equal(t, "Nivea Soft крем 200 мл", p.Title)
		assert.Equal(t, productURL, p.URL)
		assert.Equal(t, "Nivea", p.Brand)
		assert.Equal(t, "8825", p.SKU)
		assert.Equal(t, "4005900009463", p.Barcode)
		assert.Equal(t, []string{"Козметика", "Грижа за тяло"}, p.CategoryPath)
		assert.Equal(t, "В наличност", p.Availability)
		assert.Equal(t, []string{"Интензивно хидратира кожата"}, p.Highlights)
		assert.Equal(t, 200, p.WeightGrams)
		assert.False(t, p.Prescription)

		assert.Equal(t, domain.SourceStructured, p.ExtractionMethod[domain.FieldTitle])
		assert.Equal(t, domain.SourceStructured, p.ExtractionMethod[domain.FieldBrand])
		assert.Equal(t, domain.SourceSections, p.ExtractionMethod[domain.FieldBarcode])
		assert.Equal(t, domain.SourceClientState, p.ExtractionMethod[domain.FieldPrice])
	})

	t.Run("structured brand takes the dictionary spelling", func(t *testing.T) {
		html := strings.Replace(productPageHTML, `"name":"Nivea"}`, `"name":"NIVEA"}`, 1)
		p, _, err := e.Extract(rawPage(t, productURL, html))
		require.NoError(t, err)

		assert.Equal(t, "Nivea", p.Brand)
		assert.Equal(t, domain.SourceStructured, p.ExtractionMethod[domain.FieldBrand])
	})

	t.Run("client state EUR prices are converted at the peg rate", func(t *testing.T) {
		p, _, err := e.Extract(rawPage(t, productURL, productPageHTML))
		require.NoError(t, err)

		assert.Equal(t, "9.97", p.Price)
		assert.Equal(t, "5.10", p.PriceEUR)
		assert.Equal(t, "11.73", p.OriginalPrice)
	})

	t.Run("content sections come from the tabs", func(t *testing.T) {
		p, _, err := e.Extract(rawPage(t, productURL, productPageHTML))
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(p.Details, "Лек овлажняващ крем"))
		assert.Equal(t, "Aqua, Glycerin, Jojoba oil", p.Composition)
		assert.Contains(t, p.Usage, "Нанесете върху чиста кожа.")
		assert.Empty(t, p.Contraindications)
		assert.Contains(t, p.MoreInfo, "4005900009463")
	})

	t.Run("images are merged, rewritten and de-duplicated", func(t *testing.T) {
		p, _, err := e.Extract(rawPage(t, productURL, productPageHTML))
		require.NoError(t, err)

		assert.Equal(t, []string{
			"https://benu.bg/media/cache/product_view_default/images/products/1/nivea.jpg",
			"https://benu.bg/media/cache/product_view_default/images/products/1/nivea-2.jpg",
		}, p.ImageURLs())
		for i, img := range p.Images {
			assert.Equal(t, i+1, img.Position)
		}
		assert.Equal(t, "Nivea Soft крем 200 мл - Снимка 1 от 2", p.Images[0].AltText)
		assert.Equal(t, "Nivea Soft крем 200 мл - Снимка 2 от 2", p.Images[1].AltText)
	})

	t.Run("synthesized fields", func(t *testing.T) {
		p, _, err := e.Extract(rawPage(t, productURL, productPageHTML))
		require.NoError(t, err)

		assert.Equal(t, "nivea-soft-krem-200-ml", p.Handle)
		assert.Equal(t, "Козметика", p.ProductType)
		assert.Equal(t, []string{"Козметика", "Грижа за тяло"}, p.Tags)
		assert.Equal(t, "8825", p.GoogleMPN)
		assert.Equal(t, "Health & Beauty > Personal Care > Cosmetics", p.GoogleProductCategory)
		assert.Equal(t, AgeGroupAdult, p.GoogleAgeGroup)
		assert.Equal(t, "Крем", p.ApplicationForm)
		assert.Equal(t, AudienceAdults, p.TargetAudience)
		assert.Equal(t, "Nivea Soft крем 200 мл - Козметика | ViaPharma", p.SEOTitle)
		assert.Equal(t,
			"Купете Nivea Soft крем 200 мл. Лек овлажняващ крем за лице, ръце и тяло. Поръчайте в Козметика на ViaPharma.",
			p.SEODescription)
		assert.Contains(t, p.Description, "<p><strong>Марка:</strong> Nivea</p>")
		assert.Contains(t, p.Description, "<li>Интензивно хидратира кожата</li>")
		assert.Contains(t, p.Description, "<h3>Състав</h3>")
	})

	t.Run("markup fallback with BGN price and EUR secondary", func(t *testing.T) {
		p, _, err := e.Extract(rawPage(t, "https://benu.bg/analgin-tabletki", markupOnlyHTML))
		require.NoError(t, err)

		assert.Equal(t, "Аналгин таблетки 500 mg x 20", p.Title)
		assert.Equal(t, domain.SourceMarkup, p.ExtractionMethod[domain.FieldTitle])
		assert.Equal(t, "12.50", p.Price)
		assert.Equal(t, "6.39", p.PriceEUR)
		assert.Empty(t, p.OriginalPrice)
		assert.Equal(t, domain.SourceMarkup, p.ExtractionMethod[domain.FieldPrice])
		assert.Equal(t, []string{"Лекарства"}, p.CategoryPath)
		assert.Equal(t, "Таблетки", p.ApplicationForm)
		assert.Equal(t, "analgin-tabletki", p.Handle)
		assert.Len(t, p.Images, 1)
		assert.Equal(t, "Аналгин таблетки 500 mg x 20", p.Images[0].AltText)
	})

	t.Run("clinical text fills sections when there are no tabs", func(t *testing.T) {
		html := `<script type="application/ld+json">{"@type":"Drug","name":"Аналгин 500 мг",
"clinicalPharmacology":"Обезболяващо средство. Приложение: по 1 таблетка дневно. Активно вещество: метамизол 500 мг."}</script>`
		p, _, err := e.Extract(rawPage(t, "https://benu.bg/analgin", html))
		require.NoError(t, err)

		assert.Equal(t, "Обезболяващо средство.", p.Details)
		assert.Equal(t, "по 1 таблетка дневно.", p.Usage)
		assert.Equal(t, "метамизол 500 мг.", p.Composition)
		assert.Equal(t, domain.SourceDerived, p.ExtractionMethod[domain.FieldDetails])
	})

	t.Run("handle falls back to the title", func(t *testing.T) {
		p, _, err := e.Extract(rawPage(t, "https://benu.bg/", `<h1>Крем за ръце</h1>`))
		require.NoError(t, err)
		assert.Equal(t, "krem-za-ratse", p.Handle)
	})

	t.Run("page without a title is an error", func(t *testing.T) {
		_, _, err := e.Extract(rawPage(t, productURL, `<p>nothing here</p>`))
		assert.True(t, errors.Is(err, domain.ErrMissingTitle))
	})

	t.Run("blank page is an error", func(t *testing.T) {
		_, _, err := e.Extract(&domain.RawPage{URL: productURL, HTML: "   "})
		assert.True(t, errors.Is(err, domain.ErrEmptyPage))
	})
}

func TestExtractor_CustomRate(t *testing.T) {
	catalog := testCatalog()
	e := NewExtractor(catalog, nil, nil, ExtractorConfig{EURToBGN: 2})

	p, _, err := e.Extract(rawPage(t, productURL, productPageHTML))
	require.NoError(t, err)
	assert.Equal(t, "10.20", p.Price)
	assert.Equal(t, "12.00", p.OriginalPrice)
}
