package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfsync/backend/internal/domain"
)

const productURL = "https://benu.bg/nivea-soft-krem-200-ml"

const productPageHTML = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">
[{"@context":"https://schema.org","@type":"Product","name":"Nivea Soft крем 200 мл",
  "brand":{"@type":"Brand","name":"Nivea"},"sku":"8825","gtin13":"4005900009463",
  "image":["https://benu.bg/media/cache/product_view_default/images/products/1/nivea.jpg","/uploads/images/products/1/nivea-2.jpg"],
  "offers":[{"@type":"Offer","price":"5.10","priceCurrency":"EUR","availability":"https://schema.org/InStock"}]},
 {"@type":"BreadcrumbList","itemListElement":[
   {"@type":"ListItem","position":1,"name":"Начало"},
   {"@type":"ListItem","position":2,"name":"Козметика"},
   {"@type":"ListItem","position":3,"item":{"name":"Грижа за тяло"}},
   {"@type":"ListItem","position":4,"name":"Nivea Soft крем 200 мл"}]}]
</script>
<script>var dl4Objects = [{"event":"view"},{"item_name":"Nivea Soft крем 200 мл","item_brand":"Nivea","item_id":8825,"price":5.1,"item_category":"Козметика","item_stock_status":"in stock"}];</script>
</head>
<body>
<nav aria-label="breadcrumb"><a href="/">Начало</a><a href="/kozmetika">Козметика</a><a href="/grizha">Грижа за тяло</a></nav>
<h1>Nivea Soft крем 200 мл</h1>
<div class="product-info"><div class="product-prices">9,97 лв. 5,10 €</div></div>
<div class="site-gallery"><img src="/media/cache/product_view_default/images/products/1/nivea.jpg"><img data-src="/images/icons/heart.svg"></div>
<add-to-cart :product="{&quot;price&quot;: 6.00, &quot;variants&quot;: [{&quot;price&quot;: 6.00, &quot;discountedPrice&quot;: 5.10}]}"></add-to-cart>
<div itemprop="description"><ul><li>Интензивно хидратира кожата</li><li>къс</li></ul></div>
<table class="additional-attributes"><tr><th>Тегло</th><td>200 мл</td></tr></table>
<div class="tabs">
<h2>Какво представлява</h2>
<p>Лек овлажняващ крем за лице, ръце и тяло. Подходящ за ежедневна употреба.</p>
<h2>Активни съставки</h2>
<p>Aqua, Glycerin, Jojoba oil</p>
<h2>Дозировка и начин на употреба</h2>
<p>Нанесете върху чиста кожа.</p>
<p>Попитай магистър-фармацевт</p>
<h2>Допълнителна информация</h2>
<p>Баркод : 4005900009463</p>
<h2>Все още няма ревюта</h2>
</div>
<p>В наличност</p>
</body>
</html>`

// markupOnlyHTML has no structured data, tracking or client state.
const markupOnlyHTML = `<html><body>
<nav aria-label="breadcrumb"><a href="/">Начало</a><a href="/lekarstva">Лекарства</a></nav>
<h1>Аналгин таблетки 500 mg x 20</h1>
<div class="product-info"><div class="product-prices">12,50 лв. 6,39 €</div></div>
<div class="site-gallery"><img src="/media/cache/product_view_default/images/products/7/analgin.jpg"></div>
<p>В наличност</p>
</body></html>`

func testCatalog() Catalog {
	return NewCatalog(Catalog{
		Brands: []string{"Nivea", "La Roche-Posay", "Bioderma"},
	}, map[string]string{
		"Козметика": "Health & Beauty > Personal Care > Cosmetics",
		"Лекарства": "Health & Beauty > Health Care > Medicine & Drugs",
	})
}

func newTestExtractor() *Extractor {
	catalog := testCatalog()
	return NewExtractor(catalog, NewBrandMatcher(catalog.Brands), nil, ExtractorConfig{})
}

func newTestPipeline() *Pipeline {
	catalog := testCatalog()
	brands := NewBrandMatcher(catalog.Brands)
	return NewPipeline(
		NewExtractor(catalog, brands, nil, ExtractorConfig{}),
		NewSpecificationValidator(ValidatorConfig{}),
		NewSourceConsistencyChecker(brands, nil, CheckerConfig{}),
		NewCrawlQualityTracker(TrackerConfig{}),
		NewSanitizer(catalog.SiteDomain),
	)
}

func rawPage(t *testing.T, url, html string) *domain.RawPage {
	t.Helper()
	raw, err := domain.NewRawPage(url, html)
	require.NoError(t, err)
	return raw
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string]interface{})}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockPageFetcher is a mock implementation of domain.PageFetcher and PageLoader
type MockPageFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	calls  int
	called []string
}

func NewMockPageFetcher() *MockPageFetcher {
	return &MockPageFetcher{pages: make(map[string]string), errs: make(map[string]error)}
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) (*domain.RawPage, error) {
	m.mu.Lock()
	m.calls++
	m.called = append(m.called, url)
	m.mu.Unlock()
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	html, ok := m.pages[url]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	return domain.NewRawPage(url, html)
}

func (m *MockPageFetcher) Load(ctx context.Context, url string) (*domain.RawPage, error) {
	return m.Fetch(ctx, url)
}

// MockStateStore is an in-memory domain.CrawlStateStore
type MockStateStore struct {
	mu        sync.Mutex
	processed map[string]string
	failed    []domain.FailedURL
	err       error
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{processed: make(map[string]string)}
}

func (m *MockStateStore) IsProcessed(ctx context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.processed[url]
	return ok, nil
}

func (m *MockStateStore) MarkProcessed(ctx context.Context, runID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[url] = runID
	return nil
}

func (m *MockStateStore) MarkFailed(ctx context.Context, runID, url, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[url] = runID
	m.failed = append(m.failed, domain.FailedURL{RunID: runID, URL: url, Reason: reason, FailedAt: time.Now()})
	return nil
}

func (m *MockStateStore) FailedURLs(ctx context.Context, runID string) ([]domain.FailedURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FailedURL
	for _, f := range m.failed {
		if f.RunID == runID {
			out = append(out, f)
		}
	}
	return out, nil
}

// MockSink collects exported products
type MockSink struct {
	mu       sync.Mutex
	products []*domain.CanonicalProduct
	err      error
}

func (m *MockSink) Write(ctx context.Context, product *domain.CanonicalProduct) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, product)
	return nil
}

var errBoom = errors.New("boom")
