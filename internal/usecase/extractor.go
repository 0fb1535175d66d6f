package usecase

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
	"github.com/shelfsync/backend/internal/infrastructure/parser"
)

// EURToBGN is the fixed ERM II conversion rate.
const EURToBGN = 1.95583

var barcodePattern = regexp.MustCompile(`Баркод\s*:\s*(\S+)`)

// ExtractorConfig holds configuration for the extractor
type ExtractorConfig struct {
	EURToBGN float64
}

// Extractor turns one raw page into a canonical product by running every
// source parser and resolving each field along its trust order.
type Extractor struct {
	catalog  Catalog
	brands   *BrandMatcher
	parsers  []parser.Parser
	synth    synthesizer
	eurToBGN float64
	logger   logger.Logger
}

// NewExtractor creates an extractor bound to one catalog.
func NewExtractor(catalog Catalog, brands *BrandMatcher, log logger.Logger, config ExtractorConfig) *Extractor {
	catalog = catalog.withDefaults()
	if brands == nil {
		brands = NewBrandMatcher(catalog.Brands)
	}
	if log == nil {
		log = logger.NewNop()
	}
	rate := config.EURToBGN
	if rate <= 0 {
		rate = EURToBGN
	}
	return &Extractor{
		catalog:  catalog,
		brands:   brands,
		parsers:  parser.Default(brands),
		synth:    synthesizer{catalog: catalog},
		eurToBGN: rate,
		logger:   log,
	}
}

// Extract parses raw and builds its canonical product. The parsed sources
// are returned for consistency checking.
func (e *Extractor) Extract(raw *domain.RawPage) (*domain.CanonicalProduct, *parser.Sources, error) {
	page, err := parser.Load(raw)
	if err != nil {
		return nil, nil, err
	}
	sources := parser.ParseAll(page, e.parsers...)
	sources.Add(clinicalCandidates(sources))

	title, titleSource, _ := titleChain.resolve(sources)
	product, err := domain.NewCanonicalProduct(title, raw.URL)
	if err != nil {
		return nil, sources, fmt.Errorf("failed to build product from %s: %w", raw.URL, err)
	}
	product.ExtractionMethod[domain.FieldTitle] = titleSource

	resolveText(product, sources, domain.FieldSKU, skuChain, &product.SKU)
	resolveText(product, sources, domain.FieldAvailability, availabilityChain, &product.Availability)
	resolveList(product, sources, domain.FieldCategoryPath, categoryChain, &product.CategoryPath)
	resolveList(product, sources, domain.FieldHighlights, highlightsChain, &product.Highlights)
	e.resolveBrand(product, sources)
	e.resolvePrices(product, sources)

	resolveText(product, sources, domain.FieldDetails, detailsChain, &product.Details)
	resolveText(product, sources, domain.FieldComposition, compositionChain, &product.Composition)
	resolveText(product, sources, domain.FieldUsage, usageChain, &product.Usage)
	resolveText(product, sources, domain.FieldContraindications, contraindicationsChain, &product.Contraindications)
	resolveText(product, sources, domain.FieldMoreInfo, moreInfoChain, &product.MoreInfo)
	resolveBarcode(product, sources)

	if grams, source, ok := weightChain.resolve(sources); ok {
		product.WeightGrams = grams
		product.ExtractionMethod[domain.FieldWeight] = source
	}
	if _, source, ok := prescriptionChain.resolve(sources); ok {
		product.Prescription = true
		product.ExtractionMethod[domain.FieldPrescription] = source
	}

	e.resolveImages(product, sources)
	e.synthesize(product)

	e.logger.Debug("Product extracted",
		logger.String("url", product.URL),
		logger.String("title_source", string(titleSource)),
		logger.Int("images", len(product.Images)),
	)
	return product, sources, nil
}

func (e *Extractor) resolveBrand(p *domain.CanonicalProduct, sources *parser.Sources) {
	structured := sources.Set(domain.SourceStructured).Text(domain.FieldBrand)
	tracking := sources.Set(domain.SourceTracking).Text(domain.FieldBrand)
	if brand := e.brands.Match(p.Title, structured, tracking); brand != "" {
		p.Brand = e.brands.CanonicalName(brand)
		switch {
		case structured != "":
			p.ExtractionMethod[domain.FieldBrand] = domain.SourceStructured
		case tracking != "":
			p.ExtractionMethod[domain.FieldBrand] = domain.SourceTracking
		default:
			p.ExtractionMethod[domain.FieldBrand] = domain.SourceDerived
		}
		return
	}
	resolveText(p, sources, domain.FieldBrand, markupBrandChain, &p.Brand)
}

// resolvePrices sets the BGN price and its EUR counterpart from the first
// source carrying a current price. EUR amounts are converted at the peg rate.
func (e *Extractor) resolvePrices(p *domain.CanonicalProduct, sources *parser.Sources) {
	current, source, ok := priceChain.resolve(sources)
	if !ok {
		return
	}
	p.ExtractionMethod[domain.FieldPrice] = source
	if current.Currency == domain.CurrencyEUR {
		p.PriceEUR = formatAmount(current.Amount)
		p.Price = formatAmount(current.Amount * e.eurToBGN)
	} else {
		p.Price = formatAmount(current.Amount)
		if secondary, ok := sources.Set(source).Money(domain.FieldPriceSecondary); ok && secondary.Currency == domain.CurrencyEUR {
			p.PriceEUR = formatAmount(secondary.Amount)
		}
	}

	if original, source, ok := originalPriceChain.resolve(sources); ok {
		amount := original.Amount
		if original.Currency == domain.CurrencyEUR {
			amount *= e.eurToBGN
		}
		p.OriginalPrice = formatAmount(amount)
		p.ExtractionMethod[domain.FieldOriginalPrice] = source
	}
}

// resolveBarcode prefers the barcode printed in the more-info section over
// the structured data GTIN.
func resolveBarcode(p *domain.CanonicalProduct, sources *parser.Sources) {
	if m := barcodePattern.FindStringSubmatch(p.MoreInfo); m != nil {
		p.Barcode = m[1]
		p.ExtractionMethod[domain.FieldBarcode] = domain.SourceSections
		return
	}
	resolveText(p, sources, domain.FieldBarcode, structuredBarcodeChain, &p.Barcode)
}

func (e *Extractor) resolveImages(p *domain.CanonicalProduct, sources *parser.Sources) {
	collector := newImageCollector(e.catalog.SiteDomain)
	collector.add(sources.Set(domain.SourceStructured).Images(domain.FieldImages), true)
	collector.add(sources.Set(domain.SourceMarkup).Images(domain.FieldGalleryImages), false)
	collector.add(sources.Set(domain.SourceMarkup).Images(domain.FieldImages), false)
	if len(collector.images) == 0 {
		return
	}
	p.Images = collector.images
	e.synth.AltTexts(p.Images, p.Title, p.Brand)
	p.ExtractionMethod[domain.FieldImages] = domain.SourceDerived
}

func (e *Extractor) synthesize(p *domain.CanonicalProduct) {
	p.Handle = BuildHandle(p.URL, p.Title)
	p.Tags = append([]string(nil), p.CategoryPath...)
	p.ProductType = first(p.CategoryPath)
	p.GoogleMPN = p.SKU
	p.GoogleProductCategory = e.synth.GoogleCategory(p.CategoryPath)
	p.GoogleAgeGroup = GoogleAgeGroup(p.CategoryPath)
	p.ApplicationForm = ApplicationForm(p.Title)
	p.TargetAudience = TargetAudience(p.CategoryPath, p.Title)
	p.SEOTitle = e.synth.SEOTitle(p.Title, p.Brand, p.CategoryPath)
	p.SEODescription = e.synth.SEODescription(p.Title, p.Brand, p.CategoryPath, p.Details)
	p.Description = e.synth.Description(p)
}

func resolveText(p *domain.CanonicalProduct, sources *parser.Sources, field domain.Field, c chain[string], dst *string) {
	if v, source, ok := c.resolve(sources); ok {
		*dst = v
		p.ExtractionMethod[field] = source
	}
}

func resolveList(p *domain.CanonicalProduct, sources *parser.Sources, field domain.Field, c chain[[]string], dst *[]string) {
	if v, source, ok := c.resolve(sources); ok {
		*dst = append([]string(nil), v...)
		p.ExtractionMethod[field] = source
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
