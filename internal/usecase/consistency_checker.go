package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
	"github.com/shelfsync/backend/internal/infrastructure/parser"
)

var textBarcodePattern = regexp.MustCompile(`(?i)(?:Баркод|EAN|GTIN)\s*:\s*(\d{8,14})`)

// sectionCheck pairs a content section with the header phrases announcing
// it on the page.
type sectionCheck struct {
	name    string
	markers []string
	value   func(p *domain.CanonicalProduct) string
}

var sectionChecks = []sectionCheck{
	{"consistency_section_details", []string{"какво представлява", "описание"},
		func(p *domain.CanonicalProduct) string { return p.Details }},
	{"consistency_section_composition", []string{"активни съставки", "състав"},
		func(p *domain.CanonicalProduct) string { return p.Composition }},
	{"consistency_section_usage", []string{"дозировка и начин на употреба", "начин на употреба"},
		func(p *domain.CanonicalProduct) string { return p.Usage }},
	{"consistency_section_contraindications", []string{"противопоказания"},
		func(p *domain.CanonicalProduct) string { return p.Contraindications }},
}

// CheckerConfig holds configuration for the consistency checker
type CheckerConfig struct {
	EURToBGN          float64
	CurrencyTolerance float64
}

// SourceConsistencyChecker compares pairs of raw page sources that describe
// the same field. Findings are advisory and never block a product.
type SourceConsistencyChecker struct {
	brands    domain.BrandResolver
	eurToBGN  float64
	tolerance float64
	logger    logger.Logger
}

// consistencyInput is what every check sees for one page.
type consistencyInput struct {
	product   *domain.CanonicalProduct
	sources   *parser.Sources
	page      *parser.Page
	pageLower string
}

type consistencyCheck struct {
	name string
	run  func(in *consistencyInput) (domain.ConsistencyFinding, bool)
}

// NewSourceConsistencyChecker creates a checker. brands supplies the title
// prefix match the structured brand is compared with.
func NewSourceConsistencyChecker(brands domain.BrandResolver, log logger.Logger, config CheckerConfig) *SourceConsistencyChecker {
	if log == nil {
		log = logger.NewNop()
	}
	c := &SourceConsistencyChecker{
		brands:    brands,
		eurToBGN:  config.EURToBGN,
		tolerance: config.CurrencyTolerance,
		logger:    log,
	}
	if c.eurToBGN <= 0 {
		c.eurToBGN = EURToBGN
	}
	if c.tolerance <= 0 {
		c.tolerance = defaultCurrencyTol
	}
	return c
}

// Check runs every comparison for one page. A comparison whose sources are
// missing is skipped; one that panics is logged and skipped without
// affecting the others.
func (c *SourceConsistencyChecker) Check(p *domain.CanonicalProduct, sources *parser.Sources) []domain.ConsistencyFinding {
	if p == nil || sources == nil || sources.Page == nil {
		return nil
	}
	in := &consistencyInput{
		product:   p,
		sources:   sources,
		page:      sources.Page,
		pageLower: sources.Page.LowerText(),
	}

	findings := []domain.ConsistencyFinding{}
	for _, check := range c.checks() {
		if f, ok := c.runIsolated(check, in); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func (c *SourceConsistencyChecker) checks() []consistencyCheck {
	checks := []consistencyCheck{
		{"consistency_price", c.checkPrice},
		{"consistency_title", checkTitleAgreement},
		{"consistency_brand", c.checkBrand},
		{"consistency_images", checkImageOverlap},
		{"consistency_category_path", checkCategoryPath},
		{"consistency_promo_logic", checkPromoLogic},
		{"consistency_barcode", checkBarcodeAgreement},
	}
	for _, s := range sectionChecks {
		s := s
		checks = append(checks, consistencyCheck{s.name, func(in *consistencyInput) (domain.ConsistencyFinding, bool) {
			return checkSection(s, in)
		}})
	}
	return checks
}

func (c *SourceConsistencyChecker) runIsolated(check consistencyCheck, in *consistencyInput) (f domain.ConsistencyFinding, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("Consistency check skipped",
				logger.String("check", check.name),
				logger.String("url", in.product.URL),
				logger.Any("panic", r),
			)
			f, ok = domain.ConsistencyFinding{}, false
		}
	}()
	return check.run(in)
}

// checkPrice compares the client state price with the structured data
// price, both in BGN.
func (c *SourceConsistencyChecker) checkPrice(in *consistencyInput) (domain.ConsistencyFinding, bool) {
	client, ok := in.sources.Set(domain.SourceClientState).Money(domain.FieldPrice)
	if !ok {
		return domain.ConsistencyFinding{}, false
	}
	structured, ok := in.sources.Set(domain.SourceStructured).Money(domain.FieldPrice)
	if !ok {
		return domain.ConsistencyFinding{}, false
	}
	clientBGN, structuredBGN := c.toBGN(client), c.toBGN(structured)
	deviation := math.Abs(clientBGN-structuredBGN) / clientBGN
	if deviation <= c.tolerance+toleranceEpsilon {
		return domain.ConsistencyFinding{}, false
	}
	return domain.ConsistencyFinding{
		Check: "consistency_price",
		Message: fmt.Sprintf("client_state=%.2f BGN vs structured_data=%.2f BGN (%.1f%% deviation)",
			clientBGN, structuredBGN, deviation*100),
	}, true
}

func (c *SourceConsistencyChecker) toBGN(m domain.Money) float64 {
	if m.Currency == domain.CurrencyEUR {
		return m.Amount * c.eurToBGN
	}
	return m.Amount
}

// checkTitleAgreement requires the structured name and the heading to
// contain one another.
func checkTitleAgreement(in *consistencyInput) (domain.ConsistencyFinding, bool) {
	name := in.sources.Set(domain.SourceStructured).Text(domain.FieldTitle)
	heading := parser.Heading(in.page)
	if name == "" || heading == "" {
		return domain.ConsistencyFinding{}, false
	}
	n, h := strings.ToLower(name), strings.ToLower(heading)
	if strings.Contains(h, n) || strings.Contains(n, h) {
		return domain.ConsistencyFinding{}, false
	}
	return domain.ConsistencyFinding{
		Check:   "consistency_title",
		Message: fmt.Sprintf("structured_data=%q not substring-match of heading=%q", name, heading),
	}, true
}

func (c *SourceConsistencyChecker) checkBrand(in *consistencyInput) (domain.ConsistencyFinding, bool) {
	structured := in.sources.Set(domain.SourceStructured).Text(domain.FieldBrand)
	if structured == "" || c.brands == nil {
		return domain.ConsistencyFinding{}, false
	}
	fromTitle := c.brands.MatchFromTitle(in.product.Title)
	if fromTitle == "" || strings.EqualFold(structured, fromTitle) {
		return domain.ConsistencyFinding{}, false
	}
	return domain.ConsistencyFinding{
		Check:   "consistency_brand",
		Message: fmt.Sprintf("structured_data=%q vs title-match=%q", structured, fromTitle),
	}, true
}

// checkImageOverlap requires the gallery and the structured image list to
// share at least one product image path.
func checkImageOverlap(in *consistencyInput) (domain.ConsistencyFinding, bool) {
	structured := imagePaths(parser.ProductImages(in.page))
	if len(structured) == 0 {
		return domain.ConsistencyFinding{}, false
	}
	gallery := imagePaths(parser.GalleryImages(in.page))
	if len(gallery) == 0 {
		return domain.ConsistencyFinding{}, false
	}
	for path := range gallery {
		if structured[path] {
			return domain.ConsistencyFinding{}, false
		}
	}
	return domain.ConsistencyFinding{
		Check: "consistency_images",
		Message: fmt.Sprintf("no overlap between gallery (%d URLs) and structured_data images (%d URLs)",
			len(gallery), len(structured)),
	}, true
}

func imagePaths(urls []string) map[string]bool {
	paths := make(map[string]bool)
	for _, u := range urls {
		if m := productImagePath.FindString(u); m != "" {
			paths[m] = true
		}
	}
	return paths
}

// checkCategoryPath compares the structured and markup breadcrumbs as sets.
// The product's own title is not a category on either side.
func checkCategoryPath(in *consistencyInput) (domain.ConsistencyFinding, bool) {
	structured := parser.Breadcrumbs(in.page, in.product.Title)
	if len(structured) == 0 {
		return domain.ConsistencyFinding{}, false
	}
	markup := withoutValue(parser.MarkupBreadcrumbs(in.page), in.product.Title)
	if len(markup) == 0 {
		return domain.ConsistencyFinding{}, false
	}
	if sameSet(structured, markup) {
		return domain.ConsistencyFinding{}, false
	}
	return domain.ConsistencyFinding{
		Check:   "consistency_category_path",
		Message: fmt.Sprintf("structured_data=%v vs html=%v", structured, markup),
	}, true
}

// checkPromoLogic flags an original price that is not above the current one.
func checkPromoLogic(in *consistencyInput) (domain.ConsistencyFinding, bool) {
	p := in.product
	if p.OriginalPrice == "" || p.Price == "" {
		return domain.ConsistencyFinding{}, false
	}
	price, err1 := strconv.ParseFloat(p.Price, 64)
	original, err2 := strconv.ParseFloat(p.OriginalPrice, 64)
	if err1 != nil || err2 != nil || original <= 0 || price < original {
		return domain.ConsistencyFinding{}, false
	}
	return domain.ConsistencyFinding{
		Check: "consistency_promo_logic",
		Message: fmt.Sprintf("price=%.2f >= original_price=%.2f (expected price < original_price)",
			price, original),
	}, true
}

// checkBarcodeAgreement accepts a barcode equal to any populated GTIN key.
// Without GTINs it compares against a barcode printed in the more-info text.
func checkBarcodeAgreement(in *consistencyInput) (domain.ConsistencyFinding, bool) {
	barcode := in.product.Barcode
	if barcode == "" {
		return domain.ConsistencyFinding{}, false
	}
	if gtins := parser.ProductGTINs(in.page); len(gtins) > 0 {
		for _, g := range gtins {
			if g.Value == barcode {
				return domain.ConsistencyFinding{}, false
			}
		}
		return domain.ConsistencyFinding{
			Check:   "consistency_barcode",
			Message: fmt.Sprintf("extracted=%q vs structured_data[%s]=%q", barcode, gtins[0].Key, gtins[0].Value),
		}, true
	}
	if m := textBarcodePattern.FindStringSubmatch(in.product.MoreInfo); m != nil && m[1] != barcode {
		return domain.ConsistencyFinding{
			Check:   "consistency_barcode",
			Message: fmt.Sprintf("extracted=%q vs text-pattern=%q", barcode, m[1]),
		}, true
	}
	return domain.ConsistencyFinding{}, false
}

// checkSection flags a section whose header is on the page while the
// extracted content is empty.
func checkSection(s sectionCheck, in *consistencyInput) (domain.ConsistencyFinding, bool) {
	if s.value(in.product) != "" {
		return domain.ConsistencyFinding{}, false
	}
	for _, marker := range s.markers {
		if strings.Contains(in.pageLower, marker) {
			return domain.ConsistencyFinding{
				Check:   s.name,
				Message: fmt.Sprintf("header '%s' present but content is empty", strings.Join(s.markers, "/")),
			}, true
		}
	}
	return domain.ConsistencyFinding{}, false
}

func withoutValue(items []string, value string) []string {
	out := items[:0:0]
	for _, item := range items {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		if !setA[s] {
			return false
		}
		setB[s] = true
	}
	return len(setA) == len(setB)
}
