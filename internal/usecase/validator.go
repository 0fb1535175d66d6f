package usecase

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfsync/backend/internal/domain"
)

// Validation limits
const (
	minTitleLength      = 5
	maxTitleLength      = 250
	defaultPriceCeiling = 10000.0
	defaultCurrencyTol  = 0.01
	toleranceEpsilon    = 1e-9
	requiredWeight      = 0.5
	preferredWeight     = 0.3
	contentWeight       = 0.2
)

var (
	handlePattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
	barcodeDigits  = regexp.MustCompile(`^\d{8,14}$`)
	validGTINSizes = map[int]bool{8: true, 12: true, 13: true, 14: true}
)

// DefaultPlaceholderDomains serve stand-in images instead of product photos.
var DefaultPlaceholderDomains = []string{
	"example.com",
	"placeholder.com",
	"dummyimage.com",
	"placehold.it",
	"placekitten.com",
	"lorempixel.com",
	"localhost",
}

// ValidatorConfig holds configuration for the specification validator
type ValidatorConfig struct {
	EURToBGN             float64
	CurrencyTolerance    float64
	PriceCeiling         float64
	TitleMaxLength       int
	DescriptionMaxLength int
	PlaceholderDomains   []string
}

// SpecificationValidator checks a canonical product against the output
// contract. It looks at the record alone, never at how it was extracted.
type SpecificationValidator struct {
	eurToBGN     float64
	tolerance    float64
	priceCeiling float64
	seoTitleMax  int
	seoDescMax   int
	placeholders []string
}

// NewSpecificationValidator creates a validator, applying defaults for
// unset limits.
func NewSpecificationValidator(config ValidatorConfig) *SpecificationValidator {
	v := &SpecificationValidator{
		eurToBGN:     config.EURToBGN,
		tolerance:    config.CurrencyTolerance,
		priceCeiling: config.PriceCeiling,
		seoTitleMax:  config.TitleMaxLength,
		seoDescMax:   config.DescriptionMaxLength,
		placeholders: config.PlaceholderDomains,
	}
	if v.eurToBGN <= 0 {
		v.eurToBGN = EURToBGN
	}
	if v.tolerance <= 0 {
		v.tolerance = defaultCurrencyTol
	}
	if v.priceCeiling <= 0 {
		v.priceCeiling = defaultPriceCeiling
	}
	if v.seoTitleMax <= 0 {
		v.seoTitleMax = defaultTitleMaxLength
	}
	if v.seoDescMax <= 0 {
		v.seoDescMax = defaultDescriptionMaxLength
	}
	if len(v.placeholders) == 0 {
		v.placeholders = DefaultPlaceholderDomains
	}
	return v
}

// Validate returns the errors, warnings and compliance score of p. The
// product is valid exactly when there are no errors.
func (v *SpecificationValidator) Validate(p *domain.CanonicalProduct) *domain.ValidationResult {
	if p == nil {
		p = &domain.CanonicalProduct{}
	}
	var errs, warns []string

	errs = append(errs, checkTitle(p.Title)...)
	errs = append(errs, checkURL(p.URL)...)
	errs = append(errs, v.checkPrice(p.Price)...)
	errs = append(errs, checkPresent(p)...)
	errs = append(errs, checkHandle(p.Handle)...)
	errs = append(errs, v.checkImages(p.Images)...)
	errs = append(errs, v.checkCurrencies(p.Price, p.PriceEUR)...)

	warns = append(warns, checkBarcode(p.Barcode)...)
	if strings.TrimSpace(p.Description) == "" {
		warns = append(warns, "description: empty")
	}
	if n := runeLen(p.SEOTitle); n > v.seoTitleMax {
		warns = append(warns, fmt.Sprintf("seo_title: too long (%d > %d chars)", n, v.seoTitleMax))
	}
	if n := runeLen(p.SEODescription); n > v.seoDescMax {
		warns = append(warns, fmt.Sprintf("seo_description: too long (%d > %d chars)", n, v.seoDescMax))
	}

	result := &domain.ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warns,
		Issues:   append(append([]string{}, errs...), warns...),
	}
	result.FieldChecks, result.Compliance = compliance(p)
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	return result
}

func checkTitle(title string) []string {
	n := runeLen(strings.TrimSpace(title))
	switch {
	case n == 0:
		return []string{"title: empty"}
	case n < minTitleLength:
		return []string{fmt.Sprintf("title: too short (%d < %d chars)", n, minTitleLength)}
	case n > maxTitleLength:
		return []string{fmt.Sprintf("title: too long (%d > %d chars)", n, maxTitleLength)}
	}
	return nil
}

func checkURL(raw string) []string {
	switch {
	case raw == "":
		return []string{"url: missing"}
	case !strings.HasPrefix(raw, "https://"):
		return []string{"url: must use https"}
	}
	return nil
}

func (v *SpecificationValidator) checkPrice(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"price: missing"}
	}
	price, err := strconv.ParseFloat(raw, 64)
	switch {
	case err != nil, !isFinite(price):
		return []string{fmt.Sprintf("price: not a number (%q)", raw)}
	case price <= 0:
		return []string{"price: must be > 0"}
	case price >= v.priceCeiling:
		return []string{fmt.Sprintf("price: suspiciously high (%.2f >= %.0f)", price, v.priceCeiling)}
	}
	return nil
}

func checkPresent(p *domain.CanonicalProduct) []string {
	var errs []string
	if strings.TrimSpace(p.Brand) == "" {
		errs = append(errs, "brand: missing")
	}
	if strings.TrimSpace(p.SKU) == "" {
		errs = append(errs, "sku: missing")
	}
	if len(p.CategoryPath) == 0 {
		errs = append(errs, "category_path: missing")
	}
	return errs
}

func checkHandle(handle string) []string {
	if handle == "" {
		return []string{"handle: missing"}
	}
	var errs []string
	if !handlePattern.MatchString(handle) {
		errs = append(errs, fmt.Sprintf("handle: invalid format (%q)", handle))
	}
	if len(handle) > maxHandleLength {
		errs = append(errs, fmt.Sprintf("handle: too long (%d > %d chars)", len(handle), maxHandleLength))
	}
	return errs
}

func (v *SpecificationValidator) checkImages(images []domain.ProductImage) []string {
	if len(images) == 0 {
		return []string{"images: no images"}
	}
	var errs []string
	for _, img := range images {
		u, err := url.Parse(img.SourceURL)
		if err != nil || u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("images: not https (%s)", img.SourceURL))
			continue
		}
		if host := strings.ToLower(u.Hostname()); v.isPlaceholder(host) {
			errs = append(errs, fmt.Sprintf("images: placeholder domain (%s)", host))
		}
	}
	return errs
}

// isPlaceholder matches the deny-list exactly or as a parent domain.
func (v *SpecificationValidator) isPlaceholder(host string) bool {
	for _, d := range v.placeholders {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// checkCurrencies requires the EUR price, converted at the peg rate, to
// agree with the BGN price within the tolerance.
func (v *SpecificationValidator) checkCurrencies(priceBGN, priceEUR string) []string {
	if priceBGN == "" || priceEUR == "" {
		return nil
	}
	bgn, err1 := strconv.ParseFloat(priceBGN, 64)
	if err1 != nil || !isFinite(bgn) || bgn <= 0 {
		return nil
	}
	eur, err2 := strconv.ParseFloat(priceEUR, 64)
	if err2 != nil || !isFinite(eur) {
		return []string{fmt.Sprintf("price_eur: not a number (%q)", priceEUR)}
	}
	converted := eur * v.eurToBGN
	deviation := math.Abs(converted-bgn) / bgn
	if deviation > v.tolerance+toleranceEpsilon {
		return []string{fmt.Sprintf(
			"price_eur: %s EUR converts to %.2f BGN, price is %.2f BGN (%.1f%% deviation)",
			priceEUR, converted, bgn, deviation*100,
		)}
	}
	return nil
}

// isFinite rejects the NaN and Inf spellings strconv.ParseFloat accepts.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func checkBarcode(barcode string) []string {
	if barcode == "" {
		return nil
	}
	if !barcodeDigits.MatchString(barcode) {
		return []string{fmt.Sprintf("barcode: invalid format (%q)", barcode)}
	}
	if !validGTINSizes[len(barcode)] {
		return []string{fmt.Sprintf("barcode: invalid GTIN length (%d digits)", len(barcode))}
	}
	return nil
}

// compliance scores field coverage. It is reporting only.
func compliance(p *domain.CanonicalProduct) (map[string]map[string]bool, domain.Compliance) {
	checks := map[string]map[string]bool{
		"required": {
			"title": p.Title != "",
			"url":   p.URL != "",
		},
		"preferred": {
			"price":      p.Price != "",
			"brand":      p.Brand != "",
			"sku":        p.SKU != "",
			"images":     len(p.Images) > 0,
			"categories": len(p.CategoryPath) > 0,
		},
		"content": {
			"details":     p.Details != "",
			"composition": p.Composition != "",
			"usage":       p.Usage != "",
		},
	}
	c := domain.Compliance{
		Required:  score(checks["required"]),
		Preferred: score(checks["preferred"]),
		Content:   score(checks["content"]),
	}
	c.Overall = c.Required*requiredWeight + c.Preferred*preferredWeight + c.Content*contentWeight
	return checks, c
}

func score(checks map[string]bool) float64 {
	if len(checks) == 0 {
		return 0
	}
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return float64(passed) / float64(len(checks)) * 100
}
