package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"github.com/shelfsync/backend/internal/domain"
)

const (
	highlightMinLength = 10
	highlightLimit     = 3
	catalogImagePath   = "/media/catalog/product/"
)

var (
	initialImagesPattern = regexp.MustCompile(`(?s)"initialImages"\s*:\s*(\[.*?\])`)
	priceBGNPattern      = regexp.MustCompile(`(\d+[.,]\d{2})\s*лв`)
	priceEURPattern      = regexp.MustCompile(`(\d+[.,]\d{2})\s*€`)
)

// breadcrumbSelectors are tried in order; the first yielding crumbs wins.
var breadcrumbSelectors = []string{
	"nav.breadcrumbs a",
	"ol.items a",
	MarkupBreadcrumbSelector,
}

// MarkupBreadcrumbSelector matches the generic breadcrumb navigation links.
const MarkupBreadcrumbSelector = ".breadcrumb a, .breadcrumbs a, nav[aria-label='breadcrumb'] a"

// GallerySelector matches the visible product gallery images.
const GallerySelector = ".site-gallery img, .product-gallery img, .gallery img, .product-image img"

var prescriptionPhrases = []string{
	"не може да бъде закупен онлайн",
	"продукти по лекарско предписание",
	"лекарско предписание",
	"само с рецепта",
}

// availabilityPhrases are checked in order against the page text.
var availabilityPhrases = []string{"Няма в наличност", "Ограничена наличност", "В наличност"}

// MarkupParser is the HTML fallback parser. It reads headings, breadcrumb
// navigation, description lists, galleries and attribute tables.
type MarkupParser struct {
	brands domain.BrandResolver
}

// NewMarkupParser creates an HTML parser. brands, when set, supplies a
// title-prefix brand when the markup names none.
func NewMarkupParser(brands domain.BrandResolver) *MarkupParser {
	return &MarkupParser{brands: brands}
}

func (p *MarkupParser) Source() domain.Source { return domain.SourceMarkup }

// Parse extracts every field the markup carries.
func (p *MarkupParser) Parse(page *Page) *domain.CandidateFieldSet {
	set := domain.NewCandidateFieldSet(domain.SourceMarkup)
	doc := page.Doc

	title := Heading(page)
	set.Set(domain.FieldTitle, domain.Text(title))
	set.Set(domain.FieldCategoryPath, domain.List(p.categories(doc, title)))
	set.Set(domain.FieldHighlights, domain.List(highlights(doc)))
	set.Set(domain.FieldImages, domain.Images(initialImages(page.HTML)))
	set.Set(domain.FieldGalleryImages, domain.Images(GalleryImages(page)))
	set.Set(domain.FieldBrand, domain.Text(p.brand(doc, title)))
	set.Set(domain.FieldAvailability, domain.Text(availability(doc, page.Text())))
	set.Set(domain.FieldWeight, domain.Quantity(weight(doc, title)))
	if p.isPrescription(page, set.List(domain.FieldCategoryPath)) {
		set.Set(domain.FieldPrescription, domain.Quantity(1))
	}

	if area := doc.Find(".product-info .product-prices").First(); area.Length() > 0 {
		text := area.Text()
		bgn, hasBGN := matchAmount(priceBGNPattern, text)
		eur, hasEUR := matchAmount(priceEURPattern, text)
		switch {
		case hasBGN:
			set.Set(domain.FieldPrice, domain.Money{Amount: bgn, Currency: domain.CurrencyBGN})
			if hasEUR {
				set.Set(domain.FieldPriceSecondary, domain.Money{Amount: eur, Currency: domain.CurrencyEUR})
			}
		case hasEUR:
			set.Set(domain.FieldPrice, domain.Money{Amount: eur, Currency: domain.CurrencyEUR})
		}
	}
	return set
}

// Heading returns the product heading text.
func Heading(page *Page) string {
	for _, sel := range []string{`h1[itemprop="name"]`, "h1"} {
		if text := cleanText(page.Doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// MarkupBreadcrumbs returns the generic breadcrumb link texts without the
// home label.
func MarkupBreadcrumbs(page *Page) []string {
	return crumbTexts(page.Doc.Find(MarkupBreadcrumbSelector), "")
}

// GalleryImages returns the raw src of every visible gallery image.
func GalleryImages(page *Page) []string {
	var out []string
	page.Doc.Find(GallerySelector).Each(func(_ int, img *goquery.Selection) {
		for _, attr := range []string{"src", "data-src", "data-lazy"} {
			if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
				out = append(out, strings.TrimSpace(src))
				return
			}
		}
	})
	return out
}

func (p *MarkupParser) categories(doc *goquery.Document, title string) []string {
	for _, sel := range breadcrumbSelectors {
		if crumbs := crumbTexts(doc.Find(sel), title); len(crumbs) > 0 {
			return crumbs
		}
	}
	return nil
}

func crumbTexts(links *goquery.Selection, title string) []string {
	var crumbs []string
	links.Each(func(_ int, a *goquery.Selection) {
		text := cleanText(a.Text())
		if text == "" || isHomeLabel(text) || (title != "" && text == title) {
			return
		}
		crumbs = append(crumbs, text)
	})
	return crumbs
}

func highlights(doc *goquery.Document) []string {
	for _, sel := range []string{`div[itemprop="description"] ul li`, ".product-description ul li", ".highlights ul li"} {
		var out []string
		doc.Find(sel).Each(func(_ int, li *goquery.Selection) {
			if text := cleanText(li.Text()); utf8.RuneCountInString(text) > highlightMinLength {
				out = append(out, text)
			}
		})
		if len(out) > 0 {
			if len(out) > highlightLimit {
				out = out[:highlightLimit]
			}
			return out
		}
	}
	return nil
}

// initialImages reads the storefront's initialImages array, preferring the
// medium size entry of each image.
func initialImages(rawHTML string) []string {
	match := initialImagesPattern.FindStringSubmatch(rawHTML)
	if match == nil {
		return nil
	}
	payload := strings.ReplaceAll(match[1], "'", `"`)
	var entries []map[string]any
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		for _, key := range []string{"img", "full", "thumb"} {
			if u := stringValue(e[key]); u != "" {
				if strings.Contains(u, catalogImagePath) {
					out = append(out, u)
				}
				break
			}
		}
	}
	return out
}

func (p *MarkupParser) brand(doc *goquery.Document, title string) string {
	for _, sel := range []string{`[itemprop="brand"]`, ".brand", ".manufacturer"} {
		if text := cleanText(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	if text := attributeValue(doc, "марка", "brand", "производител"); text != "" {
		return text
	}
	if p.brands != nil && title != "" {
		return p.brands.MatchFromTitle(title)
	}
	return ""
}

func availability(doc *goquery.Document, pageText string) string {
	if text := cleanText(doc.Find(`div.stock, .availability, [itemprop="availability"]`).First().Text()); text != "" {
		return text
	}
	for _, phrase := range availabilityPhrases {
		if strings.Contains(pageText, phrase) {
			return phrase
		}
	}
	return ""
}

func weight(doc *goquery.Document, title string) int {
	if value := attributeValue(doc, "тегло", "weight"); value != "" {
		if grams := ParseWeightValue(value); grams > 0 {
			return grams
		}
	}
	desc := doc.Find(`[itemprop="description"]`).First().Text()
	return ParseWeightText(title + " " + desc)
}

// attributeValue returns the value cell of the first attribute table row
// whose label contains one of labels.
func attributeValue(doc *goquery.Document, labels ...string) string {
	var value string
	doc.Find("table.additional-attributes tr, .product-info tr, .additional-info tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return true
		}
		label := strings.ToLower(cleanText(cells.First().Text()))
		for _, l := range labels {
			if strings.Contains(label, l) {
				value = cleanText(cells.Last().Text())
				return false
			}
		}
		return true
	})
	return value
}

func (p *MarkupParser) isPrescription(page *Page, categories []string) bool {
	lower := page.LowerText()
	for _, phrase := range prescriptionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c), "лекарско предписание") {
			return true
		}
	}
	return false
}

func matchAmount(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
