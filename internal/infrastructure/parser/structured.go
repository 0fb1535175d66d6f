package parser

import (
	"regexp"
	"strings"

	"github.com/shelfsync/backend/internal/domain"
)

var gtinPattern = regexp.MustCompile(`^\d{8,14}$`)

// productTypes are the JSON-LD @type values describing a product page.
var productTypes = []string{"Product", "Drug"}

// gtinKeys are the JSON-LD keys of the GTIN family, in lookup order.
var gtinKeys = []string{"gtin", "gtin13", "gtin8", "gtin12", "gtin14", "ean"}

var availabilityLabels = map[string]string{
	"InStock":             "В наличност",
	"OutOfStock":          "Няма в наличност",
	"LimitedAvailability": "Ограничена наличност",
	"PreOrder":            "Предварителна поръчка",
	"SoldOut":             "Изчерпано",
}

// StructuredDataParser reads schema.org JSON-LD blocks.
type StructuredDataParser struct{}

// NewStructuredDataParser creates a structured data parser.
func NewStructuredDataParser() *StructuredDataParser {
	return &StructuredDataParser{}
}

func (p *StructuredDataParser) Source() domain.Source { return domain.SourceStructured }

// Parse extracts product fields from the first Product or Drug object and
// the category path from the first BreadcrumbList.
func (p *StructuredDataParser) Parse(page *Page) *domain.CandidateFieldSet {
	set := domain.NewCandidateFieldSet(domain.SourceStructured)
	obj := page.JSONLD(productTypes...)
	if obj == nil {
		return set
	}

	title := stringValue(obj["name"])
	set.Set(domain.FieldTitle, domain.Text(title))
	set.Set(domain.FieldBrand, domain.Text(brandName(obj["brand"])))
	set.Set(domain.FieldSKU, domain.Text(stringValue(obj["sku"])))
	set.Set(domain.FieldComposition, domain.Text(stringValue(obj["activeIngredient"])))
	set.Set(domain.FieldClinicalText, domain.Text(stringValue(obj["clinicalPharmacology"])))
	set.Set(domain.FieldImages, domain.Images(imageList(obj["image"])))

	if gtins := ProductGTINs(page); len(gtins) > 0 {
		set.Set(domain.FieldBarcode, domain.Text(gtins[0].Value))
	}

	if offer := firstObject(obj["offers"]); offer != nil {
		if amount, ok := amountValue(offer["price"]); ok {
			currency := strings.ToUpper(stringValue(offer["priceCurrency"]))
			if currency == "" {
				currency = domain.CurrencyEUR
			}
			set.Set(domain.FieldPrice, domain.Money{Amount: amount, Currency: currency})
		}
		set.Set(domain.FieldAvailability, domain.Text(availabilityLabel(stringValue(offer["availability"]))))
	}

	set.Set(domain.FieldCategoryPath, domain.List(Breadcrumbs(page, title)))
	return set
}

// GTIN is one populated GTIN-family key of the product object.
type GTIN struct {
	Key   string
	Value string
}

// ProductGTINs returns every valid GTIN-family value of the product object
// in key order.
func ProductGTINs(page *Page) []GTIN {
	obj := page.JSONLD(productTypes...)
	if obj == nil {
		return nil
	}
	var out []GTIN
	for _, key := range gtinKeys {
		val := stringValue(obj[key])
		if gtinPattern.MatchString(val) {
			out = append(out, GTIN{Key: key, Value: val})
		}
	}
	return out
}

// Breadcrumbs returns the names of the first JSON-LD BreadcrumbList,
// excluding the home label and the product title itself.
func Breadcrumbs(page *Page, title string) []string {
	list := page.JSONLD("BreadcrumbList")
	if list == nil {
		return nil
	}
	items, _ := list["itemListElement"].([]any)
	var crumbs []string
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := stringValue(item["name"])
		if name == "" {
			if nested, ok := item["item"].(map[string]any); ok {
				name = stringValue(nested["name"])
			}
		}
		if name == "" || isHomeLabel(name) || (title != "" && name == title) {
			continue
		}
		crumbs = append(crumbs, name)
	}
	return crumbs
}

// ProductImages returns the raw image list of the product object.
func ProductImages(page *Page) []string {
	obj := page.JSONLD(productTypes...)
	if obj == nil {
		return nil
	}
	return imageList(obj["image"])
}

func brandName(v any) string {
	if obj, ok := v.(map[string]any); ok {
		return stringValue(obj["name"])
	}
	return stringValue(v)
}

// imageList accepts a single URL, a list of URLs or ImageObject entries.
func imageList(v any) []string {
	var out []string
	add := func(item any) {
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := stringValue(t["url"]); s != "" {
				out = append(out, s)
			}
		}
	}
	if list, ok := v.([]any); ok {
		for _, item := range list {
			add(item)
		}
		return out
	}
	add(v)
	return out
}

// availabilityLabel maps a schema.org availability URL to its storefront label.
func availabilityLabel(schemaURL string) string {
	if schemaURL == "" {
		return ""
	}
	key := schemaURL[strings.LastIndex(schemaURL, "/")+1:]
	return availabilityLabels[key]
}
