package parser

import (
	"regexp"

	"github.com/goccy/go-json"

	"github.com/shelfsync/backend/internal/domain"
)

// trackingPattern captures the dl4Objects array assigned in an inline script.
var trackingPattern = regexp.MustCompile(`(?s)var\s+dl4Objects\s*=\s*(\[.*?\]);`)

// TrackingParser reads the ecommerce tracking payload embedded for the tag
// manager. The payload is located by pattern, not by evaluating script.
type TrackingParser struct{}

// NewTrackingParser creates a tracking payload parser.
func NewTrackingParser() *TrackingParser {
	return &TrackingParser{}
}

func (p *TrackingParser) Source() domain.Source { return domain.SourceTracking }

// Parse uses the first tracking record that names an item, a brand or a price.
func (p *TrackingParser) Parse(page *Page) *domain.CandidateFieldSet {
	set := domain.NewCandidateFieldSet(domain.SourceTracking)
	record := trackingRecord(page.HTML)
	if record == nil {
		return set
	}

	set.Set(domain.FieldTitle, domain.Text(stringValue(record["item_name"])))
	set.Set(domain.FieldBrand, domain.Text(stringValue(record["item_brand"])))
	set.Set(domain.FieldSKU, domain.Text(stringValue(record["item_id"])))
	set.Set(domain.FieldAvailability, domain.Text(stringValue(record["item_stock_status"])))
	if category := stringValue(record["item_category"]); category != "" {
		set.Set(domain.FieldCategoryPath, domain.List{category})
	}
	if amount, ok := amountValue(record["price"]); ok {
		currency := stringValue(record["currency"])
		if currency == "" {
			currency = domain.CurrencyEUR
		}
		set.Set(domain.FieldPrice, domain.Money{Amount: amount, Currency: currency})
	}
	return set
}

func trackingRecord(rawHTML string) map[string]any {
	match := trackingPattern.FindStringSubmatch(rawHTML)
	if match == nil {
		return nil
	}
	var records []any
	if err := json.Unmarshal([]byte(match[1]), &records); err != nil {
		return nil
	}
	for _, r := range records {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if hasValue(obj, "item_name") || hasValue(obj, "item_brand") || hasValue(obj, "price") {
			return obj
		}
	}
	return nil
}

func hasValue(obj map[string]any, key string) bool {
	v, ok := obj[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}
