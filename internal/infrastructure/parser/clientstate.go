package parser

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/shelfsync/backend/internal/domain"
)

// ClientStateParser reads the product payload bound to the storefront's
// add-to-cart component. Prices in that payload are in EUR.
type ClientStateParser struct{}

// NewClientStateParser creates a client rendering state parser.
func NewClientStateParser() *ClientStateParser {
	return &ClientStateParser{}
}

func (p *ClientStateParser) Source() domain.Source { return domain.SourceClientState }

// Parse takes the current price from the first variant's discounted price
// and reports the variant's regular price as the original price when it is
// higher.
func (p *ClientStateParser) Parse(page *Page) *domain.CandidateFieldSet {
	set := domain.NewCandidateFieldSet(domain.SourceClientState)
	state := ClientState(page)
	if state == nil {
		return set
	}

	set.Set(domain.FieldTitle, domain.Text(stringValue(state["name"])))
	set.Set(domain.FieldSKU, domain.Text(stringValue(state["sku"])))

	variant := firstObject(state["variants"])
	if variant == nil {
		return set
	}
	regular, hasRegular := amountValue(variant["price"])
	current, ok := amountValue(variant["discountedPrice"])
	if !ok {
		current, ok = regular, hasRegular
	}
	if !ok {
		return set
	}
	set.Set(domain.FieldPrice, domain.Money{Amount: current, Currency: domain.CurrencyEUR})
	if hasRegular && regular > current {
		set.Set(domain.FieldOriginalPrice, domain.Money{Amount: regular, Currency: domain.CurrencyEUR})
	}
	return set
}

// ClientState decodes the add-to-cart product payload. The attribute value
// is already entity-decoded by the HTML parser. Malformed payloads yield nil.
func ClientState(page *Page) map[string]any {
	raw, ok := page.Doc.Find("add-to-cart").First().Attr(":product")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil
	}
	return state
}
