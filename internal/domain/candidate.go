package domain

import "strings"

// Source names the raw page representation a candidate value came from.
type Source string

const (
	SourceStructured  Source = "structured_data"
	SourceTracking    Source = "tracking"
	SourceClientState Source = "client_state"
	SourceMarkup      Source = "html"
	SourceSections    Source = "sections"
	SourceDerived     Source = "derived"
)

// Field is a logical product field name shared by all parsers.
type Field string

const (
	FieldTitle             Field = "title"
	FieldBrand             Field = "brand"
	FieldSKU               Field = "sku"
	FieldBarcode           Field = "barcode"
	FieldPrice             Field = "price"
	FieldPriceSecondary    Field = "price_secondary"
	FieldOriginalPrice     Field = "original_price"
	FieldAvailability      Field = "availability"
	FieldCategoryPath      Field = "category_path"
	FieldImages            Field = "images"
	FieldGalleryImages     Field = "gallery_images"
	FieldHighlights        Field = "highlights"
	FieldDetails           Field = "details"
	FieldComposition       Field = "composition"
	FieldUsage             Field = "usage"
	FieldContraindications Field = "contraindications"
	FieldMoreInfo          Field = "more_info"
	FieldClinicalText      Field = "clinical_text"
	FieldWeight            Field = "weight"
	FieldPrescription      Field = "prescription"
)

// Currency codes used by money candidates.
const (
	CurrencyBGN = "BGN"
	CurrencyEUR = "EUR"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	KindText ValueKind = iota
	KindMoney
	KindList
	KindImages
	KindQuantity
)

// Value is a candidate field value. The set of implementations is closed:
// Text, Money, List, Images and Quantity.
type Value interface {
	Kind() ValueKind
	IsEmpty() bool
	isValue()
}

// Text is a single string candidate.
type Text string

func (Text) Kind() ValueKind { return KindText }
func (t Text) IsEmpty() bool { return strings.TrimSpace(string(t)) == "" }
func (Text) isValue()         {}

// Money is an amount in a named currency.
type Money struct {
	Amount   float64
	Currency string
}

func (Money) Kind() ValueKind { return KindMoney }
func (m Money) IsEmpty() bool { return m.Amount <= 0 }
func (Money) isValue()         {}

// List is an ordered list of strings such as a breadcrumb path.
type List []string

func (List) Kind() ValueKind { return KindList }
func (l List) IsEmpty() bool { return len(l) == 0 }
func (List) isValue()         {}

// Images is an ordered list of image URLs.
type Images []string

func (Images) Kind() ValueKind { return KindImages }
func (i Images) IsEmpty() bool { return len(i) == 0 }
func (Images) isValue()         {}

// Quantity is an integer measure, grams for weight and 0/1 for flags.
type Quantity int

func (Quantity) Kind() ValueKind { return KindQuantity }
func (q Quantity) IsEmpty() bool { return q <= 0 }
func (Quantity) isValue()         {}

// CandidateFieldSet holds the values one parser found on one page.
// Empty values are never stored, so presence means usable data.
type CandidateFieldSet struct {
	Source Source
	values map[Field]Value
}

// NewCandidateFieldSet creates an empty set tagged with its source.
func NewCandidateFieldSet(source Source) *CandidateFieldSet {
	return &CandidateFieldSet{Source: source, values: make(map[Field]Value)}
}

// Set stores v under f unless v is empty.
func (c *CandidateFieldSet) Set(f Field, v Value) {
	if v == nil || v.IsEmpty() {
		return
	}
	c.values[f] = v
}

// Get returns the value stored under f.
func (c *CandidateFieldSet) Get(f Field) (Value, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[f]
	return v, ok
}

// Has reports whether f carries a value.
func (c *CandidateFieldSet) Has(f Field) bool {
	_, ok := c.Get(f)
	return ok
}

// Len returns the number of populated fields.
func (c *CandidateFieldSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// Text returns the string stored under f, or "" when absent or of another kind.
func (c *CandidateFieldSet) Text(f Field) string {
	v, ok := c.Get(f)
	if !ok {
		return ""
	}
	if t, ok := v.(Text); ok {
		return strings.TrimSpace(string(t))
	}
	return ""
}

// Money returns the amount stored under f.
func (c *CandidateFieldSet) Money(f Field) (Money, bool) {
	v, ok := c.Get(f)
	if !ok {
		return Money{}, false
	}
	m, ok := v.(Money)
	return m, ok
}

// List returns the string list stored under f.
func (c *CandidateFieldSet) List(f Field) []string {
	v, ok := c.Get(f)
	if !ok {
		return nil
	}
	if l, ok := v.(List); ok {
		return l
	}
	return nil
}

// Images returns the image URLs stored under f.
func (c *CandidateFieldSet) Images(f Field) []string {
	v, ok := c.Get(f)
	if !ok {
		return nil
	}
	if i, ok := v.(Images); ok {
		return i
	}
	return nil
}

// Quantity returns the integer measure stored under f, 0 when absent.
func (c *CandidateFieldSet) Quantity(f Field) int {
	v, ok := c.Get(f)
	if !ok {
		return 0
	}
	if q, ok := v.(Quantity); ok {
		return int(q)
	}
	return 0
}
