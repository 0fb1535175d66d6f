package domain

import "strings"

// ProductImage is one image reference of a canonical product, in display order.
type ProductImage struct {
	SourceURL string `json:"source_url"`
	Position  int    `json:"position"`
	AltText   string `json:"alt_text,omitempty"`
}

// CanonicalProduct is the reconciled record produced from one catalog page.
// Prices are kept as decimal strings with two fraction digits, the primary
// currency being BGN and the secondary EUR.
type CanonicalProduct struct {
	// Identifying fields
	Title   string `json:"title"`
	URL     string `json:"url"`
	Brand   string `json:"brand,omitempty"`
	SKU     string `json:"sku,omitempty"`
	Barcode string `json:"barcode,omitempty"`

	// Commercial fields
	Price         string `json:"price,omitempty"`
	PriceEUR      string `json:"price_eur,omitempty"`
	OriginalPrice string `json:"original_price,omitempty"`
	Availability  string `json:"availability,omitempty"`

	// Classification
	CategoryPath          []string `json:"category_path,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
	ProductType           string   `json:"product_type,omitempty"`
	GoogleProductCategory string   `json:"google_product_category,omitempty"`
	GoogleMPN             string   `json:"google_mpn,omitempty"`
	GoogleAgeGroup        string   `json:"google_age_group,omitempty"`
	ApplicationForm       string   `json:"application_form,omitempty"`
	TargetAudience        string   `json:"target_audience,omitempty"`
	Prescription          bool     `json:"prescription,omitempty"`

	// Content sections
	Highlights        []string `json:"highlights,omitempty"`
	Details           string   `json:"details,omitempty"`
	Composition       string   `json:"composition,omitempty"`
	Usage             string   `json:"usage,omitempty"`
	Contraindications string   `json:"contraindications,omitempty"`
	MoreInfo          string   `json:"more_info,omitempty"`
	Description       string   `json:"description,omitempty"`

	Images []ProductImage `json:"images,omitempty"`

	// Synthesized fields
	Handle         string `json:"handle,omitempty"`
	SEOTitle       string `json:"seo_title,omitempty"`
	SEODescription string `json:"seo_description,omitempty"`
	WeightGrams    int    `json:"weight_grams,omitempty"`

	// ExtractionMethod records which source supplied each resolved field
	ExtractionMethod map[Field]Source `json:"extraction_method,omitempty"`
}

// NewCanonicalProduct creates a product with the two fields every record must carry.
func NewCanonicalProduct(title, url string) (*CanonicalProduct, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" {
		return nil, ErrMissingTitle
	}
	if url == "" {
		return nil, ErrMissingURL
	}
	return &CanonicalProduct{
		Title:            title,
		URL:              url,
		ExtractionMethod: make(map[Field]Source),
	}, nil
}

// ImageURLs returns the source URLs of the product images in order.
func (p *CanonicalProduct) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.SourceURL)
	}
	return urls
}
