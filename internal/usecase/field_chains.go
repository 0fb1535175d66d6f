package usecase

import (
	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/parser"
)

// link is one step of a field's trust order: the source to read and how to
// read the field from that source's candidates.
type link[T any] struct {
	source domain.Source
	read   func(set *domain.CandidateFieldSet) (T, bool)
}

// chain is a field's trust order, most trusted source first.
type chain[T any] []link[T]

// resolve returns the first non-empty value along the chain and the source
// that supplied it.
func (c chain[T]) resolve(sources *parser.Sources) (T, domain.Source, bool) {
	for _, l := range c {
		if v, ok := l.read(sources.Set(l.source)); ok {
			return v, l.source, true
		}
	}
	var zero T
	return zero, "", false
}

func textLink(source domain.Source, field domain.Field) link[string] {
	return link[string]{source: source, read: func(set *domain.CandidateFieldSet) (string, bool) {
		v := set.Text(field)
		return v, v != ""
	}}
}

func listLink(source domain.Source, field domain.Field) link[[]string] {
	return link[[]string]{source: source, read: func(set *domain.CandidateFieldSet) ([]string, bool) {
		v := set.List(field)
		return v, len(v) > 0
	}}
}

func moneyLink(source domain.Source, field domain.Field) link[domain.Money] {
	return link[domain.Money]{source: source, read: func(set *domain.CandidateFieldSet) (domain.Money, bool) {
		return set.Money(field)
	}}
}

func quantityLink(source domain.Source, field domain.Field) link[int] {
	return link[int]{source: source, read: func(set *domain.CandidateFieldSet) (int, bool) {
		v := set.Quantity(field)
		return v, v > 0
	}}
}

// Per-field trust orders.
var (
	titleChain = chain[string]{
		textLink(domain.SourceStructured, domain.FieldTitle),
		textLink(domain.SourceMarkup, domain.FieldTitle),
		textLink(domain.SourceTracking, domain.FieldTitle),
		textLink(domain.SourceClientState, domain.FieldTitle),
	}
	skuChain = chain[string]{
		textLink(domain.SourceStructured, domain.FieldSKU),
		textLink(domain.SourceTracking, domain.FieldSKU),
		textLink(domain.SourceClientState, domain.FieldSKU),
	}
	markupBrandChain = chain[string]{
		textLink(domain.SourceMarkup, domain.FieldBrand),
	}
	categoryChain = chain[[]string]{
		listLink(domain.SourceStructured, domain.FieldCategoryPath),
		listLink(domain.SourceMarkup, domain.FieldCategoryPath),
		listLink(domain.SourceTracking, domain.FieldCategoryPath),
	}
	availabilityChain = chain[string]{
		textLink(domain.SourceStructured, domain.FieldAvailability),
		textLink(domain.SourceTracking, domain.FieldAvailability),
		textLink(domain.SourceMarkup, domain.FieldAvailability),
	}
	priceChain = chain[domain.Money]{
		moneyLink(domain.SourceClientState, domain.FieldPrice),
		moneyLink(domain.SourceStructured, domain.FieldPrice),
		moneyLink(domain.SourceMarkup, domain.FieldPrice),
	}
	originalPriceChain = chain[domain.Money]{
		moneyLink(domain.SourceClientState, domain.FieldOriginalPrice),
	}
	highlightsChain = chain[[]string]{
		listLink(domain.SourceMarkup, domain.FieldHighlights),
	}
	weightChain = chain[int]{
		quantityLink(domain.SourceMarkup, domain.FieldWeight),
	}
	prescriptionChain = chain[int]{
		quantityLink(domain.SourceMarkup, domain.FieldPrescription),
	}
	structuredBarcodeChain = chain[string]{
		textLink(domain.SourceStructured, domain.FieldBarcode),
	}

	// Content sections: storefront tabs and leaflet chapters first, then the
	// split clinical text, then the structured active ingredient.
	detailsChain = chain[string]{
		textLink(domain.SourceSections, domain.FieldDetails),
		textLink(domain.SourceDerived, domain.FieldDetails),
	}
	compositionChain = chain[string]{
		textLink(domain.SourceSections, domain.FieldComposition),
		textLink(domain.SourceDerived, domain.FieldComposition),
		textLink(domain.SourceStructured, domain.FieldComposition),
	}
	usageChain = chain[string]{
		textLink(domain.SourceSections, domain.FieldUsage),
		textLink(domain.SourceDerived, domain.FieldUsage),
	}
	contraindicationsChain = chain[string]{
		textLink(domain.SourceSections, domain.FieldContraindications),
	}
	moreInfoChain = chain[string]{
		textLink(domain.SourceSections, domain.FieldMoreInfo),
		textLink(domain.SourceDerived, domain.FieldMoreInfo),
	}
)

// clinicalCandidates splits the structured clinical pharmacology text into a
// derived candidate set.
func clinicalCandidates(sources *parser.Sources) *domain.CandidateFieldSet {
	set := domain.NewCandidateFieldSet(domain.SourceDerived)
	split := parser.SplitClinicalText(sources.Set(domain.SourceStructured).Text(domain.FieldClinicalText))
	set.Set(domain.FieldDetails, domain.Text(split.Details))
	set.Set(domain.FieldComposition, domain.Text(split.Composition))
	set.Set(domain.FieldUsage, domain.Text(split.Usage))
	set.Set(domain.FieldMoreInfo, domain.Text(split.MoreInfo))
	return set
}
