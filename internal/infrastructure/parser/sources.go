package parser

import "github.com/shelfsync/backend/internal/domain"

// Parser extracts candidate fields from one raw representation of a page.
type Parser interface {
	Source() domain.Source
	Parse(page *Page) *domain.CandidateFieldSet
}

// Sources holds the candidate sets of every parser for one page, together
// with the page they were read from.
type Sources struct {
	Page *Page
	sets map[domain.Source]*domain.CandidateFieldSet
}

// ParseAll runs each parser over page. Parsers are independent of each other.
func ParseAll(page *Page, parsers ...Parser) *Sources {
	s := &Sources{Page: page, sets: make(map[domain.Source]*domain.CandidateFieldSet, len(parsers))}
	for _, p := range parsers {
		s.sets[p.Source()] = p.Parse(page)
	}
	return s
}

// Set returns the candidates of source, or an empty set when that parser
// did not run.
func (s *Sources) Set(source domain.Source) *domain.CandidateFieldSet {
	if set, ok := s.sets[source]; ok && set != nil {
		return set
	}
	return domain.NewCandidateFieldSet(source)
}

// Add attaches a candidate set computed outside the parser battery,
// replacing any set of the same source.
func (s *Sources) Add(set *domain.CandidateFieldSet) {
	if set == nil {
		return
	}
	s.sets[set.Source] = set
}

// Default returns the standard parser battery for the vendor site.
func Default(brands domain.BrandResolver) []Parser {
	return []Parser{
		NewStructuredDataParser(),
		NewTrackingParser(),
		NewClientStateParser(),
		NewMarkupParser(brands),
		NewSectionParser(),
	}
}
