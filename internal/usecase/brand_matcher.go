package usecase

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxBrandWords is the longest brand name, in words, tried against a title.
const maxBrandWords = 3

// BrandMatcher resolves product titles to known brand names. It is built
// once per catalog and is safe for concurrent use.
type BrandMatcher struct {
	lookup map[string]string // lowercase -> canonical
	count  int
}

// NewBrandMatcher builds a matcher over the given brand names.
func NewBrandMatcher(brands []string) *BrandMatcher {
	m := &BrandMatcher{lookup: make(map[string]string, len(brands))}
	for _, b := range brands {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		key := foldBrand(b)
		if _, ok := m.lookup[key]; !ok {
			m.lookup[key] = b
			m.count++
		}
	}
	return m
}

// Match returns the first non-empty brand among the structured data brand,
// the tracking payload brand and the title prefix match.
func (m *BrandMatcher) Match(title, structuredBrand, trackingBrand string) string {
	if b := strings.TrimSpace(structuredBrand); b != "" {
		return b
	}
	if b := strings.TrimSpace(trackingBrand); b != "" {
		return b
	}
	return m.MatchFromTitle(title)
}

// MatchFromTitle tries the first three, two and one words of the title
// against the known brands and returns the canonical name of the longest
// match, or "" when none matches.
func (m *BrandMatcher) MatchFromTitle(title string) string {
	words := strings.Fields(title)
	for n := maxBrandWords; n >= 1; n-- {
		if len(words) < n {
			continue
		}
		if brand, ok := m.lookup[foldBrand(strings.Join(words[:n], " "))]; ok {
			return brand
		}
	}
	return ""
}

// CanonicalName returns the dictionary spelling of brand, or brand itself
// when it is unknown.
func (m *BrandMatcher) CanonicalName(brand string) string {
	if canonical, ok := m.lookup[foldBrand(brand)]; ok {
		return canonical
	}
	return brand
}

// Count returns the number of distinct known brands.
func (m *BrandMatcher) Count() int {
	return m.count
}

func foldBrand(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
