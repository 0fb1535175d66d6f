package parser

import (
	"strings"
	"unicode"

	"github.com/shelfsync/backend/internal/domain"
)

const (
	tabSectionMaxLength     = 1500
	leafletSectionMaxLength = 3000
	leafletEndSearchOffset  = 50
)

// tabSection maps a storefront tab header to the field it fills.
type tabSection struct {
	field  domain.Field
	header string
}

var tabSections = []tabSection{
	{domain.FieldDetails, "какво представлява"},
	{domain.FieldComposition, "активни съставки"},
	{domain.FieldContraindications, "противопоказания"},
	{domain.FieldUsage, "дозировка и начин на употреба"},
	{domain.FieldMoreInfo, "допълнителна информация"},
}

// tabEndMarker follows the last tab on every product page.
const tabEndMarker = "все още няма ревюта"

var tabNoise = []string{"попитай магистър-фармацевт", "оставете твоето мнение", "бъди първият написал"}

// leafletSection describes a patient leaflet chapter by its opening phrases
// and the phrases that may close it.
type leafletSection struct {
	field domain.Field
	start []string
	end   []string
}

var leafletSections = []leafletSection{
	{domain.FieldDetails, []string{"Какво представлява", "представлява"}, []string{"Какво трябва да знаете", "Какво съдържа"}},
	{domain.FieldComposition, []string{"Какво съдържа", "съдържа"}, []string{"Как да използвате", "Как да приемате"}},
	{domain.FieldUsage, []string{"Как да използвате", "Как да приемате", "Препоръчителна доза"}, []string{"Възможни нежелани", "нежелани реакции", "Как да съхранявате"}},
	{domain.FieldMoreInfo, []string{"Възможни нежелани", "нежелани реакции"}, []string{"Срок на годност", "Притежател"}},
}

// SectionParser extracts long-form content sections from the page text.
// Storefront tabs are read first; patient leaflet chapters fill the
// sections the tabs left empty.
type SectionParser struct{}

// NewSectionParser creates a section text parser.
func NewSectionParser() *SectionParser {
	return &SectionParser{}
}

func (p *SectionParser) Source() domain.Source { return domain.SourceSections }

// Parse fills details, composition, usage, contraindications and more info.
func (p *SectionParser) Parse(page *Page) *domain.CandidateFieldSet {
	set := domain.NewCandidateFieldSet(domain.SourceSections)
	text := newFoldedText(page.Text())

	for _, s := range tabSections {
		set.Set(s.field, domain.Text(extractTab(text, s.header)))
	}
	for _, s := range leafletSections {
		if set.Has(s.field) {
			continue
		}
		set.Set(s.field, domain.Text(extractLeaflet(text, s)))
	}
	return set
}

// extractTab returns the text between a tab header and the next known
// header, with noise phrases cut off.
func extractTab(text *foldedText, header string) string {
	areaStart := text.indexFold("какво представлява", 0)
	if areaStart < 0 {
		areaStart = 0
	}
	start := text.indexFold(header, areaStart)
	if start < 0 {
		return ""
	}
	start += len([]rune(header))

	end := len(text.orig)
	for _, s := range tabSections {
		if s.header == header {
			continue
		}
		if idx := text.indexFold(s.header, start); idx >= 0 && idx < end {
			end = idx
		}
	}
	if idx := text.indexFold(tabEndMarker, start); idx >= 0 && idx < end {
		end = idx
	}

	content := joinLines(string(text.orig[start:end]))
	lower := strings.ToLower(content)
	for _, noise := range tabNoise {
		if idx := strings.Index(lower, noise); idx >= 0 {
			content = strings.TrimSpace(content[:idx])
			lower = strings.ToLower(content)
		}
	}
	return truncateRunes(content, tabSectionMaxLength, "")
}

// extractLeaflet returns a leaflet chapter. The closing phrase is searched
// past the opening one so that a chapter title cannot close itself.
func extractLeaflet(text *foldedText, s leafletSection) string {
	start := -1
	for _, marker := range s.start {
		if idx := text.index(marker, 0); idx >= 0 {
			start = idx
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := len(text.orig)
	for _, marker := range s.end {
		if idx := text.index(marker, start+leafletEndSearchOffset); idx >= 0 && idx < end {
			end = idx
		}
	}
	section := strings.TrimSpace(string(text.orig[start:end]))
	return truncateRunes(section, leafletSectionMaxLength, "...")
}

// ClinicalSections is a clinical pharmacology text split by its headings.
type ClinicalSections struct {
	Details     string
	Composition string
	Usage       string
	MoreInfo    string
}

const (
	clinicalUsage       = "Приложение:"
	clinicalPrecautions = "Предпазни мерки:"
	clinicalPackaging   = "Вид на опаковката:"
	clinicalPreviewLen  = 500
)

// clinicalIngredient spellings: the vendor's feed mixes Latin "o" into the
// Cyrillic heading.
var clinicalIngredient = []string{"Активнo веществo:", "Активно вещество:"}

// SplitClinicalText splits a clinical pharmacology blob into sections.
func SplitClinicalText(text string) ClinicalSections {
	var out ClinicalSections
	text = strings.TrimSpace(text)
	if text == "" {
		return out
	}

	if head, tail, ok := strings.Cut(text, clinicalUsage); ok {
		out.Details = strings.TrimSpace(head)
		usage := tail
		for _, marker := range append([]string{clinicalPrecautions}, clinicalIngredient...) {
			usage, _, _ = strings.Cut(usage, marker)
		}
		out.Usage = strings.TrimSpace(usage)
	} else {
		out.Details = truncateRunes(text, clinicalPreviewLen, "")
	}

	for _, marker := range clinicalIngredient {
		if _, tail, ok := strings.Cut(text, marker); ok {
			composition, _, _ := strings.Cut(tail, clinicalPrecautions)
			composition, _, _ = strings.Cut(composition, clinicalPackaging)
			out.Composition = strings.TrimSpace(composition)
			break
		}
	}

	if _, tail, ok := strings.Cut(text, clinicalPrecautions); ok {
		warnings, _, _ := strings.Cut(tail, clinicalPackaging)
		out.MoreInfo = strings.TrimSpace(warnings)
	} else if _, tail, ok := strings.Cut(text, clinicalPackaging); ok {
		out.MoreInfo = strings.TrimSpace(tail)
	}
	return out
}

// foldedText keeps a text and its lowercase form rune-aligned so that an
// index found in one is valid in the other.
type foldedText struct {
	orig  []rune
	lower []rune
}

func newFoldedText(s string) *foldedText {
	return &foldedText{orig: []rune(s), lower: []rune(strings.Map(unicode.ToLower, s))}
}

func (t *foldedText) index(needle string, from int) int {
	return runeIndex(t.orig, []rune(needle), from)
}

func (t *foldedText) indexFold(needle string, from int) int {
	return runeIndex(t.lower, []rune(strings.ToLower(needle)), from)
}

func runeIndex(hay, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 || from > len(hay) {
		return -1
	}
	idx := strings.Index(string(hay[from:]), string(needle))
	if idx < 0 {
		return -1
	}
	return from + len([]rune(string(hay[from:])[:idx]))
}

func joinLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, max int, ellipsis string) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + ellipsis
}
