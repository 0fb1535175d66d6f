package usecase

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/shelfsync/backend/internal/domain"
)

// maxHandleLength is the storefront limit for URL handles.
const maxHandleLength = 200

var (
	handleInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedHyphens    = regexp.MustCompile(`-+`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// bulgarianLatin is the streamlined Bulgarian transliteration of lowercase
// Cyrillic letters.
var bulgarianLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l",
	'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s",
	'т': "t", 'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sht", 'ъ': "a", 'ь': "", 'ю': "yu", 'я': "ya",
}

// Transliterate converts Bulgarian Cyrillic letters to Latin, keeping the
// case of the first letter of each replacement.
func Transliterate(s string) string {
	var b strings.Builder
	for _, r := range s {
		latin, ok := bulgarianLatin[unicode.ToLower(r)]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if unicode.IsUpper(r) && latin != "" {
			first, size := utf8.DecodeRuneInString(latin)
			latin = string(unicode.ToUpper(first)) + latin[size:]
		}
		b.WriteString(latin)
	}
	return b.String()
}

// GenerateHandle builds a URL handle from a title: lowercased, transliterated,
// with separators turned into single hyphens and other symbols dropped.
func GenerateHandle(title, prefix string) string {
	folded := stripDiacritics(Transliterate(strings.ToLower(prefix + title)))
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	handle := repeatedHyphens.ReplaceAllString(b.String(), "-")
	return strings.Trim(handle, "-")
}

// HandleFromURL derives a handle from the last path segment of a page URL.
// It returns "" when the URL yields nothing usable.
func HandleFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	slug := segments[len(segments)-1]
	if slug == "" {
		return ""
	}
	slug = stripDiacritics(Transliterate(strings.ToLower(slug)))
	slug = handleInvalidChars.ReplaceAllString(slug, "-")
	slug = repeatedHyphens.ReplaceAllString(slug, "-")
	return truncateHandle(strings.Trim(slug, "-"))
}

// BuildHandle prefers the URL slug, which stays unique when several pages
// share a title, and falls back to the transliterated title.
func BuildHandle(pageURL, title string) string {
	if h := HandleFromURL(pageURL); h != "" {
		return h
	}
	return truncateHandle(GenerateHandle(title, ""))
}

func truncateHandle(h string) string {
	if len(h) > maxHandleLength {
		return strings.TrimRight(h[:maxHandleLength], "-")
	}
	return h
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Sanitizer removes references to the source site from customer-facing text.
type Sanitizer struct {
	domain  string
	name    string
	siteURL *regexp.Regexp
}

// NewSanitizer creates a sanitizer for siteDomain, e.g. "benu.bg".
func NewSanitizer(siteDomain string) *Sanitizer {
	siteDomain = strings.TrimSpace(siteDomain)
	name, _, _ := strings.Cut(siteDomain, ".")
	return &Sanitizer{
		domain:  siteDomain,
		name:    name,
		siteURL: regexp.MustCompile(`https?://\S*` + regexp.QuoteMeta(siteDomain) + `\S*`),
	}
}

// RemoveSourceReferences strips site URLs, the site domain and the bare site
// name from text and collapses whitespace.
func (s *Sanitizer) RemoveSourceReferences(text string) string {
	if text == "" || s.domain == "" {
		return text
	}
	text = s.siteURL.ReplaceAllString(text, "")
	text = removeWord(text, s.domain)
	if s.name != "" {
		text = removeWord(text, s.name)
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// SanitizeProduct cleans the customer-facing text fields of p in place.
func (s *Sanitizer) SanitizeProduct(p *domain.CanonicalProduct) {
	p.Title = s.RemoveSourceReferences(p.Title)
	p.Description = s.RemoveSourceReferences(p.Description)
	p.SEOTitle = s.RemoveSourceReferences(p.SEOTitle)
	p.SEODescription = s.RemoveSourceReferences(p.SEODescription)
}

// removeWord deletes every case-insensitive whole-word occurrence of word.
func removeWord(text, word string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word))
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if !isWholeWord(text, loc[0], loc[1]) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// isWholeWord reports whether text[start:end] is not adjacent to a letter,
// digit or underscore. Unlike regexp's \b it treats Cyrillic as word runes.
func isWholeWord(text string, start, end int) bool {
	return wordStart(text, start) && wordEnd(text, end)
}

func wordStart(text string, start int) bool {
	if start == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:start])
	return !isWordRune(r)
}

func wordEnd(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
