package usecase

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/parser"
)

var sentenceEnd = regexp.MustCompile(`[.!?]`)

// formKeyword is an application form marker. Stem keywords only need a word
// start, so "пластир" also matches "пластири".
type formKeyword struct {
	keyword string
	label   string
	stem    bool
}

// applicationForms are ordered from most specific to most generic.
var applicationForms = []formKeyword{
	{"таблетки", "Таблетки", false},
	{"капсули", "Капсули", false},
	{"сашета", "Сашета", false},
	{"саше", "Сашета", true},
	{"пастили", "Пастили", false},
	{"драже", "Драже", false},
	{"крем", "Крем", false},
	{"мехлем", "Мехлем", false},
	{"гел", "Гел", false},
	{"маска", "Маска", false},
	{"серум", "Серум", false},
	{"лосион", "Лосион", false},
	{"балсам", "Балсам", false},
	{"пяна", "Пяна", false},
	{"тоник", "Тоник", false},
	{"паста", "Паста", false},
	{"пудра", "Пудра", false},
	{"спрей", "Спрей", false},
	{"капки", "Капки", false},
	{"разтвор", "Разтвор", false},
	{"сироп", "Сироп", false},
	{"суспензия", "Суспензия", false},
	{"олио", "Олио", false},
	{"масло", "Масло", false},
	{"шампоан", "Шампоан", false},
	{"пластир", "Пластири", true},
	{"супозитори", "Супозитории", true},
}

var (
	babyKeywords    = []string{"бебе", "бебета", "бебешк", "новородено", "кърмач"}
	childKeywords   = []string{"дете", "деца", "детск"}
	kidsAgeKeywords = []string{"дете", "бебе", "деца", "бебета", "детски", "бебешки"}
)

var (
	descriptionSections = []struct {
		label string
		field func(p *domain.CanonicalProduct) string
	}{
		{"Описание", func(p *domain.CanonicalProduct) string { return p.Details }},
		{"Състав", func(p *domain.CanonicalProduct) string { return p.Composition }},
		{"Начин на употреба", func(p *domain.CanonicalProduct) string { return p.Usage }},
		{"Противопоказания", func(p *domain.CanonicalProduct) string { return p.Contraindications }},
		{"Допълнителна информация", func(p *domain.CanonicalProduct) string { return p.MoreInfo }},
	}
)

// Audience labels
const (
	AudienceBabies = "Бебета"
	AudienceKids   = "Деца"
	AudienceAdults = "Възрастни"
)

// Google Shopping age groups
const (
	AgeGroupKids  = "kids"
	AgeGroupAdult = "adult"
)

// synthesizer derives the fields no page source provides directly.
type synthesizer struct {
	catalog Catalog
}

// SEOTitle tries progressively shorter templates until one fits the budget:
// brand, product and category; brand and product; product; truncated product.
func (s synthesizer) SEOTitle(title, brand string, categories []string) string {
	if title == "" {
		return ""
	}
	maxLen := s.catalog.TitleMaxLength
	suffix := " | " + s.catalog.StoreName
	display := stripBrandPrefix(title, brand)
	category := first(categories)

	var candidates []string
	if brand != "" && category != "" {
		candidates = append(candidates, fmt.Sprintf("%s %s - %s%s", brand, display, category, suffix))
	}
	if brand != "" {
		candidates = append(candidates, fmt.Sprintf("%s %s%s", brand, display, suffix))
	}
	candidates = append(candidates, title+suffix)
	if c, ok := firstFitting(candidates, maxLen); ok {
		return c
	}

	if available := maxLen - runeLen(suffix) - 3; available > 0 {
		return truncate(title, available) + "..." + suffix
	}
	return truncate(title, maxLen)
}

// SEODescription builds "Купете <product>. <benefit>. <call to action>" and
// drops the benefit sentence, then the call to action, when over budget.
func (s synthesizer) SEODescription(title, brand string, categories []string, details string) string {
	maxLen := s.catalog.DescriptionMaxLength
	store := s.catalog.StoreName
	product := brandedName(title, brand)

	var benefit string
	if details != "" {
		benefit = strings.TrimSpace(sentenceEnd.Split(details, 2)[0])
	}
	cta := fmt.Sprintf("Поръчайте на %s.", store)
	if category := first(categories); category != "" {
		cta = fmt.Sprintf("Поръчайте в %s на %s.", category, store)
	}

	var candidates []string
	if benefit != "" {
		candidates = append(candidates, fmt.Sprintf("Купете %s. %s. %s", product, benefit, cta))
	}
	candidates = append(candidates,
		fmt.Sprintf("Купете %s. %s", product, cta),
		fmt.Sprintf("Купете %s.", product),
	)
	if c, ok := firstFitting(candidates, maxLen); ok {
		return c
	}
	return truncate(candidates[len(candidates)-1], maxLen)
}

// AltTexts sets positional alt texts: "Brand Product" for a single image,
// "Brand Product - Снимка i от n" otherwise.
func (s synthesizer) AltTexts(images []domain.ProductImage, title, brand string) {
	maxLen := s.catalog.AltTextMaxLength
	base := brandedName(title, brand)
	total := len(images)
	for i := range images {
		if total == 1 {
			images[i].AltText = truncate(base, maxLen)
			continue
		}
		position := fmt.Sprintf(" - Снимка %d от %d", images[i].Position, total)
		if available := maxLen - runeLen(position); available > 0 {
			images[i].AltText = truncate(base, available) + position
		} else {
			images[i].AltText = truncate(base, maxLen)
		}
	}
}

// GoogleCategory maps the category path onto the Google taxonomy: exact
// key match first, then a category starting with a key, else the default.
func (s synthesizer) GoogleCategory(categories []string) string {
	for _, cat := range categories {
		for _, m := range s.catalog.CategoryMap {
			if cat == m.Category {
				return m.GoogleCategory
			}
		}
		lower := strings.ToLower(cat)
		for _, m := range s.catalog.CategoryMap {
			if strings.HasPrefix(lower, strings.ToLower(m.Category)) {
				return m.GoogleCategory
			}
		}
	}
	return s.catalog.DefaultGoogleCategory
}

// Description renders the product body: brand line, highlight list and one
// headed block per content section.
func (s synthesizer) Description(p *domain.CanonicalProduct) string {
	var parts []string
	if p.Brand != "" {
		parts = append(parts, "<p><strong>Марка:</strong> "+html.EscapeString(p.Brand)+"</p>")
	}
	if len(p.Highlights) > 0 {
		parts = append(parts, "<ul>")
		for _, h := range p.Highlights {
			parts = append(parts, "<li>"+html.EscapeString(h)+"</li>")
		}
		parts = append(parts, "</ul>")
	}
	for _, section := range descriptionSections {
		content := section.field(p)
		if content == "" {
			continue
		}
		parts = append(parts, "<h3>"+section.label+"</h3>")
		if rendered := parser.TextToHTML(content); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return strings.Join(parts, "\n")
}

// ApplicationForm returns the pharmaceutical form named in the title.
func ApplicationForm(title string) string {
	lower := strings.ToLower(title)
	for _, f := range applicationForms {
		if containsWord(lower, f.keyword, f.stem) {
			return f.label
		}
	}
	return ""
}

// TargetAudience classifies babies over kids over adults.
func TargetAudience(categories []string, title string) string {
	text := strings.ToLower(strings.Join(categories, " ") + " " + title)
	if containsAny(text, babyKeywords) {
		return AudienceBabies
	}
	if containsAny(text, childKeywords) {
		return AudienceKids
	}
	return AudienceAdults
}

// GoogleAgeGroup returns "kids" for child or baby categories, else "adult".
func GoogleAgeGroup(categories []string) string {
	if containsAny(strings.ToLower(strings.Join(categories, " ")), kidsAgeKeywords) {
		return AgeGroupKids
	}
	return AgeGroupAdult
}

// containsWord finds keyword at a word start; unless stem is set it must
// also end at a word end.
func containsWord(text, keyword string, stem bool) bool {
	from := 0
	for {
		idx := strings.Index(text[from:], keyword)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(keyword)
		if wordStart(text, start) && (stem || wordEnd(text, end)) {
			return true
		}
		from = end
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// stripBrandPrefix removes a leading brand from the title for templates that
// print the brand separately.
func stripBrandPrefix(title, brand string) string {
	if brand == "" || !hasFoldPrefix(title, brand) {
		return title
	}
	rest := string([]rune(title)[runeLen(brand):])
	return strings.TrimLeft(rest, " -–—")
}

// brandedName prefixes the brand unless the title already starts with it.
func brandedName(title, brand string) string {
	if brand == "" || hasFoldPrefix(title, brand) {
		return title
	}
	return brand + " " + title
}

func hasFoldPrefix(s, prefix string) bool {
	r := []rune(s)
	n := runeLen(prefix)
	return len(r) >= n && strings.EqualFold(string(r[:n]), prefix)
}

func firstFitting(candidates []string, maxLen int) (string, bool) {
	for _, c := range candidates {
		if runeLen(c) <= maxLen {
			return c, true
		}
	}
	return "", false
}

func first(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
