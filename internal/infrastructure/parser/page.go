// Package parser turns one fetched catalog page into per-source candidate
// field sets. Every parser reads a single raw representation of the page and
// returns empty values instead of failing when that representation is absent.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/shelfsync/backend/internal/domain"
)

// homeLabels are breadcrumb entries that never count as categories.
var homeLabels = map[string]bool{"начало": true, "home": true}

// Page is a parsed RawPage shared by all parsers of one extraction.
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document

	text   string
	jsonLD []map[string]any
}

// Load parses the HTML of raw once and discovers its embedded JSON-LD blocks.
func Load(raw *domain.RawPage) (*Page, error) {
	if raw == nil || strings.TrimSpace(raw.HTML) == "" {
		return nil, domain.ErrEmptyPage
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", raw.URL, err)
	}

	p := &Page{URL: raw.URL, HTML: raw.HTML, Doc: doc}
	p.text = nodeText(doc.Selection)
	p.jsonLD = discoverJSONLD(doc)
	return p, nil
}

// Text returns the visible page text with one text node per line.
func (p *Page) Text() string {
	return p.text
}

// LowerText returns Text lowercased.
func (p *Page) LowerText() string {
	return strings.ToLower(p.text)
}

// JSONLD returns the first embedded JSON-LD object whose @type is one of types.
func (p *Page) JSONLD(types ...string) map[string]any {
	for _, obj := range p.jsonLD {
		t, _ := obj["@type"].(string)
		for _, want := range types {
			if t == want {
				return obj
			}
		}
	}
	return nil
}

// discoverJSONLD collects every object found in ld+json scripts. A script
// may hold a single object or an array of objects.
func discoverJSONLD(doc *goquery.Document) []map[string]any {
	var objects []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		body := strings.TrimSpace(s.Text())
		if body == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			return
		}
		switch v := data.(type) {
		case map[string]any:
			objects = append(objects, v)
		case []any:
			for _, item := range v {
				if obj, ok := item.(map[string]any); ok {
					objects = append(objects, obj)
				}
			}
		}
	})
	return objects
}

// nodeText joins the text nodes under sel with newlines, skipping script
// and style content.
func nodeText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// cleanText collapses whitespace and normalizes to NFC.
func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// stringValue renders a loosely typed JSON scalar as trimmed text.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// amountValue parses a JSON price that may be a number or a string with a
// decimal comma.
func amountValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, t > 0
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, f > 0
	default:
		return 0, false
	}
}

// firstObject returns v when it is an object, or the first object of v when
// it is an array.
func firstObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		if len(t) == 0 {
			return nil
		}
		obj, _ := t[0].(map[string]any)
		return obj
	}
	return nil
}

func isHomeLabel(s string) bool {
	return homeLabels[strings.ToLower(strings.TrimSpace(s))]
}
