package parser

import (
	"html"
	"strings"
	"unicode/utf8"
)

const (
	listMinLines      = 3
	listTerminatorPct = 0.6
	headingMaxLength  = 80
)

// TextToHTML renders plain section text as markup. Paragraphs are separated
// by blank lines. A paragraph whose lines mostly end in ';' becomes a list,
// a short single line ending in ':' becomes a heading, and anything else a
// paragraph with its line breaks kept.
func TextToHTML(text string) string {
	text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
	var parts []string

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := nonEmptyLines(para)

		switch {
		case isListParagraph(lines):
			parts = append(parts, "<ul>")
			for _, line := range lines {
				if strings.HasSuffix(line, ":") {
					continue
				}
				if item := strings.TrimSpace(strings.TrimRight(line, ";")); item != "" {
					parts = append(parts, "<li>"+html.EscapeString(item)+"</li>")
				}
			}
			parts = append(parts, "</ul>")
		case len(lines) == 1 && strings.HasSuffix(para, ":") && utf8.RuneCountInString(para) < headingMaxLength:
			parts = append(parts, "<h4>"+html.EscapeString(para)+"</h4>")
		default:
			escaped := make([]string, len(lines))
			for i, line := range lines {
				escaped[i] = html.EscapeString(line)
			}
			parts = append(parts, "<p>"+strings.Join(escaped, "<br>")+"</p>")
		}
	}
	return strings.Join(parts, "\n")
}

func nonEmptyLines(para string) []string {
	var lines []string
	for _, line := range strings.Split(para, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isListParagraph(lines []string) bool {
	if len(lines) < listMinLines {
		return false
	}
	terminated := 0
	for _, line := range lines {
		if strings.HasSuffix(line, ";") {
			terminated++
		}
	}
	return float64(terminated) >= float64(len(lines))*listTerminatorPct
}
