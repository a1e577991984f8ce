package docpipe

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	reHorizontalSpace = regexp.MustCompile(`[ \t\x{00A0}]+`)
	reBlankLines      = regexp.MustCompile(`\n{3,}`)
)

// extractText splits a plain-text document into pages on form feeds.
// Invalid UTF-8 is read as Windows-1252, the usual encoding of text
// exported from French office suites.
func extractText(data []byte) []string {
	s := string(data)
	if !utf8.Valid(data) {
		if dec, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
			s = string(dec)
		}
	}
	s = strings.TrimPrefix(s, "\ufeff")

	var pages []string
	for _, p := range strings.Split(s, "\f") {
		pages = append(pages, normalizeText(p))
	}
	return pages
}

// normalizeText keeps line structure: it unifies line endings, drops NUL
// bytes, collapses horizontal whitespace and caps blank runs at one line.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(reHorizontalSpace.ReplaceAllString(l, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(reBlankLines.ReplaceAllString(s, "\n\n"))
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > 200 {
		text = string([]rune(text)[:200])
	}
	return text
}
