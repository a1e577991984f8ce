package docpipe

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExtractionQuality describes how much usable text a PDF yielded.
type ExtractionQuality struct {
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	WordlikeRatio   float64 `json:"wordlike_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
	AnnexRefCount   int     `json:"annex_ref_count"`
}

// NeedsOCR reports whether the PDF is most likely a scan: almost no text
// next to embedded images, or text made of undecodable glyphs.
func (q *ExtractionQuality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// HasAnnexGap reports whether the lease points to annexes (plans, état des
// lieux, diagnostics) while the file carries images, i.e. annexes were
// probably scanned in and their content is missing from the text.
func (q *ExtractionQuality) HasAnnexGap() bool {
	return q.AnnexRefCount > 0 && q.HasImageStreams
}

// measureQuality computes the metrics over the extracted pages.
func measureQuality(pages []string, hasImages bool) *ExtractionQuality {
	var nonEmpty []string
	chars := 0
	for _, p := range pages {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
			chars += utf8.RuneCountInString(p)
		}
	}
	full := strings.Join(nonEmpty, "\n\n")

	q := &ExtractionQuality{
		PageCount:       len(pages),
		PrintableRatio:  printableRatio(full),
		WordlikeRatio:   wordlikeRatio(full),
		HasImageStreams: hasImages,
		AnnexRefCount:   countAnnexRefs(full),
	}
	if len(pages) > 0 {
		q.CharsPerPage = float64(chars) / float64(len(pages))
	}
	return q
}

// printableRatio is the share of runes that are printable. Private-use
// glyphs, U+FFFD and control characters other than line breaks and tabs
// count as garbage; they are what CID fonts without a ToUnicode map decode to.
func printableRatio(text string) float64 {
	total, ok := 0, 0
	for _, r := range text {
		total++
		switch {
		case r == '\n', r == '\r', r == '\t':
			ok++
		case r < 0x20, r == utf8.RuneError, r >= 0xE000 && r <= 0xF8FF:
		case unicode.IsPrint(r):
			ok++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(ok) / float64(total)
}

// wordlikeRatio is the share of whitespace-separated tokens of 2 to 15
// runes. Text extracted glyph by glyph scores low.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	n := 0
	for _, f := range fields {
		if l := utf8.RuneCountInString(f); l >= 2 && l <= 15 {
			n++
		}
	}
	return float64(n) / float64(len(fields))
}

var annexRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bannexe(?:s)?\s*(?:n[°o]\s*)?\d+`),
	regexp.MustCompile(`(?i)\b(?:ci-annexée?s?|annexée?s?\s+aux\s+présentes)`),
	regexp.MustCompile(`(?i)(?:plan|état des lieux|diagnostics?|tableau)\s+(?:ci-joint|joint|annexé)`),
}

// countAnnexRefs counts references to annexed documents.
func countAnnexRefs(text string) int {
	n := 0
	for _, re := range annexRefPatterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}
