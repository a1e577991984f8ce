package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// tjSpaceThreshold is the TJ displacement (thousandths of an em) beyond
// which a gap is rendered as a word break.
const tjSpaceThreshold = -200

// extractPDF returns the text of every page (empty strings included, so the
// slice length is the page count) and quality metrics for the whole file.
func extractPDF(ctx context.Context, data []byte) ([]string, *ExtractionQuality, error) {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := make([]string, 0, pctx.PageCount)
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		pages = append(pages, extractPageText(pctx, pageNr))
	}
	quality := measureQuality(pages, detectImageStreams(pctx))
	return pages, quality, nil
}

func extractPageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return normalizeText(interpretContent(data))
}

// detectImageStreams checks if the PDF contains image XObjects.
func detectImageStreams(pctx *model.Context) bool {
	if pctx.Optimize != nil {
		for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range pctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// --- content stream lexer ---

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokOperator
	tokArrayStart
	tokArrayEnd
)

type token struct {
	kind tokenKind
	num  float64
	str  []byte // string bytes, name or operator
}

type lexer struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// next returns the next token, or false at end of stream. Dictionary
// delimiters and braces are skipped; their contents surface as plain
// operands and are discarded by the interpreter.
func (l *lexer) next() (token, bool) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isPDFSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return token{kind: tokString, str: l.literal()}, true
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				continue
			}
			l.pos++
			return token{kind: tokString, str: l.hex()}, true
		case c == '>':
			l.pos++
		case c == '[':
			l.pos++
			return token{kind: tokArrayStart}, true
		case c == ']':
			l.pos++
			return token{kind: tokArrayEnd}, true
		case c == '{' || c == '}' || c == ')':
			l.pos++
		case c == '/':
			l.pos++
			return token{kind: tokName, str: l.regular()}, true
		default:
			word := l.regular()
			if len(word) == 0 {
				l.pos++
				continue
			}
			if n, ok := parseNumber(word); ok {
				return token{kind: tokNumber, num: n}, true
			}
			if string(word) == "ID" {
				l.skipInlineImage()
			}
			return token{kind: tokOperator, str: word}, true
		}
	}
	return token{}, false
}

func (l *lexer) regular() []byte {
	start := l.pos
	for l.pos < len(l.data) && !isPDFSpace(l.data[l.pos]) && !isPDFDelim(l.data[l.pos]) {
		l.pos++
	}
	return l.data[start:l.pos]
}

// literal reads a (string) body; the opening paren is already consumed.
func (l *lexer) literal() []byte {
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			if l.pos >= len(l.data) {
				return out
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				// line continuation
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && l.pos < len(l.data); k++ {
						d := l.data[l.pos]
						if d < '0' || d > '7' {
							break
						}
						val = val*8 + int(d-'0')
						l.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// hex reads a <hex> body; the opening bracket is already consumed.
func (l *lexer) hex() []byte {
	var out []byte
	var hi byte
	half := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		v, ok := hexVal(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
			half = false
		} else {
			hi = v
			half = true
		}
	}
	if half {
		out = append(out, hi<<4)
	}
	return out
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage jumps past binary image data up to and including the
// EI operator that closes it.
func (l *lexer) skipInlineImage() {
	if l.pos < len(l.data) && isPDFSpace(l.data[l.pos]) {
		l.pos++
	}
	for i := l.pos; i+1 < len(l.data); i++ {
		if l.data[i] != 'E' || l.data[i+1] != 'I' {
			continue
		}
		before := i == 0 || isPDFSpace(l.data[i-1])
		after := i+2 >= len(l.data) || isPDFSpace(l.data[i+2])
		if before && after {
			l.pos = i + 2
			return
		}
	}
	l.pos = len(l.data)
}

func parseNumber(b []byte) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var (
		n       float64
		frac    float64
		seenDot bool
		digits  int
		neg     bool
	)
	i := 0
	if b[0] == '+' || b[0] == '-' {
		neg = b[0] == '-'
		i++
	}
	scale := 0.1
	for ; i < len(b); i++ {
		c := b[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
			if seenDot {
				frac += float64(c-'0') * scale
				scale /= 10
			} else {
				n = n*10 + float64(c-'0')
			}
		case c == '.' && !seenDot:
			seenDot = true
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	n += frac
	if neg {
		n = -n
	}
	return n, true
}

// --- interpreter ---

type operand struct {
	num   float64
	str   []byte
	isStr bool
	arr   []operand
	isArr bool
}

type textWriter struct {
	sb       strings.Builder
	lastY    float64
	started  bool
	wantGap  bool
	wantLine bool
}

func (w *textWriter) show(text string, y float64) {
	if text == "" {
		return
	}
	if w.started {
		switch {
		case w.wantLine || math.Abs(y-w.lastY) > 1:
			w.sb.WriteByte('\n')
		case w.wantGap:
			w.sb.WriteByte(' ')
		}
	}
	w.sb.WriteString(text)
	w.started = true
	w.lastY = y
	w.wantGap = false
	w.wantLine = false
}

// interpretContent walks a page content stream and returns its visible
// text. Line breaks follow vertical movement of the text position; glyph
// widths are not tracked, so horizontal gaps come from positioning
// operators and large TJ offsets.
func interpretContent(data []byte) string {
	lx := &lexer{data: data}
	var (
		w       textWriter
		stack   []operand
		arr     []operand
		inArr   bool
		ctm     = Identity
		saved   []Matrix
		tm, tlm = Identity, Identity
		leading float64
	)

	y := func() float64 {
		_, yy := tm.Multiply(ctm).Origin()
		return yy
	}
	nums := func(n int) ([]float64, bool) {
		if len(stack) < n {
			return nil, false
		}
		out := make([]float64, n)
		for i, op := range stack[len(stack)-n:] {
			if op.isStr || op.isArr {
				return nil, false
			}
			out[i] = op.num
		}
		return out, true
	}
	lastString := func() ([]byte, bool) {
		if len(stack) == 0 || !stack[len(stack)-1].isStr {
			return nil, false
		}
		return stack[len(stack)-1].str, true
	}
	nextLine := func() {
		tlm = tlm.Translate(0, -leading)
		tm = tlm
		w.wantLine = true
	}

	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokArrayStart:
			inArr, arr = true, nil
			continue
		case tokArrayEnd:
			if inArr {
				stack = append(stack, operand{arr: arr, isArr: true})
				inArr = false
			}
			continue
		case tokNumber, tokString, tokName:
			op := operand{num: tok.num}
			if tok.kind == tokString {
				op = operand{str: tok.str, isStr: true}
			} else if tok.kind == tokName {
				op = operand{str: tok.str}
			}
			if inArr {
				arr = append(arr, op)
			} else {
				stack = append(stack, op)
			}
			continue
		}

		switch string(tok.str) {
		case "BT":
			tm, tlm = Identity, Identity
		case "Td", "TD":
			if v, ok := nums(2); ok {
				if string(tok.str) == "TD" {
					leading = -v[1]
				}
				tlm = tlm.Translate(v[0], v[1])
				tm = tlm
				w.wantGap = true
			}
		case "TL":
			if v, ok := nums(1); ok {
				leading = v[0]
			}
		case "Tm":
			if v, ok := nums(6); ok {
				tm = Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
				tlm = tm
				w.wantGap = true
			}
		case "T*":
			nextLine()
		case "Tj":
			if s, ok := lastString(); ok {
				w.show(decodePDFString(s), y())
			}
		case "'":
			nextLine()
			if s, ok := lastString(); ok {
				w.show(decodePDFString(s), y())
			}
		case "\"":
			nextLine()
			if s, ok := lastString(); ok {
				w.show(decodePDFString(s), y())
			}
		case "TJ":
			if len(stack) > 0 && stack[len(stack)-1].isArr {
				var sb strings.Builder
				for _, el := range stack[len(stack)-1].arr {
					switch {
					case el.isStr:
						sb.WriteString(decodePDFString(el.str))
					case el.num < tjSpaceThreshold:
						sb.WriteByte(' ')
					}
				}
				w.show(sb.String(), y())
			}
		case "cm":
			if v, ok := nums(6); ok {
				ctm = Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.Multiply(ctm)
			}
		case "q":
			saved = append(saved, ctm)
		case "Q":
			if n := len(saved); n > 0 {
				ctm = saved[n-1]
				saved = saved[:n-1]
			}
		}
		stack = stack[:0]
		inArr = false
	}
	return w.sb.String()
}

var utf16Decoder = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)

// decodePDFString turns raw string bytes into UTF-8. Strings starting with
// a UTF-16BE byte-order mark are decoded as such; anything else is read as
// Windows-1252, which covers the accented Latin text of standard fonts.
func decodePDFString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		if out, err := utf16Decoder.NewDecoder().Bytes(b); err == nil {
			return strings.ReplaceAll(string(out), "\x00", "")
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(string(out), "\x00", "")
}
