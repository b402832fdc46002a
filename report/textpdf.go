package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	textColumns  = 110
	linesPerPage = 60
	fontSize     = 8
	leading      = 12
	pageWidth    = 595
	pageHeight   = 842
	marginLeft   = 32
	marginTop    = 800
)

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"li": true, "tr": true, "ul": true, "ol": true, "table": true, "figure": true,
	"figcaption": true, "br": true, "title": true, "pre": true, "blockquote": true,
}

// TextRenderer is the last resort renderer: it strips markup, wraps the text
// at a fixed width and writes it as a plain PDF with a built-in font.
type TextRenderer struct{}

// Render implements Renderer.
func (TextRenderer) Render(ctx context.Context, src, dst string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("text renderer: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("text renderer: parse html: %w", err)
	}
	lines := Wrap(TextLines(doc), textColumns)
	if err := os.WriteFile(dst, WritePDF(Paginate(lines, linesPerPage)), 0o644); err != nil {
		return "", fmt.Errorf("text renderer: %w", err)
	}
	return dst, nil
}

// TextLines extracts the visible text of doc, one line per block element.
func TextLines(doc *goquery.Document) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				cur.WriteString(c.Text())
			case name == "script" || name == "style" || name == "head" || name == "#comment":
			case name == "td" || name == "th":
				walk(c)
				cur.WriteString(" | ")
			case name == "img":
				if alt, ok := c.Attr("alt"); ok && alt != "" {
					cur.WriteString("[image: " + alt + "]")
				}
			case blockElements[name]:
				flush()
				walk(c)
				flush()
			default:
				walk(c)
			}
		})
	}
	walk(doc.Selection)
	flush()
	return lines
}

// Wrap breaks lines at word boundaries so none exceeds width runes. Words
// longer than width are split.
func Wrap(lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		var cur []rune
		for _, word := range strings.Fields(line) {
			w := []rune(word)
			for len(w) > width {
				if len(cur) > 0 {
					out = append(out, string(cur))
					cur = nil
				}
				out = append(out, string(w[:width]))
				w = w[width:]
			}
			switch {
			case len(cur) == 0:
				cur = w
			case len(cur)+1+len(w) <= width:
				cur = append(append(cur, ' '), w...)
			default:
				out = append(out, string(cur))
				cur = w
			}
		}
		if len(cur) > 0 {
			out = append(out, string(cur))
		}
	}
	return out
}

// Paginate splits lines into pages of at most n lines. There is always at
// least one page.
func Paginate(lines []string, n int) [][]string {
	if len(lines) == 0 {
		return [][]string{{}}
	}
	var pages [][]string
	for len(lines) > n {
		pages = append(pages, lines[:n])
		lines = lines[n:]
	}
	return append(pages, lines)
}

// WritePDF lays out pages of text in Courier and returns a PDF 1.4 file.
func WritePDF(pages [][]string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	// Objects 1-3 are the catalog, the page tree and the font; each page
	// then takes two objects, the page and its content stream.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding >>")
	for i, lines := range pages {
		var content strings.Builder
		fmt.Fprintf(&content, "BT /F1 %d Tf %d TL %d %d Td\n", fontSize, leading, marginLeft, marginTop)
		for _, l := range lines {
			fmt.Fprintf(&content, "(%s) Tj T*\n", pdfEscape(l))
		}
		content.WriteString("ET")
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pageWidth, pageHeight, 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// pdfEscape escapes string delimiters and replaces characters the built-in
// font cannot show.
func pdfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r >= 32 && r < 127:
			b.WriteRune(r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}
