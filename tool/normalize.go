package tool

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/smallnest/trendreport/rag"
)

const (
	maxDocumentText = 8000
	truncatedMarker = "\n...[truncated]"
)

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.RFC1123,
	time.RFC1123Z,
	"January 2, 2006",
	"Jan 2, 2006",
	"2006/01/02",
}

// NormalizeDate returns raw as YYYY-MM-DD, or fallback when it cannot be parsed.
func NormalizeDate(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	if len(raw) > 10 {
		if t, err := time.Parse(time.DateOnly, raw[:10]); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return fallback
}

// Normalize repairs dates, fills default metadata, strips markup from the
// text and truncates long bodies. The input slice is not modified.
func Normalize(docs []rag.Document, fallbackDate string) []rag.Document {
	out := make([]rag.Document, 0, len(docs))
	for _, d := range docs {
		d.Date = NormalizeDate(d.Date, fallbackDate)
		if d.Title == "" {
			d.Title = "Untitled"
		}
		if d.Kind == "" {
			d.Kind = "news"
		}
		if d.Lang == "" {
			d.Lang = "en"
		}
		if d.Source == "" {
			d.Source = "unknown"
		}
		d.Text = plainText(d.Text)
		if r := []rune(d.Text); len(r) > maxDocumentText {
			d.Text = string(r[:maxDocumentText]) + truncatedMarker
		}
		out = append(out, d)
	}
	return out
}

// plainText strips HTML when the text looks like markup and collapses runs of
// whitespace.
func plainText(s string) string {
	if strings.Contains(s, "<") && strings.Contains(s, ">") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			var b strings.Builder
			textOf(doc.Selection, &b)
			s = b.String()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// textOf writes the text nodes under sel in document order, separated by
// spaces so adjacent block elements do not run together.
func textOf(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
			b.WriteByte(' ')
		case "script", "style", "noscript", "#comment":
		default:
			textOf(c, b)
		}
	})
}
