package rag

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
)

const (
	maxTokensPerDoc = 5000
	snippetLength   = 500
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

type entry struct {
	doc    Document
	tokens map[string]struct{}
	text   string
}

// Index is an in-memory keyword index. It is immutable once built and safe
// for concurrent queries.
type Index struct {
	entries []entry
}

// BuildIndex indexes docs in order. Documents without an ID get "doc-<i>".
func BuildIndex(docs []Document) *Index {
	idx := &Index{entries: make([]entry, 0, len(docs))}
	for i, d := range docs {
		if d.ID == "" {
			d.ID = fmt.Sprintf("doc-%d", i)
		}
		text := d.Content()
		toks := tokenize(text)
		if len(toks) > maxTokensPerDoc {
			toks = toks[:maxTokensPerDoc]
		}
		set := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			set[t] = struct{}{}
		}
		idx.entries = append(idx.entries, entry{doc: d, tokens: set, text: text})
	}
	return idx
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

// DateRange bounds document dates inclusively. Dates compare as ISO strings;
// an empty bound is open.
type DateRange struct {
	Start string
	End   string
}

// Filters restrict a query. Empty fields do not filter.
type Filters struct {
	Company   []string
	Region    []string
	IssueTags []string
	Dates     DateRange
}

func (f Filters) match(d Document) bool {
	if len(f.Region) > 0 && d.Region != "global" && !slices.Contains(f.Region, d.Region) {
		return false
	}
	if len(f.Company) > 0 && !slices.Contains(f.Company, d.Company) {
		return false
	}
	if len(f.IssueTags) > 0 && !slices.ContainsFunc(f.IssueTags, func(t string) bool {
		return slices.Contains(d.IssueTags, t)
	}) {
		return false
	}
	if d.Date != "" {
		if f.Dates.Start != "" && d.Date < f.Dates.Start {
			return false
		}
		if f.Dates.End != "" && d.Date > f.Dates.End {
			return false
		}
	}
	return true
}

// Passage is a query hit.
type Passage struct {
	DocID   string   `json:"doc_id"`
	Score   float64  `json:"score"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Date    string   `json:"date"`
	Snippet string   `json:"snippet"`
	Doc     Document `json:"-"`
}

// Query scores every document that passes filters by the share of distinct
// query tokens it contains and returns the best topK with a positive score.
// Ties keep index order.
func (x *Index) Query(text string, filters Filters, topK int) []Passage {
	if x == nil || topK <= 0 {
		return nil
	}
	q := make(map[string]struct{})
	for _, t := range tokenize(text) {
		q[t] = struct{}{}
	}
	if len(q) == 0 {
		return nil
	}

	type hit struct {
		i     int
		score float64
	}
	var hits []hit
	for i, e := range x.entries {
		if !filters.match(e.doc) {
			continue
		}
		inter := 0
		for t := range q {
			if _, ok := e.tokens[t]; ok {
				inter++
			}
		}
		if inter > 0 {
			hits = append(hits, hit{i: i, score: float64(inter) / float64(len(q))})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]Passage, 0, len(hits))
	for _, h := range hits {
		e := x.entries[h.i]
		out = append(out, Passage{
			DocID:   e.doc.ID,
			Score:   math.Round(h.score*10000) / 10000,
			Title:   e.doc.Title,
			URL:     e.doc.URL,
			Date:    e.doc.Date,
			Snippet: snippet(e.text),
			Doc:     e.doc,
		})
	}
	return out
}

func snippet(text string) string {
	r := []rune(text)
	if len(r) <= snippetLength {
		return text
	}
	return string(r[:snippetLength]) + "..."
}
