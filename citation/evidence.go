package citation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// Section names the part of the report that produced an evidence entry.
type Section string

const (
	SectionMarket  Section = "market"
	SectionCompany Section = "company"
	SectionStock   Section = "stock"
	SectionChart   Section = "chart"
)

// Evidence ties a reference number to the source it stands for.
type Evidence struct {
	Ref     int     `json:"n"`
	Section Section `json:"section"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Date    string  `json:"date"`
	Entity  string  `json:"entity,omitempty"`
}

// Source is a citable document as handed to a summarizer.
type Source struct {
	Title string
	URL   string
	Date  string
}

// Cite builds evidence for the numbers in refs that fall inside block and
// point at one of sources. Numbers outside the block, numbers past the last
// source and repeats are dropped, so only documents actually cited are kept.
func Cite(block Block, refs []int, sources []Source, section Section, entity, fallbackDate string) []Evidence {
	var out []Evidence
	seen := make(map[int]bool, len(refs))
	for _, n := range refs {
		i := block.Local(n)
		if i < 0 || i >= len(sources) || seen[n] {
			continue
		}
		seen[n] = true
		src := sources[i]
		ev := Evidence{
			Ref:     n,
			Section: section,
			Title:   src.Title,
			URL:     src.URL,
			Date:    src.Date,
			Entity:  entity,
		}
		if ev.Title == "" {
			ev.Title = "Untitled"
		}
		if ev.URL == "" {
			ev.URL = "N/A"
		}
		if ev.Date == "" {
			ev.Date = fallbackDate
		}
		out = append(out, ev)
	}
	SortByRef(out)
	return out
}

// SortByRef orders entries by reference number.
func SortByRef(entries []Evidence) {
	slices.SortStableFunc(entries, func(a, b Evidence) int { return a.Ref - b.Ref })
}

// Verify reports the first non-positive or duplicated reference number.
func Verify(entries []Evidence) error {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Ref <= 0 {
			return fmt.Errorf("evidence %q has non-positive reference %d", e.Title, e.Ref)
		}
		if seen[e.Ref] {
			return fmt.Errorf("reference %d is used more than once", e.Ref)
		}
		seen[e.Ref] = true
	}
	return nil
}

// WriteLog writes one JSON object per line, ordered by reference number.
// The input slice is not modified.
func WriteLog(w io.Writer, entries []Evidence) error {
	sorted := slices.Clone(entries)
	SortByRef(sorted)

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, e := range sorted {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write evidence %d: %w", e.Ref, err)
		}
	}
	return bw.Flush()
}

// ReadLog parses a log written by WriteLog.
func ReadLog(r io.Reader) ([]Evidence, error) {
	var out []Evidence
	dec := json.NewDecoder(r)
	for {
		var e Evidence
		err := dec.Decode(&e)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read evidence log: %w", err)
		}
		out = append(out, e)
	}
}
