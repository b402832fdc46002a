package llm

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/smallnest/trendreport/citation"
)

// trimFence removes a surrounding markdown code fence, which chat models add
// even in JSON mode.
func trimFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseMarket decodes a market answer, cleans its citations and infers the
// referenced documents from the text when the model left them out.
func ParseMarket(raw string) (MarketSummary, error) {
	var body struct {
		TopTrends      []string                   `json:"top_trends"`
		Summary        string                     `json:"summary"`
		Metrics        map[string]json.RawMessage `json:"metrics"`
		ReferencedDocs *[]int                     `json:"referenced_docs"`
	}
	if err := json.Unmarshal([]byte(trimFence(raw)), &body); err != nil {
		return MarketSummary{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(body.TopTrends) == 0 && body.Summary == "" {
		return MarketSummary{}, fmt.Errorf("%w: no trends and no summary", ErrMalformed)
	}

	out := MarketSummary{
		TopTrends: citation.CleanAll(body.TopTrends),
		Summary:   citation.Clean(body.Summary),
	}
	for k, v := range body.Metrics {
		var f float64
		if json.Unmarshal(v, &f) == nil {
			if out.Metrics == nil {
				out.Metrics = make(map[string]float64)
			}
			out.Metrics[k] = f
		}
	}
	if body.ReferencedDocs != nil {
		out.ReferencedDocs = *body.ReferencedDocs
	} else {
		out.ReferencedDocs = citation.Refs(append(slices.Clone(out.TopTrends), out.Summary)...)
	}
	return out, nil
}

// ParseCompany decodes a company answer. A bare list of points is accepted.
func ParseCompany(raw string) (CompanySummary, error) {
	text := []byte(trimFence(raw))

	var points []string
	if err := json.Unmarshal(text, &points); err == nil {
		points = citation.CleanAll(points)
		return CompanySummary{Points: points, ReferencedDocs: citation.Refs(points...)}, nil
	}

	var body struct {
		Points         []string `json:"points"`
		ReferencedDocs *[]int   `json:"referenced_docs"`
	}
	if err := json.Unmarshal(text, &body); err != nil {
		return CompanySummary{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(body.Points) == 0 {
		return CompanySummary{}, fmt.Errorf("%w: no points", ErrMalformed)
	}
	out := CompanySummary{Points: citation.CleanAll(body.Points)}
	if body.ReferencedDocs != nil {
		out.ReferencedDocs = *body.ReferencedDocs
	} else {
		out.ReferencedDocs = citation.Refs(out.Points...)
	}
	return out, nil
}

// ParseSection strips a code fence around a section body and cleans its
// citations.
func ParseSection(raw string) (string, error) {
	s := trimFence(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty section", ErrMalformed)
	}
	return citation.Clean(s), nil
}
