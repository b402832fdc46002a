package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxMarketSources = 10
	maxSourceChars   = 1000
)

const citationRules = `Citation rules:
- Cite only the numbers of the documents that contain the information, as [n].
- Never repeat the same number back to back ([1][1] is not allowed).
- Cite a variety of documents where possible.
- Leave a citation out rather than guess.`

func sourceBlock(sources []Source, limit int) string {
	var sb strings.Builder
	for i, s := range sources {
		if i == limit {
			break
		}
		content := s.Content
		if r := []rune(content); len(r) > maxSourceChars {
			content = string(r[:maxSourceChars])
		}
		fmt.Fprintf(&sb, "[Document %d] %s\nDate: %s\nSource: %s\nContent: %s\n\n",
			s.Ref, orDefault(s.Title, "Untitled"), orDefault(s.Date, "N/A"), orDefault(s.URL, "N/A"), content)
	}
	return sb.String()
}

func marketPrompt(req MarketRequest) string {
	return fmt.Sprintf(`Analyse the following EV market documents and extract:
1. 3-5 key trends, one line each
2. an overall summary of 2-3 sentences
3. any headline figures as numeric metrics

%s

Documents:
%s
Period: %s
Focus issues: %s
Regions: %s

Answer in JSON:
{"top_trends": ["trend[n]", ...], "summary": "summary[n]", "metrics": {"name": 1.0}, "referenced_docs": [n, ...]}

referenced_docs lists only the document numbers you actually cited.`,
		citationRules, sourceBlock(req.Sources, maxMarketSources), req.Period,
		strings.Join(req.FocusIssues, ", "), strings.Join(req.Regions, ", "))
}

var aspectFocus = map[string]string{
	"business": "business strategy, pricing policy and margins",
	"risk":     "risk factors, regulation and supply chain issues",
	"roadmap":  "roadmap, new models and production plans",
}

func companyPrompt(req CompanyRequest) string {
	focus := aspectFocus[req.Aspect]
	if focus == "" {
		focus = req.Aspect
	}
	return fmt.Sprintf(`Extract 3-5 key points on the %s of %s, one sentence each.

%s

Documents:
%s
Answer in JSON:
{"points": ["point[n]", ...], "referenced_docs": [n, ...]}`,
		focus, req.Ticker, citationRules, sourceBlock(req.Sources, len(req.Sources)))
}

var sectionBriefs = map[string]string{
	"demand_pricing": "Demand and pricing: demand by segment, average selling price, effect of price cuts, margin pressure.",
	"policy":         "Policy and regulation: subsidy changes by country, tariffs and trade, carbon rules, a timeline of policy events.",
	"battery_supply": "Battery technology and supply chain: LFP/LMFP/NMC chemistry trends, cost per kWh, vendor capacity, vertical integration.",
	"competition":    "Competitive landscape: how the benchmarked companies position against each other on price, technology and scale.",
}

// SectionNames lists the sections WriteSection can produce.
func SectionNames() []string {
	return []string{"demand_pricing", "policy", "battery_supply", "competition"}
}

func sectionPrompt(req SectionRequest) (string, error) {
	brief, ok := sectionBriefs[req.Section]
	if !ok {
		return "", fmt.Errorf("no prompt for section %q", req.Section)
	}
	ctxJSON, err := json.MarshalIndent(req.Context, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal section context: %w", err)
	}
	lang := orDefault(req.Language, "en")
	return fmt.Sprintf(`Write the report section below for a %s reader, in language %q.
%s

The context already carries citations as [n]. Keep them as they are, never
repeat a number back to back and add new citations only for new facts.

Context:
%s

Write HTML body content only, without a heading.`,
		strings.ReplaceAll(orDefault(req.Persona, "corporate_strategy"), "_", " "), lang, brief, ctxJSON), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
