package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/state"
)

// HighVolatility is the volatility above which a ticker lands on the watch list.
const HighVolatility = 2.0

// ComposeInput is the merged run data a report is composed from.
type ComposeInput struct {
	DraftInput

	RunID        string
	Period       string
	SnapshotDate string
	Persona      string
	Language     string
	Regions      []string
	Benchmarks   []string
	RiskLens     map[string]float64
	Outline      []string
	QA           state.QAMetrics
	Errors       []state.ErrorEntry

	// AssetDir is the directory the HTML is written to; chart paths are
	// made relative to it.
	AssetDir string
}

// Composer turns merged run data into an HTML document.
type Composer struct {
	summarizer llm.Summarizer
	policy     *bluemonday.Policy
}

// NewComposer returns a composer that asks s for the prose sections.
func NewComposer(s llm.Summarizer) *Composer {
	return &Composer{summarizer: s, policy: bluemonday.UGCPolicy()}
}

type section struct {
	ID    string
	Title string
	Body  template.HTML
}

var sectionTitles = map[string]string{
	"summary":        "Executive Summary",
	"market":         "Market Overview",
	"demand_pricing": "Demand & Pricing",
	"policy":         "Policy & Regulation",
	"battery_supply": "Battery Technology & Supply Chain",
	"competition":    "Competitive Landscape",
	"company":        "Company Highlights",
	"implications":   "Implications",
	"stock":          "Stock Snapshot",
	"charts":         "Charts",
	"references":     "References",
	"appendix":       "Appendix",
}

var pageTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; line-height: 1.5; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 4px 8px; }
img { max-width: 100%; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Run {{.RunID}} · period {{.Period}} · snapshot {{.SnapshotDate}}</p>
{{range .Sections}}<section id="{{.ID}}">
<h2>{{.Title}}</h2>
{{.Body}}
</section>
{{end}}</body>
</html>
`))

// Compose renders every outline section. Sections whose prose could not be
// generated get placeholder text; the failures are returned as error entries.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) (string, []state.ErrorEntry, error) {
	var failures []state.ErrorEntry
	sections := make([]section, 0, len(in.Outline))
	for _, id := range in.Outline {
		body, err := c.section(ctx, id, in)
		if err != nil {
			log.Warn("[Report] section %s: %v", id, err)
			failures = append(failures, state.ErrorEntry{Stage: "compose_sections", Kind: state.Classify(err), Message: fmt.Sprintf("%s: %v", id, err)})
			body = llm.FallbackSection(id)
		}
		sections = append(sections, section{ID: id, Title: sectionTitles[id], Body: template.HTML(c.policy.Sanitize(body))})
	}

	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, map[string]any{
		"Lang":         in.Language,
		"Title":        "EV Market Trend Report",
		"RunID":        in.RunID,
		"Period":       in.Period,
		"SnapshotDate": in.SnapshotDate,
		"Sections":     sections,
	})
	if err != nil {
		return "", failures, fmt.Errorf("render report template: %w", err)
	}
	return buf.String(), failures, nil
}

func (c *Composer) section(ctx context.Context, id string, in ComposeInput) (string, error) {
	switch id {
	case "summary":
		return c.summary(in), nil
	case "market":
		return MarkdownToHTML(MarketMarkdown(in.Brief)), nil
	case "company":
		return MarkdownToHTML(CompanyMarkdown(in.Dossiers)), nil
	case "demand_pricing", "policy", "battery_supply":
		return c.summarizer.WriteSection(ctx, llm.SectionRequest{
			Section:  id,
			Persona:  in.Persona,
			Language: in.Language,
			Context:  map[string]any{"top_trends": in.Brief.TopTrends, "company_dossiers": in.Dossiers},
		})
	case "competition":
		body, err := c.summarizer.WriteSection(ctx, llm.SectionRequest{
			Section:  id,
			Persona:  in.Persona,
			Language: in.Language,
			Context:  map[string]any{"company_dossiers": in.Dossiers, "stock_snapshots": in.Snapshots},
		})
		// Company highlights stay in the section even when the prose fails.
		highlights := MarkdownToHTML(CompanyMarkdown(in.Dossiers))
		if err != nil {
			return llm.FallbackSection(id) + highlights, err
		}
		return body + highlights, nil
	case "implications":
		return MarkdownToHTML(ImplicationsMarkdown(in)), nil
	case "stock":
		return MarkdownToHTML(StockMarkdown(in.Snapshots)), nil
	case "charts":
		return c.charts(in), nil
	case "references":
		return MarkdownToHTML(ReferencesMarkdown(in.Evidence)), nil
	case "appendix":
		return MarkdownToHTML(appendixMarkdown(in)), nil
	}
	return "", fmt.Errorf("unknown section %q", id)
}

func (c *Composer) summary(in ComposeInput) string {
	var sb strings.Builder
	summary := in.Brief.Summary
	if summary == "" {
		summary = "No market summary available."
	}
	sb.WriteString("<p>" + template.HTMLEscapeString(summary) + "</p>\n")
	if len(in.Brief.TopTrends) > 0 {
		sb.WriteString("<ul>\n")
		for _, t := range in.Brief.TopTrends {
			sb.WriteString("<li>" + template.HTMLEscapeString(t) + "</li>\n")
		}
		sb.WriteString("</ul>\n")
	}
	return sb.String()
}

func (c *Composer) charts(in ComposeInput) string {
	charts := UniqueCharts(in.Charts)
	if len(charts) == 0 {
		return "<p><em>No charts rendered.</em></p>"
	}
	var sb strings.Builder
	for _, ch := range charts {
		src := ch.Path
		if in.AssetDir != "" {
			if rel, err := filepath.Rel(in.AssetDir, ch.Path); err == nil {
				src = filepath.ToSlash(rel)
			}
		}
		fmt.Fprintf(&sb, "<figure><img src=\"%s\" alt=\"%s\"><figcaption>%s</figcaption></figure>\n",
			template.HTMLEscapeString(src), template.HTMLEscapeString(ch.Alt), template.HTMLEscapeString(ch.Alt))
	}
	return sb.String()
}

// ImplicationsMarkdown writes the persona specific takeaways.
func ImplicationsMarkdown(in ComposeInput) string {
	var sb strings.Builder
	var watch []string
	for _, s := range in.Snapshots {
		if s.Volatility > HighVolatility {
			watch = append(watch, fmt.Sprintf("%s (volatility %.2f)", s.Ticker, s.Volatility))
		}
	}

	switch in.Persona {
	case "retail_investor":
		sb.WriteString("- Size positions around scheduled policy and earnings events.\n")
		for _, s := range in.Snapshots {
			fmt.Fprintf(&sb, "- %s returned %.2f%% over %s.\n", s.Ticker, s.PeriodReturnPct, in.Period)
		}
	default:
		lenses := make([]string, 0, len(in.RiskLens))
		for k := range in.RiskLens {
			lenses = append(lenses, k)
		}
		slices.SortFunc(lenses, func(a, b string) int {
			switch {
			case in.RiskLens[a] > in.RiskLens[b]:
				return -1
			case in.RiskLens[a] < in.RiskLens[b]:
				return 1
			}
			return strings.Compare(a, b)
		})
		for _, l := range lenses {
			fmt.Fprintf(&sb, "- Review %s exposure (weight %.2f).\n", strings.ReplaceAll(l, "_", " "), in.RiskLens[l])
		}
		for _, t := range in.Brief.TopTrends {
			sb.WriteString("- Plan for: " + t + "\n")
		}
	}
	if len(watch) > 0 {
		sb.WriteString("- High volatility watch list: " + strings.Join(watch, ", ") + "\n")
	}
	if sb.Len() == 0 {
		return "_No implications derived._\n"
	}
	return sb.String()
}

func appendixMarkdown(in ComposeInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- Regions: %s\n- Benchmarks: %s\n", strings.Join(in.Regions, ", "), strings.Join(in.Benchmarks, ", "))
	fmt.Fprintf(&sb, "- Citation coverage: %.2f\n- Number consistency: %t\n\n", in.QA.CitationCoverage, in.QA.NumberConsistency)
	if len(in.Errors) == 0 {
		sb.WriteString("No recovered errors.\n")
		return sb.String()
	}
	sb.WriteString("| Stage | Kind | Message |\n|---|---|---|\n")
	for _, e := range in.Errors {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", e.Stage, e.Kind, strings.ReplaceAll(e.Message, "|", "/"))
	}
	return sb.String()
}

// MarkdownToHTML renders markdown with tables enabled.
func MarkdownToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return string(markdown.Render(doc, renderer))
}
