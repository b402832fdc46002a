package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/smallnest/trendreport/chart"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/state"
)

// DraftInput is everything the merged draft is built from.
type DraftInput struct {
	Brief     state.MarketBrief
	Dossiers  []state.CompanyDossier
	Snapshots []finance.Snapshot
	Charts    []chart.Entry
	Evidence  []citation.Evidence
}

// Draft renders the merged markdown draft. It is deterministic and never
// fails: missing inputs produce placeholder text.
func Draft(in DraftInput) string {
	var sb strings.Builder
	sb.WriteString("# SUMMARY\n\n")
	if in.Brief.Summary != "" {
		sb.WriteString(in.Brief.Summary + "\n\n")
	} else {
		sb.WriteString("_No market summary available._\n\n")
	}
	sb.WriteString("## Market overview\n\n" + MarketMarkdown(in.Brief))
	sb.WriteString("## Company highlights\n\n" + CompanyMarkdown(in.Dossiers))
	sb.WriteString("## Stock snapshot\n\n" + StockMarkdown(in.Snapshots))
	sb.WriteString("## Charts\n\n" + ChartsMarkdown(in.Charts))
	sb.WriteString("## References\n\n" + ReferencesMarkdown(in.Evidence))
	return sb.String()
}

// MarketMarkdown lists the top trends and metrics of a brief.
func MarketMarkdown(b state.MarketBrief) string {
	if len(b.TopTrends) == 0 {
		return "_No market trends available._\n\n"
	}
	var sb strings.Builder
	for _, t := range b.TopTrends {
		sb.WriteString("- " + t + "\n")
	}
	sb.WriteString("\n")
	if len(b.Metrics) > 0 {
		keys := make([]string, 0, len(b.Metrics))
		for k := range b.Metrics {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		sb.WriteString("| Metric | Value |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "| %s | %g |\n", k, b.Metrics[k])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// CompanyMarkdown writes one bullet per company with its points.
func CompanyMarkdown(dossiers []state.CompanyDossier) string {
	if len(dossiers) == 0 {
		return "_No company dossiers available._\n\n"
	}
	var sb strings.Builder
	for _, d := range dossiers {
		fmt.Fprintf(&sb, "- **%s**: %s\n", d.Ticker, strings.Join(d.Points, "; "))
	}
	sb.WriteString("\n")
	return sb.String()
}

// StockMarkdown writes the snapshot table.
func StockMarkdown(snaps []finance.Snapshot) string {
	if len(snaps) == 0 {
		return "_No stock snapshots available._\n\n"
	}
	var sb strings.Builder
	sb.WriteString("| Ticker | Return % | Volatility | PER | EPS (TTM) | CCY |\n|---|---|---|---|---|---|\n")
	for _, s := range snaps {
		fmt.Fprintf(&sb, "| %s | %.2f | %.2f | %s | %s | %s |\n",
			s.Ticker, s.PeriodReturnPct, s.Volatility, optional(s.Multiples.PER), optional(s.Multiples.EPS), s.Multiples.Currency)
	}
	sb.WriteString("\n")
	return sb.String()
}

// ChartsMarkdown embeds each chart once, in first-seen order.
func ChartsMarkdown(charts []chart.Entry) string {
	charts = UniqueCharts(charts)
	if len(charts) == 0 {
		return "_No charts rendered._\n\n"
	}
	var sb strings.Builder
	for _, c := range charts {
		fmt.Fprintf(&sb, "![%s](%s)\n\n", c.Alt, c.Path)
	}
	return sb.String()
}

// ReferencesMarkdown lists evidence ordered by reference number.
func ReferencesMarkdown(evidence []citation.Evidence) string {
	if len(evidence) == 0 {
		return "_No references cited._\n\n"
	}
	sorted := slices.Clone(evidence)
	citation.SortByRef(sorted)
	var sb strings.Builder
	for _, e := range sorted {
		fmt.Fprintf(&sb, "- [%d] %s, %s (%s)\n", e.Ref, e.Title, e.URL, e.Date)
	}
	sb.WriteString("\n")
	return sb.String()
}

// UniqueCharts drops entries whose file path was already seen.
func UniqueCharts(charts []chart.Entry) []chart.Entry {
	seen := make(map[string]bool, len(charts))
	out := make([]chart.Entry, 0, len(charts))
	for _, c := range charts {
		if c.Path == "" || seen[c.Path] {
			continue
		}
		seen[c.Path] = true
		out = append(out, c)
	}
	return out
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
