package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smallnest/trendreport/pipeline"
	"github.com/smallnest/trendreport/report"
	"github.com/smallnest/trendreport/state"
)

var (
	colorTeal  = lipgloss.Color("#20B9B4")
	colorWarn  = lipgloss.Color("#F4D03F")
	colorError = lipgloss.Color("#E74C3C")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	labelStyle = lipgloss.NewStyle().Width(20)
	okStyle    = lipgloss.NewStyle().Foreground(colorTeal)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	errStyle   = lipgloss.NewStyle().Foreground(colorError)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorTeal).Padding(0, 1)
)

func yesNo(ok bool) string {
	if ok {
		return okStyle.Render("yes")
	}
	return errStyle.Render("no")
}

// renderSummary formats the outcome of a run for the terminal.
func renderSummary(s pipeline.Summary) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	export := okStyle.Render(s.ExportState)
	if s.ExportState != string(report.Succeeded) {
		export = warnStyle.Render(s.ExportState)
	}
	coverage := fmt.Sprintf("%.2f", s.QA.CitationCoverage)
	if s.QA.CitationCoverage < 1 {
		coverage = warnStyle.Render(coverage)
	}

	rows := []string{
		titleStyle.Render("Run " + s.RunID),
		row("Report", s.ReportPath),
		row("Evidence log", s.EvidencePath),
		row("Export", export),
		row("References", fmt.Sprint(s.References)),
		row("Citation coverage", coverage),
		row("Numbers consistent", yesNo(s.QA.NumberConsistency)),
		row("Document OK", yesNo(s.QA.DocumentOK)),
		row("Recovered errors", fmt.Sprint(len(s.Errors))),
	}
	for _, line := range errorCounts(s.Errors) {
		rows = append(rows, "  "+warnStyle.Render(line))
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

// errorCounts summarizes entries as "stage kind ×n" in first-seen order.
func errorCounts(entries []state.ErrorEntry) []string {
	type key struct {
		stage string
		kind  state.ErrorKind
	}
	var order []key
	counts := make(map[key]int)
	for _, e := range entries {
		k := key{e.Stage, e.Kind}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, fmt.Sprintf("%s %s ×%d", k.stage, k.kind, counts[k]))
	}
	return out
}
