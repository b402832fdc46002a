package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/smallnest/trendreport/chart"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/report"
	"github.com/smallnest/trendreport/state"
)

func (s *stages) selectChartSpecs(_ context.Context, st state.RunState) (state.Update, error) {
	specs := chart.Select(chart.Available{
		Stock:   len(st.StockSnapshots) > 0,
		Market:  len(st.MarketBrief.Metrics) > 0,
		Company: len(st.CompanyDossiers) > 0,
	}, st.Constraints.MaxCharts)
	log.Info("[Charts] selected %d charts", len(specs))
	return state.Update{ChartSpecs: state.Set(specs)}, nil
}

func (s *stages) renderCharts(ctx context.Context, st state.RunState) (state.Update, error) {
	u := state.Update{Charts: []chart.Entry{}}
	for _, spec := range st.ChartSpecs {
		path, err := s.charts.Render(ctx, spec, chartData(spec, st))
		if err != nil {
			log.Warn("[Charts] %s not rendered: %v", spec.ID, err)
			u.Errors = append(u.Errors, s.recovered(StageRenderCharts, state.KindCollaboratorUnavailable, err))
			continue
		}
		if path == "" {
			log.Debug("[Charts] %s skipped, no data", spec.ID)
			continue
		}
		u.Charts = append(u.Charts, chart.Entry{
			ID:      spec.ID,
			Kind:    spec.Kind,
			Path:    path,
			Alt:     strings.ToLower(spec.Title),
			Section: spec.Section,
		})
	}
	return u, nil
}

// chartData extracts what spec plots from the merged state.
func chartData(spec chart.Spec, st state.RunState) chart.Data {
	var d chart.Data
	switch spec.ID {
	case "ch-returns":
		for _, snap := range st.StockSnapshots {
			sr, ok := st.Series[snap.Ticker]
			if !ok || len(sr.Closes) == 0 || sr.Closes[0] <= 0 {
				continue
			}
			line := chart.Line{Name: snap.Ticker, Values: make([]float64, len(sr.Closes))}
			for i, c := range sr.Closes {
				line.Values[i] = (c/sr.Closes[0] - 1) * 100
			}
			if len(sr.Dates) > len(d.Labels) {
				d.Labels = sr.Dates
			}
			d.Lines = append(d.Lines, line)
		}
	case "ch-volatility":
		for _, snap := range st.StockSnapshots {
			d.Labels = append(d.Labels, snap.Ticker)
			d.Values = append(d.Values, snap.Volatility)
		}
	case "ch-market-metrics":
		for _, k := range slices.Sorted(maps.Keys(st.MarketBrief.Metrics)) {
			d.Labels = append(d.Labels, k)
			d.Values = append(d.Values, st.MarketBrief.Metrics[k])
		}
	case "ch-company-sources":
		for _, dos := range st.CompanyDossiers {
			d.Labels = append(d.Labels, dos.Ticker)
			d.Values = append(d.Values, float64(len(dos.Evidence)))
		}
	}
	return d
}

// registerChartAssets gives every rendered chart a reference number so the
// report can cite its own figures.
func (s *stages) registerChartAssets(_ context.Context, st state.RunState) (state.Update, error) {
	charts := report.UniqueCharts(st.Charts)
	block := s.alloc.Reserve(len(charts))
	ev := make([]citation.Evidence, 0, len(charts))
	for i, ch := range charts {
		ev = append(ev, citation.Evidence{
			Ref:     block.Number(i),
			Section: citation.SectionChart,
			Title:   fmt.Sprintf("Internal chart: %s", ch.Alt),
			URL:     ch.Path,
			Date:    st.SnapshotDate,
		})
	}
	return state.Update{Evidence: ev}, nil
}
