package chart

import (
	"context"
	"errors"
)

// ErrNoData is returned by a renderer asked to draw an empty chart.
var ErrNoData = errors.New("chart has no data")

// Spec is a request to render one chart.
type Spec struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Section string `json:"section"`
}

// Entry is a rendered chart asset.
type Entry struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Alt     string `json:"alt"`
	Section string `json:"section"`
}

// Line is a named sequence of values plotted against Data.Labels.
type Line struct {
	Name   string
	Values []float64
}

// Data holds what a chart plots. Bar charts read Values, line charts read Lines.
type Data struct {
	Labels []string
	Values []float64
	Lines  []Line
}

// Empty reports whether there is nothing to plot.
func (d Data) Empty() bool {
	if len(d.Values) > 0 {
		return false
	}
	for _, l := range d.Lines {
		if len(l.Values) > 0 {
			return false
		}
	}
	return true
}

// Renderer draws a chart and returns the file path. An empty path with a nil
// error means the chart was skipped.
type Renderer interface {
	Render(ctx context.Context, spec Spec, data Data) (string, error)
}

// Available lists which report sections have data worth charting.
type Available struct {
	Stock   bool
	Market  bool
	Company bool
}

// Select returns the charts to draw for the populated sections, at most limit.
func Select(a Available, limit int) []Spec {
	var specs []Spec
	if a.Stock {
		specs = append(specs,
			Spec{ID: "ch-returns", Kind: "line", Title: "Returns by Ticker", Section: "stock"},
			Spec{ID: "ch-volatility", Kind: "bar", Title: "Volatility by Ticker", Section: "stock"},
		)
	}
	if a.Market {
		specs = append(specs, Spec{ID: "ch-market-metrics", Kind: "bar", Title: "Market Metrics", Section: "market"})
	}
	if a.Company {
		specs = append(specs, Spec{ID: "ch-company-sources", Kind: "bar", Title: "Cited Sources by Company", Section: "company"})
	}
	if limit < 0 {
		limit = 0
	}
	if len(specs) > limit {
		specs = specs[:limit]
	}
	return specs
}
