package chart

import (
	"context"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const (
	svgWidth  = 640
	svgHeight = 360
	svgMargin = 48
)

var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}

// SVGRenderer writes charts as SVG files into Dir.
type SVGRenderer struct {
	Dir string
}

// Render implements Renderer. Empty data is skipped.
func (r SVGRenderer) Render(ctx context.Context, spec Spec, data Data) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if data.Empty() {
		return "", nil
	}

	var body string
	switch spec.Kind {
	case "line":
		body = lineBody(data)
	case "bar":
		body = barBody(data)
	default:
		return "", fmt.Errorf("chart %s: unsupported kind %q", spec.ID, spec.Kind)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		svgWidth, svgHeight, svgWidth, svgHeight)
	fmt.Fprintf(&sb, `<rect width="100%%" height="100%%" fill="white"/>`+"\n")
	fmt.Fprintf(&sb, `<text x="%d" y="28" font-family="sans-serif" font-size="16">%s</text>`+"\n",
		svgMargin, html.EscapeString(spec.Title))
	fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333"/>`+"\n",
		svgMargin, svgHeight-svgMargin, svgWidth-svgMargin, svgHeight-svgMargin)
	sb.WriteString(body)
	sb.WriteString("</svg>\n")

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("chart %s: %w", spec.ID, err)
	}
	path := filepath.Join(r.Dir, spec.ID+".svg")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("chart %s: %w", spec.ID, err)
	}
	return path, nil
}

// scale maps values into the plot area, keeping zero on the axis when the
// data straddles it.
type scale struct {
	lo, hi float64
}

func newScale(values ...[]float64) scale {
	s := scale{lo: math.Inf(1), hi: math.Inf(-1)}
	for _, vs := range values {
		for _, v := range vs {
			s.lo = math.Min(s.lo, v)
			s.hi = math.Max(s.hi, v)
		}
	}
	s.lo = math.Min(s.lo, 0)
	if s.hi <= s.lo {
		s.hi = s.lo + 1
	}
	return s
}

func (s scale) y(v float64) float64 {
	h := float64(svgHeight - 2*svgMargin)
	return float64(svgHeight-svgMargin) - (v-s.lo)/(s.hi-s.lo)*h
}

func barBody(d Data) string {
	s := newScale(d.Values)
	n := len(d.Values)
	slot := float64(svgWidth-2*svgMargin) / float64(n)
	var sb strings.Builder
	for i, v := range d.Values {
		x := float64(svgMargin) + float64(i)*slot + slot*0.15
		top, bottom := s.y(math.Max(v, 0)), s.y(math.Min(v, 0))
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			x, top, slot*0.7, bottom-top, palette[i%len(palette)])
		if i < len(d.Labels) {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-family="sans-serif" font-size="11">%s</text>`+"\n",
				x, svgHeight-svgMargin+16, html.EscapeString(d.Labels[i]))
		}
	}
	return sb.String()
}

func lineBody(d Data) string {
	all := make([][]float64, 0, len(d.Lines))
	for _, l := range d.Lines {
		all = append(all, l.Values)
	}
	s := newScale(all...)
	var sb strings.Builder
	for i, l := range d.Lines {
		if len(l.Values) == 0 {
			continue
		}
		step := float64(svgWidth-2*svgMargin) / float64(max(1, len(l.Values)-1))
		pts := make([]string, len(l.Values))
		for j, v := range l.Values {
			pts[j] = fmt.Sprintf("%.1f,%.1f", float64(svgMargin)+float64(j)*step, s.y(v))
		}
		color := palette[i%len(palette)]
		fmt.Fprintf(&sb, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`+"\n",
			color, strings.Join(pts, " "))
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="%s">%s</text>`+"\n",
			svgWidth-svgMargin-80, svgMargin+14*(i+1), color, html.EscapeString(l.Name))
	}
	return sb.String()
}
