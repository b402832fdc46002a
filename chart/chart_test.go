package chart

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	assert.Empty(t, Select(Available{}, 6))

	specs := Select(Available{Stock: true, Market: true, Company: true}, 6)
	require.Len(t, specs, 4)
	assert.Equal(t, "ch-returns", specs[0].ID)
	assert.Equal(t, "Returns by Ticker", specs[0].Title)
	assert.Equal(t, "company", specs[3].Section)

	assert.Len(t, Select(Available{Stock: true, Market: true}, 2), 2)
	assert.Empty(t, Select(Available{Stock: true}, 0))
	assert.Empty(t, Select(Available{Stock: true}, -1))
}

func TestSVGRenderer(t *testing.T) {
	dir := t.TempDir()
	r := SVGRenderer{Dir: filepath.Join(dir, "charts")}

	path, err := r.Render(context.Background(),
		Spec{ID: "ch-returns", Kind: "line", Title: "Returns <by> Ticker"},
		Data{Lines: []Line{{Name: "TSLA", Values: []float64{0, 1.5, -2}}, {Name: "BYD", Values: []float64{0, 3}}}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "charts", "ch-returns.svg"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	svg := string(raw)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Equal(t, 2, strings.Count(svg, "<polyline"))
	assert.Contains(t, svg, "Returns &lt;by&gt; Ticker")

	path, err = r.Render(context.Background(),
		Spec{ID: "ch-volatility", Kind: "bar", Title: "Volatility"},
		Data{Labels: []string{"TSLA", "BYD"}, Values: []float64{2.5, -1}})
	require.NoError(t, err)
	raw, _ = os.ReadFile(path)
	assert.Equal(t, 3, strings.Count(string(raw), "<rect"), "background plus two bars")
}

func TestSVGRenderer_SkipAndErrors(t *testing.T) {
	r := SVGRenderer{Dir: t.TempDir()}

	path, err := r.Render(context.Background(), Spec{ID: "x", Kind: "bar"}, Data{})
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = r.Render(context.Background(), Spec{ID: "x", Kind: "pie"}, Data{Values: []float64{1}})
	assert.ErrorContains(t, err, "unsupported kind")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, Spec{ID: "x", Kind: "bar"}, Data{Values: []float64{1}})
	assert.ErrorIs(t, err, context.Canceled)
}
