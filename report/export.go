package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/log"
)

// ErrAllRenderersFailed is reported when no renderer produced a document and
// the intermediate HTML is delivered instead.
var ErrAllRenderersFailed = errors.New("all renderers failed")

// ExportState is a state of the export state machine.
type ExportState string

const (
	NotStarted      ExportState = "not_started"
	TryingPrimary   ExportState = "trying_primary"
	TryingSecondary ExportState = "trying_secondary"
	TryingFallback  ExportState = "trying_fallback"
	Succeeded       ExportState = "succeeded"
	Degraded        ExportState = "degraded"
)

// Attempt records one renderer call.
type Attempt struct {
	State ExportState
	Err   error
}

// Result is the outcome of an export.
type Result struct {
	State ExportState
	// Path is the deliverable: the rendered document, or the HTML when degraded.
	Path        string
	HTMLPath    string
	Attempts    []Attempt
	Transitions []ExportState
}

// Err returns nil unless the export degraded, in which case it joins
// ErrAllRenderersFailed with every renderer error.
func (r Result) Err() error {
	if r.State != Degraded {
		return nil
	}
	errs := []error{ErrAllRenderersFailed}
	for _, a := range r.Attempts {
		errs = append(errs, fmt.Errorf("%s: %w", a.State, a.Err))
	}
	return errors.Join(errs...)
}

// Exporter writes the intermediate HTML and runs the renderer chain. A nil
// renderer counts as a failed step.
type Exporter struct {
	Primary   Renderer
	Secondary Renderer
	Fallback  Renderer
}

// NewExporter returns the chain for format: Chrome, wkhtmltopdf and the text
// renderer for PDF, or the HTML itself for "html".
func NewExporter(cfg config.Export, format string) *Exporter {
	if format == "html" {
		return &Exporter{Primary: HTMLRenderer{}}
	}
	return &Exporter{
		Primary:   ChromeRenderer{ExecPath: cfg.ChromePath, Timeout: cfg.Timeout},
		Secondary: WkhtmltopdfRenderer{Binary: cfg.Wkhtmltopdf, Timeout: cfg.Timeout},
		Fallback:  TextRenderer{},
	}
}

var errNoRenderer = errors.New("renderer not configured")

// Export writes html to <dir>/<name>.html and renders <dir>/<name>.<format>.
// Renderer failures never fail the export; an error is returned only when the
// HTML itself could not be written.
func (e *Exporter) Export(ctx context.Context, html, dir, name, format string) (Result, error) {
	res := Result{State: NotStarted, Transitions: []ExportState{NotStarted}}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create report dir: %w", err)
	}
	res.HTMLPath = filepath.Join(dir, name+".html")
	if err := os.WriteFile(res.HTMLPath, []byte(html), 0o644); err != nil {
		return res, fmt.Errorf("write intermediate html: %w", err)
	}
	dst := filepath.Join(dir, name+"."+format)

	steps := []struct {
		state    ExportState
		renderer Renderer
	}{
		{TryingPrimary, e.Primary},
		{TryingSecondary, e.Secondary},
		{TryingFallback, e.Fallback},
	}
	for _, step := range steps {
		res.State = step.state
		res.Transitions = append(res.Transitions, step.state)

		path, err := render(ctx, step.renderer, res.HTMLPath, dst)
		if err == nil {
			log.Info("[Export] %s succeeded: %s", step.state, path)
			res.State = Succeeded
			res.Path = path
			res.Transitions = append(res.Transitions, Succeeded)
			return res, nil
		}
		log.Warn("[Export] %s failed: %v", step.state, err)
		res.Attempts = append(res.Attempts, Attempt{State: step.state, Err: err})
	}

	res.State = Degraded
	res.Path = res.HTMLPath
	res.Transitions = append(res.Transitions, Degraded)
	return res, nil
}

func render(ctx context.Context, r Renderer, src, dst string) (path string, err error) {
	if r == nil {
		return "", errNoRenderer
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("renderer panic: %v", p)
		}
	}()
	path, err = r.Render(ctx, src, dst)
	if err == nil && path == "" {
		err = errors.New("renderer returned no path")
	}
	return path, err
}

// DocumentOK reports whether path carries the extension of format.
func DocumentOK(path, format string) bool {
	return path != "" && strings.EqualFold(filepath.Ext(path), "."+format)
}
