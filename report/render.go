package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Renderer converts the HTML file at src into a document at dst and returns
// the path it wrote.
type Renderer interface {
	Render(ctx context.Context, src, dst string) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, src, dst string) (string, error)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, src, dst string) (string, error) {
	return f(ctx, src, dst)
}

// ChromeRenderer prints the page to PDF with headless Chrome.
type ChromeRenderer struct {
	// ExecPath overrides Chrome discovery.
	ExecPath string
	Timeout  time.Duration
}

// Render implements Renderer.
func (r ChromeRenderer) Render(ctx context.Context, src, dst string) (string, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(abs)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			pdf = buf
			return err
		}),
	)
	if err != nil {
		return "", fmt.Errorf("chrome: %w", err)
	}
	if len(pdf) == 0 {
		return "", errors.New("chrome: empty pdf")
	}
	if err := os.WriteFile(dst, pdf, 0o644); err != nil {
		return "", fmt.Errorf("chrome: %w", err)
	}
	return dst, nil
}

// WkhtmltopdfRenderer shells out to the wkhtmltopdf binary.
type WkhtmltopdfRenderer struct {
	// Binary is the executable name or path; empty means "wkhtmltopdf".
	Binary  string
	Timeout time.Duration
}

// Render implements Renderer.
func (r WkhtmltopdfRenderer) Render(ctx context.Context, src, dst string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "wkhtmltopdf"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("wkhtmltopdf: %w", err)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	out, err := exec.CommandContext(ctx, path, "--quiet", "--enable-local-file-access", src, dst).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("wkhtmltopdf: %w: %s", err, out)
	}
	if _, err := os.Stat(dst); err != nil {
		return "", fmt.Errorf("wkhtmltopdf: no output: %w", err)
	}
	return dst, nil
}

// HTMLRenderer delivers the intermediate HTML as the final document.
type HTMLRenderer struct{}

// Render implements Renderer.
func (HTMLRenderer) Render(_ context.Context, src, dst string) (string, error) {
	if src == dst {
		return dst, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
