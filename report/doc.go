// Package report builds the deliverable of a run.
//
// Draft assembles the merged markdown draft from the branch outputs. Composer
// renders the outline into an HTML document, asking the summarizer for the
// prose sections and sanitizing what comes back. Exporter writes the HTML and
// runs the renderer chain (headless Chrome, wkhtmltopdf, then the built-in
// text PDF writer); when all three fail the HTML itself is delivered and the
// export ends Degraded.
package report
