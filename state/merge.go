package state

import (
	"fmt"
	"maps"
	"slices"

	"github.com/smallnest/trendreport/graph"
)

// ConflictError reports a write to an overwrite field that another branch
// already owns. It is a wiring bug, never a runtime condition to recover from.
type ConflictError struct {
	Field  string
	Owner  string
	Writer string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("field %s is owned by branch %s, write from branch %s rejected", e.Field, e.Owner, e.Writer)
}

// Merge folds u into current and returns the new state; current is not
// modified. Collections are appended into fresh backing arrays. Overwrite
// fields are claimed by the first branch that writes them; origin "" marks
// mainline stages, which run after the branches and never claim a field.
func Merge(current RunState, u Update, origin string) (RunState, error) {
	next := current
	next.RawDocs = appendAll(current.RawDocs, u.RawDocs)
	next.IndexedIDs = appendAll(current.IndexedIDs, u.IndexedIDs)
	next.Charts = appendAll(current.Charts, u.Charts)
	next.Evidence = appendAll(current.Evidence, u.Evidence)
	next.Errors = appendAll(current.Errors, u.Errors)

	c := claims{owners: current.owners, origin: origin}
	assign(&c, &next.MarketBrief, u.MarketBrief, "market_brief")
	assign(&c, &next.CompanyDossiers, u.CompanyDossiers, "company_dossiers")
	assign(&c, &next.StockSnapshots, u.StockSnapshots, "stock_snapshots")
	assign(&c, &next.DraftReport, u.DraftReport, "draft_report")
	assign(&c, &next.ReportHTML, u.ReportHTML, "report_html")
	assign(&c, &next.HTMLPath, u.HTMLPath, "html_path")
	assign(&c, &next.ReportPath, u.ReportPath, "report_path")
	assign(&c, &next.QAMetrics, u.QAMetrics, "qa_metrics")
	assign(&c, &next.ExportState, u.ExportState, "export_state")
	assign(&c, &next.MarketDocs, u.MarketDocs, "market_docs")
	assign(&c, &next.MarketIndex, u.MarketIndex, "market_index")
	assign(&c, &next.CompanyDocs, u.CompanyDocs, "company_docs")
	assign(&c, &next.CompanyIndex, u.CompanyIndex, "company_index")
	assign(&c, &next.Series, u.Series, "series")
	assign(&c, &next.Fundamentals, u.Fundamentals, "fundamentals")
	assign(&c, &next.NumberConsistency, u.NumberConsistency, "number_consistency")
	assign(&c, &next.ChartSpecs, u.ChartSpecs, "chart_specs")
	assign(&c, &next.Outline, u.Outline, "outline")
	if c.err != nil {
		return current, c.err
	}
	next.owners = c.owners
	return next, nil
}

// Schema merges stage updates for a graph.StateGraph.
var Schema graph.Schema[RunState, Update] = graph.SchemaFunc[RunState, Update](Merge)

func appendAll[T any](cur, add []T) []T {
	if len(add) == 0 {
		return cur
	}
	return slices.Concat(cur, add)
}

// claims tracks field ownership during one merge. The owners map is copied
// before the first new claim so earlier states keep theirs.
type claims struct {
	owners map[string]string
	copied bool
	origin string
	err    error
}

func (c *claims) claim(field string) bool {
	if c.err != nil {
		return false
	}
	if c.origin == "" {
		return true
	}
	owner, ok := c.owners[field]
	if ok && owner != c.origin {
		c.err = &ConflictError{Field: field, Owner: owner, Writer: c.origin}
		return false
	}
	if !ok {
		if !c.copied {
			c.owners = maps.Clone(c.owners)
			if c.owners == nil {
				c.owners = make(map[string]string)
			}
			c.copied = true
		}
		c.owners[field] = c.origin
	}
	return true
}

func assign[T any](c *claims, dst *T, v Value[T], field string) {
	val, ok := v.Get()
	if !ok {
		return
	}
	if c.claim(field) {
		*dst = val
	}
}
