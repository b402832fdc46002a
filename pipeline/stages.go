package pipeline

import (
	"cmp"
	"math"
	"slices"

	"github.com/smallnest/trendreport/chart"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/report"
	"github.com/smallnest/trendreport/state"
	"github.com/smallnest/trendreport/tool"
)

// Branch names passed to the merge schema as update origins.
const (
	BranchMarket  = "market"
	BranchCompany = "company"
	BranchStock   = "stock"
)

// Stage names.
const (
	StageParseRequest         = "parse_request"
	StageCollectMarketDocs    = "collect_market_docs"
	StageIndexMarketDocs      = "index_market_docs"
	StageExtractMarketSignals = "extract_market_signals"
	StageValidateMarket       = "validate_citations_market"
	StageCollectCompanyDocs   = "collect_company_docs"
	StageIndexCompanyDocs     = "index_company_docs"
	StageComposeDossiers      = "compose_company_dossiers"
	StageValidateCompany      = "validate_citations_company"
	StageFetchPrices          = "fetch_prices_financials"
	StageComputeSnapshots     = "compute_snapshots"
	StageValidateFinancials   = "validate_financial_consistency"
	StageMergeArtifacts       = "merge_artifacts"
	StageSelectChartSpecs     = "select_chart_specs"
	StageRenderCharts         = "render_charts"
	StageRegisterChartAssets  = "register_chart_assets"
	StageAssembleOutline      = "assemble_outline"
	StageComposeSections      = "compose_sections"
	StageQAGate               = "qa_gate"
	StageExportReport         = "export_report"
	StagePostExportQC         = "post_export_qc"
)

// Deps are the collaborators a run talks to. Nil fields fall back to offline
// implementations in New.
type Deps struct {
	Searcher   tool.Searcher
	Summarizer llm.Summarizer
	Fetcher    finance.Fetcher
	Charts     chart.Renderer
	Exporter   *report.Exporter

	// MarketResults overrides the per-query market result limit when positive.
	MarketResults int

	// OutputDir receives charts/, reports/ and evidence.jsonl.
	OutputDir  string
	ExportName string

	Metrics *Metrics
}

// stages holds the collaborators and the reference allocator of one run.
type stages struct {
	collector  *tool.Collector
	summarizer llm.Summarizer
	fetcher    finance.Fetcher
	offline    finance.Fetcher
	charts     chart.Renderer
	exporter   *report.Exporter
	composer   *report.Composer
	outDir     string
	name       string
	metrics    *Metrics

	alloc *citation.Allocator
}

// recovered builds an error entry for a failure the stage worked around and
// counts the fallback.
func (s *stages) recovered(stage string, kind state.ErrorKind, err error) state.ErrorEntry {
	s.metrics.fallback(stage, kind)
	return state.ErrorEntry{Stage: stage, Kind: kind, Message: err.Error()}
}

// Coverage is the advisory citation coverage: n references against the
// minimum the run asked for, capped at 1.
func Coverage(n, minReferences int) float64 {
	if n <= 0 {
		return 0
	}
	if minReferences <= 0 {
		return 1
	}
	return math.Min(1, float64(n)/float64(minReferences))
}

// sortedErrors orders entries collected from concurrent workers.
func sortedErrors(errs []state.ErrorEntry) []state.ErrorEntry {
	slices.SortFunc(errs, func(a, b state.ErrorEntry) int { return cmp.Compare(a.Message, b.Message) })
	return errs
}
