package state

import (
	"errors"

	"github.com/smallnest/trendreport/chart"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/rag"
)

// ErrorKind classifies a recovered failure.
type ErrorKind string

const (
	KindCollaboratorUnavailable ErrorKind = "collaborator_unavailable"
	KindMalformedResponse       ErrorKind = "malformed_response"
	KindConsistencyViolation    ErrorKind = "consistency_violation"
	KindExportFailure           ErrorKind = "export_failure"
)

// ErrorEntry records a failure a stage recovered from.
type ErrorEntry struct {
	Stage   string    `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Classify maps a summarizer or search failure onto an error kind.
func Classify(err error) ErrorKind {
	if errors.Is(err, llm.ErrMalformed) {
		return KindMalformedResponse
	}
	return KindCollaboratorUnavailable
}

// MarketBrief is the market branch's summary.
type MarketBrief struct {
	Period    string              `json:"period"`
	TopTrends []string            `json:"top_trends"`
	Summary   string              `json:"summary"`
	Metrics   map[string]float64  `json:"metrics,omitempty"`
	Evidence  []citation.Evidence `json:"evidence"`
}

// CompanyDossier collects the cited points for one benchmarked company.
type CompanyDossier struct {
	Ticker   string              `json:"ticker"`
	Points   []string            `json:"points"`
	Evidence []citation.Evidence `json:"evidence"`
}

// QAMetrics are the quality figures reported at the end of a run.
type QAMetrics struct {
	CitationCoverage  float64 `json:"citation_coverage"`
	NumberConsistency bool    `json:"number_consistency"`
	DocumentOK        bool    `json:"document_ok"`
}

// RunState is the aggregate threaded through every stage of a run. Stages
// receive it by value and must treat its slices and maps as read-only; they
// report changes by returning an Update.
type RunState struct {
	RunID        string             `json:"run_id"`
	Period       string             `json:"period"`
	Regions      []string           `json:"regions"`
	FocusIssues  []string           `json:"focus_issues"`
	Segments     []string           `json:"segments"`
	Depth        string             `json:"depth"`
	SnapshotDate string             `json:"snapshot_date"`
	Persona      string             `json:"persona"`
	Benchmarks   []string           `json:"benchmarks"`
	Policies     []string           `json:"policies"`
	Constraints  config.Constraints `json:"constraints"`
	Output       config.Output      `json:"output"`
	Financials   config.Financials  `json:"financials"`
	RiskLens     map[string]float64 `json:"risk_lens"`

	// Appended by every contributor.
	RawDocs    []rag.Document      `json:"raw_docs"`
	IndexedIDs []string            `json:"indexed_ids"`
	Charts     []chart.Entry       `json:"charts"`
	Evidence   []citation.Evidence `json:"evidence_map"`
	Errors     []ErrorEntry        `json:"errors"`

	// Written by a single owner.
	MarketBrief     MarketBrief        `json:"market_brief"`
	CompanyDossiers []CompanyDossier   `json:"company_dossiers"`
	StockSnapshots  []finance.Snapshot `json:"stock_snapshots"`
	DraftReport     string             `json:"draft_report"`
	ReportHTML      string             `json:"-"`
	HTMLPath        string             `json:"html_path,omitempty"`
	ReportPath      string             `json:"report_path"`
	QAMetrics       QAMetrics          `json:"qa_metrics"`
	ExportState     string             `json:"export_state"`

	// Branch caches.
	MarketDocs        []rag.Document                  `json:"market_docs,omitempty"`
	MarketIndex       *rag.Index                      `json:"-"`
	CompanyDocs       []rag.Document                  `json:"company_docs,omitempty"`
	CompanyIndex      *rag.Index                      `json:"-"`
	Series            map[string]finance.Series       `json:"series,omitempty"`
	Fundamentals      map[string]finance.Fundamentals `json:"fundamentals,omitempty"`
	NumberConsistency bool                            `json:"number_consistency"`
	ChartSpecs        []chart.Spec                    `json:"chart_specs,omitempty"`
	Outline           []string                        `json:"outline,omitempty"`

	// owners maps overwrite fields to the branch that wrote them.
	owners map[string]string
}

// Owner returns the branch that wrote field, or "" when no branch has.
func (s RunState) Owner(field string) string {
	return s.owners[field]
}
