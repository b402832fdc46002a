package state

import (
	"github.com/smallnest/trendreport/chart"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/rag"
)

// Value is an optional overwrite. The zero Value leaves the field untouched,
// so writing an empty result is distinct from not writing at all.
type Value[T any] struct {
	v   T
	set bool
}

// Set wraps v as a write.
func Set[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Get returns the value and whether it was set.
func (v Value[T]) Get() (T, bool) {
	return v.v, v.set
}

// IsSet reports whether the value is a write.
func (v Value[T]) IsSet() bool {
	return v.set
}

// Update is the partial result of one stage.
type Update struct {
	RawDocs    []rag.Document
	IndexedIDs []string
	Charts     []chart.Entry
	Evidence   []citation.Evidence
	Errors     []ErrorEntry

	MarketBrief     Value[MarketBrief]
	CompanyDossiers Value[[]CompanyDossier]
	StockSnapshots  Value[[]finance.Snapshot]
	DraftReport     Value[string]
	ReportHTML      Value[string]
	HTMLPath        Value[string]
	ReportPath      Value[string]
	QAMetrics       Value[QAMetrics]
	ExportState     Value[string]

	MarketDocs        Value[[]rag.Document]
	MarketIndex       Value[*rag.Index]
	CompanyDocs       Value[[]rag.Document]
	CompanyIndex      Value[*rag.Index]
	Series            Value[map[string]finance.Series]
	Fundamentals      Value[map[string]finance.Fundamentals]
	NumberConsistency Value[bool]
	ChartSpecs        Value[[]chart.Spec]
	Outline           Value[[]string]
}

// Failed returns an update that records a single error entry.
func Failed(stage string, kind ErrorKind, err error) Update {
	return Update{Errors: []ErrorEntry{{Stage: stage, Kind: kind, Message: err.Error()}}}
}
