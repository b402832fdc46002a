package state

import (
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/smallnest/trendreport/chart"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/rag"
)

// NewRunID returns an id of the form run-<8 hex digits>.
func NewRunID() string {
	return "run-" + uuid.NewString()[:8]
}

// Init creates the state for a run. Omitted request fields take their
// defaults, collections start empty and every overwrite field is unowned.
func Init(cfg config.Run) RunState {
	r := cfg.WithDefaults()
	if r.RunID == "" {
		r.RunID = NewRunID()
	}
	return RunState{
		RunID:        r.RunID,
		Period:       r.Period,
		Regions:      slices.Clone(r.Regions),
		FocusIssues:  slices.Clone(r.FocusIssues),
		Segments:     slices.Clone(r.Segments),
		Depth:        r.Depth,
		SnapshotDate: r.SnapshotDate,
		Persona:      r.Persona,
		Benchmarks:   slices.Clone(r.Benchmarks),
		Policies:     slices.Clone(r.Policies),
		Constraints:  r.Constraints,
		Output: config.Output{
			Format:   r.Output.Format,
			Language: r.Output.Language,
			Sections: slices.Clone(r.Output.Sections),
		},
		Financials: config.Financials{
			BaseCurrency:    r.Financials.BaseCurrency,
			Multiples:       slices.Clone(r.Financials.Multiples),
			EventWindowDays: r.Financials.EventWindowDays,
		},
		RiskLens: maps.Clone(r.RiskLens),

		RawDocs:    []rag.Document{},
		IndexedIDs: []string{},
		Charts:     []chart.Entry{},
		Evidence:   []citation.Evidence{},
		Errors:     []ErrorEntry{},

		QAMetrics:         QAMetrics{CitationCoverage: 0, NumberConsistency: true, DocumentOK: false},
		NumberConsistency: true,
		ExportState:       "not_started",
	}
}
