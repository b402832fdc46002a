package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/report"
	"github.com/smallnest/trendreport/state"
)

// EvidenceFile is the name of the evidence log written next to the report.
const EvidenceFile = "evidence.jsonl"

func (s *stages) parseRequest(_ context.Context, st state.RunState) (state.Update, error) {
	log.Info("[Request] run %s: period %s, regions %v, benchmarks %v, persona %s, format %s",
		st.RunID, st.Period, st.Regions, st.Benchmarks, st.Persona, st.Output.Format)
	return state.Update{
		QAMetrics: state.Set(state.QAMetrics{CitationCoverage: 0, NumberConsistency: true, DocumentOK: false}),
	}, nil
}

func draftInput(st state.RunState) report.DraftInput {
	return report.DraftInput{
		Brief:     st.MarketBrief,
		Dossiers:  st.CompanyDossiers,
		Snapshots: st.StockSnapshots,
		Charts:    st.Charts,
		Evidence:  st.Evidence,
	}
}

func (s *stages) mergeArtifacts(_ context.Context, st state.RunState) (state.Update, error) {
	draft := report.Draft(draftInput(st))
	log.Info("[Merge] draft assembled: %d references, %d recovered errors", len(st.Evidence), len(st.Errors))
	return state.Update{DraftReport: state.Set(draft)}, nil
}

func (s *stages) assembleOutline(_ context.Context, st state.RunState) (state.Update, error) {
	return state.Update{Outline: state.Set(report.Outline(st.Output.Sections))}, nil
}

func (s *stages) composeSections(ctx context.Context, st state.RunState) (state.Update, error) {
	html, failures, err := s.composer.Compose(ctx, report.ComposeInput{
		DraftInput:   draftInput(st),
		RunID:        st.RunID,
		Period:       st.Period,
		SnapshotDate: st.SnapshotDate,
		Persona:      st.Persona,
		Language:     st.Output.Language,
		Regions:      st.Regions,
		Benchmarks:   st.Benchmarks,
		RiskLens:     st.RiskLens,
		Outline:      st.Outline,
		QA:           qaMetrics(st),
		Errors:       st.Errors,
		AssetDir:     s.reportDir(),
	})
	if err != nil {
		return state.Update{}, err
	}
	for _, f := range failures {
		s.metrics.fallback(f.Stage, f.Kind)
	}
	return state.Update{ReportHTML: state.Set(html), Errors: failures}, nil
}

func qaMetrics(st state.RunState) state.QAMetrics {
	return state.QAMetrics{
		CitationCoverage:  Coverage(len(st.Evidence), st.Constraints.MinReferences),
		NumberConsistency: st.NumberConsistency,
		DocumentOK:        st.QAMetrics.DocumentOK,
	}
}

// qaGate computes the quality figures. They are advisory: a low coverage is
// logged but never stops the run.
func (s *stages) qaGate(_ context.Context, st state.RunState) (state.Update, error) {
	qa := qaMetrics(st)
	if qa.CitationCoverage < 1 {
		log.Warn("[QA] citation coverage %.2f below target (%d of %d references)",
			qa.CitationCoverage, len(st.Evidence), st.Constraints.MinReferences)
	}
	if !qa.NumberConsistency {
		log.Warn("[QA] stock figures failed the consistency check")
	}
	return state.Update{QAMetrics: state.Set(qa)}, nil
}

func (s *stages) reportDir() string {
	return filepath.Join(s.outDir, "reports")
}

func (s *stages) exportReport(ctx context.Context, st state.RunState) (state.Update, error) {
	if err := writeEvidence(filepath.Join(s.outDir, EvidenceFile), st.Evidence); err != nil {
		return state.Update{}, err
	}

	res, err := s.exporter.Export(ctx, st.ReportHTML, s.reportDir(), s.name, st.Output.Format)
	s.metrics.exported(res.State)
	if err != nil {
		return state.Update{}, err
	}
	var u state.Update
	for _, a := range res.Attempts {
		u.Errors = append(u.Errors, s.recovered(StageExportReport, state.KindExportFailure, fmt.Errorf("%s: %w", a.State, a.Err)))
	}
	if err := res.Err(); err != nil {
		log.Warn("[Export] delivering HTML: %v", err)
	} else {
		log.Info("[Export] %s: %s", res.State, res.Path)
	}
	u.ReportPath = state.Set(res.Path)
	u.HTMLPath = state.Set(res.HTMLPath)
	u.ExportState = state.Set(string(res.State))
	return u, nil
}

// writeEvidence checks the references are unique and writes the log.
func writeEvidence(path string, evidence []citation.Evidence) error {
	if err := citation.Verify(evidence); err != nil {
		return fmt.Errorf("evidence map: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create evidence log: %w", err)
	}
	if err := citation.WriteLog(f, evidence); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *stages) postExportQC(_ context.Context, st state.RunState) (state.Update, error) {
	qa := st.QAMetrics
	qa.DocumentOK = report.DocumentOK(st.ReportPath, st.Output.Format)
	if !qa.DocumentOK {
		log.Warn("[QA] delivered %s is not a %s document", st.ReportPath, st.Output.Format)
	}
	return state.Update{QAMetrics: state.Set(qa)}, nil
}
