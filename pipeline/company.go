package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/rag"
	"github.com/smallnest/trendreport/state"
	"github.com/smallnest/trendreport/tool"
)

// passagesPerAspect bounds the passages one company aspect may cite.
const passagesPerAspect = 4

// aspect is one angle a dossier covers, with its retrieval query.
type aspect struct {
	name  string
	query string
}

var aspects = []aspect{
	{"business", "%s business strategy pricing margin"},
	{"risk", "%s risk regulation subsidy supply chain"},
	{"roadmap", "%s roadmap model pipeline capacity expansion"},
}

func (s *stages) collectCompanyDocs(ctx context.Context, st state.RunState) (state.Update, error) {
	var u state.Update
	docs, err := s.collector.CompanySources(ctx, st.Benchmarks, st.Period)
	if err != nil {
		log.Warn("[Company] search failed, using placeholder documents: %v", err)
		u.Errors = append(u.Errors, s.recovered(StageCollectCompanyDocs, state.KindCollaboratorUnavailable, err))
		docs = tool.PlaceholderCompanyDocs(st.Benchmarks, st.SnapshotDate)
	} else {
		var missing []string
		for _, tk := range st.Benchmarks {
			if !slices.ContainsFunc(docs, func(d rag.Document) bool { return d.Company == tk }) {
				missing = append(missing, tk)
			}
		}
		if len(missing) > 0 {
			log.Warn("[Company] no documents for %v, using placeholders", missing)
			docs = append(docs, tool.PlaceholderCompanyDocs(missing, st.SnapshotDate)...)
		}
	}
	docs = tool.Normalize(docs, st.SnapshotDate)
	for i := range docs {
		docs[i].ID = fmt.Sprintf("ir-%d", i)
	}
	log.Info("[Company] collected %d documents for %d tickers", len(docs), len(st.Benchmarks))

	u.RawDocs = docs
	u.CompanyDocs = state.Set(docs)
	return u, nil
}

func (s *stages) indexCompanyDocs(_ context.Context, st state.RunState) (state.Update, error) {
	idx := rag.BuildIndex(st.CompanyDocs)
	ids := make([]string, 0, len(st.CompanyDocs))
	for _, d := range st.CompanyDocs {
		ids = append(ids, d.ID)
	}
	log.Debug("[Company] indexed %d documents", idx.Len())
	return state.Update{IndexedIDs: ids, CompanyIndex: state.Set(idx)}, nil
}

func (s *stages) composeCompanyDossiers(ctx context.Context, st state.RunState) (state.Update, error) {
	var u state.Update
	dossiers := make([]state.CompanyDossier, 0, len(st.Benchmarks))
	for _, tk := range st.Benchmarks {
		d := state.CompanyDossier{Ticker: tk, Points: []string{}, Evidence: []citation.Evidence{}}
		for _, a := range aspects {
			points, evidence, entry := s.summarizeAspect(ctx, st, tk, a)
			if entry != nil {
				u.Errors = append(u.Errors, *entry)
			}
			d.Points = append(d.Points, points...)
			d.Evidence = append(d.Evidence, evidence...)
		}
		citation.SortByRef(d.Evidence)
		log.Info("[Company] %s: %d points, %d sources cited", tk, len(d.Points), len(d.Evidence))
		dossiers = append(dossiers, d)
	}
	u.CompanyDossiers = state.Set(dossiers)
	return u, nil
}

// summarizeAspect retrieves the passages for one aspect, reserves their
// reference numbers and asks the summarizer for cited points.
func (s *stages) summarizeAspect(ctx context.Context, st state.RunState, ticker string, a aspect) ([]string, []citation.Evidence, *state.ErrorEntry) {
	hits := st.CompanyIndex.Query(fmt.Sprintf(a.query, ticker), rag.Filters{Company: []string{ticker}}, passagesPerAspect)
	docs := make([]rag.Document, 0, len(hits))
	for _, h := range hits {
		d := h.Doc
		d.Text = h.Snippet
		docs = append(docs, d)
	}
	block := s.alloc.Reserve(len(docs))
	sources, cites := numberSources(block, docs)

	var entry *state.ErrorEntry
	summary, err := s.summarizer.SummarizeCompany(ctx, llm.CompanyRequest{Ticker: ticker, Aspect: a.name, Sources: sources})
	if err != nil {
		log.Warn("[Company] %s %s: summarizer failed: %v", ticker, a.name, err)
		e := s.recovered(StageComposeDossiers, state.Classify(err), fmt.Errorf("%s %s: %w", ticker, a.name, err))
		entry = &e
		summary = llm.FallbackCompany(ticker, a.name)
	}
	evidence := citation.Cite(block, summary.ReferencedDocs, cites, citation.SectionCompany, ticker, st.SnapshotDate)
	return pruneAll(summary.Points, cited(evidence)), evidence, entry
}

func (s *stages) validateCitationsCompany(_ context.Context, st state.RunState) (state.Update, error) {
	var ev []citation.Evidence
	for _, d := range st.CompanyDossiers {
		ev = append(ev, d.Evidence...)
	}
	if err := citation.Verify(ev); err != nil {
		return state.Update{}, fmt.Errorf("company evidence: %w", err)
	}
	return state.Update{Evidence: ev}, nil
}
