package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/rag"
	"github.com/smallnest/trendreport/state"
	"github.com/smallnest/trendreport/tool"
)

// maxMarketSources bounds the documents one market summary may cite.
const maxMarketSources = 10

func (s *stages) collectMarketDocs(ctx context.Context, st state.RunState) (state.Update, error) {
	var u state.Update
	docs, err := s.collector.MarketSources(ctx, tool.MarketRequest{
		Regions:     st.Regions,
		FocusIssues: st.FocusIssues,
		Period:      st.Period,
	})
	if err != nil {
		log.Warn("[Market] search failed, using placeholder documents: %v", err)
		u.Errors = append(u.Errors, s.recovered(StageCollectMarketDocs, state.KindCollaboratorUnavailable, err))
		docs = tool.PlaceholderMarketDocs(st.SnapshotDate)
	}
	docs = tool.Normalize(docs, st.SnapshotDate)
	for i := range docs {
		docs[i].ID = fmt.Sprintf("market-doc-%d", i)
	}
	log.Info("[Market] collected %d documents", len(docs))

	u.RawDocs = docs
	u.MarketDocs = state.Set(docs)
	return u, nil
}

func (s *stages) indexMarketDocs(_ context.Context, st state.RunState) (state.Update, error) {
	idx := rag.BuildIndex(st.MarketDocs)
	ids := make([]string, 0, len(st.MarketDocs))
	for _, d := range st.MarketDocs {
		ids = append(ids, d.ID)
	}
	log.Debug("[Market] indexed %d documents", idx.Len())
	return state.Update{IndexedIDs: ids, MarketIndex: state.Set(idx)}, nil
}

// marketSources picks the documents handed to the summarizer: the best
// matches for the focus issues, or the first documents when nothing matches.
func marketSources(st state.RunState) []rag.Document {
	query := strings.Join(append(slices.Clone(st.FocusIssues), "EV market sales demand policy"), " ")
	hits := st.MarketIndex.Query(query, rag.Filters{Region: st.Regions}, maxMarketSources)
	if len(hits) == 0 {
		return st.MarketDocs[:min(len(st.MarketDocs), maxMarketSources)]
	}
	docs := make([]rag.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.Doc)
	}
	return docs
}

func (s *stages) extractMarketSignals(ctx context.Context, st state.RunState) (state.Update, error) {
	var u state.Update
	docs := marketSources(st)
	block := s.alloc.Reserve(len(docs))

	sources, cites := numberSources(block, docs)
	summary, err := s.summarizer.SummarizeMarket(ctx, llm.MarketRequest{
		Period:      st.Period,
		Regions:     st.Regions,
		FocusIssues: st.FocusIssues,
		Sources:     sources,
	})
	if err != nil {
		log.Warn("[Market] summarizer failed, using fallback trends: %v", err)
		u.Errors = append(u.Errors, s.recovered(StageExtractMarketSignals, state.Classify(err), err))
		summary = llm.FallbackMarket()
	}

	evidence := citation.Cite(block, summary.ReferencedDocs, cites, citation.SectionMarket, "", st.SnapshotDate)
	keep := cited(evidence)
	u.MarketBrief = state.Set(state.MarketBrief{
		Period:    st.Period,
		TopTrends: pruneAll(summary.TopTrends, keep),
		Summary:   citation.Prune(summary.Summary, keep),
		Metrics:   summary.Metrics,
		Evidence:  evidence,
	})
	log.Info("[Market] %d trends, %d of %d sources cited (refs %d-%d)",
		len(summary.TopTrends), len(evidence), len(docs), block.Start, block.End()-1)
	return u, nil
}

func (s *stages) validateCitationsMarket(_ context.Context, st state.RunState) (state.Update, error) {
	ev := st.MarketBrief.Evidence
	if err := citation.Verify(ev); err != nil {
		return state.Update{}, fmt.Errorf("market evidence: %w", err)
	}
	return state.Update{Evidence: slices.Clone(ev)}, nil
}

// numberSources assigns block numbers to docs in order.
func numberSources(block citation.Block, docs []rag.Document) ([]llm.Source, []citation.Source) {
	sources := make([]llm.Source, 0, len(docs))
	cites := make([]citation.Source, 0, len(docs))
	for i, d := range docs {
		sources = append(sources, llm.Source{
			Ref:     block.Number(i),
			Title:   d.Title,
			URL:     d.URL,
			Date:    d.Date,
			Content: d.Content(),
		})
		cites = append(cites, citation.Source{Title: d.Title, URL: d.URL, Date: d.Date})
	}
	return sources, cites
}

// cited returns a predicate matching the references that have evidence.
func cited(evidence []citation.Evidence) func(int) bool {
	refs := make(map[int]bool, len(evidence))
	for _, e := range evidence {
		refs[e.Ref] = true
	}
	return func(n int) bool { return refs[n] }
}

func pruneAll(texts []string, keep func(int) bool) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		out = append(out, citation.Prune(t, keep))
	}
	return out
}
