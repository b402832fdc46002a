package state

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	cfg := config.Run{Period: "last_30d", Benchmarks: []string{"TSLA", "BYD"}, SnapshotDate: "2025-06-30"}
	s := Init(cfg)

	assert.Regexp(t, `^run-[0-9a-f]{8}$`, s.RunID)
	assert.Equal(t, "last_30d", s.Period)
	assert.Equal(t, []string{"global"}, s.Regions)
	assert.Equal(t, "corporate_strategy", s.Persona)
	assert.Equal(t, 6, s.Constraints.MinReferences)
	assert.Equal(t, "USD", s.Financials.BaseCurrency)
	assert.Empty(t, s.Evidence)
	assert.NotNil(t, s.Evidence)
	assert.Equal(t, QAMetrics{NumberConsistency: true}, s.QAMetrics)

	cfg.Benchmarks[0] = "NIO"
	assert.Equal(t, "TSLA", s.Benchmarks[0], "scalars are copied, not aliased")

	assert.Equal(t, "run-fixed", Init(config.Run{RunID: "run-fixed"}).RunID)
}

func TestMerge_AppendIsOrderIndependent(t *testing.T) {
	base := Init(config.Run{RunID: "r"})
	market := Update{
		RawDocs:  []rag.Document{{ID: "m1"}, {ID: "m2"}},
		Evidence: []citation.Evidence{{Ref: 1, Section: citation.SectionMarket}, {Ref: 2, Section: citation.SectionMarket}},
	}
	company := Update{
		Evidence: []citation.Evidence{{Ref: 3, Section: citation.SectionCompany}},
		Errors:   []ErrorEntry{{Stage: "collect_company_docs", Kind: KindCollaboratorUnavailable}},
	}

	ab, err := Merge(base, market, "market")
	require.NoError(t, err)
	ab, err = Merge(ab, company, "company")
	require.NoError(t, err)

	ba, err := Merge(base, company, "company")
	require.NoError(t, err)
	ba, err = Merge(ba, market, "market")
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.IgnoreUnexported(RunState{}),
		cmpopts.SortSlices(func(a, b citation.Evidence) bool { return a.Ref < b.Ref }),
	}
	assert.Empty(t, cmp.Diff(ab, ba, opts))
	assert.Equal(t, []int{1, 2, 3}, refs(ab.Evidence), "within a contributor append order is kept")
	assert.Equal(t, []int{3, 1, 2}, refs(ba.Evidence))
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	base := Init(config.Run{RunID: "r"})
	base.Evidence = make([]citation.Evidence, 1, 8)
	base.Evidence[0] = citation.Evidence{Ref: 1}

	a, err := Merge(base, Update{Evidence: []citation.Evidence{{Ref: 2}}}, "market")
	require.NoError(t, err)
	b, err := Merge(base, Update{Evidence: []citation.Evidence{{Ref: 3}}}, "company")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, refs(a.Evidence))
	assert.Equal(t, []int{1, 3}, refs(b.Evidence))
	assert.Len(t, base.Evidence, 1)
	assert.Empty(t, base.Owner("market_brief"))
}

func TestMerge_Ownership(t *testing.T) {
	s := Init(config.Run{RunID: "r"})

	s, err := Merge(s, Update{MarketBrief: Set(MarketBrief{Summary: "first"})}, "market")
	require.NoError(t, err)
	assert.Equal(t, "market", s.Owner("market_brief"))

	s, err = Merge(s, Update{MarketBrief: Set(MarketBrief{Summary: "second"})}, "market")
	require.NoError(t, err, "the owner may rewrite its own field")
	assert.Equal(t, "second", s.MarketBrief.Summary)

	before := s
	_, err = Merge(s, Update{
		Evidence:    []citation.Evidence{{Ref: 9}},
		MarketBrief: Set(MarketBrief{Summary: "stolen"}),
	}, "company")
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, ConflictError{Field: "market_brief", Owner: "market", Writer: "company"}, *conflict)
	assert.Equal(t, "second", before.MarketBrief.Summary)

	s, err = Merge(s, Update{MarketBrief: Set(MarketBrief{Summary: "final"})}, "")
	require.NoError(t, err, "mainline stages run after the join")
	assert.Equal(t, "final", s.MarketBrief.Summary)
	assert.Equal(t, "market", s.Owner("market_brief"))
}

func TestMerge_ValueDistinguishesEmptyWrite(t *testing.T) {
	s := Init(config.Run{RunID: "r"})
	s, err := Merge(s, Update{StockSnapshots: Set([]finance.Snapshot{{Ticker: "TSLA"}})}, "stock")
	require.NoError(t, err)

	s, err = Merge(s, Update{}, "stock")
	require.NoError(t, err)
	assert.Len(t, s.StockSnapshots, 1)

	s, err = Merge(s, Update{StockSnapshots: Set([]finance.Snapshot{})}, "stock")
	require.NoError(t, err)
	assert.Empty(t, s.StockSnapshots)

	s, err = Merge(s, Update{NumberConsistency: Set(false)}, "stock")
	require.NoError(t, err)
	assert.False(t, s.NumberConsistency)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindMalformedResponse, Classify(fmt.Errorf("market: %w", llm.ErrMalformed)))
	assert.Equal(t, KindCollaboratorUnavailable, Classify(llm.ErrUnavailable))
	assert.Equal(t, KindCollaboratorUnavailable, Classify(errors.New("timeout")))
}

func TestFailed(t *testing.T) {
	u := Failed("fetch_prices_financials", KindCollaboratorUnavailable, errors.New("timeout"))
	assert.Equal(t, []ErrorEntry{{Stage: "fetch_prices_financials", Kind: KindCollaboratorUnavailable, Message: "timeout"}}, u.Errors)
}

func TestSchema(t *testing.T) {
	s, err := Schema.Update(Init(config.Run{RunID: "r"}), Update{DraftReport: Set("draft")}, "")
	require.NoError(t, err)
	assert.Equal(t, "draft", s.DraftReport)
}

func refs(ev []citation.Evidence) []int {
	out := make([]int, 0, len(ev))
	for _, e := range ev {
		out = append(out, e.Ref)
	}
	return out
}
