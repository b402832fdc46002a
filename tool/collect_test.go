package tool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string, maxResults int) ([]Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	r := f.results[query]
	if len(r) > maxResults {
		r = r[:maxResults]
	}
	return r, nil
}

func TestMarketRequest_Queries(t *testing.T) {
	q := MarketRequest{Regions: []string{"KR", "EU"}, Period: "last_90d"}.Queries()
	assert.Equal(t, []string{
		"electric vehicle EV market trends KR EU last_90d",
		"EV sales statistics KR EU 2024 2025",
		"EV market trends electric vehicle policy KR EU",
	}, q)
}

func TestCollector_MarketSources(t *testing.T) {
	req := MarketRequest{Regions: []string{"EU"}, FocusIssues: []string{"subsidy_policy"}, Period: "last_90d"}
	f := &fakeSearcher{results: map[string][]Result{
		req.Queries()[0]: {{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"}},
		req.Queries()[2]: {{Title: "e", Content: strings.Repeat("x", 6000)}},
	}}

	docs, err := NewCollector(f).MarketSources(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, docs, 4)
	assert.Len(t, f.queries, 3)
	assert.Equal(t, "EU", docs[0].Region)
	assert.Equal(t, "news", docs[0].Kind)
	assert.Equal(t, []string{"subsidy_policy"}, docs[0].IssueTags)
	assert.Len(t, docs[3].Text, maxResultText)
}

func TestCollector_MarketSourcesFailures(t *testing.T) {
	_, err := NewCollector(&fakeSearcher{}).MarketSources(context.Background(), MarketRequest{})
	assert.ErrorIs(t, err, ErrNoResults)

	boom := errors.New("boom")
	_, err = NewCollector(&fakeSearcher{err: boom}).MarketSources(context.Background(), MarketRequest{})
	assert.ErrorIs(t, err, boom)

	var c *Collector
	_, err = c.MarketSources(context.Background(), MarketRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.CompanySources(context.Background(), []string{"TSLA"}, "q")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = NewCollector(nil).CompanySources(context.Background(), []string{"TSLA"}, "q")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCollector_CompanySources(t *testing.T) {
	f := &fakeSearcher{results: map[string][]Result{
		CompanyQueries("TSLA", "last_90d")[0]: {{Title: "t1"}, {Title: "t2"}, {Title: "t3"}},
		CompanyQueries("BYD", "last_90d")[1]:  {{Title: "b1"}},
	}}
	docs, err := NewCollector(f).CompanySources(context.Background(), []string{"TSLA", "BYD"}, "last_90d")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "TSLA", docs[0].Company)
	assert.Equal(t, "BYD", docs[2].Company)
	assert.Equal(t, "ir", docs[2].Kind)
}

func TestPlaceholders(t *testing.T) {
	market := PlaceholderMarketDocs("2025-06-30")
	require.Len(t, market, 2)
	assert.Equal(t, "global", market[0].Region)
	assert.Equal(t, "2025-06-30", market[1].Date)

	company := PlaceholderCompanyDocs([]string{"TSLA", "BYD"}, "2025-06-30")
	require.Len(t, company, 2)
	assert.Equal(t, "BYD IR Deck", company[1].Title)
	assert.Equal(t, "https://example.com/BYD", company[1].URL)
	assert.Contains(t, company[0].Text, "pricing strategy")
}
