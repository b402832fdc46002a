package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs() []Document {
	return []Document{
		{ID: "a", Title: "Global EV sales", Text: "EV sales growth slowed in Europe", Region: "global", Date: "2025-06-01", IssueTags: []string{"demand"}},
		{ID: "b", Title: "EU subsidy", Text: "EU subsidy rules changed for EV buyers", Region: "EU", Date: "2025-05-01", IssueTags: []string{"subsidy_policy"}},
		{ID: "c", Title: "TSLA deck", Text: "TSLA pricing strategy and margin pressure", Company: "TSLA", Region: "US", Date: "2025-04-01"},
		{ID: "d", Title: "BYD deck", Text: "BYD pricing strategy and battery integration", Company: "BYD", Region: "CN", Date: "2025-03-01"},
	}
}

func TestQuery_ScoreAndTieOrder(t *testing.T) {
	idx := BuildIndex(sampleDocs())
	require.Equal(t, 4, idx.Len())

	hits := idx.Query("pricing strategy", Filters{}, 10)
	require.Len(t, hits, 2)
	assert.Equal(t, "c", hits[0].DocID, "ties keep index order")
	assert.Equal(t, "d", hits[1].DocID)
	assert.Equal(t, 1.0, hits[0].Score)

	hits = idx.Query("EV sales subsidy", Filters{}, 10)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].DocID)
	assert.InDelta(t, 2.0/3.0, hits[0].Score, 1e-4)
	assert.Equal(t, "b", hits[1].DocID)
}

func TestQuery_TopK(t *testing.T) {
	idx := BuildIndex(sampleDocs())
	assert.Len(t, idx.Query("EV pricing", Filters{}, 1), 1)
	assert.Nil(t, idx.Query("EV", Filters{}, 0))
	assert.Nil(t, idx.Query("!!!", Filters{}, 3))
	assert.Empty(t, idx.Query("unrelated words", Filters{}, 3))
}

func TestQuery_Filters(t *testing.T) {
	idx := BuildIndex(sampleDocs())

	hits := idx.Query("pricing strategy", Filters{Company: []string{"BYD"}}, 4)
	require.Len(t, hits, 1)
	assert.Equal(t, "d", hits[0].DocID)

	hits = idx.Query("EV", Filters{Region: []string{"EU"}}, 4)
	assert.Equal(t, []string{"a", "b"}, ids(hits), "global documents pass every region filter")

	hits = idx.Query("EV", Filters{IssueTags: []string{"subsidy_policy"}}, 4)
	assert.Equal(t, []string{"b"}, ids(hits))

	hits = idx.Query("EV", Filters{Dates: DateRange{Start: "2025-05-15"}}, 4)
	assert.Equal(t, []string{"a"}, ids(hits))
}

func TestBuildIndex_FallbackContentAndIDs(t *testing.T) {
	idx := BuildIndex([]Document{{Title: "Battery outlook", URL: "https://example.com/battery"}})
	hits := idx.Query("battery", Filters{}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-0", hits[0].DocID)
}

func TestSnippetTruncation(t *testing.T) {
	long := strings.Repeat("word ", 200)
	idx := BuildIndex([]Document{{ID: "x", Text: long}})
	hits := idx.Query("word", Filters{}, 1)
	require.Len(t, hits, 1)
	assert.True(t, strings.HasSuffix(hits[0].Snippet, "..."))
	assert.Len(t, []rune(hits[0].Snippet), snippetLength+3)
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Query("x", Filters{}, 3))
}

func ids(ps []Passage) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.DocID)
	}
	return out
}
