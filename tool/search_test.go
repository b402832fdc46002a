package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ev demand", req.Query)
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, 3, req.MaxResults)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"A","url":"https://a","content":"short","published_date":"2025-06-01","score":0.9},
			{"title":"B","url":"https://b","content":"short","raw_content":"long body"}
		]}`))
	}))
	defer server.Close()

	s, err := NewTavilySearch("test-key", WithTavilyBaseURL(server.URL))
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "ev demand", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "A", URL: "https://a", Content: "short", PublishedDate: "2025-06-01", Score: 0.9}, results[0])
	assert.Equal(t, "long body", results[1].Content)
}

func TestTavilySearch_Errors(t *testing.T) {
	_, err := NewTavilySearch("")
	assert.ErrorIs(t, err, ErrUnavailable)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	s, err := NewTavilySearch("k", WithTavilyBaseURL(server.URL))
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "q", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "battery supply", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		assert.Equal(t, "KR", r.URL.Query().Get("country"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"One","url":"https://one","description":"first","page_age":"2025-05-02T10:00:00"},
			{"title":"Two","url":"https://two","description":"second"},
			{"title":"Three","url":"https://three","description":"third"}
		]}}`))
	}))
	defer server.Close()

	b, err := NewBraveSearch("test-key", WithBraveBaseURL(server.URL), WithBraveCountry("KR"))
	require.NoError(t, err)

	results, err := b.Search(context.Background(), "battery supply", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "2025-05-02T10:00:00", results[0].PublishedDate)
}

func TestBraveSearch_Errors(t *testing.T) {
	_, err := NewBraveSearch("")
	assert.ErrorIs(t, err, ErrUnavailable)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	b, err := NewBraveSearch("k", WithBraveBaseURL(server.URL))
	require.NoError(t, err)
	_, err = b.Search(context.Background(), "q", 5)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
