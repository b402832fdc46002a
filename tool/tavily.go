package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TavilySearch queries the Tavily search API.
type TavilySearch struct {
	APIKey      string
	BaseURL     string
	SearchDepth string
	Client      *http.Client
}

type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL sets the endpoint, mainly for tests.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *TavilySearch) {
		t.BaseURL = baseURL
	}
}

// WithTavilySearchDepth sets "basic" or "advanced".
func WithTavilySearchDepth(depth string) TavilyOption {
	return func(t *TavilySearch) {
		t.SearchDepth = depth
	}
}

// WithTavilyHTTPClient replaces the HTTP client.
func WithTavilyHTTPClient(c *http.Client) TavilyOption {
	return func(t *TavilySearch) {
		t.Client = c
	}
}

// NewTavilySearch creates a Tavily searcher. An empty key yields ErrUnavailable.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily: %w: TAVILY_API_KEY not set", ErrUnavailable)
	}
	t := &TavilySearch{
		APIKey:      apiKey,
		BaseURL:     "https://api.tavily.com/search",
		SearchDepth: "advanced",
		Client:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		RawContent    string  `json:"raw_content"`
		PublishedDate string  `json:"published_date"`
		Score         float64 `json:"score"`
	} `json:"results"`
}

// Search implements Searcher.
func (t *TavilySearch) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.APIKey,
		SearchDepth: t.SearchDepth,
		MaxResults:  max(maxResults, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: %w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]Result, 0, len(body.Results))
	for _, r := range body.Results {
		content := r.Content
		if r.RawContent != "" {
			content = r.RawContent
		}
		results = append(results, Result{
			Title:         r.Title,
			URL:           r.URL,
			Content:       content,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}
	return results, nil
}
