package tool

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a search backend cannot be reached or is
// not configured.
var ErrUnavailable = errors.New("search backend unavailable")

// Result is a single web search hit.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

// Searcher runs a web search. Implementations return an empty slice, not an
// error, when the query has no hits.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
