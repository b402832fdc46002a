package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/rag"
)

// ErrNoResults is returned by a collector when every query came back empty.
var ErrNoResults = errors.New("search returned no results")

const maxResultText = 5000

// MarketRequest describes the market being researched.
type MarketRequest struct {
	Regions     []string
	FocusIssues []string
	Period      string
}

// Queries returns the market search queries in issue order.
func (r MarketRequest) Queries() []string {
	regions := strings.Join(r.Regions, " ")
	issues := strings.Join(r.FocusIssues, " ")
	if issues == "" {
		issues = "EV market trends"
	}
	return []string{
		fmt.Sprintf("electric vehicle EV market trends %s %s", regions, r.Period),
		fmt.Sprintf("EV sales statistics %s 2024 2025", regions),
		fmt.Sprintf("%s electric vehicle policy %s", issues, regions),
	}
}

// CompanyQueries returns the search queries for one ticker.
func CompanyQueries(ticker, period string) []string {
	return []string{
		fmt.Sprintf("%s electric vehicle business strategy pricing %s", ticker, period),
		fmt.Sprintf("%s EV battery technology supply chain news", ticker),
	}
}

// Collector turns search results into source documents.
type Collector struct {
	Searcher Searcher

	// MarketResults and CompanyResults are the per-query result limits.
	MarketResults  int
	CompanyResults int
}

// NewCollector returns a collector with the default per-query limits.
func NewCollector(s Searcher) *Collector {
	return &Collector{Searcher: s, MarketResults: 3, CompanyResults: 2}
}

// MarketSources runs the market queries. Queries that fail are skipped; an
// error is returned only when no query produced a document.
func (c *Collector) MarketSources(ctx context.Context, req MarketRequest) ([]rag.Document, error) {
	if !c.ready() {
		return nil, ErrUnavailable
	}
	region := "global"
	if len(req.Regions) > 0 {
		region = req.Regions[0]
	}
	return c.collect(ctx, req.Queries(), c.MarketResults, func(r Result) rag.Document {
		return rag.Document{
			Title:     r.Title,
			URL:       r.URL,
			Date:      r.PublishedDate,
			Kind:      "news",
			Lang:      "en",
			Text:      truncateRunes(r.Content, maxResultText),
			Source:    "web_search",
			Region:    region,
			IssueTags: req.FocusIssues,
		}
	})
}

// CompanySources runs the company queries for every ticker.
func (c *Collector) CompanySources(ctx context.Context, tickers []string, period string) ([]rag.Document, error) {
	if !c.ready() {
		return nil, ErrUnavailable
	}
	var docs []rag.Document
	var errs []error
	for _, tk := range tickers {
		got, err := c.collect(ctx, CompanyQueries(tk, period), c.CompanyResults, func(r Result) rag.Document {
			return rag.Document{
				Title:     r.Title,
				URL:       r.URL,
				Date:      r.PublishedDate,
				Kind:      "ir",
				Lang:      "en",
				Text:      truncateRunes(r.Content, maxResultText),
				Source:    "web_search",
				Company:   tk,
				IssueTags: []string{"pricing", "battery", "strategy"},
			}
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tk, err))
			continue
		}
		docs = append(docs, got...)
	}
	if len(docs) == 0 {
		if len(errs) == 0 {
			return nil, ErrNoResults
		}
		return nil, errors.Join(errs...)
	}
	return docs, nil
}

func (c *Collector) ready() bool {
	return c != nil && c.Searcher != nil
}

func (c *Collector) collect(ctx context.Context, queries []string, limit int, convert func(Result) rag.Document) ([]rag.Document, error) {
	var docs []rag.Document
	var lastErr error
	for _, q := range queries {
		results, err := c.Searcher.Search(ctx, q, limit)
		if err != nil {
			log.Warn("[Collector] query %q failed: %v", q, err)
			lastErr = err
			continue
		}
		for _, r := range results {
			docs = append(docs, convert(r))
		}
	}
	if len(docs) > 0 {
		return docs, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoResults
}

// PlaceholderMarketDocs is the fixed market document set used when search is
// unavailable.
func PlaceholderMarketDocs(date string) []rag.Document {
	return []rag.Document{
		{
			Title:     "Global EV Sales Update",
			URL:       "https://example.com/ev",
			Date:      date,
			Kind:      "news",
			Lang:      "en",
			Text:      "Global EV sales growth slowed as demand softened in several markets while price cuts continued.",
			Source:    "placeholder",
			Region:    "global",
			IssueTags: []string{"demand_softness"},
		},
		{
			Title:     "EU Subsidy Change",
			URL:       "https://example.com/eu",
			Date:      date,
			Kind:      "policy",
			Lang:      "en",
			Text:      "EU member states revised EV purchase subsidies, shifting incentives toward lower priced models.",
			Source:    "placeholder",
			Region:    "EU",
			IssueTags: []string{"subsidy_policy"},
		},
	}
}

// PlaceholderCompanyDocs returns one investor relations document per ticker.
func PlaceholderCompanyDocs(tickers []string, date string) []rag.Document {
	docs := make([]rag.Document, 0, len(tickers))
	for _, tk := range tickers {
		docs = append(docs, rag.Document{
			Title:     tk + " IR Deck",
			URL:       "https://example.com/" + tk,
			Date:      date,
			Kind:      "ir",
			Lang:      "en",
			Text:      tk + " discusses pricing strategy, margin pressure, and battery integration.",
			Source:    "placeholder",
			Company:   tk,
			IssueTags: []string{"pricing", "battery_vertical_integration"},
		})
	}
	return docs
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
