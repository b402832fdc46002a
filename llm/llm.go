package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the model could not be reached or is not configured.
	ErrUnavailable = errors.New("summarizer unavailable")
	// ErrMalformed means the model answered with something that cannot be parsed.
	ErrMalformed = errors.New("malformed summarizer response")
)

// Source is a document handed to the model under its global reference number.
type Source struct {
	Ref     int
	Title   string
	URL     string
	Date    string
	Content string
}

// MarketRequest asks for the market trends in Sources.
type MarketRequest struct {
	Period      string
	Regions     []string
	FocusIssues []string
	Sources     []Source
}

// MarketSummary is the parsed market answer. Citations are already cleaned.
type MarketSummary struct {
	TopTrends      []string           `json:"top_trends"`
	Summary        string             `json:"summary"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	ReferencedDocs []int              `json:"referenced_docs"`
}

// CompanyRequest asks for the points on one aspect of a company.
type CompanyRequest struct {
	Ticker  string
	Aspect  string
	Sources []Source
}

// CompanySummary is the parsed company answer.
type CompanySummary struct {
	Points         []string `json:"points"`
	ReferencedDocs []int    `json:"referenced_docs"`
}

// SectionRequest asks for the HTML body of one report section. Context is
// marshalled to JSON and shown to the model as is.
type SectionRequest struct {
	Section  string
	Persona  string
	Language string
	Context  any
}

// Summarizer turns numbered sources into cited text.
type Summarizer interface {
	SummarizeMarket(ctx context.Context, req MarketRequest) (MarketSummary, error)
	SummarizeCompany(ctx context.Context, req CompanyRequest) (CompanySummary, error)
	WriteSection(ctx context.Context, req SectionRequest) (string, error)
}

// completion sends one prompt and returns the raw answer.
type completion func(ctx context.Context, prompt string, jsonMode bool) (string, error)

func summarizeMarket(ctx context.Context, complete completion, req MarketRequest) (MarketSummary, error) {
	raw, err := complete(ctx, marketPrompt(req), true)
	if err != nil {
		return MarketSummary{}, err
	}
	return ParseMarket(raw)
}

func summarizeCompany(ctx context.Context, complete completion, req CompanyRequest) (CompanySummary, error) {
	raw, err := complete(ctx, companyPrompt(req), true)
	if err != nil {
		return CompanySummary{}, err
	}
	return ParseCompany(raw)
}

func writeSection(ctx context.Context, complete completion, req SectionRequest) (string, error) {
	prompt, err := sectionPrompt(req)
	if err != nil {
		return "", err
	}
	raw, err := complete(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	return ParseSection(raw)
}

// Unavailable is the Summarizer used when no model is configured. Every call
// fails with ErrUnavailable so callers take their fallback path.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err() error {
	if u.Reason == "" {
		return ErrUnavailable
	}
	return errors.Join(ErrUnavailable, errors.New(u.Reason))
}

func (u Unavailable) SummarizeMarket(context.Context, MarketRequest) (MarketSummary, error) {
	return MarketSummary{}, u.err()
}

func (u Unavailable) SummarizeCompany(context.Context, CompanyRequest) (CompanySummary, error) {
	return CompanySummary{}, u.err()
}

func (u Unavailable) WriteSection(context.Context, SectionRequest) (string, error) {
	return "", u.err()
}
