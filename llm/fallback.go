package llm

import "fmt"

// FallbackMarket is the market summary used when the model fails.
func FallbackMarket() MarketSummary {
	return MarketSummary{
		TopTrends: []string{
			"Global EV sales growth is slowing (no summarizer)",
			"Subsidy and tariff changes are shifting demand (no summarizer)",
			"LFP/LMFP adoption is widening and keeps cost pressure on (no summarizer)",
		},
		Summary:        "The summarizer was unavailable; placeholder trends are shown.",
		ReferencedDocs: []int{},
	}
}

// FallbackCompany is the company summary used when the model fails.
func FallbackCompany(ticker, aspect string) CompanySummary {
	return CompanySummary{
		Points:         []string{fmt.Sprintf("%s %s: no summarizer output available", ticker, aspect)},
		ReferencedDocs: []int{},
	}
}

// FallbackSection is the section body used when the model fails.
func FallbackSection(section string) string {
	return fmt.Sprintf("<p>%s: content could not be generated for this run.</p>", section)
}
