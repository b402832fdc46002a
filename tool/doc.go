// Package tool retrieves source documents for a report run.
//
// Two web search backends implement Searcher: TavilySearch and BraveSearch.
// A Collector runs the market and company queries against a Searcher and
// converts hits into rag.Document values; Normalize then repairs dates, strips
// markup and truncates long bodies.
//
// When no backend is configured or every query fails, callers fall back to
// PlaceholderMarketDocs and PlaceholderCompanyDocs so the run can continue:
//
//	docs, err := tool.NewCollector(searcher).MarketSources(ctx, req)
//	if err != nil {
//		docs = tool.PlaceholderMarketDocs(snapshotDate)
//	}
//	docs = tool.Normalize(docs, snapshotDate)
package tool
