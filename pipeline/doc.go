// Package pipeline wires the report stages into a graph and runs it.
//
// A run fans out from parse_request into three branches:
//
//	market:  collect_market_docs → index_market_docs → extract_market_signals → validate_citations_market
//	company: collect_company_docs → index_company_docs → compose_company_dossiers → validate_citations_company
//	stock:   fetch_prices_financials → compute_snapshots → validate_financial_consistency
//
// merge_artifacts joins them, and the rest of the run is sequential: chart
// selection and rendering, outline, composition, the quality gate, export and
// the post-export check.
//
// Every stage returns a state.Update. Collaborator failures are recovered
// with fallback content and an error entry. A stage error stops the run.
package pipeline
