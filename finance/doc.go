// Package finance fetches price data and derives per-ticker snapshots.
//
// Fetcher has two implementations: AlphaVantage over HTTP and Offline, which
// generates deterministic series from the ticker name. Compute turns a series
// and its fundamentals into a Snapshot; CheckConsistency recomputes returns
// from the raw series and reports any snapshot outside Tolerance.
package finance
