// Package rag holds the document model shared by the research branches and a
// small in-memory keyword index.
//
// The index scores a document by the number of distinct query tokens it
// contains divided by the number of distinct query tokens, filters by
// company, region, issue tag and date range, and breaks ties by the order
// documents were indexed in. It needs no embedding model, which keeps the
// branches runnable offline.
package rag
