// Package citation keeps reference numbers unique across a run.
//
// Every branch that cites documents reserves a block from the shared
// Allocator before numbering them, hands the numbered documents to the
// summarizer, and turns the markers the summarizer wrote back into Evidence
// with Cite. Clean collapses repeated adjacent markers, and the evidence log
// is written as newline-delimited JSON ordered by reference number.
package citation
