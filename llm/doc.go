// Package llm asks a language model to summarize numbered sources with
// citations and to write report sections.
//
// Summarizer has two model backed implementations: ModelSummarizer over any
// langchaingo llms.Model and OpenAISummarizer over go-openai. Answers are
// parsed into typed summaries with duplicate citation markers removed. When
// the model omits referenced_docs they are inferred from the [n] markers.
//
// Failures are reported as ErrUnavailable or ErrMalformed; callers replace the
// answer with FallbackMarket, FallbackCompany or FallbackSection.
package llm
