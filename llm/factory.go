package llm

import (
	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/log"
)

// New returns the summarizer selected by cfg. Missing credentials and the
// "none" provider give an Unavailable summarizer rather than an error, so a
// run without a model still completes with fallback text.
func New(cfg config.LLM) Summarizer {
	if cfg.Provider == "none" {
		return Unavailable{Reason: "provider is none"}
	}
	if cfg.APIKey == "" {
		log.Warn("[LLM] OPENAI_API_KEY not found, using fallback content")
		return Unavailable{Reason: "OPENAI_API_KEY not set"}
	}

	var (
		s   Summarizer
		err error
	)
	switch cfg.Provider {
	case "langchain":
		s, err = NewLangchainOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature)
	default:
		s, err = NewOpenAISummarizer(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature)
	}
	if err != nil {
		log.Warn("[LLM] %v, using fallback content", err)
		return Unavailable{Reason: err.Error()}
	}
	return s
}
