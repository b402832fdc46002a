package llm

import (
	"context"
	"fmt"
	"slices"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

const systemPrompt = "You are an analyst writing an electric vehicle market trend report. Follow the requested output format exactly."

// ModelSummarizer implements Summarizer on top of any langchaingo model.
type ModelSummarizer struct {
	model llms.Model
	opts  []llms.CallOption
}

// NewModelSummarizer wraps model. opts are passed to every call.
func NewModelSummarizer(model llms.Model, opts ...llms.CallOption) *ModelSummarizer {
	return &ModelSummarizer{model: model, opts: opts}
}

// NewLangchainOpenAI builds a ModelSummarizer backed by langchaingo's OpenAI client.
func NewLangchainOpenAI(apiKey, baseURL, model string, temperature float64) (*ModelSummarizer, error) {
	opts := []lcopenai.Option{lcopenai.WithToken(apiKey)}
	if model != "" {
		opts = append(opts, lcopenai.WithModel(model))
	}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	m, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return NewModelSummarizer(m, llms.WithTemperature(temperature)), nil
}

func (m *ModelSummarizer) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	opts := slices.Clone(m.opts)
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}
	resp, err := m.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformed)
	}
	return resp.Choices[0].Content, nil
}

// SummarizeMarket implements Summarizer.
func (m *ModelSummarizer) SummarizeMarket(ctx context.Context, req MarketRequest) (MarketSummary, error) {
	return summarizeMarket(ctx, m.complete, req)
}

// SummarizeCompany implements Summarizer.
func (m *ModelSummarizer) SummarizeCompany(ctx context.Context, req CompanyRequest) (CompanySummary, error) {
	return summarizeCompany(ctx, m.complete, req)
}

// WriteSection implements Summarizer.
func (m *ModelSummarizer) WriteSection(ctx context.Context, req SectionRequest) (string, error) {
	return writeSection(ctx, m.complete, req)
}
