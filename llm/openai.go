package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/smallnest/trendreport/log"
)

// OpenAISummarizer implements Summarizer with the go-openai client.
type OpenAISummarizer struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAISummarizer returns a summarizer for model. baseURL may point at
// any OpenAI compatible endpoint; empty uses the public API.
func NewOpenAISummarizer(apiKey, baseURL, model string, temperature float64) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrUnavailable)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAISummarizer{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: float32(temperature),
	}, nil
}

func (o *OpenAISummarizer) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformed)
	}
	log.Debug("[LLM] %s finished: %s", o.model, resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// SummarizeMarket implements Summarizer.
func (o *OpenAISummarizer) SummarizeMarket(ctx context.Context, req MarketRequest) (MarketSummary, error) {
	return summarizeMarket(ctx, o.complete, req)
}

// SummarizeCompany implements Summarizer.
func (o *OpenAISummarizer) SummarizeCompany(ctx context.Context, req CompanyRequest) (CompanySummary, error) {
	return summarizeCompany(ctx, o.complete, req)
}

// WriteSection implements Summarizer.
func (o *OpenAISummarizer) WriteSection(ctx context.Context, req SectionRequest) (string, error) {
	return writeSection(ctx, o.complete, req)
}
