package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smallnest/trendreport/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	answer   string
	err      error
	prompts  []string
	jsonMode []bool
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	m.jsonMode = append(m.jsonMode, opts.JSONMode)
	last := messages[len(messages)-1]
	if text, ok := last.Parts[0].(llms.TextContent); ok {
		m.prompts = append(m.prompts, text.Text)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.answer}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.answer, m.err
}

func TestModelSummarizer_Market(t *testing.T) {
	m := &fakeModel{answer: "```json\n" + `{"top_trends":["Sales slowed[3][3]","Prices fell[4]"],"summary":"Mixed[3][4][3]","metrics":{"yoy_growth":12.5,"note":"n/a"}}` + "\n```"}
	s := NewModelSummarizer(m)

	got, err := s.SummarizeMarket(context.Background(), MarketRequest{
		Period:  "last_90d",
		Regions: []string{"EU"},
		Sources: []Source{{Ref: 3, Title: "A", Content: "a"}, {Ref: 4, Title: "B", Content: strings.Repeat("b", 2000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales slowed[3]", "Prices fell[4]"}, got.TopTrends)
	assert.Equal(t, "Mixed[3][4]", got.Summary)
	assert.Equal(t, []int{3, 4}, got.ReferencedDocs, "inferred from markers")
	assert.Equal(t, map[string]float64{"yoy_growth": 12.5}, got.Metrics)

	require.Len(t, m.prompts, 1)
	assert.Contains(t, m.prompts[0], "[Document 3] A")
	assert.Contains(t, m.prompts[0], "[Document 4] B")
	assert.NotContains(t, m.prompts[0], strings.Repeat("b", maxSourceChars+1))
	assert.Equal(t, []bool{true}, m.jsonMode)
}

func TestModelSummarizer_Company(t *testing.T) {
	m := &fakeModel{answer: `["Cut prices[7][7]","Builds cells in house[8]"]`}
	got, err := NewModelSummarizer(m).SummarizeCompany(context.Background(), CompanyRequest{Ticker: "TSLA", Aspect: "business"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cut prices[7]", "Builds cells in house[8]"}, got.Points)
	assert.Equal(t, []int{7, 8}, got.ReferencedDocs)
	assert.Contains(t, m.prompts[0], "business strategy, pricing policy and margins of TSLA")

	m.answer = `{"points":["Risk[9]"],"referenced_docs":[9,10]}`
	got, err = NewModelSummarizer(m).SummarizeCompany(context.Background(), CompanyRequest{Ticker: "TSLA", Aspect: "risk"})
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, got.ReferencedDocs, "explicit list is kept as given")
}

func TestModelSummarizer_Errors(t *testing.T) {
	_, err := NewModelSummarizer(&fakeModel{err: errors.New("connection refused")}).
		SummarizeMarket(context.Background(), MarketRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewModelSummarizer(&fakeModel{answer: "Sure! Here are the trends."}).
		SummarizeMarket(context.Background(), MarketRequest{})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewModelSummarizer(&fakeModel{answer: `{"points":[]}`}).
		SummarizeCompany(context.Background(), CompanyRequest{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestModelSummarizer_WriteSection(t *testing.T) {
	m := &fakeModel{answer: "<p>Subsidies shrank[2][2].</p>"}
	got, err := NewModelSummarizer(m).WriteSection(context.Background(), SectionRequest{
		Section: "policy",
		Persona: "retail_investor",
		Context: map[string]any{"top_trends": []string{"Subsidies shrank[2]"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Subsidies shrank[2].</p>", got)
	assert.Contains(t, m.prompts[0], "retail investor")
	assert.Contains(t, m.prompts[0], "Subsidies shrank[2]")
	assert.Equal(t, []bool{false}, m.jsonMode)

	_, err = NewModelSummarizer(m).WriteSection(context.Background(), SectionRequest{Section: "appendix"})
	assert.ErrorContains(t, err, "no prompt")
}

func TestOpenAISummarizer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		format, _ := req["response_format"].(map[string]any)
		assert.Equal(t, "json_object", format["type"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": `{"points":["Roadmap[5]"]}`},
			}},
		})
	}))
	defer server.Close()

	s, err := NewOpenAISummarizer("sk-test", server.URL, "", 0.3)
	require.NoError(t, err)
	got, err := s.SummarizeCompany(context.Background(), CompanyRequest{Ticker: "BYD", Aspect: "roadmap"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Roadmap[5]"}, got.Points)
	assert.Equal(t, []int{5}, got.ReferencedDocs)
}

func TestOpenAISummarizer_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	s, err := NewOpenAISummarizer("sk-test", server.URL, "gpt-4o-mini", 0)
	require.NoError(t, err)
	_, err = s.SummarizeMarket(context.Background(), MarketRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewOpenAISummarizer("", "", "", 0)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewAndUnavailable(t *testing.T) {
	s := New(config.LLM{Provider: "none"})
	_, err := s.SummarizeMarket(context.Background(), MarketRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)

	s = New(config.LLM{Provider: "openai"})
	_, err = s.WriteSection(context.Background(), SectionRequest{Section: "policy"})
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.IsType(t, &OpenAISummarizer{}, New(config.LLM{Provider: "openai", APIKey: "k"}))
	assert.IsType(t, &ModelSummarizer{}, New(config.LLM{Provider: "langchain", APIKey: "k"}))
}

func TestFallbacks(t *testing.T) {
	assert.Len(t, FallbackMarket().TopTrends, 3)
	assert.Empty(t, FallbackMarket().ReferencedDocs)
	assert.Equal(t, []string{"TSLA risk: no summarizer output available"}, FallbackCompany("TSLA", "risk").Points)
	assert.Contains(t, FallbackSection("policy"), "<p>policy")
}
