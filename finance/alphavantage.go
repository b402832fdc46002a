package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"time"
)

// AlphaVantage fetches daily closes and company overviews from the Alpha
// Vantage REST API.
type AlphaVantage struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewAlphaVantage returns a client for apiKey. An empty key yields ErrUnavailable.
func NewAlphaVantage(apiKey, baseURL string) (*AlphaVantage, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("alphavantage: %w: ALPHAVANTAGE_API_KEY not set", ErrUnavailable)
	}
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &AlphaVantage{APIKey: apiKey, BaseURL: baseURL, Client: &http.Client{Timeout: 30 * time.Second}}, nil
}

func (a *AlphaVantage) get(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", a.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("alphavantage: create request: %w", err)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("alphavantage: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alphavantage: %w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("alphavantage: decode response: %w", err)
	}
	// Rate limits and bad symbols come back as 200 with a message body.
	for _, key := range []string{"Error Message", "Note", "Information"} {
		if msg, ok := raw[key]; ok {
			return fmt.Errorf("alphavantage: %w: %s", ErrUnavailable, msg)
		}
	}
	data, _ := json.Marshal(raw)
	return json.Unmarshal(data, out)
}

var periodDays = regexp.MustCompile(`(\d+)d`)

// PeriodDays parses periods such as "last_90d". Unknown forms mean 90 days.
func PeriodDays(period string) int {
	if m := periodDays.FindStringSubmatch(period); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 90
}

// FetchSeries implements Fetcher. Only closes within the period, counted back
// from the latest trading day, are kept.
func (a *AlphaVantage) FetchSeries(ctx context.Context, ticker, period string) (Series, error) {
	var body struct {
		Daily map[string]struct {
			Close string `json:"4. close"`
		} `json:"Time Series (Daily)"`
	}
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)
	params.Set("outputsize", "compact")
	if err := a.get(ctx, params, &body); err != nil {
		return Series{}, err
	}
	if len(body.Daily) == 0 {
		return Series{}, fmt.Errorf("alphavantage: %w: no daily series for %s", ErrUnavailable, ticker)
	}

	dates := make([]string, 0, len(body.Daily))
	for d := range body.Daily {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	latest, err := time.Parse(time.DateOnly, dates[len(dates)-1])
	if err != nil {
		return Series{}, fmt.Errorf("alphavantage: bad date %q: %w", dates[len(dates)-1], err)
	}
	cutoff := latest.AddDate(0, 0, -PeriodDays(period)).Format(time.DateOnly)

	s := Series{Ticker: ticker, Currency: "USD"}
	for _, d := range dates {
		if d < cutoff {
			continue
		}
		v, err := strconv.ParseFloat(body.Daily[d].Close, 64)
		if err != nil {
			return Series{}, fmt.Errorf("alphavantage: close on %s: %w", d, err)
		}
		s.Dates = append(s.Dates, d)
		s.Closes = append(s.Closes, v)
	}
	return s, nil
}

// FetchFundamentals implements Fetcher using the OVERVIEW endpoint.
func (a *AlphaVantage) FetchFundamentals(ctx context.Context, ticker string) (Fundamentals, error) {
	var body struct {
		Symbol   string `json:"Symbol"`
		EPS      string `json:"EPS"`
		PERatio  string `json:"PERatio"`
		Currency string `json:"Currency"`
	}
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", ticker)
	if err := a.get(ctx, params, &body); err != nil {
		return Fundamentals{}, err
	}
	if body.Symbol == "" {
		return Fundamentals{}, fmt.Errorf("alphavantage: %w: no overview for %s", ErrUnavailable, ticker)
	}
	return Fundamentals{
		Ticker:   ticker,
		EPS:      parseOptional(body.EPS),
		PER:      parseOptional(body.PERatio),
		Currency: body.Currency,
	}, nil
}

// parseOptional returns nil for "None", "-" and other non-numbers.
func parseOptional(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
