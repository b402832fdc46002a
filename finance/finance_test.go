package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestReturnAndVolatility(t *testing.T) {
	ret, vol := ReturnAndVolatility([]float64{100.0, 102.0, 98.0, 105.0})
	assert.Equal(t, 5.0, ret)
	assert.Greater(t, vol, 0.0)

	ret, vol = ReturnAndVolatility([]float64{100})
	assert.Zero(t, ret)
	assert.Zero(t, vol)
}

func TestCheckConsistency(t *testing.T) {
	series := map[string]Series{
		"TSLA": {Ticker: "TSLA", Closes: []float64{100.0, 102.0, 98.0, 105.0}},
	}
	snap := Compute(series["TSLA"], Fundamentals{}, "USD")
	assert.Empty(t, CheckConsistency([]Snapshot{snap}, series))

	snap.PeriodReturnPct = 5.1
	assert.Empty(t, CheckConsistency([]Snapshot{snap}, series), "0.1 is within tolerance")

	snap.PeriodReturnPct = 5.2
	m := CheckConsistency([]Snapshot{snap}, series)
	require.Len(t, m, 1)
	assert.Equal(t, "TSLA", m[0].Ticker)
	assert.Equal(t, 5.0, m[0].Recomputed)

	assert.Empty(t, CheckConsistency([]Snapshot{{Ticker: "BYD", PeriodReturnPct: 99}}, series))
}

func TestCompute_CurrencyConversion(t *testing.T) {
	s := Series{Ticker: "005380.KS", Closes: []float64{1, 2}}
	snap := Compute(s, Fundamentals{EPS: ptr(2), PER: ptr(15), Currency: "USD"}, "KRW")
	require.NotNil(t, snap.Multiples.EPS)
	assert.Equal(t, 2600.0, *snap.Multiples.EPS)
	assert.Equal(t, 15.0, *snap.Multiples.PER)
	assert.Equal(t, "KRW", snap.Multiples.Currency)
	assert.Equal(t, []string{"earnings_in_2w"}, snap.Events)

	assert.Equal(t, 1.0, ConvertCurrency(1300, "KRW", "USD"))
	assert.Equal(t, 7.0, ConvertCurrency(7, "EUR", "USD"))
}

func TestOffline_Deterministic(t *testing.T) {
	o := Offline{End: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)}
	a, err := o.FetchSeries(context.Background(), "TSLA", "last_90d")
	require.NoError(t, err)
	b, _ := o.FetchSeries(context.Background(), "TSLA", "last_90d")
	assert.Equal(t, a, b)
	assert.Len(t, a.Closes, 60)
	assert.Equal(t, "2025-06-30", a.Dates[59])

	short, _ := o.FetchSeries(context.Background(), "TSLA", "last_30d")
	assert.Len(t, short.Closes, 20)

	f, err := o.FetchFundamentals(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, *f.EPS, 1.0)
	assert.InDelta(t, 120 / *f.EPS, *f.PER, 0.01)
}

func TestAlphaVantage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("apikey"))
		switch r.URL.Query().Get("function") {
		case "TIME_SERIES_DAILY":
			w.Write([]byte(`{"Time Series (Daily)":{
				"2025-06-30":{"4. close":"105.0"},
				"2025-06-02":{"4. close":"100.0"},
				"2025-01-02":{"4. close":"50.0"}
			}}`))
		case "OVERVIEW":
			w.Write([]byte(`{"Symbol":"TSLA","EPS":"2.5","PERatio":"None","Currency":"USD"}`))
		}
	}))
	defer server.Close()

	a, err := NewAlphaVantage("k", server.URL)
	require.NoError(t, err)

	s, err := a.FetchSeries(context.Background(), "TSLA", "last_90d")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-02", "2025-06-30"}, s.Dates)
	assert.Equal(t, []float64{100, 105}, s.Closes)

	f, err := a.FetchFundamentals(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, 2.5, *f.EPS)
	assert.Nil(t, f.PER)
}

func TestAlphaVantage_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer server.Close()

	a, err := NewAlphaVantage("k", server.URL)
	require.NoError(t, err)
	_, err = a.FetchSeries(context.Background(), "TSLA", "last_90d")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewAlphaVantage("", "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 30, PeriodDays("last_30d"))
	assert.Equal(t, 90, PeriodDays("ytd"))
}
