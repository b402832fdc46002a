package finance

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrUnavailable is returned when a price data source cannot serve a request.
var ErrUnavailable = errors.New("price data unavailable")

// Tolerance is the allowed gap, in percentage points, between a reported
// period return and one recomputed from the raw series.
const Tolerance = 0.1

// Series is a closing price history, oldest first.
type Series struct {
	Ticker   string    `json:"ticker"`
	Currency string    `json:"ccy"`
	Closes   []float64 `json:"close"`
	Dates    []string  `json:"dates"`
}

// Fundamentals are per-share figures for a ticker. Nil means unknown.
type Fundamentals struct {
	Ticker   string   `json:"ticker"`
	EPS      *float64 `json:"eps_ttm"`
	PER      *float64 `json:"per"`
	Currency string   `json:"currency"`
}

// Multiples are the valuation figures shown for a ticker.
type Multiples struct {
	PER      *float64 `json:"PER"`
	EPS      *float64 `json:"EPS_TTM"`
	Currency string   `json:"CCY"`
}

// Snapshot is the derived view of one ticker.
type Snapshot struct {
	Ticker          string    `json:"ticker"`
	PeriodReturnPct float64   `json:"period_return_pct"`
	Volatility      float64   `json:"volatility"`
	Multiples       Multiples `json:"multiples"`
	Events          []string  `json:"events"`
}

// Fetcher retrieves price data.
type Fetcher interface {
	FetchSeries(ctx context.Context, ticker, period string) (Series, error)
	FetchFundamentals(ctx context.Context, ticker string) (Fundamentals, error)
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PeriodReturn is the percentage change from the first to the last close,
// unrounded. Fewer than two points give 0.
func PeriodReturn(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	return (closes[len(closes)-1] - closes[0]) / math.Max(1e-9, closes[0]) * 100
}

// Volatility is the sample standard deviation of daily log returns in
// percent. Non-positive prices are skipped.
func Volatility(closes []float64) float64 {
	var rets []float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		rets = append(rets, math.Log(closes[i]/closes[i-1])*100)
	}
	if len(rets) == 0 {
		return 0
	}
	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	var ss float64
	for _, r := range rets {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(max(1, len(rets)-1)))
}

// ReturnAndVolatility returns both figures rounded to two decimals.
func ReturnAndVolatility(closes []float64) (ret, vol float64) {
	return Round2(PeriodReturn(closes)), Round2(Volatility(closes))
}

// Compute derives the snapshot for one ticker. EPS is converted into
// baseCurrency when the fundamentals are quoted in another currency.
func Compute(s Series, f Fundamentals, baseCurrency string) Snapshot {
	ret, vol := ReturnAndVolatility(s.Closes)
	m := Multiples{PER: f.PER, Currency: baseCurrency}
	if f.EPS != nil {
		eps := *f.EPS
		if f.Currency != "" && f.Currency != baseCurrency {
			eps = Round2(ConvertCurrency(eps, f.Currency, baseCurrency))
		}
		m.EPS = &eps
	}
	return Snapshot{
		Ticker:          s.Ticker,
		PeriodReturnPct: ret,
		Volatility:      vol,
		Multiples:       m,
		Events:          []string{"earnings_in_2w"},
	}
}

// Mismatch describes a snapshot whose return disagrees with its series.
type Mismatch struct {
	Ticker     string
	Reported   float64
	Recomputed float64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: reported return %.2f%%, recomputed %.2f%%", m.Ticker, m.Reported, m.Recomputed)
}

// CheckConsistency recomputes every snapshot's return from its raw series and
// reports those off by more than Tolerance. Snapshots without a series are
// skipped.
func CheckConsistency(snaps []Snapshot, series map[string]Series) []Mismatch {
	var out []Mismatch
	for _, s := range snaps {
		raw, ok := series[s.Ticker]
		if !ok {
			continue
		}
		calc := Round2(PeriodReturn(raw.Closes))
		// A small epsilon keeps 0.1 itself inside the band despite float error.
		if math.Abs(calc-s.PeriodReturnPct) > Tolerance+1e-9 {
			out = append(out, Mismatch{Ticker: s.Ticker, Reported: s.PeriodReturnPct, Recomputed: calc})
		}
	}
	return out
}

// USDKRW is the fallback exchange rate used by ConvertCurrency.
const USDKRW = 1300.0

// ConvertCurrency converts amount between currencies using the fallback
// USD/KRW rate. Unknown pairs are returned unchanged.
func ConvertCurrency(amount float64, from, to string) float64 {
	switch {
	case from == to:
		return amount
	case from == "USD" && to == "KRW":
		return amount * USDKRW
	case from == "KRW" && to == "USD":
		return amount / USDKRW
	}
	return amount
}
