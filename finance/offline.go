package finance

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"
)

// Offline generates deterministic price data from the ticker name. It never
// fails and backs up the network fetchers.
type Offline struct {
	// End is the date of the last close. Zero means today.
	End time.Time
}

func (o Offline) rng(ticker, salt string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	h.Write([]byte(salt))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed>>1))
}

// FetchSeries returns a rising series of 60 closes for 90 day periods and 20
// otherwise.
func (o Offline) FetchSeries(_ context.Context, ticker, period string) (Series, error) {
	n := 20
	if strings.Contains(period, "90") {
		n = 60
	}
	end := o.End
	if end.IsZero() {
		end = time.Now()
	}

	r := o.rng(ticker, "series")
	base := 100 + (r.Float64()*10 - 5)
	s := Series{Ticker: ticker, Currency: "USD", Closes: make([]float64, n), Dates: make([]string, n)}
	for i := range n {
		s.Closes[i] = Round2(base + float64(i)*(0.05+r.Float64()*0.75))
		s.Dates[i] = end.AddDate(0, 0, i-n+1).Format(time.DateOnly)
	}
	return s, nil
}

// FetchFundamentals returns an EPS in [1, 6) and the PER implied by a price of 120.
func (o Offline) FetchFundamentals(_ context.Context, ticker string) (Fundamentals, error) {
	r := o.rng(ticker, "fundamentals")
	eps := Round2(1 + r.Float64()*5)
	per := Round2(120 / eps)
	return Fundamentals{Ticker: ticker, EPS: &eps, PER: &per, Currency: "USD"}, nil
}
