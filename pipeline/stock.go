package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/state"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds the tickers fetched at once.
const fetchConcurrency = 4

func (s *stages) fetchPricesFinancials(ctx context.Context, st state.RunState) (state.Update, error) {
	var (
		mu     sync.Mutex
		series = make(map[string]finance.Series, len(st.Benchmarks))
		funds  = make(map[string]finance.Fundamentals, len(st.Benchmarks))
		errs   []state.ErrorEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, tk := range st.Benchmarks {
		g.Go(func() error {
			sr, srErr := s.fetcher.FetchSeries(gctx, tk, st.Period)
			if srErr != nil {
				sr, _ = s.offline.FetchSeries(gctx, tk, st.Period)
			}
			fd, fdErr := s.fetcher.FetchFundamentals(gctx, tk)
			if fdErr != nil {
				fd, _ = s.offline.FetchFundamentals(gctx, tk)
			}

			mu.Lock()
			defer mu.Unlock()
			series[tk] = sr
			funds[tk] = fd
			for _, err := range []error{srErr, fdErr} {
				if err != nil {
					log.Warn("[Stock] %s: using offline data: %v", tk, err)
					errs = append(errs, s.recovered(StageFetchPrices, state.KindCollaboratorUnavailable, fmt.Errorf("%s: %w", tk, err)))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state.Update{}, err
	}
	log.Info("[Stock] fetched %d tickers", len(series))
	return state.Update{
		Series:       state.Set(series),
		Fundamentals: state.Set(funds),
		Errors:       sortedErrors(errs),
	}, nil
}

func (s *stages) computeSnapshots(_ context.Context, st state.RunState) (state.Update, error) {
	snaps := make([]finance.Snapshot, 0, len(st.Benchmarks))
	for _, tk := range st.Benchmarks {
		sr, ok := st.Series[tk]
		if !ok {
			continue
		}
		snap := finance.Compute(sr, st.Fundamentals[tk], st.Financials.BaseCurrency)
		log.Debug("[Stock] %s return %.2f%% volatility %.2f", tk, snap.PeriodReturnPct, snap.Volatility)
		snaps = append(snaps, snap)
	}
	return state.Update{StockSnapshots: state.Set(snaps)}, nil
}

func (s *stages) validateFinancialConsistency(_ context.Context, st state.RunState) (state.Update, error) {
	var u state.Update
	mismatches := finance.CheckConsistency(st.StockSnapshots, st.Series)
	for _, m := range mismatches {
		log.Warn("[Stock] inconsistent figures: %s", m)
		u.Errors = append(u.Errors, s.recovered(StageValidateFinancials, state.KindConsistencyViolation, errors.New(m.String())))
	}
	u.NumberConsistency = state.Set(len(mismatches) == 0)
	return u, nil
}
