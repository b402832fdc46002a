package main

import (
	"context"
	"fmt"

	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/store"
	"github.com/smallnest/trendreport/store/file"
	"github.com/smallnest/trendreport/store/memory"
	"github.com/smallnest/trendreport/store/postgres"
	"github.com/smallnest/trendreport/store/redis"
	"github.com/smallnest/trendreport/store/sqlite"
	"github.com/smallnest/trendreport/tool"
)

// openStore returns the checkpoint store for backend and a function that
// releases it. Backend "none" returns a nil store.
func openStore(ctx context.Context, cfg config.Store) (store.CheckpointStore, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case "", "none":
		return nil, noop, nil
	case "memory":
		return memory.NewMemoryCheckpointStore(), noop, nil
	case "file":
		s, err := file.NewFileCheckpointStore(cfg.DSN)
		return s, noop, err
	case "sqlite":
		s, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{Path: cfg.DSN})
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		s := redis.NewRedisCheckpointStore(redis.RedisOptions{Addr: cfg.DSN})
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := postgres.NewPostgresCheckpointStore(ctx, postgres.PostgresOptions{ConnString: cfg.DSN})
		if err != nil {
			return nil, noop, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// newSearcher returns the configured search backend, or nil when search is
// off or has no key; the collectors then use placeholder documents.
func newSearcher(cfg config.Search) tool.Searcher {
	var (
		s   tool.Searcher
		err error
	)
	switch cfg.Provider {
	case "tavily":
		s, err = tool.NewTavilySearch(cfg.APIKey)
	case "brave":
		s, err = tool.NewBraveSearch(cfg.APIKey)
	default:
		return nil
	}
	if err != nil {
		log.Warn("[Search] %s: %v, using placeholder documents", cfg.Provider, err)
		return nil
	}
	return s
}

// newFetcher returns the configured price backend, falling back to offline data.
func newFetcher(cfg config.Finance) finance.Fetcher {
	if cfg.Provider != "alphavantage" {
		return finance.Offline{}
	}
	f, err := finance.NewAlphaVantage(cfg.APIKey, cfg.BaseURL)
	if err != nil {
		log.Warn("[Finance] %v, using offline prices", err)
		return finance.Offline{}
	}
	return f
}
