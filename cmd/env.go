package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/akinsgre/paddlepartner-waterways/internal/search"
	"github.com/akinsgre/paddlepartner-waterways/internal/store"
	"github.com/akinsgre/paddlepartner-waterways/pkg/overpass"
	"github.com/akinsgre/paddlepartner-waterways/pkg/paddleapi"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "waterways.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newExternalSource() search.ExternalSource {
	interval := time.Duration(cfg.Overpass.MinIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return overpass.NewClient(
		overpass.WithBaseURL(cfg.Overpass.BaseURL),
		overpass.WithRateLimit(rate.Every(interval), 1),
	)
}

// newSearcher wires a Searcher against the backend API, or against the local
// store when offline is set.
func newSearcher(ctx context.Context, offline bool) (*search.Searcher, func(), error) {
	external := newExternalSource()

	if offline {
		st, err := initStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		community := store.NewCommunitySource(st, cfg.Search.Limit)
		return search.New(community, external), func() { _ = st.Close() }, nil
	}

	community := paddleapi.NewClient(cfg.API.Token, paddleapi.WithBaseURL(cfg.API.BaseURL))
	return search.New(community, external), func() {}, nil
}
