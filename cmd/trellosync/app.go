package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/egobogo/trellosync/internal/auth"
	trelloClient "github.com/egobogo/trellosync/internal/board/trello"
	"github.com/egobogo/trellosync/internal/cache"
	"github.com/egobogo/trellosync/internal/client"
	"github.com/egobogo/trellosync/internal/config"
	"github.com/egobogo/trellosync/internal/kvstore"
	"github.com/egobogo/trellosync/internal/kvstore/file"
	"github.com/egobogo/trellosync/internal/kvstore/inmemory"
	"github.com/egobogo/trellosync/internal/kvstore/sqlite"
	"github.com/egobogo/trellosync/internal/query"
)

// app is the wired object graph: one token store, one HTTP client, one cache.
type app struct {
	log     zerolog.Logger
	store   kvstore.Store
	tokens  *auth.TokenStore
	queries *query.Client

	closers []func() error
	stop    []func()
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{log: log}

	store, closeStore, err := openStore(cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	a.store = store
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	a.tokens = auth.NewTokenStore(store, log)
	if err := a.tokens.Initialize(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	api := client.New(client.Config{
		BaseURL:   cfg.Trello.BaseURL,
		APIKey:    cfg.Trello.APIKey,
		Timeout:   cfg.Trello.Timeout,
		UserAgent: cfg.Trello.UserAgent,
	}, client.WithLogger(log), client.WithTokenSource(a.tokens))

	c := cache.New(cache.Options{
		StaleTime:       cfg.Cache.StaleTime,
		MaxEntries:      cfg.Cache.MaxEntries,
		QueryRetries:    cfg.Cache.QueryRetries,
		MutationRetries: cfg.Cache.MutationRetries,
		RetryDelay:      cfg.Cache.RetryDelay,
	}, log)
	a.closers = append(a.closers, func() error { c.Wait(); return nil })

	a.queries = query.New(trelloClient.NewTrelloClient(api), c, log)
	a.stop = append(a.stop, a.queries.WatchSession(a.tokens))
	return a, nil
}

func openStore(cfg config.StorageConfig, log zerolog.Logger) (kvstore.Store, func() error, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return inmemory.NewInMemoryStore(), nil, nil
	case config.StorageFile:
		s, err := file.NewFileStore(cfg.Path, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session file: %w", err)
		}
		return s, nil, nil
	case config.StorageSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Close stops the session watch and releases the store.
func (a *app) Close() {
	for _, stop := range a.stop {
		stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}
