package main

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/tariff-cli/internal/cascade"
	"github.com/sells-group/tariff-cli/internal/config"
	"github.com/sells-group/tariff-cli/internal/embed"
	"github.com/sells-group/tariff-cli/internal/fetcher"
	"github.com/sells-group/tariff-cli/internal/pipeline"
	"github.com/sells-group/tariff-cli/internal/refdata"
	"github.com/sells-group/tariff-cli/internal/resilience"
	"github.com/sells-group/tariff-cli/internal/resolver"
	"github.com/sells-group/tariff-cli/internal/syscache"
	"github.com/sells-group/tariff-cli/internal/vecstore"
	"github.com/sells-group/tariff-cli/pkg/jina"
)

// Env holds the long-lived application objects. Resolvers and stores are
// built once per process and passed explicitly to commands and handlers.
type Env struct {
	Cfg          *config.Config
	Orchestrator *pipeline.Orchestrator
	Syncer       *refdata.Syncer
	Registry     *refdata.Registry

	closers []func() error
}

// Close releases store connections.
func (e *Env) Close() {
	for _, fn := range e.closers {
		_ = fn()
	}
}

func initEnv(ctx context.Context) (*Env, error) {
	env := &Env{Cfg: cfg}

	embedFn, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	cache, indexes, err := buildStores(ctx, env, embedFn)
	if err != nil {
		return nil, err
	}
	if err := cache.Migrate(ctx); err != nil {
		return nil, err
	}

	// Bulk reference downloads keep retry/backoff; cascade queries get a
	// single attempt per combination.
	bulkFetch := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: cfg.WITS.Timeout()})
	cascadeFetch := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: cfg.WITS.Timeout(), MaxRetries: 1})
	wtoFetch := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: cfg.WTO.Timeout(), MaxRetries: 1})

	registry := refdata.NewRegistry()
	env.Registry = registry
	env.Syncer = refdata.NewSyncer(registry, bulkFetch, cache, indexes, cfg.WITS.BaseURL)

	var products, countries *resolver.CodeResolver
	for _, src := range registry.All() {
		r := resolver.New(indexes[src.Name()], cache, src.Table(), embedFn, cfg.Resolver.TopK)
		switch src.Name() {
		case "hs":
			products = r
		case "country":
			countries = r
		}
	}

	primary := cascade.NewWITS(cascadeFetch, cfg.WITS.BaseURL)
	secondary := cascade.NewBreakerSecondary(
		cascade.NewWTO(wtoFetch, cfg.WTO.BaseURL, cfg.WTO.Key),
		resilience.DefaultCircuitBreakerConfig(),
	)
	executor := cascade.NewExecutor(primary, secondary)

	env.Orchestrator = pipeline.NewOrchestrator(products, countries, executor)
	return env, nil
}

func buildEmbedder(cfg *config.Config) (embed.Func, error) {
	switch cfg.Embed.Provider {
	case "", "local":
		return embed.Local(cfg.Embed.Dimensions), nil
	case "jina":
		if cfg.Embed.JinaKey == "" {
			return nil, eris.New("embed.jina_api_key is required for the jina provider")
		}
		client := jina.NewClient(cfg.Embed.JinaKey,
			jina.WithBaseURL(cfg.Embed.JinaURL),
			jina.WithModel(cfg.Embed.JinaModel),
		)
		return func(ctx context.Context, text string) ([]float32, error) {
			vecs, err := client.Embed(ctx, []string{text})
			if err != nil {
				return nil, err
			}
			return vecs[0], nil
		}, nil
	default:
		return nil, eris.Errorf("unknown embed provider %q", cfg.Embed.Provider)
	}
}

func buildStores(ctx context.Context, env *Env, embedFn embed.Func) (syscache.Cache, map[string]vecstore.Index, error) {
	registry := refdata.NewRegistry()
	indexes := make(map[string]vecstore.Index)

	switch cfg.Store.Driver {
	case "", "sqlite":
		conn, err := sql.Open("sqlite", cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "open sqlite store %s", cfg.Store.DatabaseURL)
		}
		env.closers = append(env.closers, conn.Close)

		cache := syscache.NewSQLiteFromDB(conn)
		for _, src := range registry.All() {
			idx, err := vecstore.NewSQLite(conn, cache, src.Table(), embedFn)
			if err != nil {
				return nil, nil, err
			}
			indexes[src.Name()] = idx
		}
		return cache, indexes, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "open postgres store")
		}
		env.closers = append(env.closers, func() error { pool.Close(); return nil })

		cache := syscache.NewPostgres(pool, nil)
		for _, src := range registry.All() {
			idx, err := vecstore.NewPostgres(pool, cache, src.Table(), embedFn)
			if err != nil {
				return nil, nil, err
			}
			indexes[src.Name()] = idx
		}
		return cache, indexes, nil

	default:
		return nil, nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
