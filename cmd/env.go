package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/timkosters/edge-city-finder/internal/analyst"
	"github.com/timkosters/edge-city-finder/internal/pipeline"
	"github.com/timkosters/edge-city-finder/internal/scout"
	"github.com/timkosters/edge-city-finder/internal/store"
	anthropicpkg "github.com/timkosters/edge-city-finder/pkg/anthropic"
	"github.com/timkosters/edge-city-finder/pkg/exa"
	"github.com/timkosters/edge-city-finder/pkg/tavily"
)

// env holds the initialized store and pipeline shared by the serve, scout
// and schedule commands.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, search providers, analyst and pipeline.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// Search providers are optional. Without Exa, runs discover nothing
	// but the API and funnel commands still work.
	var primary, secondary scout.Provider
	if cfg.Exa.Key != "" {
		primary = scout.NewExaProvider(exa.NewClient(cfg.Exa.Key, exa.WithBaseURL(cfg.Exa.BaseURL)))
	} else {
		zap.L().Warn("EDGECITY_EXA_KEY not set, discovery disabled")
	}
	if cfg.Tavily.Key != "" {
		secondary = scout.NewTavilyProvider(tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL)))
	}

	scoutOpts := []scout.Option{
		scout.WithRateLimit(cfg.Scout.RateLimit),
	}
	if cfg.Scout.LookbackDays > 0 {
		scoutOpts = append(scoutOpts, scout.WithLookback(time.Duration(cfg.Scout.LookbackDays)*24*time.Hour))
	}
	if cfg.Scout.CatalogPath != "" {
		catalog, err := scout.LoadCatalogFile(cfg.Scout.CatalogPath)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		scoutOpts = append(scoutOpts, scout.WithCatalog(catalog))
	}
	engine := scout.New(primary, secondary, scoutOpts...)

	var llm anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		llm = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("EDGECITY_ANTHROPIC_KEY not set, leads pass through unverified")
	}
	verifier := analyst.New(llm, cfg.Anthropic.Model, analyst.NewProber())

	return &appEnv{
		Store:    st,
		Pipeline: pipeline.New(engine, verifier, st),
	}, nil
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		zap.L().Info("using sqlite store", zap.String("path", cfg.Store.DatabaseURL))
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		poolCfg := &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
	}
}
