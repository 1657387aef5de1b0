package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"WikiFetch/internal/api"
	"WikiFetch/internal/broadcast"
	"WikiFetch/internal/config"
	"WikiFetch/internal/domain"
	"WikiFetch/internal/infrastructure/relay"
	"WikiFetch/internal/infrastructure/storage"
	"WikiFetch/internal/infrastructure/wiki"
	"WikiFetch/internal/logging"
	"WikiFetch/internal/metrics"
	"WikiFetch/internal/ports"
	"WikiFetch/internal/usecase"
)

// Application wires configs to use cases and owns their resources.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    storage.Store
	bus      *broadcast.Bus
	fetcher  *usecase.ArticleFetcher
	searcher *usecase.ArticleSearcher

	relayClient   *redis.Client
	subscriptions []*broadcast.Subscription
}

// New builds the application from cfg. It opens the configured store and,
// when enabled, the redis relay connection.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	policy, err := usecase.ParseCachePolicy(cfg.Cache.Policy)
	if err != nil {
		return nil, fmt.Errorf("cache policy: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	client := &http.Client{Timeout: cfg.Wiki.Timeout}
	transport := wiki.NewTransport(client, cfg.Wiki.UserAgent, baseLogger.With("component", "wiki.transport"))
	searchClient := wiki.NewSearcher(client, cfg.Wiki.UserAgent, cfg.Wiki.SearchLimit, baseLogger.With("component", "wiki.search"))
	if cfg.Wiki.BaseURL != "" {
		transport.WithBaseURL(cfg.Wiki.BaseURL)
		searchClient.WithBaseURL(cfg.Wiki.BaseURL)
	}

	return assemble(cfg, baseLogger, store, transport, searchClient, policy)
}

func assemble(cfg config.Config, logger *slog.Logger, store storage.Store, transport ports.ArticleTransport, searcher ports.Searcher, policy usecase.CachePolicy) (*Application, error) {
	bus := broadcast.New(logger.With("component", "broadcast"))

	a := &Application{
		cfg:    cfg,
		logger: logger,
		store:  store,
		bus:    bus,
		fetcher: usecase.NewArticleFetcher(usecase.FetcherDeps{
			Transport: transport,
			Store:     store,
			Bus:       bus,
			Policy:    policy,
			Logger:    logger.With("component", "fetcher"),
		}),
		searcher: usecase.NewArticleSearcher(searcher, logger.With("component", "searcher")),
	}

	a.subscriptions = append(a.subscriptions, metrics.Subscribe(bus))

	if cfg.Relay.Enabled {
		client, err := storage.NewRedisClient(cfg.Store.Redis.URL)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("relay: %w", err)
		}
		a.relayClient = client
		r := relay.NewRedisRelay(client, cfg.Relay.Channel, logger.With("component", "relay"))
		a.subscriptions = append(a.subscriptions, r.Attach(bus))
	}

	logger.Debug("application assembled",
		"store", cfg.Store.Backend,
		"policy", string(policy),
		"relay", cfg.Relay.Enabled)

	return a, nil
}

// Fetch downloads site:name and waits for the result. An empty site means
// the configured default site.
func (a *Application) Fetch(ctx context.Context, site, name string, progress ports.ProgressFunc) (domain.FetchResult, error) {
	if site == "" {
		site = a.cfg.Wiki.DefaultSite
	}
	title, err := domain.NewTitle(site, name)
	if err != nil {
		return domain.FetchResult{}, err
	}

	fut := a.fetcher.Fetch(ctx, title, progress)
	result, err := fut.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		fut.Cancel()
	}
	return result, err
}

// Search runs a full-text query; an empty site means the default site.
func (a *Application) Search(ctx context.Context, site, term string) (domain.SearchResults, error) {
	if site == "" {
		site = a.cfg.Wiki.DefaultSite
	}
	return a.searcher.Search(ctx, site, term)
}

// Serve runs the HTTP API on addr (or the configured address) until ctx ends.
func (a *Application) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	return a.Server().Run(ctx, addr)
}

// Server builds the HTTP API over this application's pipeline.
func (a *Application) Server() *api.Server {
	return api.NewServer(api.Deps{
		Fetcher:  a.fetcher,
		Searcher: a.searcher,
		Bus:      a.bus,
		Logger:   a.logger.With("component", "api"),
	})
}

// Bus exposes the completion channel so callers can observe fetches.
func (a *Application) Bus() *broadcast.Bus {
	return a.bus
}

// Close detaches subscribers and releases the store and relay connections.
func (a *Application) Close() error {
	for _, sub := range a.subscriptions {
		sub.Unsubscribe()
	}
	a.subscriptions = nil

	var errs []error
	if a.relayClient != nil {
		errs = append(errs, a.relayClient.Close())
		a.relayClient = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	return errors.Join(errs...)
}
