package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"WikiFetch/internal/broadcast"
	"WikiFetch/internal/domain"
	"WikiFetch/internal/metrics"
	"WikiFetch/internal/ports"
)

// CachePolicy decides whether the store is consulted before the network.
type CachePolicy string

const (
	// NetworkFirst always downloads and writes the result through to the store.
	NetworkFirst CachePolicy = "network-first"
	// CacheFirst serves a stored article when one exists and downloads otherwise.
	CacheFirst CachePolicy = "cache-first"
)

// ParseCachePolicy accepts the names above; an empty string means NetworkFirst.
func ParseCachePolicy(value string) (CachePolicy, error) {
	switch CachePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", NetworkFirst:
		return NetworkFirst, nil
	case CacheFirst:
		return CacheFirst, nil
	default:
		return "", fmt.Errorf("unknown cache policy %q", value)
	}
}

// FetcherDeps wires the driven adapters into the fetch pipeline.
type FetcherDeps struct {
	Transport ports.ArticleTransport
	Store     ports.ArticleStore
	Bus       *broadcast.Bus
	Policy    CachePolicy
	Logger    *slog.Logger
	Now       func() time.Time
}

// ArticleFetcher runs single-article fetches: it validates the title,
// applies the cache policy, downloads through the transport, writes the
// article through to the store and announces it on the bus.
//
// Concurrent fetches of the same title are not merged; each one downloads,
// and the last store write wins.
type ArticleFetcher struct {
	transport ports.ArticleTransport
	store     ports.ArticleStore
	bus       *broadcast.Bus
	policy    CachePolicy
	logger    *slog.Logger
	now       func() time.Time
}

// NewArticleFetcher constructs the pipeline.
func NewArticleFetcher(deps FetcherDeps) *ArticleFetcher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	policy := deps.Policy
	if policy == "" {
		policy = NetworkFirst
	}
	return &ArticleFetcher{
		transport: deps.Transport,
		store:     deps.Store,
		bus:       deps.Bus,
		policy:    policy,
		logger:    logger,
		now:       now,
	}
}

// Policy reports the configured cache policy.
func (f *ArticleFetcher) Policy() CachePolicy {
	return f.policy
}

// Fetch starts fetching title and returns immediately. An invalid title
// yields an already resolved future carrying domain.ErrInvalidArgument,
// without any I/O or progress callback. Titles are normalized first, so a
// struct literal and its NewTitle form fetch and cache the same article.
//
// progress may be nil. It is called on the fetch goroutine with
// non-decreasing values in [0,1], always before the future resolves.
func (f *ArticleFetcher) Fetch(ctx context.Context, title domain.Title, progress ports.ProgressFunc) *Future {
	title = title.Normalize()
	if err := title.Validate(); err != nil {
		fut := newFuture(nil)
		fut.resolve(domain.FetchResult{}, fmt.Errorf("fetch article: %w", err))
		metrics.RecordFetch(domain.KindOf(err), metrics.SourceNetwork, 0)
		return fut
	}

	ctx, cancel := context.WithCancel(ctx)
	fut := newFuture(cancel)
	go f.run(ctx, fut, title, progress)
	return fut
}

// Lookup reads the store directly, without touching the network.
func (f *ArticleFetcher) Lookup(ctx context.Context, title domain.Title) (domain.Article, bool, error) {
	title = title.Normalize()
	if err := title.Validate(); err != nil {
		return domain.Article{}, false, fmt.Errorf("lookup article: %w", err)
	}
	if f.store == nil {
		return domain.Article{}, false, fmt.Errorf("%w: store is not configured", domain.ErrStore)
	}
	article, ok, err := f.store.Lookup(ctx, title)
	if err != nil {
		return domain.Article{}, false, fmt.Errorf("lookup article: %w", withKind(domain.ErrStore, err))
	}
	return article, ok, nil
}

func (f *ArticleFetcher) run(ctx context.Context, fut *Future, title domain.Title, progress ports.ProgressFunc) {
	started := time.Now()
	logger := f.logger.With("fetch_id", uuid.NewString(), "title", title.String())
	guard := &progressGuard{ctx: ctx, fn: progress}
	source := metrics.SourceNetwork

	defer func() {
		if r := recover(); r != nil {
			guard.seal()
			if fut.abort(r) {
				logger.Error("progress callback panicked, fetch aborted", "panic", r)
				metrics.RecordFetch("panic", source, time.Since(started).Seconds())
				return
			}
			logger.Error("completion subscriber panicked", "panic", r)
		}
	}()

	logger.Debug("fetch started", "policy", string(f.policy))

	result, source, err := f.execute(ctx, title, guard)
	guard.seal()
	metrics.RecordFetch(domain.KindOf(err), source, time.Since(started).Seconds())

	if err != nil {
		logger.Warn("fetch failed", "kind", domain.KindOf(err), "error", err)
		fut.resolve(domain.FetchResult{}, fmt.Errorf("fetch article %s: %w", title, err))
		return
	}

	logger.Info("article fetched",
		"source", source,
		"revision", result.Article.Revision,
		"sections", len(result.Article.Sections),
		"duration", time.Since(started))

	fut.resolve(result, nil)

	if f.bus != nil {
		f.bus.Publish(context.WithoutCancel(ctx), broadcast.ArticleFetched(result))
	}
}

func (f *ArticleFetcher) execute(ctx context.Context, title domain.Title, guard *progressGuard) (domain.FetchResult, string, error) {
	if f.transport == nil {
		return domain.FetchResult{}, metrics.SourceNetwork, fmt.Errorf("%w: transport is not configured", domain.ErrTransport)
	}
	if f.store == nil {
		return domain.FetchResult{}, metrics.SourceNetwork, fmt.Errorf("%w: store is not configured", domain.ErrStore)
	}

	if f.policy == CacheFirst {
		if err := cancelled(ctx); err != nil {
			return domain.FetchResult{}, metrics.SourceCache, err
		}
		cached, ok, err := f.store.Lookup(ctx, title)
		if err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return domain.FetchResult{}, metrics.SourceCache, cerr
			}
			metrics.RecordStoreError(metrics.OpLookup)
			return domain.FetchResult{}, metrics.SourceCache, fmt.Errorf("lookup cached article: %w", withKind(domain.ErrStore, err))
		}
		if ok {
			guard.report(1)
			return domain.NewFetchResult(title, cached), metrics.SourceCache, nil
		}
	}

	if err := cancelled(ctx); err != nil {
		return domain.FetchResult{}, metrics.SourceNetwork, err
	}

	article, err := f.transport.FetchArticle(ctx, title, guard.report)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return domain.FetchResult{}, metrics.SourceNetwork, cerr
		}
		return domain.FetchResult{}, metrics.SourceNetwork, fmt.Errorf("download article: %w", withKind(domain.ErrTransport, err))
	}

	// Past this check the fetch is committed: a late Cancel no longer
	// interrupts the store write or the broadcast.
	if err := cancelled(ctx); err != nil {
		return domain.FetchResult{}, metrics.SourceNetwork, err
	}

	article.Title = title
	if article.FetchedAt.IsZero() {
		article.FetchedAt = f.now()
	}

	if err := f.store.Write(context.WithoutCancel(ctx), title, article); err != nil {
		metrics.RecordStoreError(metrics.OpWrite)
		return domain.FetchResult{}, metrics.SourceNetwork, fmt.Errorf("write article: %w", withKind(domain.ErrStore, err))
	}

	return domain.NewFetchResult(title, article), metrics.SourceNetwork, nil
}

func cancelled(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	}
	return nil
}

// withKind attaches kind unless err already carries a domain error kind.
func withKind(kind, err error) error {
	if domain.KindOf(err) != "unknown" {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// progressGuard filters transport progress before it reaches the caller:
// values are clamped to [0,1], decreases are dropped, and nothing passes
// after cancellation or once the guard is sealed.
type progressGuard struct {
	mu       sync.Mutex
	ctx      context.Context
	fn       ports.ProgressFunc
	last     float64
	reported bool
	sealed   bool
}

func (g *progressGuard) report(fraction float64) {
	if g.fn == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sealed || g.ctx.Err() != nil {
		return
	}
	if math.IsNaN(fraction) {
		return
	}
	fraction = min(max(fraction, 0), 1)
	if g.reported && fraction <= g.last {
		return
	}
	g.last = fraction
	g.reported = true
	g.fn(fraction)
}

func (g *progressGuard) seal() {
	g.mu.Lock()
	g.sealed = true
	g.mu.Unlock()
}
