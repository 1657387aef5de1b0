package ports

import (
	"context"

	"WikiFetch/internal/domain"
)

// ProgressFunc receives the completed fraction of a fetch, in [0,1].
type ProgressFunc func(fraction float64)

// ArticleTransport downloads and decodes a single article. Implementations
// must invoke progress synchronously, from the goroutine that called
// FetchArticle, and never after returning.
type ArticleTransport interface {
	FetchArticle(ctx context.Context, title domain.Title, progress ProgressFunc) (domain.Article, error)
}

// ArticleStore caches article content keyed by title. Write overwrites any
// prior value for the same title.
type ArticleStore interface {
	Lookup(ctx context.Context, title domain.Title) (domain.Article, bool, error)
	Write(ctx context.Context, title domain.Title, article domain.Article) error
}

// Searcher runs full-text queries against a wiki site.
type Searcher interface {
	Search(ctx context.Context, site, term string) (domain.SearchResults, error)
}
