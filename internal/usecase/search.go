package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"WikiFetch/internal/domain"
	"WikiFetch/internal/metrics"
	"WikiFetch/internal/ports"
)

// ArticleSearcher runs full-text searches against a site and records the
// outcome. Results are returned in server order.
type ArticleSearcher struct {
	searcher ports.Searcher
	logger   *slog.Logger
}

// NewArticleSearcher wraps searcher; a nil logger discards output.
func NewArticleSearcher(searcher ports.Searcher, logger *slog.Logger) *ArticleSearcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ArticleSearcher{searcher: searcher, logger: logger}
}

func (s *ArticleSearcher) Search(ctx context.Context, site, term string) (domain.SearchResults, error) {
	site = domain.NormalizeSite(site)
	if site == "" {
		err := fmt.Errorf("%w: site is empty", domain.ErrInvalidArgument)
		metrics.RecordSearch(domain.KindOf(err))
		return domain.SearchResults{}, err
	}
	if s.searcher == nil {
		err := fmt.Errorf("%w: searcher is not configured", domain.ErrTransport)
		metrics.RecordSearch(domain.KindOf(err))
		return domain.SearchResults{}, err
	}

	results, err := s.searcher.Search(ctx, site, term)
	metrics.RecordSearch(domain.KindOf(err))
	if err != nil {
		s.logger.Warn("search failed", "site", site, "term", term, "kind", domain.KindOf(err), "error", err)
		return domain.SearchResults{}, fmt.Errorf("search %s: %w", site, withKind(domain.ErrTransport, err))
	}

	s.logger.Debug("search finished", "site", site, "term", term, "results", len(results.Results()))
	return results, nil
}
