package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"WikiFetch/internal/domain"
	"WikiFetch/internal/ports"
)

const (
	actionAPIPath      = "/w/api.php"
	defaultSearchLimit = 20
)

// Searcher queries the MediaWiki action API full-text search.
type Searcher struct {
	client    *http.Client
	userAgent string
	limit     int
	baseURL   string
	logger    *slog.Logger
}

var _ ports.Searcher = (*Searcher)(nil)

// NewSearcher creates a search client; limit <= 0 falls back to 20 hits.
func NewSearcher(client *http.Client, userAgent string, limit int, logger *slog.Logger) *Searcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &Searcher{client: client, userAgent: userAgent, limit: limit, logger: logger}
}

// WithBaseURL sends every request to baseURL instead of https://{site}.
func (s *Searcher) WithBaseURL(baseURL string) *Searcher {
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

type searchResponse struct {
	Query *struct {
		SearchInfo struct {
			Suggestion *string `json:"suggestion"`
		} `json:"searchinfo"`
		Search []struct {
			Title   string `json:"title"`
			PageID  int64  `json:"pageid"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Search runs term against site. An empty term is a valid query for
// nothing and returns empty results without a request.
func (s *Searcher) Search(ctx context.Context, site, term string) (domain.SearchResults, error) {
	site = domain.NormalizeSite(site)
	if site == "" {
		return domain.SearchResults{}, fmt.Errorf("%w: search site is empty", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(term) == "" {
		return domain.NewSearchResults(term, nil, nil), nil
	}

	query := url.Values{}
	query.Set("action", "query")
	query.Set("list", "search")
	query.Set("srsearch", term)
	query.Set("srlimit", strconv.Itoa(s.limit))
	query.Set("srinfo", "suggestion")
	query.Set("srprop", "snippet")
	query.Set("format", "json")
	query.Set("formatversion", "2")
	endpoint := siteURL(s.baseURL, site) + actionAPIPath + "?" + query.Encode()

	if s.logger != nil {
		s.logger.Debug("search", "site", site, "term", term)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.SearchResults{}, fmt.Errorf("%w: build request: %w", domain.ErrInvalidArgument, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.SearchResults{}, fmt.Errorf("%w: search request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SearchResults{}, fmt.Errorf("%w: %w", domain.ErrTransport, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        endpoint,
		})
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.SearchResults{}, fmt.Errorf("%w: decode search response: %w", domain.ErrDeserialization, err)
	}
	if payload.Error != nil {
		return domain.SearchResults{}, fmt.Errorf("%w: search api error %s: %s", domain.ErrTransport, payload.Error.Code, payload.Error.Info)
	}
	if payload.Query == nil {
		return domain.SearchResults{}, fmt.Errorf("%w: search response has no query", domain.ErrDeserialization)
	}

	hits := make([]domain.ArticleSummary, 0, len(payload.Query.Search))
	for _, hit := range payload.Query.Search {
		hits = append(hits, domain.ArticleSummary{
			Title:   hit.Title,
			PageID:  hit.PageID,
			Snippet: stripMarkup(hit.Snippet),
		})
	}

	return domain.NewSearchResults(term, hits, payload.Query.SearchInfo.Suggestion), nil
}

// stripMarkup drops the searchmatch spans the API wraps around hits.
func stripMarkup(snippet string) string {
	if !strings.Contains(snippet, "<") {
		return cleanText(snippet)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return cleanText(snippet)
	}
	return cleanText(doc.Text())
}
