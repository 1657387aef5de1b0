package wiki

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"WikiFetch/internal/domain"
	"WikiFetch/internal/ports"
)

const (
	defaultUserAgent = "WikiFetch/1.0"
	maxArticleBytes  = 32 << 20
	pageHTMLPath     = "/api/rest_v1/page/html/"
)

// StatusError reports a non-2xx response from a wiki endpoint.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}

// Transport downloads Parsoid HTML from the REST API and turns it into an
// article.
type Transport struct {
	client    *http.Client
	userAgent string
	baseURL   string
	maxBytes  int64
	logger    *slog.Logger
}

var _ ports.ArticleTransport = (*Transport)(nil)

// NewTransport wires an HTTP client; a nil client gets a 20s timeout.
func NewTransport(client *http.Client, userAgent string, logger *slog.Logger) *Transport {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Transport{client: client, userAgent: userAgent, maxBytes: maxArticleBytes, logger: logger}
}

// WithBaseURL sends every request to baseURL instead of https://{site}.
func (t *Transport) WithBaseURL(baseURL string) *Transport {
	t.baseURL = strings.TrimRight(baseURL, "/")
	return t
}

// FetchArticle downloads title and reports download progress as a fraction
// of Content-Length. Responses without a length only report completion.
func (t *Transport) FetchArticle(ctx context.Context, title domain.Title, progress ports.ProgressFunc) (domain.Article, error) {
	if progress == nil {
		progress = func(float64) {}
	}

	pageURL := siteURL(t.baseURL, title.Site) + pageHTMLPath + title.PathName()
	t.debug("fetch article", "url", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: build request: %w", domain.ErrInvalidArgument, err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: request article: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.Article{}, fmt.Errorf("%w: %w", domain.ErrTransport, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        pageURL,
		})
	}

	if resp.ContentLength > t.maxBytes {
		return domain.Article{}, fmt.Errorf("%w: article %s is %d bytes, limit is %d", domain.ErrDeserialization, title, resp.ContentLength, t.maxBytes)
	}

	reader := &progressReader{r: io.LimitReader(resp.Body, t.maxBytes+1), total: resp.ContentLength, report: progress}
	body, err := io.ReadAll(reader)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: read article: %w", domain.ErrTransport, err)
	}
	if int64(len(body)) > t.maxBytes {
		return domain.Article{}, fmt.Errorf("%w: article %s exceeds %d bytes", domain.ErrDeserialization, title, t.maxBytes)
	}
	progress(1)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: parse document: %w", domain.ErrDeserialization, err)
	}

	article, err := parseArticle(doc, title)
	if err != nil {
		return domain.Article{}, err
	}
	if article.Revision == 0 {
		article.Revision = revisionFromETag(resp.Header.Get("ETag"))
	}

	t.debug("article parsed", "title", title.String(), "sections", len(article.Sections), "bytes", len(body))
	return article, nil
}

func (t *Transport) debug(msg string, args ...interface{}) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ports.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		p.report(min(float64(p.read)/float64(p.total), 1))
	}
	return n, err
}

func siteURL(baseURL, site string) string {
	if baseURL != "" {
		return baseURL
	}
	return "https://" + site
}
