package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"WikiFetch/internal/domain"
	"WikiFetch/internal/ports"
)

// Supported database/sql drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const articlesTable = "cached_articles"

const schema = `CREATE TABLE IF NOT EXISTS cached_articles (
	cache_key  TEXT PRIMARY KEY,
	site       TEXT NOT NULL,
	name       TEXT NOT NULL,
	revision   BIGINT NOT NULL DEFAULT 0,
	content    TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL
)`

// SQLStore keeps articles as JSON documents in a SQL table.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleStore = (*SQLStore)(nil)

// NewSQLStore wires an open database; driver selects the placeholder style.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLStore{db: db, builder: sq.StatementBuilder.PlaceholderFormat(format)}
}

// OpenSQLStore opens dsn with driver and creates the table if needed.
// For sqlite the dsn is a file path; its directory is created.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create cache dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	store := NewSQLStore(db, driver)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the articles table.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Lookup returns the cached article for title, if any.
func (s *SQLStore) Lookup(ctx context.Context, title domain.Title) (domain.Article, bool, error) {
	query, args, err := s.builder.
		Select("content").
		From(articlesTable).
		Where(sq.Eq{"cache_key": title.Key()}).
		ToSql()
	if err != nil {
		return domain.Article{}, false, fmt.Errorf("%w: build lookup: %w", domain.ErrStore, err)
	}

	var raw string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Article{}, false, nil
		}
		return domain.Article{}, false, fmt.Errorf("%w: query article: %w", domain.ErrStore, err)
	}

	var article domain.Article
	if err := json.Unmarshal([]byte(raw), &article); err != nil {
		return domain.Article{}, false, fmt.Errorf("%w: decode cached article: %w", domain.ErrStore, err)
	}
	return article, true, nil
}

// Write upserts the article snapshot for title.
func (s *SQLStore) Write(ctx context.Context, title domain.Title, article domain.Article) error {
	raw, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("%w: encode article: %w", domain.ErrStore, err)
	}

	query, args, err := s.builder.
		Insert(articlesTable).
		Columns("cache_key", "site", "name", "revision", "content", "fetched_at").
		Values(title.Key(), title.Site, title.Name, article.Revision, string(raw), article.FetchedAt.UTC()).
		Suffix(`ON CONFLICT (cache_key) DO UPDATE
			SET site = EXCLUDED.site,
			    name = EXCLUDED.name,
			    revision = EXCLUDED.revision,
			    content = EXCLUDED.content,
			    fetched_at = EXCLUDED.fetched_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build upsert: %w", domain.ErrStore, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert article: %w", domain.ErrStore, err)
	}
	return nil
}

// Count returns the number of cached articles.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	query, args, err := s.builder.Select("COUNT(*)").From(articlesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: build count: %w", domain.ErrStore, err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count articles: %w", domain.ErrStore, err)
	}
	return n, nil
}
