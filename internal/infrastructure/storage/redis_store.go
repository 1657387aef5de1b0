package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"WikiFetch/internal/domain"
	"WikiFetch/internal/ports"
)

const defaultRedisPrefix = "wikifetch:article:"

// RedisStore keeps articles as JSON strings under prefix+key, optionally
// expiring them after ttl.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.ArticleStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. A zero ttl keeps entries forever.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (r *RedisStore) key(title domain.Title) string {
	return r.prefix + title.Key()
}

func (r *RedisStore) Lookup(ctx context.Context, title domain.Title) (domain.Article, bool, error) {
	raw, err := r.client.Get(ctx, r.key(title)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Article{}, false, nil
		}
		return domain.Article{}, false, fmt.Errorf("%w: redis get: %w", domain.ErrStore, err)
	}

	var article domain.Article
	if err := json.Unmarshal(raw, &article); err != nil {
		return domain.Article{}, false, fmt.Errorf("%w: decode cached article: %w", domain.ErrStore, err)
	}
	return article, true, nil
}

func (r *RedisStore) Write(ctx context.Context, title domain.Title, article domain.Article) error {
	raw, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("%w: encode article: %w", domain.ErrStore, err)
	}
	if err := r.client.Set(ctx, r.key(title), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", domain.ErrStore, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
