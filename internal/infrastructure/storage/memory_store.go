package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"WikiFetch/internal/domain"
	"WikiFetch/internal/ports"
)

const defaultMemorySize = 512

// MemoryStore is a bounded in-process cache; the least recently used
// article is evicted once size is reached.
type MemoryStore struct {
	cache *lru.Cache[string, domain.Article]
}

var _ ports.ArticleStore = (*MemoryStore)(nil)

// NewMemoryStore builds a store holding up to size articles.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = defaultMemorySize
	}
	cache, err := lru.New[string, domain.Article](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (m *MemoryStore) Lookup(_ context.Context, title domain.Title) (domain.Article, bool, error) {
	article, ok := m.cache.Get(title.Key())
	if !ok {
		return domain.Article{}, false, nil
	}
	return article.Clone(), true, nil
}

func (m *MemoryStore) Write(_ context.Context, title domain.Title, article domain.Article) error {
	m.cache.Add(title.Key(), article.Clone())
	return nil
}

// Len reports how many articles are cached.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close is a no-op; it lets MemoryStore satisfy Store.
func (m *MemoryStore) Close() error {
	return nil
}
