package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiFetch/internal/domain"
)

type fakeSearcher struct {
	site, term string
	results    domain.SearchResults
	err        error
}

func (f *fakeSearcher) Search(_ context.Context, site, term string) (domain.SearchResults, error) {
	f.site, f.term = site, term
	return f.results, f.err
}

func TestArticleSearcherNormalizesSite(t *testing.T) {
	t.Parallel()

	want := domain.NewSearchResults("cats", []domain.ArticleSummary{{Title: "Cat"}, {Title: "Catamaran"}}, nil)
	fake := &fakeSearcher{results: want}
	s := NewArticleSearcher(fake, nil)

	got, err := s.Search(context.Background(), "EN", "cats")
	require.NoError(t, err)
	assert.Equal(t, "en.wikipedia.org", fake.site)
	assert.Equal(t, "cats", fake.term)
	assert.Equal(t, []string{"Cat", "Catamaran"}, []string{got.Results()[0].Title, got.Results()[1].Title})
}

func TestArticleSearcherErrors(t *testing.T) {
	t.Parallel()

	_, err := NewArticleSearcher(&fakeSearcher{}, nil).Search(context.Background(), " ", "cats")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = NewArticleSearcher(nil, nil).Search(context.Background(), "en", "cats")
	assert.ErrorIs(t, err, domain.ErrTransport)

	_, err = NewArticleSearcher(&fakeSearcher{err: errors.New("dial tcp: refused")}, nil).Search(context.Background(), "en", "cats")
	assert.ErrorIs(t, err, domain.ErrTransport)

	_, err = NewArticleSearcher(&fakeSearcher{err: domain.ErrDeserialization}, nil).Search(context.Background(), "en", "cats")
	assert.ErrorIs(t, err, domain.ErrDeserialization)
	assert.NotErrorIs(t, err, domain.ErrTransport)
}
