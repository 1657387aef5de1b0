package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTitleNormalizes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		site, name string
		want       Title
	}{
		{"en.wikipedia.org", "Cat", Title{Site: "en.wikipedia.org", Name: "Cat"}},
		{"EN.Wikipedia.org", "  cat  ", Title{Site: "en.wikipedia.org", Name: "Cat"}},
		{"en", "main_page", Title{Site: "en.wikipedia.org", Name: "Main page"}},
		{"en.wikipedia", "Cat", Title{Site: "en.wikipedia.org", Name: "Cat"}},
		{"https://de.wikipedia.org/wiki", "Katze#Merkmale", Title{Site: "de.wikipedia.org", Name: "Katze", Fragment: "Merkmale"}},
		{"en.wikipedia.org", "ärger  und   mehr", Title{Site: "en.wikipedia.org", Name: "Ärger und mehr"}},
	}

	for _, tc := range cases {
		got, err := NewTitle(tc.site, tc.name)
		require.NoError(t, err, "%q/%q", tc.site, tc.name)
		assert.Equal(t, tc.want, got)
	}
}

func TestNewTitleRejectsEmptyComponents(t *testing.T) {
	t.Parallel()

	for _, tc := range [][2]string{{"en.wikipedia.org", ""}, {"", "Cat"}, {"en", " _ "}, {"en", "#Only_fragment"}} {
		_, err := NewTitle(tc[0], tc[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "unexpected error kind: %v", err)
	}
}

func TestTitleKeyIgnoresFragmentAndSpelling(t *testing.T) {
	t.Parallel()

	a, err := NewTitle("en", "New_York_City#History")
	require.NoError(t, err)
	b, err := NewTitle("en.wikipedia.org", "new  York_City")
	require.NoError(t, err)

	assert.Equal(t, "en.wikipedia.org/New_York_City", a.Key())
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "New_York_City", a.PathName())
	assert.Equal(t, "en.wikipedia.org:New York City#History", a.String())
}

func TestZeroTitleIsInvalid(t *testing.T) {
	t.Parallel()

	err := Title{}.Validate()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "invalid_argument", KindOf(err))
}

func TestLiteralTitleSharesNormalizedKey(t *testing.T) {
	t.Parallel()

	built, err := NewTitle("en", "Cat")
	require.NoError(t, err)
	literal := Title{Site: "EN.Wikipedia.org", Name: " cat "}

	assert.Equal(t, built.Key(), literal.Key())
	assert.Equal(t, built.PathName(), literal.PathName())
	assert.Equal(t, built, literal.Normalize())
}
