package domain

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultFamily = "wikipedia.org"

// Title identifies a single article on a wiki site. Values are immutable;
// build them with NewTitle so that equal titles compare equal.
type Title struct {
	Site     string `json:"site"`
	Name     string `json:"name"`
	Fragment string `json:"fragment,omitempty"`
}

// NewTitle normalizes site and name and rejects empty components.
func NewTitle(site, name string) (Title, error) {
	t := Title{Site: NormalizeSite(site)}
	name, fragment, _ := strings.Cut(name, "#")
	t.Name = normalizeName(name)
	t.Fragment = strings.TrimSpace(fragment)

	if err := t.Validate(); err != nil {
		return Title{}, err
	}
	return t, nil
}

// Validate reports ErrInvalidArgument for titles with an empty site or name.
func (t Title) Validate() error {
	if strings.TrimSpace(t.Site) == "" {
		return fmt.Errorf("%w: title site is empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: title name is empty", ErrInvalidArgument)
	}
	return nil
}

// Normalize applies the NewTitle rules to t. Titles built as struct
// literals must go through it before being used as cache keys.
func (t Title) Normalize() Title {
	return Title{
		Site:     NormalizeSite(t.Site),
		Name:     normalizeName(t.Name),
		Fragment: strings.TrimSpace(t.Fragment),
	}
}

// Key is the cache key; the fragment does not take part in it. Titles that
// normalize the same way share a key.
func (t Title) Key() string {
	n := t.Normalize()
	return n.Site + "/" + strings.ReplaceAll(n.Name, " ", "_")
}

// PathName is the name in its URL path form, e.g. "Main_Page".
func (t Title) PathName() string {
	return url.PathEscape(strings.ReplaceAll(normalizeName(t.Name), " ", "_"))
}

func (t Title) String() string {
	if t.Fragment != "" {
		return t.Site + ":" + t.Name + "#" + t.Fragment
	}
	return t.Site + ":" + t.Name
}

// NormalizeSite lower-cases a site host, strips scheme and path, and expands
// a bare language code ("en") to its wikipedia host.
func NormalizeSite(site string) string {
	site = strings.ToLower(strings.TrimSpace(site))
	site = strings.TrimPrefix(site, "https://")
	site = strings.TrimPrefix(site, "http://")
	if i := strings.IndexByte(site, '/'); i >= 0 {
		site = site[:i]
	}
	if site == "" {
		return ""
	}
	if !strings.Contains(site, ".") {
		return site + "." + defaultFamily
	}
	if strings.HasSuffix(site, ".wikipedia") {
		return site + ".org"
	}
	return site
}

func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
