package domain

import (
	"strings"
	"time"
)

// Section is one heading-delimited part of an article. Index 0 is the lead.
type Section struct {
	Index   int    `json:"index"`
	Level   int    `json:"level"`
	Anchor  string `json:"anchor,omitempty"`
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
}

// Article is the fetched content of a single page.
type Article struct {
	Title        Title     `json:"title"`
	DisplayTitle string    `json:"displayTitle,omitempty"`
	Revision     int64     `json:"revision,omitempty"`
	Lead         string    `json:"lead,omitempty"`
	Sections     []Section `json:"sections"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// Text joins all section bodies, headings included, in document order.
func (a Article) Text() string {
	var b strings.Builder
	for i, s := range a.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if s.Heading != "" {
			b.WriteString(s.Heading)
			b.WriteString("\n")
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Clone returns a copy that shares no slices with a.
func (a Article) Clone() Article {
	if a.Sections != nil {
		sections := make([]Section, len(a.Sections))
		copy(sections, a.Sections)
		a.Sections = sections
	}
	return a
}

// FetchResult pairs a title with the content fetched for it.
type FetchResult struct {
	Title   Title   `json:"title"`
	Article Article `json:"content"`
}

// NewFetchResult builds a result holding its own copy of the article.
func NewFetchResult(title Title, article Article) FetchResult {
	return FetchResult{Title: title, Article: article.Clone()}
}

// Content returns an independent copy of the fetched article.
func (r FetchResult) Content() Article {
	return r.Article.Clone()
}
