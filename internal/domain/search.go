package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ArticleSummary is a single search hit.
type ArticleSummary struct {
	Title       string `json:"title"`
	PageID      int64  `json:"pageId,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	Description string `json:"description,omitempty"`
}

// SearchResults holds the outcome of one full-text query. It is a value
// object: accessors hand out copies and nothing mutates it after construction.
type SearchResults struct {
	searchTerm string
	results    []ArticleSummary
	suggestion *string
}

// NewSearchResults copies results and suggestion; a nil suggestion means
// the server offered none.
func NewSearchResults(term string, results []ArticleSummary, suggestion *string) SearchResults {
	sr := SearchResults{searchTerm: term, results: make([]ArticleSummary, len(results))}
	copy(sr.results, results)
	if suggestion != nil {
		s := *suggestion
		sr.suggestion = &s
	}
	return sr
}

func (s SearchResults) SearchTerm() string { return s.searchTerm }

// Results returns the hits in server relevance order.
func (s SearchResults) Results() []ArticleSummary {
	out := make([]ArticleSummary, len(s.results))
	copy(out, s.results)
	return out
}

// Suggestion reports the spelling suggestion and whether one was present.
func (s SearchResults) Suggestion() (string, bool) {
	if s.suggestion == nil {
		return "", false
	}
	return *s.suggestion, true
}

func (s SearchResults) NoResults() bool { return len(s.results) == 0 }

type searchResultsJSON struct {
	SearchTerm       *string          `json:"searchTerm"`
	Results          []ArticleSummary `json:"results"`
	SearchSuggestion *string          `json:"searchSuggestion,omitempty"`
}

// UnmarshalJSON requires a searchTerm key. A missing results key is read
// as an empty result set.
func (s *SearchResults) UnmarshalJSON(data []byte) error {
	var raw searchResultsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: search results: %w", ErrDeserialization, err)
	}
	if raw.SearchTerm == nil {
		return fmt.Errorf("%w: search results: missing searchTerm", ErrDeserialization)
	}
	*s = NewSearchResults(*raw.SearchTerm, raw.Results, raw.SearchSuggestion)
	return nil
}

func (s SearchResults) MarshalJSON() ([]byte, error) {
	term := s.searchTerm
	return json.Marshal(searchResultsJSON{
		SearchTerm:       &term,
		Results:          s.Results(),
		SearchSuggestion: s.suggestion,
	})
}

// ParseSearchResults decodes a search response body.
func ParseSearchResults(data []byte) (SearchResults, error) {
	var sr SearchResults
	if err := json.Unmarshal(data, &sr); err != nil {
		if errors.Is(err, ErrDeserialization) {
			return SearchResults{}, err
		}
		return SearchResults{}, fmt.Errorf("%w: search results: %w", ErrDeserialization, err)
	}
	return sr, nil
}
