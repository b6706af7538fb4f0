package domain

import (
	"sort"
	"strings"
)

// QueryContext is the tuple of search text and active facet filters that
// fully determines a catalogue view. Fields are compared case-sensitively
// after trimming; empty string means "no filter".
type QueryContext struct {
	Search   string
	Category string
	Author   string
}

// Trim returns a copy with all fields whitespace-trimmed. Equality of query
// contexts is defined over trimmed values.
func (q QueryContext) Trim() QueryContext {
	return QueryContext{
		Search:   strings.TrimSpace(q.Search),
		Category: strings.TrimSpace(q.Category),
		Author:   strings.TrimSpace(q.Author),
	}
}

// Key returns a stable cache key for the context. The unit separator keeps
// ("a b", "") and ("a", "b ") from colliding.
func (q QueryContext) Key() string {
	return q.Search + "\x1f" + q.Category + "\x1f" + q.Author
}

// HasSearch reports whether a text term is active.
func (q QueryContext) HasSearch() bool { return q.Search != "" }

// HasFilters reports whether any facet filter is active.
func (q QueryContext) HasFilters() bool { return q.Category != "" || q.Author != "" }

// Bucket is one facet count: a categorical value and the number of matching
// books.
type Bucket struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// FacetSnapshot holds category and author counts for one query context.
// Buckets are ordered by descending count, ties broken by name so snapshots
// are deterministic.
type FacetSnapshot struct {
	Total      int64    `json:"total"`
	Categories []Bucket `json:"categories"`
	Authors    []Bucket `json:"authors"`
}

// NewFacetSnapshot builds an ordered snapshot from the frequency tables the
// facets endpoint returns.
func NewFacetSnapshot(total int64, categories, authors map[string]int64) FacetSnapshot {
	return FacetSnapshot{
		Total:      total,
		Categories: sortBuckets(categories),
		Authors:    sortBuckets(authors),
	}
}

// DeriveFacets tallies category and author fields over a result set. Used
// when the facets endpoint is unavailable and counts must come from the
// items themselves.
func DeriveFacets(books []Book) FacetSnapshot {
	categories := make(map[string]int64)
	authors := make(map[string]int64)
	for _, b := range books {
		if b.Category != "" {
			categories[b.Category]++
		}
		if b.Author != "" {
			authors[b.Author]++
		}
	}
	return NewFacetSnapshot(int64(len(books)), categories, authors)
}

// Empty reports whether the snapshot carries no buckets at all.
func (f FacetSnapshot) Empty() bool {
	return len(f.Categories) == 0 && len(f.Authors) == 0
}

func sortBuckets(counts map[string]int64) []Bucket {
	buckets := make([]Bucket, 0, len(counts))
	for name, count := range counts {
		buckets = append(buckets, Bucket{Name: name, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}
