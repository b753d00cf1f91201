package result

import "encoding/json"

// Result is a single ranked hit.
type Result struct {
	id     string
	score  float64
	source json.RawMessage
	sort   []any
}

// New creates a search result. sort holds the hit's sort values, used to
// build the next page cursor.
func New(id string, score float64, source json.RawMessage, sort []any) Result {
	return Result{id: id, score: score, source: source, sort: sort}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Source returns the raw product document.
func (r *Result) Source() json.RawMessage { return r.source }

// Sort returns the hit's sort values.
func (r *Result) Sort() []any { return r.sort }

// FacetValue is one bucket of a facet.
type FacetValue struct {
	Value string
	Count int64
}

// Facet is a named group of buckets shown as a filter.
type Facet struct {
	Name        string
	DisplayName string
	Values      []FacetValue
}

// Pagination describes the position of a page in the result set.
type Pagination struct {
	Total      int64
	NextCursor string
	HasMore    bool
}

// PriceStats summarizes prices over the whole result set.
type PriceStats struct {
	Min *float64
	Max *float64
	Avg *float64
}

// Response is one page of ranked results.
type Response struct {
	Query          string
	Items          []Result
	Pagination     Pagination
	Facets         []Facet
	PriceStats     *PriceStats
	AppliedFilters map[string]any
	Intent         string
	Profile        string
	Variant        string
}
