package relevex

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// Hit is a typed search result.
type Hit[T any] struct {
	ID    string
	Item  T
	Score float64
}

// Page is one typed page of results.
type Page[T any] struct {
	Hits       []Hit[T]
	Total      int64
	NextCursor string
	HasMore    bool
	Facets     []Facet
	Intent     string
	Variant    string
}

// SearchBuilder is a fluent builder for typed product searches. Product
// documents are decoded into T.
type SearchBuilder[T any] struct {
	client *Client
	opts   SearchOptions
}

// Products starts a typed search on c.
func Products[T any](c *Client) *SearchBuilder[T] {
	return &SearchBuilder[T]{client: c}
}

// Query sets the free-text query. Empty browses the catalog.
func (b *SearchBuilder[T]) Query(q string) *SearchBuilder[T] {
	b.opts.Query = q
	return b
}

// Category restricts results to any of the given categories.
func (b *SearchBuilder[T]) Category(names ...string) *SearchBuilder[T] {
	b.opts.Filters.Categories = append(b.opts.Filters.Categories, names...)
	return b
}

// Brand restricts results to any of the given brands.
func (b *SearchBuilder[T]) Brand(names ...string) *SearchBuilder[T] {
	b.opts.Filters.Brands = append(b.opts.Filters.Brands, names...)
	return b
}

// PriceBetween bounds the price. Pass a negative value to leave a side open.
func (b *SearchBuilder[T]) PriceBetween(lo, hi float64) *SearchBuilder[T] {
	if lo >= 0 {
		b.opts.Filters.PriceMin = &lo
	}
	if hi >= 0 {
		b.opts.Filters.PriceMax = &hi
	}
	return b
}

// MinRating keeps products rated at least r.
func (b *SearchBuilder[T]) MinRating(r float64) *SearchBuilder[T] {
	b.opts.Filters.RatingMin = &r
	return b
}

// InStock keeps products that can be shipped now.
func (b *SearchBuilder[T]) InStock() *SearchBuilder[T] {
	in := true
	b.opts.Filters.InStock = &in
	return b
}

// SortBy orders results by field instead of relevance.
func (b *SearchBuilder[T]) SortBy(field, order string) *SearchBuilder[T] {
	b.opts.SortBy = field
	b.opts.SortOrder = order
	return b
}

// Profile selects the scoring profile.
func (b *SearchBuilder[T]) Profile(name string) *SearchBuilder[T] {
	b.opts.Profile = name
	return b
}

// ForUser personalizes ranking and keys AB assignment.
func (b *SearchBuilder[T]) ForUser(userID, sessionID string) *SearchBuilder[T] {
	b.opts.UserID = userID
	b.opts.SessionID = sessionID
	return b
}

// Experiment enrolls the search in an AB test.
func (b *SearchBuilder[T]) Experiment(testID string) *SearchBuilder[T] {
	b.opts.ABTestID = testID
	return b
}

// WithFacets requests facets over the whole result set.
func (b *SearchBuilder[T]) WithFacets() *SearchBuilder[T] {
	b.opts.IncludeFacets = true
	return b
}

// After continues from a previous page's cursor.
func (b *SearchBuilder[T]) After(cursor string) *SearchBuilder[T] {
	b.opts.Cursor = cursor
	return b
}

// Limit sets the page size.
func (b *SearchBuilder[T]) Limit(n int) *SearchBuilder[T] {
	b.opts.Limit = n
	return b
}

// Do executes the search and returns one typed page.
func (b *SearchBuilder[T]) Do(ctx context.Context) (*Page[T], error) {
	resp, err := b.client.Search(ctx, b.opts)
	if err != nil {
		return nil, err
	}
	return toPage[T](resp)
}

// All iterates over every result, following cursors until the last page.
// Iteration stops at the first error, which is yielded once.
func (b *SearchBuilder[T]) All(ctx context.Context) iter.Seq2[Hit[T], error] {
	return func(yield func(Hit[T], error) bool) {
		opts := b.opts
		for {
			resp, err := b.client.Search(ctx, opts)
			if err != nil {
				yield(Hit[T]{}, err)
				return
			}
			page, err := toPage[T](resp)
			if err != nil {
				yield(Hit[T]{}, err)
				return
			}
			for _, h := range page.Hits {
				if !yield(h, nil) {
					return
				}
			}
			if !page.HasMore || page.NextCursor == "" {
				return
			}
			opts.Cursor = page.NextCursor
		}
	}
}

func toPage[T any](resp *SearchResponse) (*Page[T], error) {
	page := &Page[T]{
		Hits:       make([]Hit[T], 0, len(resp.Items)),
		Total:      resp.Total,
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
		Facets:     resp.Facets,
		Intent:     resp.Intent,
		Variant:    resp.Variant,
	}
	for _, it := range resp.Items {
		var item T
		if len(it.Product) > 0 {
			if err := json.Unmarshal(it.Product, &item); err != nil {
				return nil, fmt.Errorf("decode product %s: %w", it.ID, err)
			}
		}
		page.Hits = append(page.Hits, Hit[T]{ID: it.ID, Item: item, Score: it.Score})
	}
	return page, nil
}
