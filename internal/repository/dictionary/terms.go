// Package dictionary loads entity vocabularies from the product index.
package dictionary

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/relevex/internal/domain/search/query"
	"github.com/kailas-cloud/relevex/internal/index"
)

const termsAgg = "terms"

// Source lists distinct field values with a terms aggregation.
type Source struct {
	searcher  index.Searcher
	indexName string
}

// New creates a term source over indexName.
func New(searcher index.Searcher, indexName string) *Source {
	return &Source{searcher: searcher, indexName: indexName}
}

// Terms returns up to size distinct values of field, most frequent first.
func (s *Source) Terms(ctx context.Context, field string, size int) ([]string, error) {
	body := query.Body{
		Query: query.Bool{Filter: []query.Clause{query.Term{Field: "isActive", Value: true}}},
		Size:  0,
		Aggs:  map[string]query.Aggregation{termsAgg: query.TermsAgg{Field: field, Size: size}},
	}
	resp, err := s.searcher.Search(ctx, s.indexName, body)
	if err != nil {
		return nil, fmt.Errorf("load terms of %s: %w", field, err)
	}

	buckets := resp.Aggregations[termsAgg].Buckets
	out := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if b.Key != "" {
			out = append(out, b.Key)
		}
	}
	return out, nil
}
