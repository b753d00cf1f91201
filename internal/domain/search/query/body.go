package query

import "encoding/json"

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// IsValid reports whether o is asc or desc.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// SortField is one sort key.
type SortField struct {
	Field string
	Order Order
}

// Aggregation is a named bucket or metric aggregation.
type Aggregation interface {
	Source() map[string]any
}

// TermsAgg buckets by distinct field values.
type TermsAgg struct {
	Field string
	Size  int
}

// Source implements Aggregation.
func (a TermsAgg) Source() map[string]any {
	return map[string]any{"terms": map[string]any{"field": a.Field, "size": a.Size}}
}

// RangeBucket is one range of a RangeAgg. Nil bounds are open.
type RangeBucket struct {
	From *float64
	To   *float64
}

// RangeAgg buckets a numeric field into ranges.
type RangeAgg struct {
	Field  string
	Ranges []RangeBucket
}

// Source implements Aggregation.
func (a RangeAgg) Source() map[string]any {
	ranges := make([]map[string]any, len(a.Ranges))
	for i, r := range a.Ranges {
		b := map[string]any{}
		if r.From != nil {
			b["from"] = *r.From
		}
		if r.To != nil {
			b["to"] = *r.To
		}
		ranges[i] = b
	}
	return map[string]any{"range": map[string]any{"field": a.Field, "ranges": ranges}}
}

// MetricKind is a single-value metric aggregation.
type MetricKind string

// Metric aggregations.
const (
	MetricAvg MetricKind = "avg"
	MetricMin MetricKind = "min"
	MetricMax MetricKind = "max"
)

// MetricAgg computes a single value over a field.
type MetricAgg struct {
	Kind  MetricKind
	Field string
}

// Source implements Aggregation.
func (a MetricAgg) Source() map[string]any {
	return map[string]any{string(a.Kind): map[string]any{"field": a.Field}}
}

// Body is a complete search request body.
type Body struct {
	Query          Clause
	Sort           []SortField
	SearchAfter    []any
	Size           int
	Aggs           map[string]Aggregation
	TrackTotalHits bool
}

// Source returns the JSON DSL representation.
func (b Body) Source() map[string]any {
	out := map[string]any{"size": b.Size}
	if b.Query != nil {
		out["query"] = b.Query.Source()
	}
	if len(b.Sort) > 0 {
		sorts := make([]map[string]any, len(b.Sort))
		for i, s := range b.Sort {
			sorts[i] = map[string]any{s.Field: map[string]any{"order": string(s.Order)}}
		}
		out["sort"] = sorts
	}
	if len(b.SearchAfter) > 0 {
		out["search_after"] = append([]any(nil), b.SearchAfter...)
	}
	if len(b.Aggs) > 0 {
		aggs := make(map[string]any, len(b.Aggs))
		for name, a := range b.Aggs {
			aggs[name] = a.Source()
		}
		out["aggs"] = aggs
	}
	if b.TrackTotalHits {
		out["track_total_hits"] = true
	}
	return out
}

// MarshalJSON renders the body as index JSON.
func (b Body) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Source())
}
