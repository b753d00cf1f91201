package search

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/relevex/internal/domain/search/result"
	"github.com/kailas-cloud/relevex/internal/index"
)

// Facet names.
const (
	FacetCategory = "category"
	FacetBrand    = "brand"
	FacetValues   = "values"
	FacetPrice    = "price"
)

// groupSeparator splits "Group: Value" value tags.
const groupSeparator = ":"

// MapFacets turns raw aggregations into display facets. Facets come out in
// a fixed order: category, brand, grouped value facets in bucket order,
// ungrouped values, price. Empty facets are omitted.
func MapFacets(aggs map[string]index.Aggregation) []result.Facet {
	var out []result.Facet

	if f, ok := termsFacet(FacetCategory, "Category", aggs[AggCategories]); ok {
		out = append(out, f)
	}
	if f, ok := termsFacet(FacetBrand, "Brand", aggs[AggBrands]); ok {
		out = append(out, f)
	}
	out = append(out, valueFacets(aggs[AggValues])...)
	if f, ok := priceFacet(aggs[AggPriceRanges]); ok {
		out = append(out, f)
	}
	return out
}

// MapPriceStats reads the price metric aggregations, nil when none is set.
func MapPriceStats(aggs map[string]index.Aggregation) *result.PriceStats {
	s := result.PriceStats{
		Min: aggs[AggMinPrice].Value,
		Max: aggs[AggMaxPrice].Value,
		Avg: aggs[AggAvgPrice].Value,
	}
	if s.Min == nil && s.Max == nil && s.Avg == nil {
		return nil
	}
	return &s
}

func termsFacet(name, display string, agg index.Aggregation) (result.Facet, bool) {
	f := result.Facet{Name: name, DisplayName: display}
	for _, b := range agg.Buckets {
		if b.Key == "" || b.DocCount == 0 {
			continue
		}
		f.Values = append(f.Values, result.FacetValue{Value: b.Key, Count: b.DocCount})
	}
	return f, len(f.Values) > 0
}

func valueFacets(agg index.Aggregation) []result.Facet {
	var (
		groups []*result.Facet
		byName = map[string]*result.Facet{}
		plain  = result.Facet{Name: FacetValues, DisplayName: "Values"}
	)

	for _, b := range agg.Buckets {
		if b.DocCount == 0 {
			continue
		}
		group, value, ok := strings.Cut(b.Key, groupSeparator)
		group, value = strings.TrimSpace(group), strings.TrimSpace(value)
		if !ok || group == "" || value == "" {
			plain.Values = append(plain.Values, result.FacetValue{Value: strings.TrimSpace(b.Key), Count: b.DocCount})
			continue
		}

		name := slug(group)
		f, seen := byName[name]
		if !seen {
			f = &result.Facet{Name: name, DisplayName: group}
			byName[name] = f
			groups = append(groups, f)
		}
		f.Values = append(f.Values, result.FacetValue{Value: value, Count: b.DocCount})
	}

	out := make([]result.Facet, 0, len(groups)+1)
	for _, f := range groups {
		out = append(out, *f)
	}
	if len(plain.Values) > 0 {
		out = append(out, plain)
	}
	return out
}

func priceFacet(agg index.Aggregation) (result.Facet, bool) {
	f := result.Facet{Name: FacetPrice, DisplayName: "Price"}
	for _, b := range agg.Buckets {
		if b.DocCount == 0 {
			continue
		}
		f.Values = append(f.Values, result.FacetValue{Value: priceLabel(b.From, b.To), Count: b.DocCount})
	}
	return f, len(f.Values) > 0
}

// priceLabel renders "$min-$max", "$min+" for open upper bounds.
func priceLabel(from, to *float64) string {
	lo := 0.0
	if from != nil {
		lo = *from
	}
	if to == nil {
		return "$" + money(lo) + "+"
	}
	return "$" + money(lo) + "-$" + money(*to)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// slug lowercases s and joins its alphanumeric runs with hyphens.
func slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
