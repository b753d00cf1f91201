package search

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/filter"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
)

// Index field names.
const (
	fieldActive     = "isActive"
	fieldInStock    = "inStock"
	fieldOnSale     = "isOnSale"
	fieldCreatedAt  = "createdAt"
	fieldPrice      = "price"
	fieldRating     = "rating"
	fieldMerchant   = "merchantId"
	fieldCategories = "categories.keyword"
	fieldBrand      = "brandName.keyword"
	fieldValues     = "values.keyword"
	fieldColor      = "attributes.color.keyword"
	fieldSize       = "attributes.size.keyword"
	fieldMaterial   = "attributes.material.keyword"
	fieldID         = "id"
	fieldScore      = "_score"
)

// Aggregation names.
const (
	AggCategories  = "categories"
	AggBrands      = "brands"
	AggValues      = "values"
	AggPriceRanges = "price_ranges"
	AggAvgPrice    = "avg_price"
	AggMinPrice    = "min_price"
	AggMaxPrice    = "max_price"
)

// textFields are the multi_match fields with their default boosts.
var textFields = []profile.FieldBoost{
	{Field: "title", Weight: 3},
	{Field: "description", Weight: 1.5},
	{Field: "categories", Weight: 2},
	{Field: "tags", Weight: 1.8},
	{Field: "brandName", Weight: 2.5},
	{Field: "values", Weight: 1.2},
}

// sortFields maps request sort names to index fields.
var sortFields = map[string]string{
	"name":       "title.keyword",
	"popularity": "viewCount",
}

// expansionBoost weights synonym matches below the query text.
const expansionBoost = 0.5

var priceBuckets = []query.RangeBucket{
	{To: query.Float(25)},
	{From: query.Float(25), To: query.Float(50)},
	{From: query.Float(50), To: query.Float(100)},
	{From: query.Float(100), To: query.Float(200)},
	{From: query.Float(200)},
}

// BuildParams holds the inputs of Build.
type BuildParams struct {
	Text        string
	Expansions  []string             // optional synonyms, scored but not required
	Boosts      []profile.FieldBoost // raise text field weights, catalog names allowed
	Filters     filter.Filters
	Sort        []query.SortField // empty means relevance order
	SearchAfter []any
	Limit       int
	Facets      bool
	// Score wraps the filtered base query, typically with a scoring profile.
	Score func(base query.Clause) query.Clause
}

// Build composes the index request. Size is Limit+1 so the caller can tell
// whether another page exists.
func Build(p BuildParams) query.Body {
	base := baseQuery(p.Text, p.Expansions, p.Boosts, p.Filters)
	if p.Score != nil {
		base = p.Score(base)
	}

	body := query.Body{
		Query: query.FunctionScore{
			Query:     base,
			Functions: defaultFunctions(),
			ScoreMode: query.ScoreSum,
			BoostMode: query.BoostMultiply,
		},
		Sort:           sortOrder(p.Sort),
		SearchAfter:    p.SearchAfter,
		Size:           p.Limit + 1,
		TrackTotalHits: true,
	}
	if p.Facets {
		body.Aggs = aggregations()
	}
	return body
}

func baseQuery(text string, expansions []string, boosts []profile.FieldBoost, f filter.Filters) query.Clause {
	if text == "" {
		return query.Bool{
			Must:   []query.Clause{query.MatchAll{}},
			Filter: filterClauses(f),
		}
	}

	fields := weightedFields(boosts)
	b := query.Bool{
		Must: []query.Clause{query.MultiMatch{
			Query:        text,
			Fields:       fields,
			Type:         "best_fields",
			Fuzziness:    "AUTO",
			PrefixLength: 1,
			TieBreaker:   0.3,
		}},
		Filter: filterClauses(f),
	}
	if len(expansions) > 0 {
		b.Should = []query.Clause{query.MultiMatch{
			Query:      strings.Join(expansions, " "),
			Fields:     append([]string(nil), fields...),
			Type:       "best_fields",
			TieBreaker: 0.3,
			Boost:      expansionBoost,
		}}
	}
	return b
}

// weightedFields renders "field^boost" entries. An intent boost raises a
// field's weight but never lowers it; boosts on non-text fields are ignored.
func weightedFields(boosts []profile.FieldBoost) []string {
	weights := make(map[string]float64, len(textFields))
	for _, f := range textFields {
		weights[f.Field] = f.Weight
	}
	for _, b := range boosts {
		name := profile.IndexField(b.Field)
		if w, ok := weights[name]; ok && b.Weight > w {
			weights[name] = b.Weight
		}
	}

	out := make([]string, len(textFields))
	for i, f := range textFields {
		out[i] = f.Field + "^" + strconv.FormatFloat(weights[f.Field], 'f', -1, 64)
	}
	return out
}

func filterClauses(f filter.Filters) []query.Clause {
	out := []query.Clause{query.Term{Field: fieldActive, Value: true}}

	lists := []struct {
		field  string
		values []string
	}{
		{fieldCategories, f.Categories()},
		{fieldBrand, f.Brands()},
		{fieldValues, f.Values()},
		{fieldColor, f.Colors()},
		{fieldSize, f.Sizes()},
		{fieldMaterial, f.Materials()},
	}
	for _, l := range lists {
		switch len(l.values) {
		case 0:
		case 1:
			out = append(out, query.Term{Field: l.field, Value: l.values[0]})
		default:
			out = append(out, query.Terms{Field: l.field, Values: l.values})
		}
	}

	if m := f.MerchantID(); m != "" {
		out = append(out, query.Term{Field: fieldMerchant, Value: m})
	}
	if s := f.InStock(); s != nil {
		out = append(out, query.Term{Field: fieldInStock, Value: *s})
	}
	if r := f.Price(); r != nil {
		out = append(out, query.Range{Field: fieldPrice, GT: r.GT(), GTE: r.GTE(), LT: r.LT(), LTE: r.LTE()})
	}
	if m := f.RatingMin(); m != nil {
		out = append(out, query.Range{Field: fieldRating, GTE: m})
	}
	return out
}

func defaultFunctions() []query.Function {
	return []query.Function{
		query.WeightFunc(query.Term{Field: fieldInStock, Value: true}, 1.2),
		query.WeightFunc(query.Term{Field: fieldOnSale, Value: true}, 1.1),
		query.DecayFunc(query.Decay{
			Kind:   query.Gauss,
			Field:  fieldCreatedAt,
			Origin: "now",
			Scale:  "30d",
			Offset: "5d",
			Decay:  0.5,
		}, 1.5),
	}
}

// sortOrder appends tiebreakers so every hit has a total order, which the
// cursor relies on.
func sortOrder(requested []query.SortField) []query.SortField {
	if len(requested) == 0 {
		return []query.SortField{
			{Field: fieldScore, Order: query.Desc},
			{Field: fieldCreatedAt, Order: query.Desc},
			{Field: fieldID, Order: query.Asc},
		}
	}
	out := make([]query.SortField, 0, len(requested)+2)
	for _, s := range requested {
		if f, ok := sortFields[s.Field]; ok {
			s.Field = f
		}
		out = append(out, s)
	}
	return append(out,
		query.SortField{Field: fieldScore, Order: query.Desc},
		query.SortField{Field: fieldID, Order: query.Asc},
	)
}

// SortSignature identifies the effective sort order, tiebreakers included.
// Cursors carry it so a token is only honored under the order it was minted for.
func SortSignature(requested []query.SortField) string {
	order := sortOrder(requested)
	parts := make([]string, len(order))
	for i, s := range order {
		parts[i] = s.Field + ":" + string(s.Order)
	}
	return strings.Join(parts, ",")
}

func aggregations() map[string]query.Aggregation {
	return map[string]query.Aggregation{
		AggCategories:  query.TermsAgg{Field: fieldCategories, Size: 20},
		AggBrands:      query.TermsAgg{Field: fieldBrand, Size: 20},
		AggValues:      query.TermsAgg{Field: fieldValues, Size: 50},
		AggPriceRanges: query.RangeAgg{Field: fieldPrice, Ranges: priceBuckets},
		AggAvgPrice:    query.MetricAgg{Kind: query.MetricAvg, Field: fieldPrice},
		AggMinPrice:    query.MetricAgg{Kind: query.MetricMin, Field: fieldPrice},
		AggMaxPrice:    query.MetricAgg{Kind: query.MetricMax, Field: fieldPrice},
	}
}
