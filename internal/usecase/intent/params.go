package intent

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/relevex/internal/domain/entity"
	"github.com/kailas-cloud/relevex/internal/domain/intent"
	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/filter"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
)

// SearchParams are the defaults an intent contributes to a search.
// Boost fields use catalog names (name, brand, rating...), not index fields.
type SearchParams struct {
	Boosts  []profile.FieldBoost
	Sort    []query.SortField
	Filters filter.Params
}

// Params maps an intent and the query's entities to default search
// parameters.
func Params(l intent.Label, ents []entity.Entity, q string) SearchParams {
	var p SearchParams

	switch l {
	case intent.ProductSearch:
		p.Boosts = []profile.FieldBoost{{Field: "name", Weight: 2.0}, {Field: "description", Weight: 1.0}, {Field: "categories", Weight: 1.5}}

	case intent.CategoryBrowse:
		p.Boosts = []profile.FieldBoost{{Field: "categories", Weight: 3.0}, {Field: "name", Weight: 1.0}, {Field: "description", Weight: 0.5}}
		p.Filters.Categories = entity.Values(ents, entity.Category)

	case intent.BrandSpecific:
		p.Boosts = []profile.FieldBoost{{Field: "brand", Weight: 3.0}, {Field: "name", Weight: 1.0}}
		p.Filters.Brands = entity.Values(ents, entity.Brand)

	case intent.PriceQuery:
		p.Sort = append(p.Sort, query.SortField{Field: "price", Order: query.Asc})
		if prices := entity.OfType(ents, entity.Price); len(prices) > 0 {
			p.Filters.PriceMin, p.Filters.PriceMax = parsePriceRange(prices[0].Value())
		}

	case intent.ValueDriven:
		p.Boosts = []profile.FieldBoost{{Field: "values", Weight: 3.0}, {Field: "description", Weight: 2.0}, {Field: "name", Weight: 1.0}}
		p.Filters.Values = entity.Values(ents, entity.Value)

	case intent.Comparison:
		// Both sides of a comparison are left to relevance ranking.

	case intent.Recommendation:
		p.Sort = append(p.Sort, query.SortField{Field: "rating", Order: query.Desc})
		p.Boosts = []profile.FieldBoost{{Field: "rating", Weight: 2.0}, {Field: "reviewCount", Weight: 1.5}, {Field: "name", Weight: 1.0}}

	case intent.Availability:
		inStock := true
		p.Filters.InStock = &inStock

	case intent.Filter:
		p.Filters = entityFilters(ents)

	case intent.Sort:
		if s, ok := sortFromQuery(q); ok {
			p.Sort = append(p.Sort, s)
		}
	}
	return p
}

func entityFilters(ents []entity.Entity) filter.Params {
	var f filter.Params
	for _, e := range ents {
		switch e.Type() {
		case entity.Category:
			f.Categories = append(f.Categories, e.Value())
		case entity.Brand:
			f.Brands = append(f.Brands, e.Value())
		case entity.Value:
			f.Values = append(f.Values, e.Value())
		case entity.Color:
			f.Colors = append(f.Colors, e.Value())
		case entity.Size:
			f.Sizes = append(f.Sizes, e.Value())
		case entity.Material:
			f.Materials = append(f.Materials, e.Value())
		case entity.Price:
			if lo, hi := parsePriceRange(e.Value()); lo != nil {
				f.PriceMin, f.PriceMax = lo, hi
			}
		case entity.Rating:
			// Exact and "N+" ratings both become a lower bound.
			if v, err := strconv.ParseFloat(strings.TrimSuffix(e.Value(), "+"), 64); err == nil {
				f.RatingMin = &v
			}
		}
	}
	return f
}

func sortFromQuery(q string) (query.SortField, bool) {
	q = strings.ToLower(q)
	switch {
	case strings.Contains(q, "price"):
		if strings.Contains(q, "high to low") {
			return query.SortField{Field: "price", Order: query.Desc}, true
		}
		return query.SortField{Field: "price", Order: query.Asc}, true
	case strings.Contains(q, "rating"), strings.Contains(q, "reviews"):
		return query.SortField{Field: "rating", Order: query.Desc}, true
	case strings.Contains(q, "new"), strings.Contains(q, "recent"):
		return query.SortField{Field: "createdAt", Order: query.Desc}, true
	case strings.Contains(q, "popular"), strings.Contains(q, "trending"):
		return query.SortField{Field: "popularity", Order: query.Desc}, true
	}
	return query.SortField{}, false
}

// parsePriceRange parses "min-max" price entity values.
func parsePriceRange(v string) (lo, hi *float64) {
	parts := strings.Split(v, "-")
	if len(parts) != 2 {
		return nil, nil
	}
	a, err1 := strconv.ParseFloat(parts[0], 64)
	b, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &a, &b
}
