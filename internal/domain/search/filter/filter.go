package filter

import (
	"fmt"
	"strings"
)

// MaxValuesPerField is the maximum number of values per list filter.
const MaxValuesPerField = 32

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 5
)

// Params holds raw filter inputs.
type Params struct {
	Categories []string
	Brands     []string
	Values     []string
	Colors     []string
	Sizes      []string
	Materials  []string
	MerchantID string
	InStock    *bool
	PriceMin   *float64
	PriceMax   *float64
	RatingMin  *float64
}

// Filters is a validated set of catalog constraints.
type Filters struct {
	categories []string
	brands     []string
	values     []string
	colors     []string
	sizes      []string
	materials  []string
	merchantID string
	inStock    *bool
	price      *Range
	ratingMin  *float64
}

// New validates and normalizes filter inputs.
func New(p Params) (Filters, error) {
	var f Filters
	var err error

	lists := []struct {
		name string
		in   []string
		out  *[]string
	}{
		{"categories", p.Categories, &f.categories},
		{"brands", p.Brands, &f.brands},
		{"values", p.Values, &f.values},
		{"colors", p.Colors, &f.colors},
		{"sizes", p.Sizes, &f.sizes},
		{"materials", p.Materials, &f.materials},
	}
	for _, l := range lists {
		if *l.out, err = normalizeList(l.name, l.in); err != nil {
			return Filters{}, err
		}
	}

	f.merchantID = strings.TrimSpace(p.MerchantID)
	f.inStock = copyBool(p.InStock)

	if p.PriceMin != nil || p.PriceMax != nil {
		r, err := NewRangeFilter(nil, p.PriceMin, nil, p.PriceMax)
		if err != nil {
			return Filters{}, fmt.Errorf("price: %w", err)
		}
		if r.gte != nil && *r.gte < 0 {
			return Filters{}, fmt.Errorf("price min must be non-negative")
		}
		f.price = &r
	}

	if p.RatingMin != nil {
		if *p.RatingMin < MinRating || *p.RatingMin > MaxRating {
			return Filters{}, fmt.Errorf("rating min must be between %d and %d", MinRating, MaxRating)
		}
		f.ratingMin = copyFloat(p.RatingMin)
	}
	return f, nil
}

func normalizeList(name string, in []string) ([]string, error) {
	if len(in) > MaxValuesPerField {
		return nil, fmt.Errorf("too many %s (max %d)", name, MaxValuesPerField)
	}
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// Categories returns category constraints.
func (f Filters) Categories() []string { return f.categories }

// Brands returns brand constraints.
func (f Filters) Brands() []string { return f.brands }

// Values returns value-tag constraints.
func (f Filters) Values() []string { return f.values }

// Colors returns color attribute constraints.
func (f Filters) Colors() []string { return f.colors }

// Sizes returns size attribute constraints.
func (f Filters) Sizes() []string { return f.sizes }

// Materials returns material attribute constraints.
func (f Filters) Materials() []string { return f.materials }

// MerchantID returns the merchant constraint.
func (f Filters) MerchantID() string { return f.merchantID }

// InStock returns the stock constraint, nil if unset.
func (f Filters) InStock() *bool { return f.inStock }

// Price returns the price range, nil if unset.
func (f Filters) Price() *Range { return f.price }

// RatingMin returns the minimum rating, nil if unset.
func (f Filters) RatingMin() *float64 { return f.ratingMin }

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return len(f.categories) == 0 && len(f.brands) == 0 && len(f.values) == 0 &&
		len(f.colors) == 0 && len(f.sizes) == 0 && len(f.materials) == 0 &&
		f.merchantID == "" && f.inStock == nil && f.price == nil && f.ratingMin == nil
}

// Merge fills constraints unset in f from defaults. Constraints already set
// in f always win.
func (f Filters) Merge(defaults Filters) Filters {
	out := f
	if len(out.categories) == 0 {
		out.categories = defaults.categories
	}
	if len(out.brands) == 0 {
		out.brands = defaults.brands
	}
	if len(out.values) == 0 {
		out.values = defaults.values
	}
	if len(out.colors) == 0 {
		out.colors = defaults.colors
	}
	if len(out.sizes) == 0 {
		out.sizes = defaults.sizes
	}
	if len(out.materials) == 0 {
		out.materials = defaults.materials
	}
	if out.merchantID == "" {
		out.merchantID = defaults.merchantID
	}
	if out.inStock == nil {
		out.inStock = defaults.inStock
	}
	if out.price == nil {
		out.price = defaults.price
	}
	if out.ratingMin == nil {
		out.ratingMin = defaults.ratingMin
	}
	return out
}

// Applied returns a flat description of the active constraints.
func (f Filters) Applied() map[string]any {
	out := map[string]any{}
	putList(out, "categories", f.categories)
	putList(out, "brands", f.brands)
	putList(out, "values", f.values)
	putList(out, "colors", f.colors)
	putList(out, "sizes", f.sizes)
	putList(out, "materials", f.materials)
	if f.merchantID != "" {
		out["merchantId"] = f.merchantID
	}
	if f.inStock != nil {
		out["inStock"] = *f.inStock
	}
	if f.price != nil {
		if f.price.gte != nil {
			out["priceMin"] = *f.price.gte
		}
		if f.price.lte != nil {
			out["priceMax"] = *f.price.lte
		}
	}
	if f.ratingMin != nil {
		out["ratingMin"] = *f.ratingMin
	}
	return out
}

func putList(out map[string]any, key string, vs []string) {
	if len(vs) > 0 {
		out[key] = append([]string(nil), vs...)
	}
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive,
// and the lower bound may not exceed the upper bound.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	lower, upper := gt, lt
	if gte != nil {
		lower = gte
	}
	if lte != nil {
		upper = lte
	}
	if lower != nil && upper != nil && *lower > *upper {
		return Range{}, fmt.Errorf("lower bound %v exceeds upper bound %v", *lower, *upper)
	}
	return Range{gt: copyFloat(gt), gte: copyFloat(gte), lt: copyFloat(lt), lte: copyFloat(lte)}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
