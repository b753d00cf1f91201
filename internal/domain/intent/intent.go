// Package intent holds the classified purpose of a search query.
package intent

// Label is an intent name.
type Label string

// Known intents, in declaration order. Order breaks confidence ties.
const (
	ProductSearch  Label = "product_search"
	CategoryBrowse Label = "category_browse"
	BrandSpecific  Label = "brand_specific"
	PriceQuery     Label = "price_query"
	ValueDriven    Label = "value_driven"
	Comparison     Label = "comparison"
	Recommendation Label = "recommendation"
	Availability   Label = "availability"
	Filter         Label = "filter"
	Sort           Label = "sort"
)

// FallbackConfidence is the confidence of the default product_search result.
const FallbackConfidence = 0.5

// All returns every intent in declaration order.
func All() []Label {
	return []Label{
		ProductSearch, CategoryBrowse, BrandSpecific, PriceQuery, ValueDriven,
		Comparison, Recommendation, Availability, Filter, Sort,
	}
}

// IsValid reports whether l is a known intent.
func (l Label) IsValid() bool {
	for _, k := range All() {
		if k == l {
			return true
		}
	}
	return false
}

// Scored pairs an intent with a confidence.
type Scored struct {
	label      Label
	confidence float64
}

// NewScored creates a scored intent.
func NewScored(l Label, confidence float64) Scored {
	return Scored{label: l, confidence: clamp(confidence)}
}

// Label returns the intent.
func (s Scored) Label() Label { return s.label }

// Confidence returns the confidence in [0, 1].
func (s Scored) Confidence() float64 { return s.confidence }

// Result is a classification outcome with ordered alternatives.
type Result struct {
	label      Label
	confidence float64
	subIntents []Scored
}

// NewResult creates a classification result. Sub-intents keep their order.
func NewResult(l Label, confidence float64, subIntents []Scored) Result {
	subs := make([]Scored, len(subIntents))
	copy(subs, subIntents)
	return Result{label: l, confidence: clamp(confidence), subIntents: subs}
}

// Fallback returns the default result used when no tier is confident.
func Fallback() Result {
	return Result{label: ProductSearch, confidence: FallbackConfidence, subIntents: []Scored{}}
}

// Label returns the primary intent.
func (r Result) Label() Label { return r.label }

// Confidence returns the primary intent confidence.
func (r Result) Confidence() float64 { return r.confidence }

// SubIntents returns a copy of the alternative intents, most confident first.
func (r Result) SubIntents() []Scored {
	out := make([]Scored, len(r.subIntents))
	copy(out, r.subIntents)
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
