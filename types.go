package relevex

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/search/filter"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/relevex/internal/usecase/search"
)

// Filters are explicit catalog constraints. Nil pointers and empty lists
// are unconstrained.
type Filters struct {
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

// SearchOptions configures a search.
type SearchOptions struct {
	Query         string
	Filters       Filters
	Cursor        string
	Limit         int
	SortBy        string // price, rating, createdAt, popularity, reviewCount, name
	SortOrder     string // asc, desc
	SessionID     string
	UserID        string
	Profile       string
	ABTestID      string
	IncludeFacets bool
}

// SearchResult is one ranked product.
type SearchResult struct {
	ID      string
	Score   float64
	Product json.RawMessage
}

// FacetValue is one facet bucket.
type FacetValue struct {
	Value string
	Count int64
}

// Facet is a filter group computed over the whole result set.
type Facet struct {
	Name        string
	DisplayName string
	Values      []FacetValue
}

// PriceStats summarizes prices over the whole result set.
type PriceStats struct {
	Min, Max, Avg *float64
}

// SearchResponse is one page of results.
type SearchResponse struct {
	Query          string
	Items          []SearchResult
	Total          int64
	NextCursor     string
	HasMore        bool
	Facets         []Facet
	PriceStats     *PriceStats
	AppliedFilters map[string]any
	Intent         string
	Profile        string
	Variant        string
}

// Entity is a typed value recognized in a query.
type Entity struct {
	Type       string
	Value      string
	Confidence float64
}

// Explanation shows how a query was understood and the index request it
// produces.
type Explanation struct {
	Query            string
	Tokens           []string
	Entities         []Entity
	Intent           string
	IntentConfidence float64
	Expansions       []string
	ExpansionSources map[string][]string
	Profile          string
	Variant          string
	AppliedFilters   map[string]any
	Request          json.RawMessage
}

// Variant is one arm of an AB test. Algorithm names the scoring profile.
type Variant struct {
	ID        string
	Algorithm string
	Weight    int
	Params    map[string]string
}

// Experiment is an AB test definition. Weights should sum to 100.
type Experiment struct {
	ID          string
	Name        string
	Description string
	Active      bool
	StartDate   time.Time
	EndDate     time.Time // zero means open-ended
	EventName   string
	Variants    []Variant
}

func (o SearchOptions) toRequest(defaultLimit int) (request.Request, error) {
	limit := o.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	f := o.Filters
	return request.New(request.Params{
		Query: o.Query,
		Filters: filter.Params{
			Categories: f.Categories,
			Brands:     f.Brands,
			Values:     f.Values,
			Colors:     f.Colors,
			Sizes:      f.Sizes,
			Materials:  f.Materials,
			MerchantID: f.MerchantID,
			InStock:    f.InStock,
			PriceMin:   f.PriceMin,
			PriceMax:   f.PriceMax,
			RatingMin:  f.RatingMin,
		},
		Cursor:        o.Cursor,
		Limit:         limit,
		SortField:     o.SortBy,
		SortOrder:     o.SortOrder,
		SessionID:     o.SessionID,
		UserID:        o.UserID,
		Profile:       o.Profile,
		TestID:        o.ABTestID,
		IncludeFacets: o.IncludeFacets,
	})
}

func fromResponse(r result.Response) *SearchResponse {
	out := &SearchResponse{
		Query:          r.Query,
		Items:          make([]SearchResult, len(r.Items)),
		Total:          r.Pagination.Total,
		NextCursor:     r.Pagination.NextCursor,
		HasMore:        r.Pagination.HasMore,
		AppliedFilters: r.AppliedFilters,
		Intent:         r.Intent,
		Profile:        r.Profile,
		Variant:        r.Variant,
	}
	for i := range r.Items {
		it := &r.Items[i]
		out.Items[i] = SearchResult{ID: it.ID(), Score: it.Score(), Product: it.Source()}
	}
	for _, f := range r.Facets {
		values := make([]FacetValue, len(f.Values))
		for i, v := range f.Values {
			values[i] = FacetValue{Value: v.Value, Count: v.Count}
		}
		out.Facets = append(out.Facets, Facet{Name: f.Name, DisplayName: f.DisplayName, Values: values})
	}
	if ps := r.PriceStats; ps != nil {
		out.PriceStats = &PriceStats{Min: ps.Min, Max: ps.Max, Avg: ps.Avg}
	}
	return out
}

func fromPlan(p *searchuc.Plan) (*Explanation, error) {
	body, err := json.Marshal(p.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal index request: %w", err)
	}
	out := &Explanation{
		Query:            p.Query,
		Tokens:           p.Tokens,
		Entities:         make([]Entity, len(p.Entities)),
		Expansions:       p.Expansion.Terms,
		ExpansionSources: p.Expansion.Sources,
		Profile:          p.Profile,
		AppliedFilters:   p.Applied(),
		Request:          body,
	}
	for i, e := range p.Entities {
		out.Entities[i] = Entity{Type: string(e.Type()), Value: e.Value(), Confidence: e.Confidence()}
	}
	if p.Intent != nil {
		out.Intent = string(p.Intent.Label())
		out.IntentConfidence = p.Intent.Confidence()
	}
	if p.Assignment != nil {
		out.Variant = p.Assignment.VariantID
	}
	return out, nil
}

func (e Experiment) toTest() (experiment.Test, error) {
	variants := make([]experiment.Variant, len(e.Variants))
	for i, v := range e.Variants {
		variants[i] = experiment.Variant{ID: v.ID, Algorithm: v.Algorithm, Weight: v.Weight, Params: v.Params}
	}
	t, err := experiment.NewTest(experiment.Definition{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Variants:    variants,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Active:      e.Active,
		EventName:   e.EventName,
	})
	if err != nil {
		return experiment.Test{}, fmt.Errorf("experiment %s: %w", e.ID, err)
	}
	return t, nil
}

func fromTest(t experiment.Test) Experiment {
	variants := t.Variants()
	out := Experiment{
		ID:          t.ID(),
		Name:        t.Name(),
		Description: t.Description(),
		Active:      t.Active(),
		StartDate:   t.StartDate(),
		EndDate:     t.EndDate(),
		EventName:   t.EventName(),
		Variants:    make([]Variant, len(variants)),
	}
	for i, v := range variants {
		out.Variants[i] = Variant{ID: v.ID, Algorithm: v.Algorithm, Weight: v.Weight, Params: v.Params}
	}
	return out
}
