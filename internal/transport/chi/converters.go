package chi

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/search/filter"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/relevex/internal/usecase/search"
)

// bindSearchQuery reads GET /search parameters. List filters repeat the
// parameter: ?categories=dresses&categories=skirts.
func bindSearchQuery(q url.Values) (SearchRequest, error) {
	var (
		body SearchRequest
		f    SearchFilters
	)
	params := []struct {
		name string
		dest any
	}{
		{"q", &body.Query},
		{"cursor", &body.Cursor},
		{"limit", &body.Limit},
		{"sortBy", &body.SortBy},
		{"sortOrder", &body.SortOrder},
		{"sessionId", &body.SessionID},
		{"userId", &body.UserID},
		{"profile", &body.Profile},
		{"abTestId", &body.ABTestID},
		{"includeFacets", &body.IncludeFacets},
		{"categories", &f.Categories},
		{"brands", &f.Brands},
		{"values", &f.Values},
		{"colors", &f.Colors},
		{"sizes", &f.Sizes},
		{"materials", &f.Materials},
		{"merchantId", &f.MerchantID},
		{"inStock", &f.InStock},
		{"priceMin", &f.PriceMin},
		{"priceMax", &f.PriceMax},
		{"ratingMin", &f.RatingMin},
	}
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			return SearchRequest{}, fmt.Errorf("invalid format for parameter %s: %w", p.name, err)
		}
	}
	body.Filters = &f
	return body, nil
}

// searchParamsFromDTO maps a request body to domain params. Facets are
// included unless explicitly disabled.
func searchParamsFromDTO(b SearchRequest, defaultLimit int) request.Params {
	p := request.Params{
		Query:         b.Query,
		Cursor:        b.Cursor,
		Limit:         defaultLimit,
		SortField:     b.SortBy,
		SortOrder:     b.SortOrder,
		SessionID:     b.SessionID,
		UserID:        b.UserID,
		Profile:       b.Profile,
		TestID:        b.ABTestID,
		IncludeFacets: true,
	}
	if b.Limit != nil {
		p.Limit = *b.Limit
	}
	if b.IncludeFacets != nil {
		p.IncludeFacets = *b.IncludeFacets
	}
	if f := b.Filters; f != nil {
		p.Filters = filter.Params{
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
		}
	}
	return p
}

func searchResponseToDTO(r result.Response) SearchResponse {
	items := make([]SearchItem, len(r.Items))
	for i := range r.Items {
		it := &r.Items[i]
		items[i] = SearchItem{ID: it.ID(), Score: it.Score(), Product: it.Source()}
	}

	resp := SearchResponse{
		Query: r.Query,
		Items: items,
		Pagination: Pagination{
			Total:   r.Pagination.Total,
			HasMore: r.Pagination.HasMore,
		},
		AppliedFilters: r.AppliedFilters,
		Intent:         r.Intent,
		Profile:        r.Profile,
		Variant:        r.Variant,
	}
	if resp.AppliedFilters == nil {
		resp.AppliedFilters = map[string]any{}
	}
	if c := r.Pagination.NextCursor; c != "" {
		resp.Pagination.NextCursor = &c
	}
	for _, f := range r.Facets {
		values := make([]FacetValue, len(f.Values))
		for i, v := range f.Values {
			values[i] = FacetValue{Value: v.Value, Count: v.Count}
		}
		resp.Facets = append(resp.Facets, Facet{Name: f.Name, DisplayName: f.DisplayName, Values: values})
	}
	if ps := r.PriceStats; ps != nil {
		resp.PriceStats = &PriceStats{Min: ps.Min, Max: ps.Max, Avg: ps.Avg}
	}
	return resp
}

func explainToDTO(p *searchuc.Plan) (ExplainResponse, error) {
	body, err := json.Marshal(p.Body)
	if err != nil {
		return ExplainResponse{}, fmt.Errorf("marshal index request: %w", err)
	}

	resp := ExplainResponse{
		Query:            p.Query,
		Tokens:           p.Tokens,
		Entities:         make([]EntityDTO, len(p.Entities)),
		Expansions:       p.Expansion.Terms,
		ExpansionSources: p.Expansion.Sources,
		Profile:          p.Profile,
		AppliedFilters:   p.Applied(),
		Request:          body,
	}
	if resp.Tokens == nil {
		resp.Tokens = []string{}
	}
	for i, e := range p.Entities {
		resp.Entities[i] = EntityDTO{Type: string(e.Type()), Value: e.Value(), Confidence: e.Confidence()}
	}
	if in := p.Intent; in != nil {
		dto := &IntentDTO{Label: string(in.Label()), Confidence: in.Confidence()}
		for _, sub := range in.SubIntents() {
			dto.SubIntents = append(dto.SubIntents, IntentDTO{Label: string(sub.Label()), Confidence: sub.Confidence()})
		}
		resp.Intent = dto
	}
	if a := p.Assignment; a != nil {
		resp.Variant = a.VariantID
	}
	return resp, nil
}

func experimentToDTO(t experiment.Test) ExperimentDTO {
	variants := t.Variants()
	dto := ExperimentDTO{
		ID:        t.ID(),
		Name:      t.Name(),
		StartDate: t.StartDate(),
		EventName: t.EventName(),
		Variants:  make([]VariantDTO, len(variants)),
	}
	if end := t.EndDate(); !end.IsZero() {
		dto.EndDate = &end
	}
	for i, v := range variants {
		dto.Variants[i] = VariantDTO{ID: v.ID, Algorithm: v.Algorithm, Weight: v.Weight}
	}
	return dto
}
