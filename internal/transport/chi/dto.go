package chi

import (
	"encoding/json"
	"time"
)

// ErrorCode is a machine-readable error category.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeIndexUnavailable ErrorCode = "index_unavailable"
	ErrorCodeQueryFailed      ErrorCode = "query_failed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchFilters are the explicit catalog constraints of a search.
type SearchFilters struct {
	Categories []string `json:"categories,omitempty"`
	Brands     []string `json:"brands,omitempty"`
	Values     []string `json:"values,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	Sizes      []string `json:"sizes,omitempty"`
	Materials  []string `json:"materials,omitempty"`
	MerchantID string   `json:"merchantId,omitempty"`
	InStock    *bool    `json:"inStock,omitempty"`
	PriceMin   *float64 `json:"priceMin,omitempty"`
	PriceMax   *float64 `json:"priceMax,omitempty"`
	RatingMin  *float64 `json:"ratingMin,omitempty"`
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query         string         `json:"query"`
	Filters       *SearchFilters `json:"filters,omitempty"`
	Cursor        string         `json:"cursor,omitempty"`
	Limit         *int           `json:"limit,omitempty"`
	SortBy        string         `json:"sortBy,omitempty"`
	SortOrder     string         `json:"sortOrder,omitempty"`
	SessionID     string         `json:"sessionId,omitempty"`
	UserID        string         `json:"userId,omitempty"`
	Profile       string         `json:"profile,omitempty"`
	ABTestID      string         `json:"abTestId,omitempty"`
	IncludeFacets *bool          `json:"includeFacets,omitempty"`
}

// SearchItem is one ranked product.
type SearchItem struct {
	ID      string          `json:"id"`
	Score   float64         `json:"score"`
	Product json.RawMessage `json:"product,omitempty"`
}

// FacetValue is one facet bucket.
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Facet is a filter group shown next to results.
type Facet struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Values      []FacetValue `json:"values"`
}

// PriceStats summarizes prices over the result set.
type PriceStats struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
	Avg *float64 `json:"avg"`
}

// Pagination describes the position of a page.
type Pagination struct {
	Total      int64   `json:"total"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

// SearchResponse is one page of results.
type SearchResponse struct {
	Query          string         `json:"query"`
	Items          []SearchItem   `json:"items"`
	Pagination     Pagination     `json:"pagination"`
	Facets         []Facet        `json:"facets,omitempty"`
	PriceStats     *PriceStats    `json:"priceStats,omitempty"`
	AppliedFilters map[string]any `json:"appliedFilters"`
	Intent         string         `json:"intent,omitempty"`
	Profile        string         `json:"profile"`
	Variant        string         `json:"variant,omitempty"`
}

// EntityDTO is one extracted entity.
type EntityDTO struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// IntentDTO is the detected intent.
type IntentDTO struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	SubIntents []IntentDTO `json:"subIntents,omitempty"`
}

// ExplainResponse shows how a query was understood and the index request
// it produces.
type ExplainResponse struct {
	Query            string              `json:"query"`
	Tokens           []string            `json:"tokens"`
	Entities         []EntityDTO         `json:"entities"`
	Intent           *IntentDTO          `json:"intent,omitempty"`
	Expansions       []string            `json:"expansions,omitempty"`
	ExpansionSources map[string][]string `json:"expansionSources,omitempty"`
	Profile          string              `json:"profile"`
	Variant          string              `json:"variant,omitempty"`
	AppliedFilters   map[string]any      `json:"appliedFilters"`
	Request          json.RawMessage     `json:"request"`
}

// ProfilesResponse lists the registered scoring profiles.
type ProfilesResponse struct {
	Items   []string `json:"items"`
	Default string   `json:"default"`
}

// VariantDTO is one arm of an AB test.
type VariantDTO struct {
	ID        string `json:"id"`
	Algorithm string `json:"algorithm"`
	Weight    int    `json:"weight"`
}

// ExperimentDTO is an AB test currently accepting traffic.
type ExperimentDTO struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate"`
	EndDate   *time.Time   `json:"endDate,omitempty"`
	EventName string       `json:"eventName"`
	Variants  []VariantDTO `json:"variants"`
}

// ExperimentsResponse lists active AB tests.
type ExperimentsResponse struct {
	Items []ExperimentDTO `json:"items"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
