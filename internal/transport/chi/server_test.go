package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/entity"
	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/intent"
	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/relevex/internal/usecase/health"
	"github.com/kailas-cloud/relevex/internal/usecase/nlp/expansion"
	searchuc "github.com/kailas-cloud/relevex/internal/usecase/search"
)

// --- Mocks ---

type mockSearcher struct {
	mu    sync.Mutex
	last  *request.Request
	resp  result.Response
	err   error
	panic bool
}

func (m *mockSearcher) Search(_ context.Context, req *request.Request) (result.Response, error) {
	if m.panic {
		panic("boom")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *req
	m.last = &r
	return m.resp, m.err
}

func (m *mockSearcher) Explain(_ context.Context, req *request.Request) *searchuc.Plan {
	ent, _ := entity.New(entity.Category, "dresses", 0.9)
	in := intent.NewResult(intent.CategoryBrowse, 0.85, []intent.Scored{intent.NewScored(intent.ProductSearch, 0.4)})
	exp := expansion.Result{
		Terms:   []string{"gowns", "frocks"},
		Sources: map[string][]string{"dresses": {"gowns", "frocks"}},
	}
	return &searchuc.Plan{
		Query:     req.Query(),
		Tokens:    []string{"dresses"},
		Entities:  []entity.Entity{ent},
		Intent:    &in,
		Expansion: exp,
		Profile:   "standard",
		Filters:   req.Filters(),
		Body:      query.Body{Query: query.MatchAll{}, Size: req.Limit() + 1},
	}
}

type mockProfiles struct{}

func (mockProfiles) Names() []profile.Name {
	return []profile.Name{profile.Standard, profile.Popularity}
}

type mockExperiments struct {
	tests []experiment.Test
}

func (m mockExperiments) ActiveTests() []experiment.Test { return m.tests }

type mockHealth struct {
	report healthuc.Report
}

func (m mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type fixture struct {
	searcher *mockSearcher
	handler  http.Handler
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	test, err := experiment.NewTest(experiment.Definition{
		ID:        "search_relevance_test_1",
		Name:      "Search Relevance Algorithm Test",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:    true,
		EventName: "search_relevance_test",
		Variants: []experiment.Variant{
			{ID: "control", Algorithm: "standard", Weight: 50},
			{ID: "hybrid", Algorithm: "hybrid", Weight: 50},
		},
	})
	if err != nil {
		t.Fatalf("NewTest: %v", err)
	}

	f := &fixture{searcher: &mockSearcher{}}
	o := Options{
		Search:         f.searcher,
		Profiles:       mockProfiles{},
		Experiments:    mockExperiments{tests: []experiment.Test{test}},
		Health:         mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"index": healthuc.CheckOK}}},
		DefaultProfile: "standard",
		DefaultLimit:   12,
	}
	for _, fn := range opts {
		fn(&o)
	}
	f.handler = NewRouter(NewServer(o, zap.NewNop()), nil, zap.NewNop())
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func f64(v float64) *float64 { return &v }

// --- Tests ---

func TestSearchProducts_MapsResponse(t *testing.T) {
	f := newFixture(t)
	f.searcher.resp = result.Response{
		Query: "red dress",
		Items: []result.Result{
			result.New("p1", 3.5, json.RawMessage(`{"title":"Red Dress"}`), []any{3.5, "p1"}),
		},
		Pagination:     result.Pagination{Total: 42, NextCursor: "abc", HasMore: true},
		Facets:         []result.Facet{{Name: "category", DisplayName: "Category", Values: []result.FacetValue{{Value: "dresses", Count: 10}}}},
		PriceStats:     &result.PriceStats{Min: f64(5), Max: f64(90), Avg: f64(41.5)},
		AppliedFilters: map[string]any{"colors": []string{"red"}},
		Intent:         "product_search",
		Profile:        "hybrid",
		Variant:        "hybrid",
	}

	rr := f.do(t, "POST", "/search", `{"query":"red dress","userId":"u1","abTestId":"search_relevance_test_1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[SearchResponse](t, rr)

	if len(resp.Items) != 1 || resp.Items[0].ID != "p1" || resp.Items[0].Score != 3.5 {
		t.Errorf("items = %+v", resp.Items)
	}
	if string(resp.Items[0].Product) != `{"title":"Red Dress"}` {
		t.Errorf("product = %s", resp.Items[0].Product)
	}
	if resp.Pagination.NextCursor == nil || *resp.Pagination.NextCursor != "abc" || !resp.Pagination.HasMore {
		t.Errorf("pagination = %+v", resp.Pagination)
	}
	if len(resp.Facets) != 1 || resp.Facets[0].Values[0].Count != 10 {
		t.Errorf("facets = %+v", resp.Facets)
	}
	if resp.PriceStats == nil || *resp.PriceStats.Avg != 41.5 {
		t.Errorf("price stats = %+v", resp.PriceStats)
	}
	if resp.Variant != "hybrid" || resp.Intent != "product_search" {
		t.Errorf("variant/intent = %s/%s", resp.Variant, resp.Intent)
	}

	req := f.searcher.last
	if req.Limit() != 12 {
		t.Errorf("default limit = %d", req.Limit())
	}
	if !req.IncludeFacets() {
		t.Error("facets should default to on")
	}
	if req.UserID() != "u1" || req.TestID() != "search_relevance_test_1" {
		t.Errorf("user/test = %s/%s", req.UserID(), req.TestID())
	}
}

func TestSearchProducts_LastPageHasNoCursor(t *testing.T) {
	f := newFixture(t)
	f.searcher.resp = result.Response{Profile: "standard"}

	rr := f.do(t, "POST", "/search", `{"query":"lamp"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var raw map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	pag := raw["pagination"].(map[string]any)
	if pag["nextCursor"] != nil || pag["hasMore"] != false {
		t.Errorf("pagination = %v", pag)
	}
	if items, ok := raw["items"].([]any); !ok || len(items) != 0 {
		t.Errorf("items should be an empty list, got %v", raw["items"])
	}
}

func TestSearchProductsQuery_BindsParameters(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "GET",
		"/search?q=red+dress&categories=dresses&categories=skirts&priceMax=50&inStock=true"+
			"&limit=5&includeFacets=false&sortBy=price&sortOrder=asc&sessionId=s1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}

	req := f.searcher.last
	if req.Query() != "red dress" || req.Limit() != 5 || req.IncludeFacets() {
		t.Errorf("query/limit/facets = %q/%d/%v", req.Query(), req.Limit(), req.IncludeFacets())
	}
	if req.SessionID() != "s1" {
		t.Errorf("session = %q", req.SessionID())
	}
	if s := req.Sort(); s == nil || s.Field != "price" || s.Order != query.Asc {
		t.Errorf("sort = %+v", s)
	}
	applied := req.Filters().Applied()
	if fmt.Sprint(applied["categories"]) != "[dresses skirts]" {
		t.Errorf("categories = %v", applied["categories"])
	}
	if applied["inStock"] != true {
		t.Errorf("inStock = %v", applied["inStock"])
	}
	if applied["priceMax"] != 50.0 {
		t.Errorf("priceMax = %v", applied["priceMax"])
	}
}

func TestSearch_BadInput(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   ErrorCode
	}{
		{"malformed json", "POST", "/search", `{"query":`, ErrorCodeBadRequest},
		{"non-numeric limit", "GET", "/search?limit=abc", "", ErrorCodeBadRequest},
		{"non-boolean stock", "GET", "/search?inStock=maybe", "", ErrorCodeBadRequest},
		{"unknown sort field", "POST", "/search", `{"query":"x","sortBy":"bogus"}`, ErrorCodeValidationFailed},
		{"inverted price range", "POST", "/search", `{"filters":{"priceMin":90,"priceMax":10}}`, ErrorCodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rr := f.do(t, tc.method, tc.target, tc.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
			}
			if got := decode[ErrorResponse](t, rr); got.Code != tc.code {
				t.Errorf("code = %s, want %s (%s)", got.Code, tc.code, got.Message)
			}
			if f.searcher.last != nil {
				t.Error("search should not run")
			}
		})
	}
}

func TestSearch_DomainErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    ErrorCode
		message string
	}{
		{"index unavailable", fmt.Errorf("search index: %w: dial tcp", domain.ErrIndexUnavailable),
			http.StatusServiceUnavailable, ErrorCodeIndexUnavailable, "index unavailable"},
		{"query failed", fmt.Errorf("search index: %w", domain.ErrQueryFailed),
			http.StatusBadGateway, ErrorCodeQueryFailed, "query failed"},
		{"unexpected", errors.New("secret internals"),
			http.StatusInternalServerError, ErrorCodeInternalError, "internal error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.searcher.err = tc.err

			rr := f.do(t, "POST", "/search", `{"query":"dress"}`)
			if rr.Code != tc.status {
				t.Fatalf("status %d, want %d", rr.Code, tc.status)
			}
			got := decode[ErrorResponse](t, rr)
			if got.Code != tc.code || got.Message != tc.message {
				t.Errorf("error = %+v", got)
			}
		})
	}
}

func TestExplainSearch(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/search/explain", `{"query":"dresses","limit":3,"filters":{"brands":["Acme"]}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[ExplainResponse](t, rr)

	if len(resp.Entities) != 1 || resp.Entities[0].Type != "category" || resp.Entities[0].Value != "dresses" {
		t.Errorf("entities = %+v", resp.Entities)
	}
	if resp.Intent == nil || resp.Intent.Label != "category_browse" || len(resp.Intent.SubIntents) != 1 {
		t.Errorf("intent = %+v", resp.Intent)
	}
	if len(resp.Expansions) != 2 || len(resp.ExpansionSources["dresses"]) != 2 {
		t.Errorf("expansions = %v from %v", resp.Expansions, resp.ExpansionSources)
	}
	if fmt.Sprint(resp.AppliedFilters["brands"]) != "[Acme]" {
		t.Errorf("applied = %v", resp.AppliedFilters)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Request, &body); err != nil {
		t.Fatalf("request is not JSON: %v", err)
	}
	if body["size"] != 4.0 {
		t.Errorf("size = %v", body["size"])
	}
	if f.searcher.last != nil {
		t.Error("explain must not run a search")
	}
}

func TestListProfiles(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, "GET", "/profiles", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	resp := decode[ProfilesResponse](t, rr)
	if fmt.Sprint(resp.Items) != "[standard popularity]" || resp.Default != "standard" {
		t.Errorf("profiles = %+v", resp)
	}
}

func TestListExperiments(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, "GET", "/experiments", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	resp := decode[ExperimentsResponse](t, rr)
	if len(resp.Items) != 1 {
		t.Fatalf("items = %+v", resp.Items)
	}
	e := resp.Items[0]
	if e.ID != "search_relevance_test_1" || e.EventName != "search_relevance_test" || e.EndDate != nil {
		t.Errorf("experiment = %+v", e)
	}
	if len(e.Variants) != 2 || e.Variants[1].Algorithm != "hybrid" || e.Variants[1].Weight != 50 {
		t.Errorf("variants = %+v", e.Variants)
	}
}

func TestListExperiments_NoAllocator(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Experiments = nil })
	rr := f.do(t, "GET", "/experiments", "")
	if resp := decode[ExperimentsResponse](t, rr); resp.Items == nil || len(resp.Items) != 0 {
		t.Errorf("items = %#v", resp.Items)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			f := newFixture(t, func(o *Options) {
				o.Health = mockHealth{report: healthuc.Report{
					Status: tc.status,
					Checks: map[string]healthuc.CheckResult{"index": healthuc.CheckOK},
				}}
			})
			rr := f.do(t, "GET", "/health", "")
			if rr.Code != tc.want {
				t.Fatalf("status %d, want %d", rr.Code, tc.want)
			}
			resp := decode[HealthResponse](t, rr)
			if resp.Status != string(tc.status) || resp.Checks["index"] != "ok" {
				t.Errorf("health = %+v", resp)
			}
		})
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	f.searcher.panic = true

	rr := f.do(t, "POST", "/search", `{"query":"dress"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeInternalError {
		t.Errorf("code = %s", got.Code)
	}
}

func TestRouter_RequestIDAndNotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "GET", "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeNotFound {
		t.Errorf("code = %s", got.Code)
	}
}
