package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/search/cursor"
	"github.com/kailas-cloud/relevex/internal/domain/search/filter"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/index"
	"github.com/kailas-cloud/relevex/internal/metrics"
	entityuc "github.com/kailas-cloud/relevex/internal/usecase/entity"
	intentuc "github.com/kailas-cloud/relevex/internal/usecase/intent"
	"github.com/kailas-cloud/relevex/internal/usecase/nlp/expansion"
	"github.com/kailas-cloud/relevex/internal/usecase/nlp/tokenizer"
	"github.com/kailas-cloud/relevex/internal/usecase/scoring"
)

// --- Mocks ---

type mockIndex struct {
	mu    sync.Mutex
	resp  *index.Response
	err   error
	name  string
	calls int
	body  query.Body
}

func (m *mockIndex) Search(_ context.Context, name string, body query.Body) (*index.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.name = name
	m.body = body
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockAllocator struct {
	asg experiment.Assignment
	ok  bool
	key string
}

func (m *mockAllocator) Select(_, userID string) (experiment.Assignment, bool) {
	m.key = userID
	return m.asg, m.ok
}

type mockSink struct {
	mu     sync.Mutex
	events []experiment.Event
}

func (m *mockSink) Track(_ context.Context, ev experiment.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

type countingTokenizer struct {
	*tokenizer.Tokenizer
	calls atomic.Int32
}

func (c *countingTokenizer) Tokens(text string) []string {
	c.calls.Add(1)
	return c.Tokenizer.Tokens(text)
}

// --- Helpers ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	index *mockIndex
	tok   *countingTokenizer
	alloc *mockAllocator
	sink  *mockSink
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tok := &countingTokenizer{Tokenizer: tokenizer.New()}
	reg, err := scoring.NewRegistry()
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	f := &fixture{
		index: &mockIndex{resp: &index.Response{}},
		tok:   tok,
		alloc: &mockAllocator{},
		sink:  &mockSink{},
		logs:  logs,
	}
	f.svc = New(Deps{
		Index:     f.index,
		Tokenizer: tok,
		Entities:  entityuc.New(log, entityuc.WithClock(func() time.Time { return testNow })),
		Intents:   intentuc.New(tok.Tokenizer, log),
		Scorer:    scoring.NewEngine(reg, nil, log),
		Allocator: f.alloc,
		Analytics: f.sink,
	}, Config{IndexName: "products"}, log)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func newRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	r, err := request.New(p)
	require.NoError(t, err)
	return &r
}

func hits(n int) []index.Hit {
	out := make([]index.Hit, n)
	for i := range out {
		id := fmt.Sprintf("p%d", i+1)
		out[i] = index.Hit{
			ID:     id,
			Score:  float64(n - i),
			Source: json.RawMessage(`{"title":"` + id + `"}`),
			Sort:   []any{float64(10 + i), float64(n - i), id},
		}
	}
	return out
}

// --- Tests ---

func TestSearch_SustainableDressesUnderFifty(t *testing.T) {
	f := newFixture(t)
	f.index.resp = &index.Response{Total: 57, Hits: hits(3)}

	resp, err := f.svc.Search(context.Background(), newRequest(t, request.Params{
		Query: "sustainable dresses under $50",
		Limit: 2,
	}))
	require.NoError(t, err)

	assert.Equal(t, "products", f.index.name)
	assert.Equal(t, "price_query", resp.Intent)
	assert.Equal(t, "standard", resp.Profile)
	assert.Empty(t, resp.Variant)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "p1", resp.Items[0].ID())
	assert.Equal(t, "p2", resp.Items[1].ID())
	assert.Equal(t, int64(57), resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasMore)

	after, err := cursor.Decode(resp.Pagination.NextCursor,
		SortSignature([]query.SortField{{Field: "price", Order: query.Asc}}))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(11), int64(2), "p2"}, after)

	assert.Equal(t, map[string]any{
		"priceMin": 0.0,
		"priceMax": 50.0,
		"sort":     []string{"price:asc"},
	}, resp.AppliedFilters)

	out := render(t, f.index.body)
	assert.Equal(t, float64(3), out["size"])
	assert.JSONEq(t,
		`[{"price":{"order":"asc"}},{"_score":{"order":"desc"}},{"id":{"order":"asc"}}]`,
		toJSON(t, out["sort"]))

	inner := dig(t, out, "query", "function_score", "query", "function_score", "query", "bool")
	filters := toJSON(t, dig(t, inner, "filter"))
	assert.Contains(t, filters, `{"range":{"price":{"gte":0,"lte":50}}}`)
	assert.Contains(t, filters, `{"term":{"isActive":true}}`)
	assert.NotContains(t, inner, "should")

	fns := toJSON(t, dig(t, out, "query", "function_score", "query", "function_score", "functions"))
	assert.Contains(t, fns, `{"filter":{"match":{"values":"sustainable"}}`)
}

func TestSearch_ExplicitFiltersAndSortWin(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), newRequest(t, request.Params{
		Query:     "dresses under $50",
		Filters:   filter.Params{PriceMax: query.Float(30)},
		SortField: "rating",
	}))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"priceMax": 30.0,
		"sort":     []string{"rating:desc"},
	}, resp.AppliedFilters)

	out := render(t, f.index.body)
	assert.JSONEq(t,
		`[{"rating":{"order":"desc"}},{"_score":{"order":"desc"}},{"id":{"order":"asc"}}]`,
		toJSON(t, out["sort"]))
}

func TestSearch_EmptyQueryBrowses(t *testing.T) {
	f := newFixture(t)
	f.index.resp = &index.Response{Total: 1, Hits: hits(1)}

	resp, err := f.svc.Search(context.Background(), newRequest(t, request.Params{}))
	require.NoError(t, err)

	assert.Zero(t, f.tok.calls.Load())
	assert.Empty(t, resp.Intent)
	assert.False(t, resp.Pagination.HasMore)
	assert.Empty(t, resp.Pagination.NextCursor)
	assert.Len(t, resp.Items, 1)

	out := render(t, f.index.body)
	must := dig(t, out, "query", "function_score", "query", "function_score", "query", "bool", "must").([]any)
	assert.Equal(t, map[string]any{"match_all": map[string]any{}}, must[0])
	assert.Equal(t, float64(request.DefaultLimit+1), out["size"])
}

func TestSearch_CursorContinues(t *testing.T) {
	f := newFixture(t)
	token, err := cursor.Encode([]any{2.5, int64(1718000000000), "p7"}, SortSignature(nil), testNow)
	require.NoError(t, err)

	_, err = f.svc.Search(context.Background(), newRequest(t, request.Params{Query: "linen shirt", Cursor: token}))
	require.NoError(t, err)

	assert.Equal(t, []any{2.5, int64(1718000000000), "p7"}, f.index.body.SearchAfter)
	assert.Zero(t, f.logs.Len())
}

func TestSearch_MalformedCursorRestarts(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Search(context.Background(), newRequest(t, request.Params{Query: "linen shirt", Cursor: "%%%not-base64"}))
	require.NoError(t, err)

	assert.Nil(t, f.index.body.SearchAfter)
	entries := f.logs.FilterMessage("malformed cursor, starting from first page").All()
	require.Len(t, entries, 1)
	msg, ok := entries[0].ContextMap()["error"].(string)
	require.True(t, ok)
	assert.Contains(t, msg, domain.ErrMalformedCursor.Error())
}

func TestSearch_CursorFromOtherSortRestarts(t *testing.T) {
	f := newFixture(t)
	priceAsc := []query.SortField{{Field: "price", Order: query.Asc}}
	token, err := cursor.Encode([]any{19.99, 4.0, "p7"}, SortSignature(priceAsc), testNow)
	require.NoError(t, err)

	_, err = f.svc.Search(context.Background(), newRequest(t, request.Params{
		Query:     "linen shirt",
		SortField: "price",
		SortOrder: "desc",
		Cursor:    token,
	}))
	require.NoError(t, err)

	assert.Nil(t, f.index.body.SearchAfter)
	assert.Equal(t, 1, f.logs.FilterMessage("malformed cursor, starting from first page").Len())
}

func TestSearch_IndexError(t *testing.T) {
	f := newFixture(t)
	f.index.err = &index.Error{Status: 503, Type: "unavailable", Reason: "down"}

	_, err := f.svc.Search(context.Background(), newRequest(t, request.Params{Query: "boots"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexUnavailable))
	assert.Empty(t, f.sink.events)
}

func TestSearch_ABVariantSelectsProfile(t *testing.T) {
	f := newFixture(t)
	f.index.resp = &index.Response{Total: 2, Hits: hits(2)}
	f.alloc.ok = true
	f.alloc.asg = experiment.Assignment{
		TestID:    "search_relevance_test_1",
		VariantID: "trending",
		Algorithm: "popularity",
		EventName: "search_relevance_test",
	}

	resp, err := f.svc.Search(context.Background(), newRequest(t, request.Params{
		Query:     "running shoes",
		TestID:    "search_relevance_test_1",
		SessionID: "s-1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "s-1", f.alloc.key, "anonymous callers bucket by session")
	assert.Equal(t, "popularity", resp.Profile)
	assert.Equal(t, "trending", resp.Variant)

	require.Len(t, f.sink.events, 1)
	ev := f.sink.events[0]
	assert.Equal(t, "search_relevance_test", ev.Event)
	assert.Equal(t, "running shoes", ev.EventLabel)
	assert.Equal(t, "trending", ev.VariantID)
	assert.Equal(t, 2, ev.ResultCount)
	assert.True(t, ev.Timestamp.Equal(testNow))

	fns := dig(t, render(t, f.index.body), "query", "function_score", "query", "function_score", "functions").([]any)
	require.Len(t, fns, 7)
	assert.Equal(t, map[string]any{"match": map[string]any{"categories": "shoes"}}, dig(t, fns[6], "filter"))
}

func TestSearch_UnknownProfileResolvesOnce(t *testing.T) {
	f := newFixture(t)
	standardOK := metrics.SearchRequestsTotal.WithLabelValues("standard", "ok")
	before := testutil.ToFloat64(standardOK)

	resp, err := f.svc.Search(context.Background(), newRequest(t, request.Params{Query: "boots", Profile: "bogus"}))
	require.NoError(t, err)

	assert.Equal(t, "standard", resp.Profile)
	assert.Equal(t, before+1, testutil.ToFloat64(standardOK))
	assert.Zero(t, testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues("bogus", "ok")))
	assert.Equal(t, 1, f.logs.FilterMessage("unknown scoring profile, using standard").Len())
}

func TestSearch_QueryExpansion(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.Expander = expansion.New(zap.NewNop())

	_, err := f.svc.Search(context.Background(), newRequest(t, request.Params{Query: "vegan bags"}))
	require.NoError(t, err)

	b := dig(t, render(t, f.index.body), "query", "function_score", "query", "function_score", "query", "bool")
	must := dig(t, b, "must").([]any)
	assert.Equal(t, "vegan bags", dig(t, must[0], "multi_match", "query"))
	should := dig(t, b, "should").([]any)
	require.Len(t, should, 1)
	assert.Equal(t, "plant-based cruelty-free animal-free", dig(t, should[0], "multi_match", "query"))
}

func TestSearch_NoTestWithoutCallerKey(t *testing.T) {
	f := newFixture(t)
	f.alloc.ok = true
	f.alloc.asg = experiment.Assignment{VariantID: "v", Algorithm: "recency"}

	resp, err := f.svc.Search(context.Background(), newRequest(t, request.Params{Query: "boots", TestID: "t"}))
	require.NoError(t, err)
	assert.Equal(t, "standard", resp.Profile)
	assert.Empty(t, resp.Variant)
	assert.Empty(t, f.sink.events)
}

func TestSearch_Facets(t *testing.T) {
	f := newFixture(t)
	f.index.resp = &index.Response{
		Aggregations: map[string]index.Aggregation{
			AggCategories: {Buckets: []index.Bucket{{Key: "dresses", DocCount: 2}}},
			AggAvgPrice:   {Value: query.Float(42)},
		},
	}

	resp, err := f.svc.Search(context.Background(), newRequest(t, request.Params{Query: "dress", IncludeFacets: true}))
	require.NoError(t, err)

	require.Len(t, resp.Facets, 1)
	assert.Equal(t, FacetCategory, resp.Facets[0].Name)
	require.NotNil(t, resp.PriceStats)
	assert.Equal(t, 42.0, *resp.PriceStats.Avg)
	assert.Contains(t, render(t, f.index.body), "aggs")
}

func TestExplain_DoesNotSearch(t *testing.T) {
	f := newFixture(t)

	p := f.svc.Explain(context.Background(), newRequest(t, request.Params{Query: "vegan leather bags under $120", Profile: "hybrid"}))

	assert.Zero(t, f.index.calls)
	assert.Equal(t, "hybrid", p.Profile)
	require.NotNil(t, p.Intent)
	assert.Equal(t, "price_query", string(p.Intent.Label()))
	assert.NotEmpty(t, p.Entities)
	assert.True(t, p.Expansion.Empty(), "no expander configured")
	assert.Equal(t, request.DefaultLimit+1, p.Body.Size)
}

func TestExplain_ReportsExpansion(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.Expander = expansion.New(zap.NewNop(), expansion.WithLimits(2, 5))

	p := f.svc.Explain(context.Background(), newRequest(t, request.Params{Query: "handmade jacket"}))

	assert.Equal(t, []string{"artisanal", "handcrafted", "coat", "blazer"}, p.Expansion.Terms)
	assert.Equal(t, []string{"coat", "blazer"}, p.Expansion.Sources["jacket"])
}

func TestSearch_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.index.resp = &index.Response{Total: 3, Hits: hits(3)}

	reqs := make([]*request.Request, 16)
	for i := range reqs {
		reqs[i] = newRequest(t, request.Params{Query: fmt.Sprintf("red dress %d", i), Limit: 2})
	}

	var wg sync.WaitGroup
	for _, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.Search(context.Background(), req)
			assert.NoError(t, err)
			assert.Len(t, resp.Items, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, f.index.calls)
}
