// Package search runs the query understanding and ranking pipeline.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/relevex/internal/domain/entity"
	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/intent"
	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/cursor"
	"github.com/kailas-cloud/relevex/internal/domain/search/filter"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/domain/search/result"
	"github.com/kailas-cloud/relevex/internal/logger"
	"github.com/kailas-cloud/relevex/internal/metrics"
	experimentuc "github.com/kailas-cloud/relevex/internal/usecase/experiment"
	intentuc "github.com/kailas-cloud/relevex/internal/usecase/intent"
	"github.com/kailas-cloud/relevex/internal/usecase/nlp/expansion"
	"github.com/kailas-cloud/relevex/internal/usecase/scoring"
)

// Deps are the collaborators of a Service. Expander, Allocator and
// Analytics may be nil.
type Deps struct {
	Index     Index
	Tokenizer Tokenizer
	Entities  EntityExtractor
	Intents   IntentDetector
	Expander  QueryExpander
	Scorer    Scorer
	Allocator Allocator
	Analytics AnalyticsSink
}

// Config holds pipeline settings.
type Config struct {
	IndexName      string
	DefaultProfile string
}

// Service turns search requests into ranked, paginated results.
type Service struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a search service.
func New(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = string(profile.Standard)
	}
	return &Service{deps: deps, cfg: cfg, logger: logger, now: time.Now}
}

// Plan is the analyzed form of a request: what the pipeline understood and
// the index request it will send.
type Plan struct {
	Query      string
	Tokens     []string
	Entities   []entity.Entity
	Intent     *intent.Result
	Expansion  expansion.Result
	Profile    string // always a known profile name
	Assignment *experiment.Assignment
	Filters    filter.Filters
	Sort       []query.SortField
	Body       query.Body
}

// Applied describes the constraints in effect, injected ones included.
func (p *Plan) Applied() map[string]any {
	out := p.Filters.Applied()
	if len(p.Sort) > 0 {
		sorts := make([]string, len(p.Sort))
		for i, s := range p.Sort {
			sorts[i] = s.Field + ":" + string(s.Order)
		}
		out["sort"] = sorts
	}
	return out
}

// Explain analyzes req and builds its index request without running it.
func (s *Service) Explain(ctx context.Context, req *request.Request) *Plan {
	return s.plan(ctx, req)
}

// Search runs req against the index.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := s.now()
	p := s.plan(ctx, req)

	status := "ok"
	defer func() {
		metrics.SearchRequestsTotal.WithLabelValues(p.Profile, status).Inc()
		metrics.SearchDuration.WithLabelValues(p.Profile).Observe(time.Since(start).Seconds())
	}()

	raw, err := s.deps.Index.Search(ctx, s.cfg.IndexName, p.Body)
	if err != nil {
		status = "error"
		s.log(ctx).Error("index search failed",
			zap.String("query", p.Query),
			zap.String("profile", p.Profile),
			zap.Error(err),
		)
		return result.Response{}, fmt.Errorf("search index: %w", err)
	}

	rows := make([]result.Result, len(raw.Hits))
	for i, h := range raw.Hits {
		rows[i] = result.New(h.ID, h.Score, h.Source, h.Sort)
	}
	items, next, hasMore, err := cursor.Page(rows, req.Limit(), SortSignature(p.Sort),
		func(r result.Result) []any { return r.Sort() }, s.now())
	if err != nil {
		status = "error"
		return result.Response{}, fmt.Errorf("build cursor: %w", err)
	}

	resp := result.Response{
		Query: p.Query,
		Items: items,
		Pagination: result.Pagination{
			Total:      raw.Total,
			NextCursor: next,
			HasMore:    hasMore,
		},
		AppliedFilters: p.Applied(),
		Profile:        p.Profile,
	}
	if p.Intent != nil {
		resp.Intent = string(p.Intent.Label())
	}
	if req.IncludeFacets() {
		resp.Facets = MapFacets(raw.Aggregations)
		resp.PriceStats = MapPriceStats(raw.Aggregations)
	}
	if a := p.Assignment; a != nil {
		resp.Variant = a.VariantID
		s.track(ctx, *a, req, len(items))
	}
	return resp, nil
}

func (s *Service) plan(ctx context.Context, req *request.Request) *Plan {
	p := &Plan{Query: req.Query(), Profile: s.cfg.DefaultProfile}
	if req.Profile() != "" {
		p.Profile = req.Profile()
	}

	var params intentuc.SearchParams
	if p.Query != "" {
		p.Tokens = s.deps.Tokenizer.Tokens(p.Query)
		p.Entities, p.Intent = s.understand(p.Query, p.Tokens)
		params = intentuc.Params(p.Intent.Label(), p.Entities, p.Query)
		if s.deps.Expander != nil {
			p.Expansion = s.deps.Expander.Expand(p.Tokens)
		}
	}

	if a, ok := s.assign(req); ok {
		p.Assignment = &a
		p.Profile = a.Algorithm
	}
	p.Profile = string(s.deps.Scorer.Resolve(p.Profile).Name())

	p.Filters = req.Filters()
	if defaults, err := filter.New(params.Filters); err != nil {
		s.log(ctx).Warn("intent filters ignored", zap.String("query", p.Query), zap.Error(err))
	} else {
		p.Filters = p.Filters.Merge(defaults)
	}

	if sort := req.Sort(); sort != nil {
		p.Sort = []query.SortField{*sort}
	} else {
		p.Sort = params.Sort
	}

	user := &scoring.User{ID: req.UserID(), SessionID: req.SessionID()}
	p.Body = Build(BuildParams{
		Text:        p.Query,
		Expansions:  p.Expansion.Terms,
		Boosts:      params.Boosts,
		Filters:     p.Filters,
		Sort:        p.Sort,
		SearchAfter: s.searchAfter(ctx, req.Cursor(), SortSignature(p.Sort)),
		Limit:       req.Limit(),
		Facets:      req.IncludeFacets(),
		Score: func(base query.Clause) query.Clause {
			return s.deps.Scorer.Apply(ctx, base, p.Profile, user, p.Intent, p.Entities)
		},
	})
	return p
}

// understand runs entity extraction and intent detection in parallel.
// Neither fails: both degrade to empty or fallback results internally.
func (s *Service) understand(q string, tokens []string) ([]entity.Entity, *intent.Result) {
	var (
		ents []entity.Entity
		in   intent.Result
		g    errgroup.Group
	)
	g.Go(func() error {
		ents = s.deps.Entities.Extract(q, tokens)
		return nil
	})
	g.Go(func() error {
		in = s.deps.Intents.Detect(q, tokens)
		return nil
	})
	_ = g.Wait()
	return ents, &in
}

// assign buckets the caller into the requested test. Users are keyed by
// user id, anonymous callers by session id.
func (s *Service) assign(req *request.Request) (experiment.Assignment, bool) {
	if s.deps.Allocator == nil || req.TestID() == "" {
		return experiment.Assignment{}, false
	}
	key := req.UserID()
	if key == "" {
		key = req.SessionID()
	}
	if key == "" {
		return experiment.Assignment{}, false
	}
	return s.deps.Allocator.Select(req.TestID(), key)
}

// searchAfter decodes the cursor for the given sort order. A malformed
// cursor, or one minted under another order, restarts from the first page.
func (s *Service) searchAfter(ctx context.Context, token, order string) []any {
	if token == "" {
		return nil
	}
	after, err := cursor.Decode(token, order)
	if err != nil {
		metrics.CursorDecodeFailuresTotal.Inc()
		s.log(ctx).Warn("malformed cursor, starting from first page", zap.Error(err))
		return nil
	}
	return after
}

func (s *Service) track(ctx context.Context, a experiment.Assignment, req *request.Request, n int) {
	if s.deps.Analytics == nil {
		return
	}
	ev := experimentuc.NewEvent(a, req.Query(), n, req.UserID(), req.SessionID(), s.now())
	s.deps.Analytics.Track(ctx, ev)
}

// log prefers the request logger set by the transport.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
