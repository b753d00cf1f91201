// Package relevex understands product search queries and ranks catalog
// results: entity extraction, intent detection, scoring profiles, AB test
// allocation and cursor pagination over an Elasticsearch products index.
package relevex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/relevex/internal/db/redis"
	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/index"
	"github.com/kailas-cloud/relevex/internal/index/elastic"
	"github.com/kailas-cloud/relevex/internal/metrics"
	analyticsrepo "github.com/kailas-cloud/relevex/internal/repository/analytics"
	"github.com/kailas-cloud/relevex/internal/repository/dictionary"
	preferencerepo "github.com/kailas-cloud/relevex/internal/repository/preference"
	chiTransport "github.com/kailas-cloud/relevex/internal/transport/chi"
	entityuc "github.com/kailas-cloud/relevex/internal/usecase/entity"
	experimentuc "github.com/kailas-cloud/relevex/internal/usecase/experiment"
	healthuc "github.com/kailas-cloud/relevex/internal/usecase/health"
	intentuc "github.com/kailas-cloud/relevex/internal/usecase/intent"
	"github.com/kailas-cloud/relevex/internal/usecase/nlp/expansion"
	"github.com/kailas-cloud/relevex/internal/usecase/nlp/tokenizer"
	"github.com/kailas-cloud/relevex/internal/usecase/scoring"
	searchuc "github.com/kailas-cloud/relevex/internal/usecase/search"
)

const (
	defaultIndexName        = "products"
	defaultReadinessTimeout = 10 * time.Second
)

// Client is the relevex entry point. Safe for concurrent use.
type Client struct {
	cfg       *clientConfig
	logger    *zap.Logger
	index     index.Client
	store     *dbRedis.Store
	sink      *analyticsrepo.Sink
	extractor *entityuc.Extractor
	registry  *scoring.Registry
	allocator *experimentuc.Allocator
	health    *healthuc.Service
	search    *searchuc.Service
}

// New creates a Client. Without WithElasticsearch the client can still
// Explain queries; Search returns ErrIndexNotConfigured.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		indexName:      defaultIndexName,
		defaultProfile: "standard",
		defaultLimit:   request.DefaultLimit,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.analytics && len(cfg.redisAddrs) == 0 {
		return nil, errors.New("relevex: analytics requires WithRedis")
	}

	c := &Client{cfg: cfg, logger: cfg.logger}

	idx, err := createIndex(cfg)
	if err != nil {
		return nil, err
	}
	c.index = idx

	if len(cfg.redisAddrs) > 0 {
		if err := c.connectStore(); err != nil {
			return nil, err
		}
	}

	if err := c.wire(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func createIndex(cfg *clientConfig) (index.Client, error) {
	switch {
	case cfg.index != nil:
		return cfg.index, nil
	case len(cfg.esAddrs) > 0:
		es, err := elastic.NewClient(elastic.Config{
			Addresses:      cfg.esAddrs,
			Username:       cfg.esUsername,
			Password:       cfg.esPassword,
			RequestTimeout: cfg.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("relevex: create index client: %w", err)
		}
		return es, nil
	default:
		return noIndex{}, nil
	}
}

func (c *Client) connectStore() error {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    c.cfg.redisAddrs,
		Password: c.cfg.redisPassword,
	})
	if err != nil {
		return fmt.Errorf("relevex: create redis store: %w", err)
	}
	if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		store.Close()
		return fmt.Errorf("relevex: redis not ready: %w", err)
	}
	c.store = store
	return nil
}

func (c *Client) wire() error {
	cfg := c.cfg

	// Pass nil interfaces (not typed nil pointers) for optional collaborators.
	var prefs scoring.PreferenceReader
	var storePinger healthuc.Pinger
	var sink searchuc.AnalyticsSink
	if c.store != nil {
		repo := preferencerepo.New(c.store, cfg.prefPrefix)
		prefs = preferencerepo.NewCached(repo, cfg.prefCacheSize, cfg.prefCacheTTL, metrics.PreferenceCacheTotal)
		storePinger = c.store

		if cfg.analytics {
			s, err := analyticsrepo.New(c.store, analyticsrepo.Config{
				Stream:   cfg.analyticsStream,
				MaxLen:   cfg.analyticsMaxLen,
				PoolSize: cfg.analyticsPoolSize,
			}, c.logger, metrics.AnalyticsEventsTotal)
			if err != nil {
				return fmt.Errorf("relevex: %w", err)
			}
			c.sink = s
			sink = s
		}
	}

	tok := tokenizer.New()
	c.extractor = entityuc.New(c.logger)

	var classifierOpts []intentuc.Option
	if cfg.intentThreshold > 0 {
		classifierOpts = append(classifierOpts, intentuc.WithThreshold(cfg.intentThreshold))
	}
	classifier := intentuc.New(tok, c.logger, classifierOpts...)
	if classifier.Degraded() {
		c.logger.Warn("intent detection running without statistical tier", zap.Error(domain.ErrClassifierDegraded))
	}

	var expander searchuc.QueryExpander
	if cfg.expansion {
		expander = expansion.New(c.logger, expansion.WithLimits(cfg.expansionPerTerm, cfg.expansionMaxTerms))
	}

	registry, err := scoring.NewRegistry()
	if err != nil {
		return fmt.Errorf("relevex: build profile registry: %w", err)
	}
	c.registry = registry

	tests := make([]experiment.Test, 0, len(cfg.experiments))
	for _, e := range cfg.experiments {
		t, err := e.toTest()
		if err != nil {
			return fmt.Errorf("relevex: %w", err)
		}
		tests = append(tests, t)
	}
	c.allocator = experimentuc.NewAllocator(tests, c.logger)

	c.health = healthuc.New(c.index, storePinger)
	c.search = searchuc.New(searchuc.Deps{
		Index:     c.index,
		Tokenizer: tok,
		Entities:  c.extractor,
		Intents:   classifier,
		Expander:  expander,
		Scorer:    scoring.NewEngine(registry, prefs, c.logger),
		Allocator: c.allocator,
		Analytics: sink,
	}, searchuc.Config{
		IndexName:      cfg.indexName,
		DefaultProfile: cfg.defaultProfile,
	}, c.logger)

	if cfg.dictionarySize > 0 {
		if _, ok := c.index.(noIndex); !ok {
			if err := c.RefreshDictionaries(context.Background()); err != nil {
				c.logger.Warn("entity dictionary refresh failed, using built-in vocabularies", zap.Error(err))
			}
		}
	}
	return nil
}

// Search runs a search and returns one page of ranked results.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	req, err := opts.toRequest(c.cfg.defaultLimit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	resp, err := c.search.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromResponse(resp), nil
}

// Explain analyzes a search and returns the index request it would send,
// without contacting the index.
func (c *Client) Explain(ctx context.Context, opts SearchOptions) (*Explanation, error) {
	req, err := opts.toRequest(c.cfg.defaultLimit)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}
	return fromPlan(c.search.Explain(ctx, &req))
}

// Profiles lists the registered scoring profile names.
func (c *Client) Profiles() []string {
	names := c.registry.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

// Experiments lists the AB tests currently accepting traffic.
func (c *Client) Experiments() []Experiment {
	tests := c.allocator.ActiveTests()
	out := make([]Experiment, len(tests))
	for i, t := range tests {
		out[i] = fromTest(t)
	}
	return out
}

// RefreshDictionaries loads category and brand names from the index into
// the entity vocabularies. On failure the current vocabularies are kept.
func (c *Client) RefreshDictionaries(ctx context.Context) error {
	size := c.cfg.dictionarySize
	if size <= 0 {
		size = 1000
	}
	src := dictionary.New(c.index, c.cfg.indexName)
	if err := c.extractor.RefreshDictionaries(ctx, src, size); err != nil {
		return fmt.Errorf("refresh dictionaries: %w", err)
	}
	return nil
}

// Ping checks index connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.index.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Handler returns the HTTP API. Empty apiKeys disables authentication.
func (c *Client) Handler(apiKeys []string) http.Handler {
	srv := chiTransport.NewServer(chiTransport.Options{
		Search:         c.search,
		Profiles:       c.registry,
		Experiments:    c.allocator,
		Health:         c.health,
		DefaultProfile: c.cfg.defaultProfile,
		DefaultLimit:   c.cfg.defaultLimit,
	}, c.logger)
	return chiTransport.NewRouter(srv, apiKeys, c.logger)
}

// Close flushes pending analytics events and releases connections.
func (c *Client) Close() {
	if c.sink != nil {
		if err := c.sink.Close(); err != nil {
			c.logger.Warn("analytics sink close", zap.Error(err))
		}
	}
	if c.store != nil {
		c.store.Close()
	}
}

// noIndex stands in for a missing index client.
type noIndex struct{}

func (noIndex) Ping(context.Context) error {
	return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, ErrIndexNotConfigured)
}

func (noIndex) Search(context.Context, string, query.Body) (*index.Response, error) {
	return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, ErrIndexNotConfigured)
}
