package relevex

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/index"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	esAddrs    []string
	esUsername string
	esPassword string
	indexName  string
	timeout    time.Duration
	index      index.Client

	redisAddrs    []string
	redisPassword string
	prefPrefix    string
	prefCacheSize int
	prefCacheTTL  time.Duration

	analytics         bool
	analyticsStream   string
	analyticsPoolSize int
	analyticsMaxLen   int64

	experiments     []Experiment
	defaultProfile  string
	defaultLimit    int
	intentThreshold float64
	dictionarySize  int

	expansion         bool
	expansionPerTerm  int
	expansionMaxTerms int

	logger *zap.Logger
}

// WithElasticsearch sets the product index cluster addresses.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esAddrs = addrs
	})
}

// WithElasticsearchAuth sets basic auth credentials for the cluster.
func WithElasticsearchAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esUsername = username
		c.esPassword = password
	})
}

// WithIndexName sets the products index name. Default: "products".
func WithIndexName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexName = name
	})
}

// WithRequestTimeout bounds each index request. Zero means no timeout.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRedis enables stored user preferences and, with WithAnalytics, the
// AB event stream.
func WithRedis(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
	})
}

// WithPreferences tunes preference storage. Zero values keep the defaults
// (prefix "relevex:prefs:", 10000 entries, 30 minutes).
func WithPreferences(keyPrefix string, cacheSize int, cacheTTL time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefPrefix = keyPrefix
		c.prefCacheSize = cacheSize
		c.prefCacheTTL = cacheTTL
	})
}

// WithAnalytics records AB test search events to a Redis stream.
// Requires WithRedis.
func WithAnalytics(stream string, poolSize int, maxLen int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.analytics = true
		c.analyticsStream = stream
		c.analyticsPoolSize = poolSize
		c.analyticsMaxLen = maxLen
	})
}

// WithExperiments configures the AB tests requests can opt into.
func WithExperiments(tests ...Experiment) Option {
	return optionFunc(func(c *clientConfig) {
		c.experiments = append(c.experiments, tests...)
	})
}

// WithDefaultProfile sets the scoring profile used when a request names
// none. Default: "standard".
func WithDefaultProfile(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultProfile = name
	})
}

// WithDefaultLimit sets the page size used when a request names none.
func WithDefaultLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultLimit = n
	})
}

// WithIntentThreshold sets the minimum confidence of the keyword and
// statistical intent tiers. Default: 0.6.
func WithIntentThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.intentThreshold = t
	})
}

// WithDictionaryRefresh loads up to size category and brand names from the
// index at startup, on top of the built-in vocabularies.
func WithDictionaryRefresh(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dictionarySize = size
	})
}

// WithQueryExpansion adds catalog synonyms to queries as optional matches,
// taking at most perTerm synonyms per matched term and total terms overall.
// Non-positive limits keep the defaults of 3 and 5.
func WithQueryExpansion(perTerm, total int) Option {
	return optionFunc(func(c *clientConfig) {
		c.expansion = true
		c.expansionPerTerm = perTerm
		c.expansionMaxTerms = total
	})
}

// WithLogger enables structured logging. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// withIndex injects an index client, bypassing WithElasticsearch.
func withIndex(idx index.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = idx
	})
}
