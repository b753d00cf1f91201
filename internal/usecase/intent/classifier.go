// Package intent classifies the purpose of a product search query and maps
// it to default search parameters.
package intent

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/domain/intent"
	"github.com/kailas-cloud/relevex/internal/metrics"
)

// DefaultThreshold is the minimum confidence the keyword and Bayes tiers need.
const DefaultThreshold = 0.6

// PatternConfidence is assigned to regex tier matches.
const PatternConfidence = 0.9

// Tier names the classification stage that decided a result.
type Tier string

// Classification tiers, in evaluation order.
const (
	TierPattern  Tier = "pattern"
	TierKeyword  Tier = "keyword"
	TierBayes    Tier = "bayes"
	TierFallback Tier = "fallback"
)

// Classifier runs the pattern, keyword and naive Bayes tiers in order.
// Safe for concurrent use.
type Classifier struct {
	analyzer  Analyzer
	logger    *zap.Logger
	threshold float64
	examples  map[intent.Label][]string
	model     *bayes
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithThreshold sets the keyword and Bayes acceptance threshold.
func WithThreshold(t float64) Option {
	return func(c *Classifier) {
		if t > 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// WithExamples replaces the built-in training examples.
func WithExamples(examples map[intent.Label][]string) Option {
	return func(c *Classifier) { c.examples = examples }
}

// New creates a Classifier and trains its Bayes tier. A training failure
// is logged and disables that tier.
func New(a Analyzer, logger *zap.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		analyzer:  a,
		logger:    logger,
		threshold: DefaultThreshold,
		examples:  trainingExamples,
	}
	for _, o := range opts {
		o(c)
	}

	model, err := trainBayes(c.examples, a)
	if err != nil {
		logger.Warn("intent classifier degraded, bayes tier disabled", zap.Error(err))
	} else {
		c.model = model
		logger.Debug("intent classifier trained",
			zap.Int("labels", len(model.labels)),
			zap.Int("vocabulary", len(model.vocab)),
		)
	}
	return c
}

// Degraded reports whether the Bayes tier is disabled.
func (c *Classifier) Degraded() bool { return c.model == nil }

// Detect classifies query. tokens are its word tokens; nil tokens are
// derived from query. Detect never fails: any internal error yields the
// product_search fallback.
func (c *Classifier) Detect(query string, tokens []string) intent.Result {
	res, tier := c.Classify(query, tokens)
	metrics.IntentDetectionsTotal.WithLabelValues(string(res.Label()), string(tier)).Inc()
	return res
}

// Classify is Detect without metrics; it also reports the deciding tier.
func (c *Classifier) Classify(query string, tokens []string) (res intent.Result, tier Tier) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("intent detection failed",
				zap.String("query", query),
				zap.Error(errors.New(fmt.Sprint(r))),
			)
			res, tier = intent.Fallback(), TierFallback
		}
	}()

	if l, ok := matchPattern(query); ok {
		return intent.NewResult(l, PatternConfidence, nil), TierPattern
	}

	if ranked := scoreKeywords(query); len(ranked) > 0 && ranked[0].Confidence() >= c.threshold {
		return intent.NewResult(ranked[0].Label(), ranked[0].Confidence(), ranked[1:]), TierKeyword
	}

	if c.model != nil {
		if tokens == nil {
			tokens = c.analyzer.Tokens(query)
		}
		ranked := c.model.classify(c.analyzer.Features(tokens))
		if len(ranked) > 0 && ranked[0].Confidence() >= c.threshold {
			return intent.NewResult(ranked[0].Label(), ranked[0].Confidence(), ranked[1:]), TierBayes
		}
	}

	return intent.Fallback(), TierFallback
}

func matchPattern(query string) (intent.Label, bool) {
	for _, p := range patternTable {
		for _, re := range p.patterns {
			if re.MatchString(query) {
				return p.label, true
			}
		}
	}
	return "", false
}

// scoreKeywords counts keyword hits per intent and returns the intents
// with hits, each scored by its share of all hits, most confident first.
func scoreKeywords(query string) []intent.Scored {
	q := strings.ToLower(query)

	hits := make(map[intent.Label]int)
	total := 0
	for _, l := range intent.All() {
		for _, kw := range keywordTable[l] {
			if strings.Contains(q, kw) {
				hits[l]++
				total++
			}
		}
	}
	if total == 0 {
		return nil
	}

	var ranked []intent.Scored
	for _, l := range intent.All() {
		if n := hits[l]; n > 0 {
			ranked = append(ranked, intent.NewScored(l, float64(n)/float64(total)))
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence() > ranked[j].Confidence()
	})
	return ranked
}
