// Package entity recognizes typed entities (categories, brands, prices...)
// in free-text product queries.
package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/entity"
)

// Index fields whose aggregation buckets seed the dictionaries.
const (
	CategoryField = "categories.keyword"
	BrandField    = "brandName.keyword"
)

// Extractor is a regex and dictionary hybrid recognizer. Safe for concurrent use.
type Extractor struct {
	dicts  *dictionaries
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the time source used for year validation.
func WithClock(now func() time.Time) Option {
	return func(x *Extractor) { x.now = now }
}

// WithTerms adds terms to the dictionary of type t.
func WithTerms(t entity.Type, terms ...string) Option {
	return func(x *Extractor) { x.dicts.add(t, terms) }
}

// New creates an Extractor seeded with the built-in dictionaries.
func New(logger *zap.Logger, opts ...Option) *Extractor {
	x := &Extractor{dicts: newDictionaries(), logger: logger, now: time.Now}
	for _, o := range opts {
		o(x)
	}
	return x
}

// Extract returns the entities recognized in query, grouped by type in
// entity.Types order. tokens are the lowercase word tokens of query.
// An internal failure is logged and yields no entities.
func (x *Extractor) Extract(query string, tokens []string) (ents []entity.Entity) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Warn("entity extraction failed",
				zap.String("query", query),
				zap.Error(fmt.Errorf("%w: %v", domain.ErrEntityExtraction, r)),
			)
			ents = nil
		}
	}()

	q := strings.ToLower(query)
	now := x.now()

	for _, t := range entity.Types() {
		c := collector{}
		if fn, ok := numericExtractors[t]; ok {
			for _, cand := range fn(q, now) {
				c.add(cand.value, cand.confidence)
			}
		}
		for _, p := range textPatterns[t] {
			x.matchPattern(&c, t, p, q)
		}
		if dictionaryTypes[t] {
			x.matchTokens(&c, t, tokens)
		}
		ents = c.appendTo(ents, t)
	}
	return ents
}

func (x *Extractor) matchPattern(c *collector, t entity.Type, p pattern, q string) {
	for _, m := range p.re.FindAllStringSubmatch(q, -1) {
		if p.group >= len(m) {
			continue
		}
		raw := normalize(m[p.group])
		if p.fixed > 0 {
			if raw != "" {
				c.add(raw, p.fixed)
			}
			continue
		}
		value := trimCapture(raw)
		if value == "" {
			continue
		}
		if known := x.longestKnown(t, value); known != "" {
			c.add(known, confPatternKnown)
			continue
		}
		c.add(value, confPatternUnknown)
	}
}

func (x *Extractor) matchTokens(c *collector, t entity.Type, tokens []string) {
	for _, tok := range tokens {
		tok = normalize(tok)
		if x.dicts.has(t, tok) {
			c.addIfAbsent(tok, confToken)
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		a, b := normalize(tokens[i]), normalize(tokens[i+1])
		for _, gram := range []string{a + " " + b, a + "-" + b} {
			if x.dicts.has(t, gram) {
				c.addIfAbsent(gram, confBigram)
				break
			}
		}
	}
}

// longestKnown returns the longest run of words in phrase that is a
// dictionary term of type t.
func (x *Extractor) longestKnown(t entity.Type, phrase string) string {
	words := strings.Fields(phrase)
	for n := len(words); n > 0; n-- {
		for i := 0; i+n <= len(words); i++ {
			gram := strings.Join(words[i:i+n], " ")
			if x.dicts.has(t, gram) {
				return gram
			}
		}
	}
	return ""
}

// RefreshDictionaries merges category and brand terms from the index into
// the dictionaries. On failure the current dictionaries are kept.
func (x *Extractor) RefreshDictionaries(ctx context.Context, src TermSource, size int) error {
	cats, err := src.Terms(ctx, CategoryField, size)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	brands, err := src.Terms(ctx, BrandField, size)
	if err != nil {
		return fmt.Errorf("load brands: %w", err)
	}

	addedCats := x.dicts.add(entity.Category, cats)
	addedBrands := x.dicts.add(entity.Brand, brands)

	x.logger.Info("entity dictionaries refreshed",
		zap.Int("categories", x.dicts.size(entity.Category)),
		zap.Int("brands", x.dicts.size(entity.Brand)),
		zap.Int("new_categories", addedCats),
		zap.Int("new_brands", addedBrands),
	)
	return nil
}

// trimCapture cuts a free-text capture at its first stop word.
func trimCapture(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if stopWords[w] {
			words = words[:i]
			break
		}
	}
	return strings.Trim(strings.Join(words, " "), "-&")
}

// collector accumulates unique values of one entity type in first-seen order.
type collector struct {
	order []string
	conf  map[string]float64
}

// add records value, keeping the highest confidence seen for it.
func (c *collector) add(value string, confidence float64) {
	if c.conf == nil {
		c.conf = make(map[string]float64)
	}
	prev, ok := c.conf[value]
	if !ok {
		c.order = append(c.order, value)
	}
	if !ok || confidence > prev {
		c.conf[value] = confidence
	}
}

func (c *collector) addIfAbsent(value string, confidence float64) {
	if _, ok := c.conf[value]; ok {
		return
	}
	c.add(value, confidence)
}

func (c *collector) appendTo(dst []entity.Entity, t entity.Type) []entity.Entity {
	for _, v := range c.order {
		e, err := entity.New(t, v, c.conf[v])
		if err != nil {
			continue
		}
		dst = append(dst, e)
	}
	return dst
}
