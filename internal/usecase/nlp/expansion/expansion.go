// Package expansion widens a query with catalog synonyms.
//
// Expansion terms are scored as optional matches, so they can only add
// recall; the original tokens still decide which products must match.
package expansion

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Default limits.
const (
	DefaultMaxPerTerm = 3
	DefaultMaxTerms   = 5
)

// synonyms maps a lowercase term or two-word phrase to related catalog
// vocabulary, most specific first.
var synonyms = map[string][]string{
	"shirt":       {"tee", "t-shirt", "top", "blouse"},
	"pants":       {"trousers", "jeans", "slacks", "leggings"},
	"shoes":       {"footwear", "sneakers", "boots", "sandals"},
	"dress":       {"gown", "frock", "outfit"},
	"dresses":     {"gowns", "frocks", "outfits"},
	"jacket":      {"coat", "blazer", "outerwear"},
	"sustainable": {"eco-friendly", "green", "ethical", "environmentally friendly"},
	"organic":     {"natural", "chemical-free", "pesticide-free"},
	"vegan":       {"plant-based", "cruelty-free", "animal-free"},
	"handmade":    {"artisanal", "handcrafted", "custom-made"},
	"fair trade":  {"ethically sourced", "ethical trade", "fair price"},
	"recycled":    {"upcycled", "repurposed", "reclaimed"},
	"local":       {"community-made", "locally sourced", "locally made"},
	"small batch": {"limited edition", "artisanal", "handcrafted"},
	"affordable":  {"budget", "inexpensive", "economical", "cheap"},
	"premium":     {"luxury", "high-end", "designer", "exclusive"},
	"sale":        {"discount", "clearance", "reduced", "deal"},
	"new":         {"latest", "fresh", "just in", "new arrival"},
	"popular":     {"trending", "bestselling", "hot", "in demand"},
}

// Result is the outcome of one expansion.
type Result struct {
	// Terms are the deduplicated expansion terms in discovery order.
	Terms []string
	// Sources maps each matched query term to the synonyms it contributed.
	Sources map[string][]string
}

// Empty reports whether nothing was added.
func (r Result) Empty() bool { return len(r.Terms) == 0 }

// Expander is safe for concurrent use.
type Expander struct {
	maxPerTerm int
	maxTerms   int
	lookup     func(term string) []string
	logger     *zap.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithLimits caps synonyms taken per matched term and the total number of
// expansion terms. Non-positive values keep the defaults.
func WithLimits(perTerm, total int) Option {
	return func(e *Expander) {
		if perTerm > 0 {
			e.maxPerTerm = perTerm
		}
		if total > 0 {
			e.maxTerms = total
		}
	}
}

// New creates an Expander over the built-in synonym table.
func New(logger *zap.Logger, opts ...Option) *Expander {
	e := &Expander{
		maxPerTerm: DefaultMaxPerTerm,
		maxTerms:   DefaultMaxTerms,
		lookup:     func(term string) []string { return synonyms[term] },
		logger:     logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Expand returns synonyms for tokens and adjacent token pairs. Terms that
// already occur in the query are skipped. On failure it logs and returns an
// empty Result, leaving the query unchanged.
func (e *Expander) Expand(tokens []string) (res Result) {
	if len(tokens) == 0 {
		return Result{}
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("query expansion failed, using original query",
				zap.Strings("tokens", tokens),
				zap.Error(fmt.Errorf("%v", r)),
			)
			res = Result{}
		}
	}()

	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[strings.ToLower(t)] = struct{}{}
	}
	seen := make(map[string]struct{})

	for _, key := range candidates(tokens) {
		if len(res.Terms) >= e.maxTerms {
			break
		}
		syns := e.lookup(key)
		if len(syns) > e.maxPerTerm {
			syns = syns[:e.maxPerTerm]
		}
		for _, s := range syns {
			if len(res.Terms) >= e.maxTerms {
				break
			}
			if _, ok := present[s]; ok {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			res.Terms = append(res.Terms, s)
			if res.Sources == nil {
				res.Sources = make(map[string][]string)
			}
			res.Sources[key] = append(res.Sources[key], s)
		}
	}
	return res
}

// candidates lists lowercase tokens followed by adjacent pairs, each once.
func candidates(tokens []string) []string {
	out := make([]string, 0, 2*len(tokens))
	seen := make(map[string]struct{}, 2*len(tokens))
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	lower := make([]string, len(tokens))
	for i, t := range tokens {
		lower[i] = strings.ToLower(t)
		add(lower[i])
	}
	for i := 0; i+1 < len(lower); i++ {
		add(lower[i] + " " + lower[i+1])
	}
	return out
}
