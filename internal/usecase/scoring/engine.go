// Package scoring applies named relevance profiles to a base query.
package scoring

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/entity"
	"github.com/kailas-cloud/relevex/internal/domain/intent"
	"github.com/kailas-cloud/relevex/internal/domain/preference"
	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
)

const brandField = "brand"

// Preference boost multipliers and caps.
const (
	categoryPrefWeight = 1.5
	brandPrefWeight    = 1.3
	valuePrefWeight    = 1.2
	recentViewWeight   = 2.0
	topPrefs           = 5
	topPriceRanges     = 3
	topRecentViews     = 10
)

// Intent boost weights.
const (
	intentFieldWeight   = 3.0
	minEntityConfidence = 0.5
)

// entityBoosts maps entity types to the field and multiplier of their
// match-filter boost.
var entityBoosts = map[entity.Type]struct {
	field      string
	multiplier float64
}{
	entity.Category: {"categories", 2.0},
	entity.Brand:    {brandField, 2.0},
	entity.Value:    {"values", 1.5},
	entity.Color:    {"attributes.color", 1.5},
	entity.Material: {"attributes.material", 1.3},
}

// User identifies the shopper a search runs for.
type User struct {
	ID        string
	SessionID string
}

// Engine composes function_score queries from profiles. Safe for
// concurrent use: every call works on its own copy of the base clause.
type Engine struct {
	registry *Registry
	prefs    PreferenceReader
	logger   *zap.Logger
}

// NewEngine creates an Engine. prefs may be nil, which disables
// preference boosts.
func NewEngine(registry *Registry, prefs PreferenceReader, logger *zap.Logger) *Engine {
	return &Engine{registry: registry, prefs: prefs, logger: logger}
}

// Registry returns the profile registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Resolve returns the named profile, or standard with a warning when the
// name is unknown.
func (e *Engine) Resolve(name string) profile.Profile {
	if p, ok := e.registry.Get(profile.Name(name)); ok {
		return p
	}
	e.logger.Warn("unknown scoring profile, using standard",
		zap.String("profile", name),
		zap.Error(domain.ErrUnknownProfile),
	)
	p, _ := e.registry.Get(profile.Standard)
	return p
}

// Apply scores base with the named profile. user and in are optional and
// only used by preference- and intent-aware profiles. Confident entities
// are boosted under every profile. base is never modified.
func (e *Engine) Apply(
	ctx context.Context,
	base query.Clause,
	profileName string,
	user *User,
	in *intent.Result,
	ents []entity.Entity,
) query.Clause {
	p := e.Resolve(profileName)

	var inner query.Clause = query.MatchAll{}
	if base != nil {
		inner = base.Clone()
	}

	var fns []query.Function
	for _, b := range p.Boosts() {
		fns = append(fns, query.WeightFunc(query.Exists{Field: profile.IndexField(b.Field)}, b.Weight))
	}
	fns = append(fns, p.Functions()...)

	if p.UsesPreferences() && user != nil && user.ID != "" {
		fns = append(fns, e.preferenceFunctions(ctx, user)...)
	}
	if p.UsesIntent() && in != nil {
		fns = append(fns, intentFunctions(*in)...)
	}
	fns = append(fns, EntityFunctions(ents)...)

	if len(fns) == 0 {
		return inner
	}
	return query.FunctionScore{
		Query:     inner,
		Functions: fns,
		ScoreMode: p.ScoreMode(),
		BoostMode: p.BoostMode(),
	}
}

func (e *Engine) preferenceFunctions(ctx context.Context, user *User) []query.Function {
	if e.prefs == nil {
		return nil
	}
	prefs, err := e.prefs.Get(ctx, user.ID, user.SessionID)
	if err != nil {
		e.logger.Warn("skipping preference boosts",
			zap.String("user_id", user.ID),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrPreferenceLookup, err)),
		)
		return nil
	}
	return PreferenceFunctions(prefs)
}

// PreferenceFunctions turns stored preferences into boost functions.
func PreferenceFunctions(p preference.Preferences) []query.Function {
	var fns []query.Function
	for _, kv := range topWeights(p.Categories(), topPrefs) {
		fns = append(fns, query.WeightFunc(query.Match{Field: "categories", Query: kv.key}, kv.weight*categoryPrefWeight))
	}
	for _, kv := range topWeights(p.Brands(), topPrefs) {
		fns = append(fns, query.WeightFunc(query.Match{Field: profile.IndexField(brandField), Query: kv.key}, kv.weight*brandPrefWeight))
	}
	for _, kv := range topWeights(p.Values(), topPrefs) {
		fns = append(fns, query.WeightFunc(query.Match{Field: "values", Query: kv.key}, kv.weight*valuePrefWeight))
	}

	ranges := p.PriceRanges()
	if len(ranges) > topPriceRanges {
		ranges = ranges[:topPriceRanges]
	}
	for _, r := range ranges {
		if r.Weight <= 0 {
			continue
		}
		fns = append(fns, query.WeightFunc(
			query.Range{Field: "price", GTE: query.Float(r.Min), LTE: query.Float(r.Max)},
			r.Weight,
		))
	}

	if viewed := p.RecentlyViewed(); len(viewed) > 0 {
		if len(viewed) > topRecentViews {
			viewed = viewed[:topRecentViews]
		}
		ids := append([]string(nil), viewed...)
		fns = append(fns, query.WeightFunc(query.Terms{Field: "_id", Values: ids}, recentViewWeight))
	}
	return fns
}

// intentFunctions boosts fields the intent cares about.
func intentFunctions(in intent.Result) []query.Function {
	var fns []query.Function
	switch in.Label() {
	case intent.CategoryBrowse:
		fns = append(fns, query.WeightFunc(query.Exists{Field: "categories"}, intentFieldWeight))
	case intent.BrandSpecific:
		fns = append(fns, query.WeightFunc(query.Exists{Field: profile.IndexField(brandField)}, intentFieldWeight))
	case intent.ValueDriven:
		fns = append(fns, query.WeightFunc(query.Exists{Field: "values"}, intentFieldWeight))
	case intent.Recommendation:
		fns = append(fns,
			query.Function{FieldValueFactor: &query.FieldValueFactor{
				Field: "rating", Factor: 2.0, Modifier: query.ModifierSqrt, Missing: query.Float(1),
			}},
			query.Function{FieldValueFactor: &query.FieldValueFactor{
				Field: "reviewCount", Factor: 0.1, Modifier: query.ModifierLog1p, Missing: query.Float(1),
			}},
		)
	}
	return fns
}

// EntityFunctions boosts documents matching entities recognized with
// enough confidence.
func EntityFunctions(ents []entity.Entity) []query.Function {
	var fns []query.Function
	for _, ent := range ents {
		if ent.Confidence() < minEntityConfidence {
			continue
		}
		b, ok := entityBoosts[ent.Type()]
		if !ok {
			continue
		}
		fns = append(fns, query.WeightFunc(
			query.Match{Field: profile.IndexField(b.field), Query: ent.Value()},
			ent.Confidence()*b.multiplier,
		))
	}
	return fns
}

type weighted struct {
	key    string
	weight float64
}

// topWeights returns up to n positive entries, heaviest first; ties are
// ordered by key.
func topWeights(m map[string]float64, n int) []weighted {
	out := make([]weighted, 0, len(m))
	for k, w := range m {
		if w > 0 {
			out = append(out, weighted{k, w})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].key < out[j].key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
