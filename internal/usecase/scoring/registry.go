package scoring

import (
	"fmt"

	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
)

// Registry holds named scoring profiles. Immutable after NewRegistry.
type Registry struct {
	profiles map[profile.Name]profile.Profile
	names    []profile.Name
}

// NewRegistry builds a registry of the built-in profiles plus extra ones.
// An extra profile replaces a built-in of the same name.
func NewRegistry(extra ...profile.Spec) (*Registry, error) {
	r := &Registry{profiles: make(map[profile.Name]profile.Profile)}
	for _, s := range append(builtinSpecs(), extra...) {
		p, err := profile.New(s)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", s.Name, err)
		}
		if _, dup := r.profiles[p.Name()]; !dup {
			r.names = append(r.names, p.Name())
		}
		r.profiles[p.Name()] = p
	}
	return r, nil
}

// Get returns the named profile.
func (r *Registry) Get(name profile.Name) (profile.Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// Names lists profile names in registration order.
func (r *Registry) Names() []profile.Name {
	return append([]profile.Name(nil), r.names...)
}

func builtinSpecs() []profile.Spec {
	return []profile.Spec{
		{
			Name: profile.Standard,
			Boosts: []profile.FieldBoost{
				{Field: "name", Weight: 3.0},
				{Field: "description", Weight: 1.0},
				{Field: "categories", Weight: 2.0},
				{Field: brandField, Weight: 1.5},
				{Field: "tags", Weight: 1.2},
			},
		},
		{
			Name: profile.Popularity,
			Boosts: []profile.FieldBoost{
				{Field: "name", Weight: 2.0},
				{Field: "description", Weight: 0.8},
				{Field: "categories", Weight: 1.5},
				{Field: brandField, Weight: 1.2},
			},
			Functions: []query.Function{
				query.FieldFactorFunc(query.FieldValueFactor{Field: "viewCount", Factor: 0.1, Modifier: query.ModifierLog1p}, 1.0),
				query.FieldFactorFunc(query.FieldValueFactor{Field: "rating", Factor: 1.0, Modifier: query.ModifierSqrt}, 2.0),
			},
			ScoreMode:       query.ScoreSum,
			UsesPreferences: true,
		},
		{
			Name: profile.Recency,
			Boosts: []profile.FieldBoost{
				{Field: "name", Weight: 2.0},
				{Field: "description", Weight: 1.0},
				{Field: "categories", Weight: 1.5},
			},
			Functions: []query.Function{
				query.DecayFunc(query.Decay{Kind: query.Gauss, Field: "createdAt", Scale: "30d", Offset: "5d", Decay: 0.5}, 2.0),
			},
			ScoreMode: query.ScoreMultiply,
		},
		{
			Name: profile.Intent,
			Boosts: []profile.FieldBoost{
				{Field: "name", Weight: 2.0},
				{Field: "description", Weight: 0.8},
			},
			UsesIntent: true,
		},
		{
			Name: profile.Preference,
			Boosts: []profile.FieldBoost{
				{Field: "name", Weight: 2.0},
				{Field: "description", Weight: 0.8},
			},
			ScoreMode:       query.ScoreSum,
			UsesPreferences: true,
		},
		{
			Name: profile.Hybrid,
			Boosts: []profile.FieldBoost{
				{Field: "name", Weight: 2.0},
				{Field: "description", Weight: 0.8},
				{Field: "categories", Weight: 1.5},
				{Field: brandField, Weight: 1.2},
			},
			Functions: []query.Function{
				query.FieldFactorFunc(query.FieldValueFactor{Field: "rating", Factor: 0.5, Modifier: query.ModifierSqrt}, 1.0),
				query.DecayFunc(query.Decay{Kind: query.Gauss, Field: "createdAt", Scale: "60d", Offset: "1d", Decay: 0.5}, 1.0),
			},
			ScoreMode:       query.ScoreSum,
			UsesPreferences: true,
			UsesIntent:      true,
		},
	}
}
