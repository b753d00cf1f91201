// Package profile holds named relevance scoring configurations.
package profile

import (
	"fmt"

	"github.com/kailas-cloud/relevex/internal/domain/search/query"
)

// Name identifies a profile.
type Name string

// Built-in profiles.
const (
	Standard   Name = "standard"
	Popularity Name = "popularity"
	Recency    Name = "recency"
	Intent     Name = "intent"
	Preference Name = "preference"
	Hybrid     Name = "hybrid"
)

// FieldBoost boosts documents that have a value for Field.
type FieldBoost struct {
	Field  string
	Weight float64
}

// Profile is an immutable scoring configuration.
type Profile struct {
	name            Name
	boosts          []FieldBoost
	functions       []query.Function
	scoreMode       query.ScoreMode
	boostMode       query.BoostMode
	usesPreferences bool
	usesIntent      bool
}

// Spec holds the raw inputs of New.
type Spec struct {
	Name            Name
	Boosts          []FieldBoost
	Functions       []query.Function
	ScoreMode       query.ScoreMode
	BoostMode       query.BoostMode
	UsesPreferences bool
	UsesIntent      bool
}

// New validates a profile spec. Boosts and functions are deep-copied.
// ScoreMode defaults to sum and BoostMode to multiply.
func New(s Spec) (Profile, error) {
	if s.Name == "" {
		return Profile{}, fmt.Errorf("profile name is required")
	}
	for _, b := range s.Boosts {
		if b.Field == "" {
			return Profile{}, fmt.Errorf("profile %s: boost field is required", s.Name)
		}
		if b.Weight <= 0 {
			return Profile{}, fmt.Errorf("profile %s: boost weight for %s must be positive", s.Name, b.Field)
		}
	}
	scoreMode := s.ScoreMode
	if scoreMode == "" {
		scoreMode = query.ScoreSum
	}
	boostMode := s.BoostMode
	if boostMode == "" {
		boostMode = query.BoostMultiply
	}
	return Profile{
		name:            s.Name,
		boosts:          append([]FieldBoost(nil), s.Boosts...),
		functions:       query.CloneFunctions(s.Functions),
		scoreMode:       scoreMode,
		boostMode:       boostMode,
		usesPreferences: s.UsesPreferences,
		usesIntent:      s.UsesIntent,
	}, nil
}

// Name returns the profile name.
func (p Profile) Name() Name { return p.name }

// Boosts returns a copy of the field boosts in declaration order.
func (p Profile) Boosts() []FieldBoost { return append([]FieldBoost(nil), p.boosts...) }

// Functions returns a deep copy of the static scoring functions.
func (p Profile) Functions() []query.Function { return query.CloneFunctions(p.functions) }

// ScoreMode returns how function scores combine.
func (p Profile) ScoreMode() query.ScoreMode { return p.scoreMode }

// BoostMode returns how the function score combines with the query score.
func (p Profile) BoostMode() query.BoostMode { return p.boostMode }

// UsesPreferences reports whether user preference boosts apply.
func (p Profile) UsesPreferences() bool { return p.usesPreferences }

// UsesIntent reports whether intent and entity boosts apply.
func (p Profile) UsesIntent() bool { return p.usesIntent }

// IsPassThrough reports whether the profile adds nothing to the base query.
func (p Profile) IsPassThrough() bool {
	return len(p.boosts) == 0 && len(p.functions) == 0 && !p.usesPreferences && !p.usesIntent
}
