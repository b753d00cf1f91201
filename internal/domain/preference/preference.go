// Package preference holds learned per-user affinities used for boosting.
package preference

import "time"

// PriceRange is a price band the user gravitates to.
type PriceRange struct {
	Min    float64
	Max    float64
	Weight float64
}

// Preferences is a read-only snapshot of a user's affinities.
type Preferences struct {
	userID         string
	categories     map[string]float64
	brands         map[string]float64
	values         map[string]float64
	priceRanges    []PriceRange
	recentlyViewed []string
	recentSearches []string
	lastUpdated    time.Time
}

// Snapshot holds the raw inputs of New.
type Snapshot struct {
	UserID         string
	Categories     map[string]float64
	Brands         map[string]float64
	Values         map[string]float64
	PriceRanges    []PriceRange
	RecentlyViewed []string
	RecentSearches []string
	LastUpdated    time.Time
}

// New creates a preference snapshot. Maps and slices are copied.
func New(s Snapshot) Preferences {
	return Preferences{
		userID:         s.UserID,
		categories:     copyWeights(s.Categories),
		brands:         copyWeights(s.Brands),
		values:         copyWeights(s.Values),
		priceRanges:    append([]PriceRange(nil), s.PriceRanges...),
		recentlyViewed: append([]string(nil), s.RecentlyViewed...),
		recentSearches: append([]string(nil), s.RecentSearches...),
		lastUpdated:    s.LastUpdated,
	}
}

// Empty returns preferences with no affinities for userID.
func Empty(userID string) Preferences {
	return Preferences{userID: userID}
}

// UserID returns the owner.
func (p Preferences) UserID() string { return p.userID }

// Categories returns category weights.
func (p Preferences) Categories() map[string]float64 { return p.categories }

// Brands returns brand weights.
func (p Preferences) Brands() map[string]float64 { return p.brands }

// Values returns value-tag weights.
func (p Preferences) Values() map[string]float64 { return p.values }

// PriceRanges returns preferred price bands.
func (p Preferences) PriceRanges() []PriceRange { return p.priceRanges }

// RecentlyViewed returns recently viewed product ids, newest first.
func (p Preferences) RecentlyViewed() []string { return p.recentlyViewed }

// RecentSearches returns recent query strings, newest first.
func (p Preferences) RecentSearches() []string { return p.recentSearches }

// LastUpdated returns when the snapshot was computed.
func (p Preferences) LastUpdated() time.Time { return p.lastUpdated }

// IsEmpty reports whether the snapshot carries nothing to boost on.
func (p Preferences) IsEmpty() bool {
	return len(p.categories) == 0 && len(p.brands) == 0 && len(p.values) == 0 &&
		len(p.priceRanges) == 0 && len(p.recentlyViewed) == 0
}

func copyWeights(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
