package preference

import (
	"time"

	"github.com/kailas-cloud/relevex/internal/domain/preference"
)

// priceRangeRow is the stored form of a preferred price band.
type priceRangeRow struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Weight float64 `json:"weight"`
}

// preferencesRow is the JSON document stored per user. LastUpdated is epoch
// milliseconds.
type preferencesRow struct {
	UserID         string             `json:"userId"`
	Categories     map[string]float64 `json:"categories"`
	Brands         map[string]float64 `json:"brands"`
	Values         map[string]float64 `json:"values"`
	PriceRanges    []priceRangeRow    `json:"priceRanges"`
	RecentlyViewed []string           `json:"recentlyViewed"`
	RecentSearches []string           `json:"recentSearches"`
	LastUpdated    int64              `json:"lastUpdated"`
}

func (r preferencesRow) toDomain(userID string) preference.Preferences {
	if r.UserID == "" {
		r.UserID = userID
	}
	ranges := make([]preference.PriceRange, len(r.PriceRanges))
	for i, p := range r.PriceRanges {
		ranges[i] = preference.PriceRange{Min: p.Min, Max: p.Max, Weight: p.Weight}
	}
	var updated time.Time
	if r.LastUpdated > 0 {
		updated = time.UnixMilli(r.LastUpdated).UTC()
	}
	return preference.New(preference.Snapshot{
		UserID:         r.UserID,
		Categories:     r.Categories,
		Brands:         r.Brands,
		Values:         r.Values,
		PriceRanges:    ranges,
		RecentlyViewed: r.RecentlyViewed,
		RecentSearches: r.RecentSearches,
		LastUpdated:    updated,
	})
}
