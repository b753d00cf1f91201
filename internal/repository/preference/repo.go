// Package preference reads learned user preferences from Redis.
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/relevex/internal/db"
	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/preference"
)

// DefaultKeyPrefix namespaces preference documents.
const DefaultKeyPrefix = "relevex:prefs:"

// store is the consumer interface for preference reads (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Repo reads preference documents stored as JSON strings.
type Repo struct {
	store  store
	prefix string
}

// New creates a preference repository. An empty prefix uses DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Get returns the preferences of userID. A user with no stored document
// gets empty preferences. sessionID is accepted for the reader contract;
// the stored document is per user.
func (r *Repo) Get(ctx context.Context, userID, _ string) (preference.Preferences, error) {
	data, err := r.store.Get(ctx, r.prefix+userID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return preference.Empty(userID), nil
		}
		return preference.Preferences{}, fmt.Errorf("%w: %w", domain.ErrPreferenceLookup, err)
	}

	var row preferencesRow
	if err := json.Unmarshal(data, &row); err != nil {
		return preference.Preferences{}, fmt.Errorf("%w: decode %s: %w", domain.ErrPreferenceLookup, userID, err)
	}
	return row.toDomain(userID), nil
}
