package scoring

import (
	"context"

	"github.com/kailas-cloud/relevex/internal/domain/preference"
)

// PreferenceReader loads a user's stored preferences. A non-empty
// sessionID asks for a fresh read.
type PreferenceReader interface {
	Get(ctx context.Context, userID, sessionID string) (preference.Preferences, error)
}
