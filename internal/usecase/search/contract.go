package search

import (
	"context"

	"github.com/kailas-cloud/relevex/internal/domain/entity"
	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/intent"
	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
	"github.com/kailas-cloud/relevex/internal/index"
	"github.com/kailas-cloud/relevex/internal/usecase/nlp/expansion"
	"github.com/kailas-cloud/relevex/internal/usecase/scoring"
)

// Index runs search requests against the product index.
type Index interface {
	Search(ctx context.Context, index string, body query.Body) (*index.Response, error)
}

// Tokenizer splits query text into lowercase tokens.
type Tokenizer interface {
	Tokens(text string) []string
}

// EntityExtractor recognizes catalog entities in query text.
type EntityExtractor interface {
	Extract(query string, tokens []string) []entity.Entity
}

// IntentDetector classifies query intent.
type IntentDetector interface {
	Detect(query string, tokens []string) intent.Result
}

// QueryExpander adds synonyms to tokenized queries.
type QueryExpander interface {
	Expand(tokens []string) expansion.Result
}

// Scorer wraps a base query with a scoring profile.
type Scorer interface {
	// Resolve maps a profile name to a known profile, falling back to standard.
	Resolve(name string) profile.Profile
	Apply(
		ctx context.Context,
		base query.Clause,
		profileName string,
		user *scoring.User,
		in *intent.Result,
		ents []entity.Entity,
	) query.Clause
}

// Allocator assigns users to AB test variants.
type Allocator interface {
	Select(testID, userID string) (experiment.Assignment, bool)
}

// AnalyticsSink records AB test events without blocking the caller.
type AnalyticsSink interface {
	Track(ctx context.Context, ev experiment.Event)
}
