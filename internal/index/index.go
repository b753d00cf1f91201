// Package index defines the document index contract used by the search
// pipeline and the raw response shapes it reads back.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
)

// Client is the index facade.
type Client interface {
	Pinger
	Searcher
}

// Pinger checks index connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs a search request against an index.
type Searcher interface {
	Search(ctx context.Context, index string, body query.Body) (*Response, error)
}

// Hit is one raw document returned by the index.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
	Sort   []any
}

// Bucket is one bucket of a terms or range aggregation.
type Bucket struct {
	Key      string
	DocCount int64
	From     *float64
	To       *float64
}

// Aggregation is a decoded aggregation result. Bucket aggregations fill
// Buckets, metric aggregations fill Value.
type Aggregation struct {
	Buckets []Bucket
	Value   *float64
}

// Response is a decoded search response.
type Response struct {
	Total        int64
	Hits         []Hit
	Aggregations map[string]Aggregation
	TookMillis   int64
}

// Error is an index error response.
type Error struct {
	Status int
	Type   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("index error %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Unwrap maps server-side failures to ErrIndexUnavailable and everything
// else to ErrQueryFailed.
func (e *Error) Unwrap() error {
	if e.Status >= 500 || e.Status == 0 {
		return domain.ErrIndexUnavailable
	}
	return domain.ErrQueryFailed
}

// IsUnavailable reports whether err means the index could not serve requests.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrIndexUnavailable)
}
