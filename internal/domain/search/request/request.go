package request

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/search/filter"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 512
	DefaultLimit   = 20
	MaxLimit       = 100
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Params holds raw search inputs as received at the boundary.
type Params struct {
	Query         string `validate:"max=512"`
	Filters       filter.Params
	Cursor        string `validate:"max=4096"`
	Limit         int    `validate:"gte=0"`
	SortField     string `validate:"omitempty,oneof=price rating createdAt popularity reviewCount name"`
	SortOrder     string `validate:"omitempty,oneof=asc desc"`
	SessionID     string `validate:"max=128"`
	UserID        string `validate:"max=128"`
	Profile       string `validate:"omitempty,max=64"`
	TestID        string `validate:"omitempty,max=128"`
	IncludeFacets bool
}

// Request is a validated search request.
type Request struct {
	query         string
	filters       filter.Filters
	cursor        string
	limit         int
	sort          *query.SortField
	sessionID     string
	userID        string
	profile       string
	testID        string
	includeFacets bool
}

// New validates and normalizes search parameters.
// Limit defaults to DefaultLimit and is clamped to MaxLimit. A sort order
// without a field is ignored; a field without an order sorts descending.
func New(p Params) (Request, error) {
	if err := validate.Struct(p); err != nil {
		return Request{}, validationError(err)
	}

	filters, err := filter.New(p.Filters)
	if err != nil {
		return Request{}, domain.NewValidationError("filters", err.Error())
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var sort *query.SortField
	if p.SortField != "" {
		order := query.Order(p.SortOrder)
		if order == "" {
			order = query.Desc
		}
		sort = &query.SortField{Field: p.SortField, Order: order}
	}

	return Request{
		query:         strings.TrimSpace(p.Query),
		filters:       filters,
		cursor:        p.Cursor,
		limit:         limit,
		sort:          sort,
		sessionID:     p.SessionID,
		userID:        p.UserID,
		profile:       p.Profile,
		testID:        p.TestID,
		includeFacets: p.IncludeFacets,
	}, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(lowerFirst(fe.Field()), fmt.Sprintf("failed %q check", fe.Tag()))
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Query returns the trimmed query text. Empty means browse.
func (r *Request) Query() string { return r.query }

// Filters returns the explicit filters.
func (r *Request) Filters() filter.Filters { return r.filters }

// Cursor returns the opaque pagination token.
func (r *Request) Cursor() string { return r.cursor }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Sort returns the explicit sort, nil for relevance order.
func (r *Request) Sort() *query.SortField { return r.sort }

// SessionID returns the caller session id.
func (r *Request) SessionID() string { return r.sessionID }

// UserID returns the caller user id.
func (r *Request) UserID() string { return r.userID }

// Profile returns the requested scoring profile name.
func (r *Request) Profile() string { return r.profile }

// TestID returns the AB test the request participates in.
func (r *Request) TestID() string { return r.testID }

// IncludeFacets reports whether aggregations should be computed.
func (r *Request) IncludeFacets() bool { return r.includeFacets }

// WithLimit returns a copy with the page size replaced.
func (r *Request) WithLimit(limit int) Request {
	c := *r
	c.limit = limit
	return c
}
