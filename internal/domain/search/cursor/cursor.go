// Package cursor implements the opaque forward-only pagination token.
//
// A token is the base64 encoding of {"sort": [...], "order": "...",
// "timestamp": ms}, where sort holds the sort values of the last hit of the
// previous page and order is the signature of the sort it was taken under.
//
// Numbers travel as JSON, so integral values come back as int64 whatever
// their original Go type: float64(2) decodes as int64(2). The index accepts
// either form in search_after.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/relevex/internal/domain"
)

type payload struct {
	Sort      []any  `json:"sort"`
	Order     string `json:"order,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Encode builds a token from the sort values of the last returned hit.
// order identifies the sort those values belong to.
func Encode(sort []any, order string, now time.Time) (string, error) {
	data, err := json.Marshal(payload{Sort: sort, Order: order, Timestamp: now.UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode returns the sort values carried by token. Integral numbers decode
// as int64 and other numbers as float64. A token minted under a different
// order is rejected. Any failure wraps ErrMalformedCursor.
func Decode(token, order string) ([]any, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedCursor, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedCursor, err)
	}
	if len(p.Sort) == 0 {
		return nil, fmt.Errorf("%w: empty sort values", domain.ErrMalformedCursor)
	}
	if p.Order != order {
		return nil, fmt.Errorf("%w: sort order %q does not match %q", domain.ErrMalformedCursor, p.Order, order)
	}

	out := make([]any, len(p.Sort))
	for i, v := range p.Sort {
		out[i] = normalize(v)
	}
	return out, nil
}

func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// Page trims rows fetched with limit+1 to limit and reports whether another
// page exists. When it does, next is the token built from the last kept row.
func Page[T any](rows []T, limit int, order string, sortOf func(T) []any, now time.Time) (kept []T, next string, hasMore bool, err error) {
	if limit <= 0 || len(rows) <= limit {
		return rows, "", false, nil
	}
	kept = rows[:limit]
	next, err = Encode(sortOf(kept[len(kept)-1]), order, now)
	if err != nil {
		return nil, "", false, err
	}
	return kept, next, true, nil
}
