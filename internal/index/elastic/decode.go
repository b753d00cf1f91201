package elastic

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/relevex/internal/index"
)

type rawSearch struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []rawHit `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]rawAgg `json:"aggregations"`
}

type rawHit struct {
	ID     string          `json:"_id"`
	Score  *json.Number    `json:"_score"`
	Source json.RawMessage `json:"_source"`
	Sort   []any           `json:"sort"`
}

type rawAgg struct {
	Buckets []rawBucket  `json:"buckets"`
	Value   *json.Number `json:"value"`
}

type rawBucket struct {
	Key         any          `json:"key"`
	KeyAsString string       `json:"key_as_string"`
	DocCount    int64        `json:"doc_count"`
	From        *json.Number `json:"from"`
	To          *json.Number `json:"to"`
}

type rawError struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type rawErrorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func decodeSearch(r io.Reader) (*index.Response, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw rawSearch
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	resp := &index.Response{
		Total:      raw.Hits.Total.Value,
		TookMillis: raw.Took,
		Hits:       make([]index.Hit, len(raw.Hits.Hits)),
	}
	for i, h := range raw.Hits.Hits {
		hit := index.Hit{ID: h.ID, Source: h.Source}
		if f := numberPtr(h.Score); f != nil {
			hit.Score = *f
		}
		if len(h.Sort) > 0 {
			hit.Sort = make([]any, len(h.Sort))
			for j, v := range h.Sort {
				hit.Sort[j] = normalize(v)
			}
		}
		resp.Hits[i] = hit
	}

	if len(raw.Aggregations) > 0 {
		resp.Aggregations = make(map[string]index.Aggregation, len(raw.Aggregations))
		for name, a := range raw.Aggregations {
			agg := index.Aggregation{Value: numberPtr(a.Value)}
			for _, b := range a.Buckets {
				agg.Buckets = append(agg.Buckets, index.Bucket{
					Key:      bucketKey(b),
					DocCount: b.DocCount,
					From:     numberPtr(b.From),
					To:       numberPtr(b.To),
				})
			}
			resp.Aggregations[name] = agg
		}
	}
	return resp, nil
}

func decodeError(res *esapi.Response) *index.Error {
	e := &index.Error{Status: res.StatusCode, Type: "unknown", Reason: res.Status()}

	var raw rawError
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil || len(raw.Error) == 0 {
		return e
	}
	var cause rawErrorCause
	if err := json.Unmarshal(raw.Error, &cause); err == nil && cause.Type != "" {
		e.Type = cause.Type
		e.Reason = cause.Reason
		return e
	}
	var msg string
	if err := json.Unmarshal(raw.Error, &msg); err == nil {
		e.Reason = msg
	}
	return e
}

func bucketKey(b rawBucket) string {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}
	switch k := b.Key.(type) {
	case string:
		return k
	case json.Number:
		return k.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(k)
	}
}

func numberPtr(n *json.Number) *float64 {
	if n == nil {
		return nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil
	}
	return &f
}

// normalize turns json.Number sort values into int64 or float64 so they
// survive a cursor round trip unchanged.
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
