// Package query is a typed builder for index query clauses.
//
// Every clause renders to the index JSON DSL through Source and can be
// deep-copied with Clone, so shared base clauses are never mutated.
package query

// Clause is a node of the query tree.
type Clause interface {
	// Source returns the JSON DSL representation.
	Source() map[string]any
	// Clone returns a deep copy.
	Clone() Clause
}

// MatchAll matches every document.
type MatchAll struct{}

// Source implements Clause.
func (MatchAll) Source() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

// Clone implements Clause.
func (MatchAll) Clone() Clause { return MatchAll{} }

// MultiMatch runs a full-text query across weighted fields.
type MultiMatch struct {
	Query        string
	Fields       []string // "field^boost" notation
	Type         string
	Fuzziness    string
	PrefixLength int
	TieBreaker   float64
	Boost        float64 // zero leaves the index default
}

// Source implements Clause.
func (m MultiMatch) Source() map[string]any {
	body := map[string]any{"query": m.Query}
	if len(m.Fields) > 0 {
		body["fields"] = append([]string(nil), m.Fields...)
	}
	if m.Type != "" {
		body["type"] = m.Type
	}
	if m.Fuzziness != "" {
		body["fuzziness"] = m.Fuzziness
	}
	if m.PrefixLength > 0 {
		body["prefix_length"] = m.PrefixLength
	}
	if m.TieBreaker > 0 {
		body["tie_breaker"] = m.TieBreaker
	}
	if m.Boost > 0 {
		body["boost"] = m.Boost
	}
	return map[string]any{"multi_match": body}
}

// Clone implements Clause.
func (m MultiMatch) Clone() Clause {
	c := m
	c.Fields = append([]string(nil), m.Fields...)
	return c
}

// Match is a single-field full-text match.
type Match struct {
	Field string
	Query string
}

// Source implements Clause.
func (m Match) Source() map[string]any {
	return map[string]any{"match": map[string]any{m.Field: m.Query}}
}

// Clone implements Clause.
func (m Match) Clone() Clause { return m }

// Term is an exact value match. Value is a string, bool or number.
type Term struct {
	Field string
	Value any
}

// Source implements Clause.
func (t Term) Source() map[string]any {
	return map[string]any{"term": map[string]any{t.Field: t.Value}}
}

// Clone implements Clause.
func (t Term) Clone() Clause { return t }

// Terms matches any of the given exact values.
type Terms struct {
	Field  string
	Values []string
}

// Source implements Clause.
func (t Terms) Source() map[string]any {
	return map[string]any{"terms": map[string]any{t.Field: append([]string(nil), t.Values...)}}
}

// Clone implements Clause.
func (t Terms) Clone() Clause {
	return Terms{Field: t.Field, Values: append([]string(nil), t.Values...)}
}

// Range is a numeric range. Nil bounds are omitted.
type Range struct {
	Field string
	GT    *float64
	GTE   *float64
	LT    *float64
	LTE   *float64
}

// Source implements Clause.
func (r Range) Source() map[string]any {
	bounds := map[string]any{}
	if r.GT != nil {
		bounds["gt"] = *r.GT
	}
	if r.GTE != nil {
		bounds["gte"] = *r.GTE
	}
	if r.LT != nil {
		bounds["lt"] = *r.LT
	}
	if r.LTE != nil {
		bounds["lte"] = *r.LTE
	}
	return map[string]any{"range": map[string]any{r.Field: bounds}}
}

// Clone implements Clause.
func (r Range) Clone() Clause {
	return Range{Field: r.Field, GT: copyFloat(r.GT), GTE: copyFloat(r.GTE), LT: copyFloat(r.LT), LTE: copyFloat(r.LTE)}
}

// Exists matches documents with a non-null field.
type Exists struct {
	Field string
}

// Source implements Clause.
func (e Exists) Source() map[string]any {
	return map[string]any{"exists": map[string]any{"field": e.Field}}
}

// Clone implements Clause.
func (e Exists) Clone() Clause { return e }

// Bool combines clauses with boolean semantics.
type Bool struct {
	Must               []Clause
	Filter             []Clause
	Should             []Clause
	MustNot            []Clause
	MinimumShouldMatch int
}

// Source implements Clause.
func (b Bool) Source() map[string]any {
	body := map[string]any{}
	putClauses(body, "must", b.Must)
	putClauses(body, "filter", b.Filter)
	putClauses(body, "should", b.Should)
	putClauses(body, "must_not", b.MustNot)
	if b.MinimumShouldMatch > 0 {
		body["minimum_should_match"] = b.MinimumShouldMatch
	}
	return map[string]any{"bool": body}
}

// Clone implements Clause.
func (b Bool) Clone() Clause {
	return Bool{
		Must:               cloneAll(b.Must),
		Filter:             cloneAll(b.Filter),
		Should:             cloneAll(b.Should),
		MustNot:            cloneAll(b.MustNot),
		MinimumShouldMatch: b.MinimumShouldMatch,
	}
}

// IsEmpty reports whether the bool clause has no children.
func (b Bool) IsEmpty() bool {
	return len(b.Must) == 0 && len(b.Filter) == 0 && len(b.Should) == 0 && len(b.MustNot) == 0
}

func putClauses(body map[string]any, key string, cs []Clause) {
	if len(cs) == 0 {
		return
	}
	out := make([]map[string]any, len(cs))
	for i, c := range cs {
		out[i] = c.Source()
	}
	body[key] = out
}

func cloneAll(cs []Clause) []Clause {
	if cs == nil {
		return nil
	}
	out := make([]Clause, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
