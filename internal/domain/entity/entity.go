// Package entity holds typed spans recognized in a search query.
package entity

import "fmt"

// Type is the kind of recognized span.
type Type string

// Recognized entity types.
const (
	Category Type = "category"
	Brand    Type = "brand"
	Value    Type = "value"
	Size     Type = "size"
	Color    Type = "color"
	Material Type = "material"
	Price    Type = "price"
	Rating   Type = "rating"
	Date     Type = "date"
)

// Types lists entity types in extraction order.
func Types() []Type {
	return []Type{Category, Brand, Value, Size, Color, Material, Price, Rating, Date}
}

// IsValid reports whether t is a known entity type.
func (t Type) IsValid() bool {
	switch t {
	case Category, Brand, Value, Size, Color, Material, Price, Rating, Date:
		return true
	}
	return false
}

// Entity is a typed value recognized in a query.
type Entity struct {
	typ        Type
	value      string
	confidence float64
}

// New creates an entity. Confidence is clamped to [0, 1].
func New(t Type, value string, confidence float64) (Entity, error) {
	if !t.IsValid() {
		return Entity{}, fmt.Errorf("unknown entity type %q", t)
	}
	if value == "" {
		return Entity{}, fmt.Errorf("entity value is required")
	}
	switch {
	case confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	return Entity{typ: t, value: value, confidence: confidence}, nil
}

// Type returns the entity type.
func (e Entity) Type() Type { return e.typ }

// Value returns the normalized (lowercase) entity value.
func (e Entity) Value() string { return e.value }

// Confidence returns the recognition confidence in [0, 1].
func (e Entity) Confidence() float64 { return e.confidence }

// OfType returns entities of type t, preserving order.
func OfType(ents []Entity, t Type) []Entity {
	var out []Entity
	for _, e := range ents {
		if e.typ == t {
			out = append(out, e)
		}
	}
	return out
}

// Values returns the values of entities of type t, preserving order.
func Values(ents []Entity, t Type) []string {
	var out []string
	for _, e := range ents {
		if e.typ == t {
			out = append(out, e.value)
		}
	}
	return out
}
