// Package experiment holds AB test definitions and assignments.
package experiment

import (
	"fmt"
	"time"
)

// TotalWeight is the bucket space variants are drawn from.
const TotalWeight = 100

// Variant is one arm of an AB test.
type Variant struct {
	ID        string
	Algorithm string
	Weight    int
	Params    map[string]string
}

// Test is an AB test definition. Tests are read-only after construction.
type Test struct {
	id          string
	name        string
	description string
	variants    []Variant
	startDate   time.Time
	endDate     time.Time
	active      bool
	eventName   string
}

// Definition holds the raw inputs of NewTest.
type Definition struct {
	ID          string
	Name        string
	Description string
	Variants    []Variant
	StartDate   time.Time
	EndDate     time.Time // zero means open-ended
	Active      bool
	EventName   string
}

// NewTest validates and creates a test. Weights that do not sum to
// TotalWeight are accepted; see WeightSum.
func NewTest(d Definition) (Test, error) {
	if d.ID == "" {
		return Test{}, fmt.Errorf("test id is required")
	}
	if len(d.Variants) == 0 {
		return Test{}, fmt.Errorf("test %s: at least one variant is required", d.ID)
	}
	seen := make(map[string]struct{}, len(d.Variants))
	variants := make([]Variant, len(d.Variants))
	for i, v := range d.Variants {
		if v.ID == "" {
			return Test{}, fmt.Errorf("test %s: variant %d: id is required", d.ID, i)
		}
		if _, dup := seen[v.ID]; dup {
			return Test{}, fmt.Errorf("test %s: duplicate variant %q", d.ID, v.ID)
		}
		seen[v.ID] = struct{}{}
		if v.Weight < 0 || v.Weight > TotalWeight {
			return Test{}, fmt.Errorf("test %s: variant %s: weight must be between 0 and %d", d.ID, v.ID, TotalWeight)
		}
		v.Params = cloneParams(v.Params)
		variants[i] = v
	}
	if !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate) {
		return Test{}, fmt.Errorf("test %s: end date precedes start date", d.ID)
	}
	event := d.EventName
	if event == "" {
		event = d.ID
	}
	return Test{
		id:          d.ID,
		name:        d.Name,
		description: d.Description,
		variants:    variants,
		startDate:   d.StartDate,
		endDate:     d.EndDate,
		active:      d.Active,
		eventName:   event,
	}, nil
}

// ID returns the test identifier.
func (t Test) ID() string { return t.id }

// Name returns the display name.
func (t Test) Name() string { return t.name }

// Description returns the test description.
func (t Test) Description() string { return t.description }

// Variants returns a deep copy of the variants in declaration order.
func (t Test) Variants() []Variant {
	out := make([]Variant, len(t.variants))
	for i, v := range t.variants {
		v.Params = cloneParams(v.Params)
		out[i] = v
	}
	return out
}

func cloneParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// StartDate returns when the test starts.
func (t Test) StartDate() time.Time { return t.startDate }

// EndDate returns when the test ends; zero means open-ended.
func (t Test) EndDate() time.Time { return t.endDate }

// Active reports the operator switch.
func (t Test) Active() bool { return t.active }

// EventName returns the analytics event name.
func (t Test) EventName() string { return t.eventName }

// WeightSum returns the sum of variant weights.
func (t Test) WeightSum() int {
	sum := 0
	for _, v := range t.variants {
		sum += v.Weight
	}
	return sum
}

// EligibleAt reports whether the test is active and now falls in its window.
func (t Test) EligibleAt(now time.Time) bool {
	if !t.active {
		return false
	}
	if now.Before(t.startDate) {
		return false
	}
	if !t.endDate.IsZero() && now.After(t.endDate) {
		return false
	}
	return true
}

// Assignment is the variant a user was bucketed into.
type Assignment struct {
	TestID    string
	VariantID string
	Algorithm string
	Params    map[string]string
	EventName string
}

// Event is the analytics record for a search under an AB test.
type Event struct {
	ID            string    `json:"id"`
	Event         string    `json:"event"`
	EventCategory string    `json:"event_category"`
	EventLabel    string    `json:"event_label"`
	TestID        string    `json:"ab_test_id"`
	VariantID     string    `json:"variant_id"`
	UserID        string    `json:"user_id,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	ResultCount   int       `json:"result_count"`
	Timestamp     time.Time `json:"timestamp"`
}
