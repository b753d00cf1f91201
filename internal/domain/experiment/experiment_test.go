package experiment

import (
	"testing"
	"time"
)

func validDefinition() Definition {
	return Definition{
		ID:     "search_relevance_test_1",
		Name:   "Search relevance",
		Active: true,
		Variants: []Variant{
			{ID: "control", Algorithm: "standard", Weight: 33},
			{ID: "preference_based", Algorithm: "preference", Weight: 33},
			{ID: "hybrid", Algorithm: "hybrid", Weight: 34},
		},
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewTest_Valid(t *testing.T) {
	tst, err := NewTest(validDefinition())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tst.WeightSum() != TotalWeight {
		t.Errorf("WeightSum() = %d", tst.WeightSum())
	}
	if tst.EventName() != "search_relevance_test_1" {
		t.Errorf("EventName() defaults to id, got %q", tst.EventName())
	}
}

func TestNewTest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Definition)
	}{
		{"no id", func(d *Definition) { d.ID = "" }},
		{"no variants", func(d *Definition) { d.Variants = nil }},
		{"variant without id", func(d *Definition) { d.Variants[0].ID = "" }},
		{"duplicate variant", func(d *Definition) { d.Variants[1].ID = "control" }},
		{"weight above 100", func(d *Definition) { d.Variants[0].Weight = 101 }},
		{"negative weight", func(d *Definition) { d.Variants[0].Weight = -1 }},
		{"end before start", func(d *Definition) { d.EndDate = d.StartDate.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDefinition()
			tt.mutate(&d)
			if _, err := NewTest(d); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEligibleAt(t *testing.T) {
	d := validDefinition()
	d.EndDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tst, _ := NewTest(d)

	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), false},
	}
	for _, c := range cases {
		if got := tst.EligibleAt(c.at); got != c.want {
			t.Errorf("EligibleAt(%s) = %v, want %v", c.at, got, c.want)
		}
	}

	d.Active = false
	inactive, _ := NewTest(d)
	if inactive.EligibleAt(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("inactive test should not be eligible")
	}
}

func TestVariants_ReturnsCopy(t *testing.T) {
	tst, _ := NewTest(validDefinition())
	vs := tst.Variants()
	vs[0].Weight = 0
	if tst.Variants()[0].Weight != 33 {
		t.Error("Variants() exposed internal slice")
	}
}

func TestVariants_CopiesParams(t *testing.T) {
	d := validDefinition()
	d.Variants[1].Params = map[string]string{"boost": "2"}
	tst, err := NewTest(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Variants[1].Params["boost"] = "9"
	vs := tst.Variants()
	vs[1].Params["boost"] = "0"
	vs[1].Params["extra"] = "x"

	got := tst.Variants()[1].Params
	if len(got) != 1 || got["boost"] != "2" {
		t.Errorf("params leaked: %v", got)
	}
}
