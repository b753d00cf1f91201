package intent

import "testing"

func TestAll_DeclarationOrder(t *testing.T) {
	all := All()
	if len(all) != 10 {
		t.Fatalf("expected 10 intents, got %d", len(all))
	}
	if all[0] != ProductSearch || all[9] != Sort {
		t.Errorf("unexpected order: %v", all)
	}
	for _, l := range all {
		if !l.IsValid() {
			t.Errorf("%s should be valid", l)
		}
	}
	if Label("shopping").IsValid() {
		t.Error("unknown label should be invalid")
	}
}

func TestNewResult_ClampsAndCopies(t *testing.T) {
	subs := []Scored{NewScored(Filter, 1.7), NewScored(Sort, -0.2)}
	r := NewResult(PriceQuery, 2, subs)

	if r.Confidence() != 1 {
		t.Errorf("confidence = %v, want 1", r.Confidence())
	}
	got := r.SubIntents()
	if got[0].Confidence() != 1 || got[1].Confidence() != 0 {
		t.Errorf("sub-intents not clamped: %+v", got)
	}

	subs[0] = NewScored(Comparison, 0.3)
	got[1] = NewScored(Comparison, 0.3)
	again := r.SubIntents()
	if again[0].Label() != Filter || again[1].Label() != Sort {
		t.Errorf("result shares memory with caller: %+v", again)
	}
}

func TestFallback(t *testing.T) {
	r := Fallback()
	if r.Label() != ProductSearch || r.Confidence() != FallbackConfidence {
		t.Errorf("fallback = %s %v", r.Label(), r.Confidence())
	}
	if subs := r.SubIntents(); len(subs) != 0 {
		t.Errorf("fallback sub-intents = %v", subs)
	}
}
