package query

import (
	"encoding/json"
	"testing"
)

func TestClone_DoesNotShareState(t *testing.T) {
	orig := FunctionScore{
		Query: Bool{
			Must:   []Clause{MultiMatch{Query: "dress", Fields: []string{"name^3"}}},
			Filter: []Clause{Terms{Field: "categories.keyword", Values: []string{"dresses"}}},
		},
		Functions: []Function{
			WeightFunc(Exists{Field: "name"}, 3),
			FieldFactorFunc(FieldValueFactor{Field: "rating", Factor: 2, Modifier: ModifierSqrt, Missing: Float(1)}, 1),
		},
		ScoreMode: ScoreSum,
		BoostMode: BoostMultiply,
	}

	cp := orig.Clone().(FunctionScore)
	cp.Functions = append(cp.Functions, WeightFunc(Exists{Field: "brand"}, 1))
	cp.Functions[1].FieldValueFactor.Factor = 99
	*cp.Functions[1].FieldValueFactor.Missing = 42
	b := cp.Query.(Bool)
	b.Filter[0].(Terms).Values[0] = "changed"
	b.Must[0].(MultiMatch).Fields[0] = "changed"

	if len(orig.Functions) != 2 {
		t.Fatalf("original functions mutated: %d", len(orig.Functions))
	}
	if orig.Functions[1].FieldValueFactor.Factor != 2 {
		t.Errorf("factor shared: %v", orig.Functions[1].FieldValueFactor.Factor)
	}
	if *orig.Functions[1].FieldValueFactor.Missing != 1 {
		t.Errorf("missing shared: %v", *orig.Functions[1].FieldValueFactor.Missing)
	}
	ob := orig.Query.(Bool)
	if ob.Filter[0].(Terms).Values[0] != "dresses" {
		t.Error("terms values shared")
	}
	if ob.Must[0].(MultiMatch).Fields[0] != "name^3" {
		t.Error("multi_match fields shared")
	}
}

func TestFunctionScore_Source(t *testing.T) {
	fs := FunctionScore{
		Query: MatchAll{},
		Functions: []Function{
			DecayFunc(Decay{Kind: Gauss, Field: "createdAt", Origin: "now", Scale: "30d", Offset: "5d", Decay: 0.5}, 1.5),
			WeightFunc(Term{Field: "inStock", Value: true}, 1.2),
		},
		ScoreMode: ScoreSum,
		BoostMode: BoostMultiply,
	}
	data, err := json.Marshal(fs.Source())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"function_score":{"boost_mode":"multiply","functions":[` +
		`{"gauss":{"createdAt":{"decay":0.5,"offset":"5d","origin":"now","scale":"30d"}},"weight":1.5},` +
		`{"filter":{"term":{"inStock":true}},"weight":1.2}],` +
		`"query":{"match_all":{}},"score_mode":"sum"}}`
	if string(data) != want {
		t.Errorf("unexpected source:\ngot:  %s\nwant: %s", data, want)
	}
}

func TestRange_OmitsNilBounds(t *testing.T) {
	r := Range{Field: "price", LTE: Float(50)}
	data, _ := json.Marshal(r.Source())
	if string(data) != `{"range":{"price":{"lte":50}}}` {
		t.Errorf("unexpected: %s", data)
	}
}

func TestMultiMatch_Boost(t *testing.T) {
	m := MultiMatch{Query: "gown frock", Fields: []string{"title^3"}, Boost: 0.5}
	data, _ := json.Marshal(m.Source())
	if string(data) != `{"multi_match":{"boost":0.5,"fields":["title^3"],"query":"gown frock"}}` {
		t.Errorf("unexpected: %s", data)
	}
}

func TestBody_MarshalJSON(t *testing.T) {
	body := Body{
		Query:       MatchAll{},
		Sort:        []SortField{{Field: "_score", Order: Desc}, {Field: "id", Order: Asc}},
		SearchAfter: []any{1.5, "p-1"},
		Size:        21,
		Aggs: map[string]Aggregation{
			"brands":    TermsAgg{Field: "brandName.keyword", Size: 20},
			"avg_price": MetricAgg{Kind: MetricAvg, Field: "price"},
			"price_ranges": RangeAgg{Field: "price", Ranges: []RangeBucket{
				{To: Float(25)}, {From: Float(200)},
			}},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"aggs":{"avg_price":{"avg":{"field":"price"}},` +
		`"brands":{"terms":{"field":"brandName.keyword","size":20}},` +
		`"price_ranges":{"range":{"field":"price","ranges":[{"to":25},{"from":200}]}}},` +
		`"query":{"match_all":{}},"search_after":[1.5,"p-1"],"size":21,` +
		`"sort":[{"_score":{"order":"desc"}},{"id":{"order":"asc"}}]}`
	if string(data) != want {
		t.Errorf("unexpected body:\ngot:  %s\nwant: %s", data, want)
	}
}

func TestOrder_IsValid(t *testing.T) {
	if !Asc.IsValid() || !Desc.IsValid() {
		t.Error("asc/desc should be valid")
	}
	if Order("up").IsValid() {
		t.Error("up should be invalid")
	}
}
