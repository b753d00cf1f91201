package query

// ScoreMode combines the scores of several functions.
type ScoreMode string

// Score modes.
const (
	ScoreMultiply ScoreMode = "multiply"
	ScoreSum      ScoreMode = "sum"
	ScoreAvg      ScoreMode = "avg"
	ScoreFirst    ScoreMode = "first"
	ScoreMax      ScoreMode = "max"
	ScoreMin      ScoreMode = "min"
)

// BoostMode combines the function score with the query score.
type BoostMode string

// Boost modes.
const (
	BoostMultiply BoostMode = "multiply"
	BoostReplace  BoostMode = "replace"
	BoostSum      BoostMode = "sum"
	BoostAvg      BoostMode = "avg"
	BoostMax      BoostMode = "max"
	BoostMin      BoostMode = "min"
)

// Modifier transforms a field value before it is multiplied by the factor.
type Modifier string

// Field value modifiers.
const (
	ModifierNone  Modifier = "none"
	ModifierLog1p Modifier = "log1p"
	ModifierSqrt  Modifier = "sqrt"
	ModifierLn1p  Modifier = "ln1p"
)

// DecayKind is the shape of a decay curve.
type DecayKind string

// Decay curves.
const (
	Gauss  DecayKind = "gauss"
	Linear DecayKind = "linear"
	Exp    DecayKind = "exp"
)

// FieldValueFactor scores by a numeric document field.
type FieldValueFactor struct {
	Field    string
	Factor   float64
	Modifier Modifier
	Missing  *float64
}

// Decay scores by distance from an origin.
type Decay struct {
	Kind   DecayKind
	Field  string
	Origin string // empty means the index default ("now" for dates)
	Scale  string
	Offset string
	Decay  float64
}

// Function is one scoring function of a function_score query.
// Exactly one of FieldValueFactor and Decay is set, or neither for a
// pure filter-weight function.
type Function struct {
	Filter           Clause
	Weight           float64
	FieldValueFactor *FieldValueFactor
	Decay            *Decay
}

// WeightFunc boosts documents matching filter by weight.
func WeightFunc(filter Clause, weight float64) Function {
	return Function{Filter: filter, Weight: weight}
}

// FieldFactorFunc scores by a field value.
func FieldFactorFunc(f FieldValueFactor, weight float64) Function {
	return Function{FieldValueFactor: &f, Weight: weight}
}

// DecayFunc scores by a decay curve.
func DecayFunc(d Decay, weight float64) Function {
	return Function{Decay: &d, Weight: weight}
}

// Source returns the JSON DSL representation.
func (f Function) Source() map[string]any {
	body := map[string]any{}
	if f.Filter != nil {
		body["filter"] = f.Filter.Source()
	}
	if f.Weight != 0 {
		body["weight"] = f.Weight
	}
	if fv := f.FieldValueFactor; fv != nil {
		spec := map[string]any{"field": fv.Field}
		if fv.Factor != 0 {
			spec["factor"] = fv.Factor
		}
		if fv.Modifier != "" {
			spec["modifier"] = string(fv.Modifier)
		}
		if fv.Missing != nil {
			spec["missing"] = *fv.Missing
		}
		body["field_value_factor"] = spec
	}
	if d := f.Decay; d != nil {
		params := map[string]any{"scale": d.Scale}
		if d.Origin != "" {
			params["origin"] = d.Origin
		}
		if d.Offset != "" {
			params["offset"] = d.Offset
		}
		if d.Decay != 0 {
			params["decay"] = d.Decay
		}
		body[string(d.Kind)] = map[string]any{d.Field: params}
	}
	return body
}

// Clone returns a deep copy.
func (f Function) Clone() Function {
	c := Function{Weight: f.Weight}
	if f.Filter != nil {
		c.Filter = f.Filter.Clone()
	}
	if f.FieldValueFactor != nil {
		fv := *f.FieldValueFactor
		fv.Missing = copyFloat(fv.Missing)
		c.FieldValueFactor = &fv
	}
	if f.Decay != nil {
		d := *f.Decay
		c.Decay = &d
	}
	return c
}

// CloneFunctions deep-copies a function list.
func CloneFunctions(fs []Function) []Function {
	if fs == nil {
		return nil
	}
	out := make([]Function, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
	}
	return out
}

// FunctionScore wraps a query with scoring functions.
type FunctionScore struct {
	Query     Clause
	Functions []Function
	ScoreMode ScoreMode
	BoostMode BoostMode
}

// Source implements Clause.
func (fs FunctionScore) Source() map[string]any {
	body := map[string]any{}
	if fs.Query != nil {
		body["query"] = fs.Query.Source()
	}
	if len(fs.Functions) > 0 {
		fns := make([]map[string]any, len(fs.Functions))
		for i, f := range fs.Functions {
			fns[i] = f.Source()
		}
		body["functions"] = fns
	}
	if fs.ScoreMode != "" {
		body["score_mode"] = string(fs.ScoreMode)
	}
	if fs.BoostMode != "" {
		body["boost_mode"] = string(fs.BoostMode)
	}
	return map[string]any{"function_score": body}
}

// Clone implements Clause.
func (fs FunctionScore) Clone() Clause {
	c := FunctionScore{ScoreMode: fs.ScoreMode, BoostMode: fs.BoostMode, Functions: CloneFunctions(fs.Functions)}
	if fs.Query != nil {
		c.Query = fs.Query.Clone()
	}
	return c
}
